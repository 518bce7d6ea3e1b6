// Package cli is the needfully command line: one-shot and interactive
// product search, needs lists and the MCP server.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/config"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/app"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "needfully",
	Short:         "MyNeedfully product search",
	Long:          "Search retailers for essentials and add them to MyNeedfully needs lists, from the terminal or over MCP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("api-url", "", "MyNeedfully API base URL")
	rootCmd.PersistentFlags().String("token", "", "Session token for needs lists")
	rootCmd.PersistentFlags().String("backend", "", "Search backend: api, scrape")
	rootCmd.PersistentFlags().String("cache", "", "Cache backend: memory, redis")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for the redis cache")
	rootCmd.PersistentFlags().Duration("debounce", 0, "Quiet period before a typed search runs")
	rootCmd.PersistentFlags().Bool("no-popular", false, "Do not show popular products for short queries")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log cache and request activity to stderr")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	flags := rootCmd.PersistentFlags()
	if v, _ := flags.GetString("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := flags.GetString("token"); v != "" {
		cfg.Token = v
	}
	if v, _ := flags.GetString("backend"); v != "" {
		cfg.SearchBackend = v
	}
	if v, _ := flags.GetString("cache"); v != "" {
		cfg.Cache.Backend = v
	}
	if v, _ := flags.GetString("redis-url"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v, _ := flags.GetDuration("debounce"); v > 0 {
		cfg.Debounce = v
	}
	if v, _ := flags.GetBool("no-popular"); v {
		cfg.PopularEnabled = false
	}
	if v, _ := flags.GetBool("verbose"); !v {
		log.SetOutput(io.Discard)
	}
}

// buildApp wires the services for a command run.
func buildApp() (*app.App, error) {
	if cfg == nil {
		initConfig()
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	return a, nil
}
