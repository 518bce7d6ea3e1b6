package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/config"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/api"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/app"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up search services: %v", err)
	}

	ctrl := api.NewController(api.Deps{
		Resolver: a.Resolver,
		Lists:    a.Lists,
		Cache:    a.Cache,
		Reporter: a.Reporter,
		NewAdder: func() *services.Adder { return a.NewAdder() },
	})
	limiter := api.NewRateLimiter(cfg.RatePerSecond, cfg.RateBurst)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(ctrl, limiter, a.Reporter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting search gateway on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Println("Shutting down search gateway...")
				return srv.Shutdown(ctx)
			},
			"cache": func(context.Context) error {
				return a.Close()
			},
		},
	)

	exitCode := <-wait
	reported, suppressed := a.Reporter.Counts()
	log.Printf("Server exited with code %d (%d errors reported, %d suppressed)", exitCode, reported, suppressed)
	os.Exit(exitCode)
}
