package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/debounce"
)

const (
	BackendAPI    = "api"
	BackendScrape = "scrape"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Port string

	// Cache
	Cache cache.Config

	// MyNeedfully API
	APIURL       string
	Token        string
	AffiliateTag string
	HTTPTimeout  time.Duration

	// Search
	SearchBackend  string // "api" or "scrape"
	Debounce       time.Duration
	PopularEnabled bool

	// Rate limiting (per client IP on the gateway, outbound on the API client)
	RatePerSecond float64
	RateBurst     int

	// Error messages containing any of these are not logged
	ErrorIgnore []string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:           "8085",
		Cache:          cache.DefaultConfig(),
		APIURL:         "http://localhost:5000",
		AffiliateTag:   "myneedfully-20",
		HTTPTimeout:    30 * time.Second,
		SearchBackend:  BackendAPI,
		Debounce:       debounce.DefaultInterval,
		PopularEnabled: true,
		RatePerSecond:  10,
		RateBurst:      20,
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.RedisDB = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, ok := parseDuration(v, time.Second); ok {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cache.Capacity = n
		}
	}
	if v := os.Getenv("NEEDFULLY_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("NEEDFULLY_TOKEN"); v != "" {
		c.Token = v
	}
	if v, ok := os.LookupEnv("NEEDFULLY_AFFILIATE_TAG"); ok {
		c.AffiliateTag = v
	}
	if v := os.Getenv("NEEDFULLY_SEARCH_BACKEND"); v != "" {
		c.SearchBackend = strings.ToLower(v)
	}
	if v := os.Getenv("NEEDFULLY_DEBOUNCE_MS"); v != "" {
		if d, ok := parseDuration(v, time.Millisecond); ok {
			c.Debounce = d
		}
	}
	if v := os.Getenv("NEEDFULLY_POPULAR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PopularEnabled = b
		}
	}
	if v := os.Getenv("RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		if d, ok := parseDuration(v, time.Second); ok {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv("NEEDFULLY_ERROR_IGNORE"); v != "" {
		c.ErrorIgnore = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.ErrorIgnore = append(c.ErrorIgnore, s)
			}
		}
	}
}

// parseDuration accepts Go durations ("90s") or bare numbers in unit.
func parseDuration(v string, unit time.Duration) (time.Duration, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * unit, n >= 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
