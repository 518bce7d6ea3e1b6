package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/config"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
)

func TestOutboundLimiter(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
		burst     int
		wantLimit rate.Limit
		wantBurst int
	}{
		{"configured", 2.5, 5, 2.5, 5},
		{"zero rate", 0, 5, 10, 5},
		{"negative rate and burst", -1, -3, 10, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := outboundLimiter(tt.perSecond, tt.burst)
			assert.Equal(t, tt.wantLimit, l.Limit())
			assert.Equal(t, tt.wantBurst, l.Burst())
		})
	}
}

func TestNewReporter_Filters(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ErrorIgnore = []string{"broken pipe"}

	var buf bytes.Buffer
	r := newReporter(cfg, log.New(&buf, "", 0))
	ctx := context.Background()

	r.Report(ctx, "search", context.Canceled)
	r.Report(ctx, "add", fmt.Errorf("add item: %w", services.ErrAddInFlight))
	r.Report(ctx, "add", services.ErrAuthRequired)
	r.Report(ctx, "search", errors.New("write tcp: broken pipe"))
	r.Report(ctx, "search", errors.New("dial tcp: connection refused"))

	reported, suppressed := r.Counts()
	assert.Equal(t, uint64(1), reported)
	assert.Equal(t, uint64(4), suppressed)
	assert.Equal(t, "search error: dial tcp: connection refused\n", buf.String())
}

func TestNew_MemoryCacheAndBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RatePerSecond = 0

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "memory", a.Cache.Backend())
	assert.NotNil(t, a.Resolver)
	assert.NotNil(t, a.NewAdder())

	cfg = config.DefaultConfig()
	cfg.SearchBackend = "carrier-pigeon"
	_, err = New(cfg)
	assert.Error(t, err)
}
