// Package errreport is the single place boundary errors are logged. The
// filtering policy is fixed when the reporter is built at startup and
// passed to whoever needs it.
package errreport

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Filter reports whether err should be dropped instead of logged.
type Filter func(err error) bool

// Reporter records errors that reach a boundary (a session, a handler, a
// recovered panic).
type Reporter interface {
	Report(ctx context.Context, scope string, err error)
}

type LogReporter struct {
	logger     *log.Logger
	filters    []Filter
	reported   atomic.Uint64
	suppressed atomic.Uint64
}

// New returns a reporter writing to logger (stderr when nil).
func New(logger *log.Logger, filters ...Filter) *LogReporter {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &LogReporter{logger: logger, filters: filters}
}

// Default drops cancellations, which only mean the caller went away.
func Default(logger *log.Logger) *LogReporter {
	return New(logger, IgnoreCanceled)
}

func (r *LogReporter) Report(ctx context.Context, scope string, err error) {
	if err == nil {
		return
	}
	for _, f := range r.filters {
		if f(err) {
			r.suppressed.Add(1)
			return
		}
	}
	r.reported.Add(1)

	if id, ok := RequestID(ctx); ok {
		r.logger.Printf("[%s] %s error: %v", id, scope, err)
		return
	}
	r.logger.Printf("%s error: %v", scope, err)
}

// Counts returns how many errors were logged and how many were filtered.
func (r *LogReporter) Counts() (reported, suppressed uint64) {
	return r.reported.Load(), r.suppressed.Load()
}

func IgnoreCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IgnoreIs drops errors matching any of targets.
func IgnoreIs(targets ...error) Filter {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// IgnoreContaining drops errors whose message contains any of substrings.
func IgnoreContaining(substrings ...string) Filter {
	return func(err error) bool {
		msg := err.Error()
		for _, s := range substrings {
			if s != "" && strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
