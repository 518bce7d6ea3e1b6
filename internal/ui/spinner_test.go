package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_AnimatesAndClears(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinnerTo(out)

	s.Start("Searching 'diapers'...")
	require.True(t, s.Running())
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Searching 'diapers'...")
	}, time.Second, 10*time.Millisecond)

	s.Update("Loading page 2...")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Loading page 2...")
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	assert.True(t, strings.HasSuffix(out.String(), "\r\033[K"))

	// Stopping twice is harmless.
	s.Stop()
}
