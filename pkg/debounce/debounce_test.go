package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	values []string
	fired  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func waitFired(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	rec := newRecorder()
	d := New(40*time.Millisecond, rec.record)
	defer d.Stop()

	for _, v := range []string{"t", "ti", "tid", "tide"} {
		d.Push(v)
		time.Sleep(5 * time.Millisecond)
	}

	waitFired(t, rec)
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, []string{"tide"}, rec.snapshot())
}

func TestDebouncer_PropagatesEmptyValue(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)
	defer d.Stop()

	d.Push("diapers")
	waitFired(t, rec)
	d.Push("")
	waitFired(t, rec)

	assert.Equal(t, []string{"diapers", ""}, rec.snapshot())
}

func TestDebouncer_RestartsOnEachPush(t *testing.T) {
	rec := newRecorder()
	d := New(60*time.Millisecond, rec.record)
	defer d.Stop()

	start := time.Now()
	d.Push("a")
	time.Sleep(40 * time.Millisecond)
	d.Push("ab")
	waitFired(t, rec)

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, []string{"ab"}, rec.snapshot())
}

func TestDebouncer_Flush(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.record)
	defer d.Stop()

	d.Push("wipes")
	require.True(t, d.Pending())

	d.Flush()
	waitFired(t, rec)

	assert.False(t, d.Pending())
	assert.Equal(t, []string{"wipes"}, rec.snapshot())
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)

	d.Push("blanket")
	d.Stop()
	d.Push("ignored")
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, rec.snapshot())
}

func TestNew_DefaultInterval(t *testing.T) {
	d := New(0, func(string) {})
	assert.Equal(t, DefaultInterval, d.interval)
}
