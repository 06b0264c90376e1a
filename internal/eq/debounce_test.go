package eq

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type calls struct {
	mu  sync.Mutex
	got map[int][]float64
}

func (c *calls) record(key int, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.got == nil {
		c.got = map[int][]float64{}
	}
	c.got[key] = append(c.got[key], v)
}

func (c *calls) snapshot() map[int][]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := map[int][]float64{}
	for k, v := range c.got {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

func TestDebouncer_TrailingEdgeLastWins(t *testing.T) {
	var c calls
	d := NewDebouncer(50*time.Millisecond, c.record)

	for i := range 50 {
		require.NoError(t, d.Trigger(3, float64(i)))
	}
	require.Eventually(t, func() bool { return len(c.snapshot()[3]) > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, map[int][]float64{3: {49}}, c.snapshot())
}

func TestDebouncer_KeysIndependent(t *testing.T) {
	var c calls
	d := NewDebouncer(20*time.Millisecond, c.record)

	require.NoError(t, d.Trigger(1, 1))
	require.NoError(t, d.Trigger(2, 2))
	require.Eventually(t, func() bool { return len(c.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, map[int][]float64{1: {1}, 2: {2}}, c.snapshot())
}

func TestDebouncer_FlushAndCancel(t *testing.T) {
	var c calls
	d := NewDebouncer(time.Hour, c.record)

	require.NoError(t, d.Trigger(1, 10))
	require.NoError(t, d.Trigger(2, 20))
	assert.Equal(t, 2, d.Pending())

	d.Flush()
	assert.Zero(t, d.Pending())
	assert.Equal(t, map[int][]float64{1: {10}, 2: {20}}, c.snapshot())

	require.NoError(t, d.Trigger(1, 11))
	d.Cancel()
	assert.Zero(t, d.Pending())
	d.Flush()
	assert.Equal(t, []float64{10}, c.snapshot()[1])

	d.Stop()
	require.ErrorIs(t, d.Trigger(1, 12), ErrDebouncerStopped)
}
