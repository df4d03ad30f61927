package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesInputOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	out, err := Map(context.Background(), 3, items, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 10, 40, 20, 30}, out)
}

func TestMapBoundsConcurrency(t *testing.T) {
	const limit = 4
	var inFlight, peak atomic.Int32

	items := make([]int, 40)
	_, err := Map(context.Background(), limit, items, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Positive(t, peak.Load())
}

func TestMapReturnsTaskError(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32
	_, err := Map(context.Background(), 2, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), ran.Load())
}

func TestMapRecoversPanics(t *testing.T) {
	_, err := Map(context.Background(), 2, []string{"ok", "bad"}, func(_ context.Context, s string) (string, error) {
		if s == "bad" {
			panic("nil map")
		}
		return s, nil
	})
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "nil map", pe.Value)
}

func TestMapEmpty(t *testing.T) {
	out, err := Map(context.Background(), 0, []int(nil), func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}
