package blockimport

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolDo(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	err := pool.Do(func() error { return nil })
	require.NoError(t, err)

	want := errors.New("boom")
	err = pool.Do(func() error { return want })
	require.ErrorIs(t, err, want)
}

func TestPoolDoAfterClose(t *testing.T) {
	pool := NewPool(2)
	pool.Close()

	err := pool.Do(func() error { return nil })
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolBoundsParallelism(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(func() error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
