package stress

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsEveryTask(t *testing.T) {
	p := New(t.Name(), 8)
	defer p.Close()

	var count int64
	const n = 10000
	for i := 0; i < n; i++ {
		p.Go(func() {
			atomic.AddInt64(&count, 1)
		})
	}
	p.Wait()

	require.Equal(t, int64(n), atomic.LoadInt64(&count))
}

func TestPoolRecoversPanics(t *testing.T) {
	p := New(t.Name(), 4)
	defer p.Close()

	var ok int64
	for i := 0; i < 100; i++ {
		i := i
		p.Go(func() {
			if i%10 == 0 {
				panic("boom")
			}
			atomic.AddInt64(&ok, 1)
		})
	}
	p.Wait()

	require.Equal(t, int64(90), atomic.LoadInt64(&ok))
}
