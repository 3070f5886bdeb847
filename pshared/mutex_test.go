package pshared

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutexExcludes(t *testing.T) {
	var s State
	m := NewMutex(&s)

	counter := 0
	var wg sync.WaitGroup
	const goroutines = 64
	const perGoroutine = 500
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Lock()
				counter++
				m.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, goroutines*perGoroutine, counter)
}

func TestCondBroadcastWakesWaiters(t *testing.T) {
	var s State
	m := NewMutex(&s)
	c := NewCond(&s, m)

	ready := false
	var wg sync.WaitGroup
	const waiters = 8
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			m.Lock()
			for !ready {
				c.Wait()
			}
			m.Unlock()
		}()
	}

	m.Lock()
	ready = true
	c.Broadcast()
	m.Unlock()

	wg.Wait()
}
