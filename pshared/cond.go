package pshared

import "sync/atomic"

// Cond is a process-shared condition variable, always used alongside the
// Mutex built from the same State: callers must hold that Mutex before
// calling Wait and while calling Broadcast, the same discipline sync.Cond
// requires of its Locker.
type Cond struct {
	s *State
	m *Mutex
}

// NewCond wraps a State for waiting/broadcasting, associated with the Mutex
// that guards it.
func NewCond(s *State, m *Mutex) *Cond { return &Cond{s: s, m: m} }

// Wait releases m, blocks until the next Broadcast observed after the
// release, then reacquires m. As with sync.Cond, callers must re-check their
// wait condition in a loop: a Wait can return without the condition the
// caller cares about actually holding.
func (c *Cond) Wait() {
	seq := atomic.LoadInt32(&c.s.seq)
	c.m.Unlock()
	futexWait(&c.s.seq, seq)
	c.m.Lock()
}

// Broadcast wakes every waiter blocked in Wait. The caller should hold m.
func (c *Cond) Broadcast() {
	atomic.AddInt32(&c.s.seq, 1)
	futexWake(&c.s.seq, 1<<30)
}
