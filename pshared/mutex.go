package pshared

// Mutex is a process-shared mutual-exclusion lock keyed off a *State that
// lives in memory visible to every would-be locker. Two Mutex values
// constructed from the same State in different processes contend with each
// other exactly as two goroutines contending for a sync.Mutex would.
type Mutex struct {
	s *State
}

// NewMutex wraps a State for locking. Every process attaching to the region
// holding s should construct its own Mutex from the same State pointer.
func NewMutex(s *State) *Mutex { return &Mutex{s: s} }

func (m *Mutex) Lock()   { lock(&m.s.lock) }
func (m *Mutex) Unlock() { unlock(&m.s.lock) }
