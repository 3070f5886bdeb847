package pshared

// State is the POD backing a Mutex/Cond pair. It contains no pointers, so it
// may be embedded directly in a struct that is itself memory-mapped and
// shared between processes; the zero value is an unlocked mutex and a
// condition variable with no waiters.
type State struct {
	lock int32
	seq  int32
}
