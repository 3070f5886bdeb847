// Package pshared provides a mutex and condition variable that work across
// process boundaries when their backing State lives in memory shared between
// those processes (for example an anonymous MAP_SHARED mapping).
//
// Unlike sync.Mutex and sync.Cond, a pshared.State holds no pointers and no
// goroutine-local bookkeeping: it is two plain int32 words, safe to embed
// directly inside a larger shared struct and to zero-initialize by simply
// zeroing the backing memory.
package pshared
