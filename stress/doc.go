// Package stress provides a small bounded goroutine pool used by this
// module's own tests to drive concurrent traffic against a tlsf.Pool. It is
// adapted from a general-purpose worker pool down to exactly what a stress
// test needs: a fixed number of workers, panic recovery via log.Printf
// (never a third-party logger), and a way to wait for everything submitted
// so far to finish.
package stress
