package tlsf

import "errors"

// ErrInvalidPoolSize is returned by Init/Attach when the supplied region is
// too small to hold a Control header plus at least one minimum-size block.
var ErrInvalidPoolSize = errors.New("tlsf: region too small for a usable pool")

// ErrExhausted is returned by Allocate in non-blocking configurations when no
// free block can satisfy the request, and in every configuration when the
// requested size is zero, negative, or too large for any size class.
var ErrExhausted = errors.New("tlsf: pool exhausted")

// ErrNotInitialized is returned by Attach when the region's magic word does
// not match, meaning it was never passed through Init by any process.
var ErrNotInitialized = errors.New("tlsf: region was never initialized")

// ErrClosed is returned by Allocate/Deallocate after Close has released a
// blocking pool's waiters.
var ErrClosed = errors.New("tlsf: pool closed")

// ErrInvalidOptions is returned by Init when the requested option
// combination cannot be honored, such as BlockOnExhaustion with
// ModeSingleThreaded (nothing else could ever free memory to wake the
// caller, so the wait would never return).
var ErrInvalidOptions = errors.New("tlsf: invalid option combination")
