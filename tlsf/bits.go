package tlsf

import "math/bits"

// ffs returns the index of the least-significant set bit in w, or -1 if w is
// zero. Mirrors the GCC/MSVC builtins the original allocator dispatches on
// per-compiler; math/bits gives us the same constant-time instruction on
// every platform Go targets, so there is no per-arch branch to maintain.
func ffs(w uint32) int {
	if w == 0 {
		return -1
	}
	return bits.TrailingZeros32(w)
}

// fls returns the index of the most-significant set bit in w, or -1 if w is
// zero.
func fls(w uint32) int {
	if w == 0 {
		return -1
	}
	return 31 - bits.LeadingZeros32(w)
}

// flsSize is fls over a 64-bit size_t-equivalent: find the top bit across the
// high and low 32-bit halves, the same split the reference implementation
// uses on targets where `long` is narrower than the size being measured.
func flsSize(size uint64) int {
	high := uint32(size >> 32)
	if high != 0 {
		return 32 + fls(high)
	}
	return fls(uint32(size))
}
