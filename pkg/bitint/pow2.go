// SPDX-License-Identifier: MIT
/*
Package bitint provides bit manipulation helpers for power-of-2 sizing
as needed by FFT windows and audio buffers.

Design principles:
- Zero allocations, stack memory only
- O(1) constant time operations
- Platform aware for 32-bit and 64-bit ints
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
// The subtraction (size-1) is what preserves exact powers of 2:
// bits.Len(8-1) = 3 and 1<<3 = 8, whereas bits.Len(8) = 4 would
// incorrectly double the input to 16.
//
// Examples:
//
//	Input  Output
//	4      4      (already a power of 2, preserved)
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// Powers of 2 have exactly one bit set, so n & (n-1) is 0 only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
