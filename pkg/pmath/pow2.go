package pmath

import "math/bits"

// CeilToPowerOf2 rounds size up to the nearest power of 2. Sizes below 2
// round up to 2 so the result is always a usable mask+1.
func CeilToPowerOf2(size int) int {
	if size < 2 {
		return 2
	}
	return 1 << (64 - bits.LeadingZeros64(uint64(size-1)))
}

// FloorToPowerOf2 rounds size down to the nearest power of 2.
func FloorToPowerOf2(size int) int {
	if size < 2 {
		return 1
	}
	return 1 << (63 - bits.LeadingZeros64(uint64(size)))
}

// IsPowerOf2 reports whether size is a power of 2.
func IsPowerOf2(size int) bool {
	return size > 0 && size&(size-1) == 0
}

// PowerOf2Index returns log2 of CeilToPowerOf2(size).
func PowerOf2Index(size int) int {
	return bits.TrailingZeros64(uint64(CeilToPowerOf2(size)))
}
