package atomicx

import "sync/atomic"

// Integer helpers named after their runtime/internal/atomic counterparts.

func Load64(addr *uint64) uint64 { return atomic.LoadUint64(addr) }

// Cas64 executes the compare-and-swap operation on addr.
func Cas64(addr *uint64, old, new uint64) bool {
	return atomic.CompareAndSwapUint64(addr, old, new)
}

// Cas executes the compare-and-swap operation on addr.
func Cas(addr *uint32, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(addr, old, new)
}

// Xadd64 atomically adds delta to addr and returns the new value.
func Xadd64(addr *uint64, delta int64) uint64 {
	return atomic.AddUint64(addr, uint64(delta))
}

// Xaddint64 atomically adds delta to addr and returns the new value.
func Xaddint64(addr *int64, delta int64) int64 { return atomic.AddInt64(addr, delta) }

// Casint64 executes the compare-and-swap operation on addr.
func Casint64(addr *int64, old, new int64) bool {
	return atomic.CompareAndSwapInt64(addr, old, new)
}
