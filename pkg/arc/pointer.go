// Package arc provides an atomically swappable, atomically reference
// counted smart pointer. Pointer is the counted, cloneable, dereferenceable
// owned handle; Slot is the single swappable location handles publish
// through. The classical read-then-increment race on a shared pointer is
// resolved by acquiring counts with a bounded try-increment inside an
// epoch guard: an increment that observes 0 means the read was stale and
// is retried, and the guard defers physical release of dead blocks past
// every concurrent reader.
package arc

import (
	"encoding/binary"
	"unsafe"

	"github.com/minio/highwayhash"
)

// hashKey seeds identity hashes. Fixed so hashes are stable for the life
// of the process.
var hashKey = [32]byte{
	0x4a, 0x1d, 0x8f, 0x02, 0xb7, 0x39, 0xc6, 0x55,
	0xe0, 0x9b, 0x2c, 0x71, 0x46, 0xd3, 0x18, 0xaa,
	0x5f, 0x84, 0x0e, 0xc9, 0x32, 0x6d, 0xf1, 0x07,
	0xbc, 0x58, 0xe3, 0x90, 0x25, 0x7a, 0xcd, 0x16,
}

// Pointer is a counted reference to one shared block, or null. The zero
// value is null. A live Pointer owns exactly one count on its block; it
// moves between goroutines freely and must be released with Drop, or
// donated to a Slot, exactly once.
type Pointer[T any] struct {
	p *block[T]
}

// New allocates a block holding v and returns the first reference to it.
func New[T any](v T) Pointer[T] {
	return Pointer[T]{p: newBlock(v)}
}

// Null returns the null pointer.
func Null[T any]() Pointer[T] {
	return Pointer[T]{}
}

// IsNull reports whether the pointer is null.
func (x Pointer[T]) IsNull() bool {
	return x.p == nil
}

// Clone acquires a second reference to the same block. Never fails: the
// receiver is itself proof the count is above 0, so no guard is needed.
func (x Pointer[T]) Clone() Pointer[T] {
	unguardedIncrement(x.p)
	return Pointer[T]{p: x.p}
}

// Drop releases the reference and nulls the receiver, so a double Drop is
// a no-op. The last Drop schedules the block for deferred release.
func (x *Pointer[T]) Drop() {
	b := x.p
	x.p = nil
	decrement(b)
}

// Reset releases the reference and resets the pointer to null.
func (x *Pointer[T]) Reset() {
	x.Drop()
}

// Deref returns the value behind the pointer, or ok=false when null. The
// receiver's reference keeps the result valid; it must not outlive the
// Pointer.
func (x Pointer[T]) Deref() (*T, bool) {
	if x.p == nil {
		return nil, false
	}
	return &x.p.value, true
}

// DerefExclusive returns a mutable reference to the value, or nil when
// null. Valid only while the caller is the sole owner of a block no slot
// has published yet, e.g. a freshly allocated node still being linked.
// Mutating through it while any other reference exists is a data race.
func (x Pointer[T]) DerefExclusive() *T {
	if x.p == nil {
		return nil
	}
	return &x.p.value
}

// TryTake moves the value out when the receiver holds the only reference,
// leaving the zero value behind as the sentinel and releasing the handle.
// With any other reference outstanding, or on null, it returns ok=false
// and the handle is unchanged. The caller must ensure no slot still points
// at the block; a concurrent load through such a slot could race the move.
func (x *Pointer[T]) TryTake() (T, bool) {
	var zero T
	b := x.p
	if b == nil || b.count.Load() != 1 {
		return zero, false
	}
	v := b.value
	b.value = zero
	x.Drop()
	return v, true
}

// Equal reports whether both pointers reference the same allocation.
// Values are never compared.
func (x Pointer[T]) Equal(other Pointer[T]) bool {
	return x.p == other.p
}

// Hash returns an identity hash over the allocation address. Equal
// pointers hash identically; values do not participate.
func (x Pointer[T]) Hash() uint64 {
	var addr [8]byte
	binary.LittleEndian.PutUint64(addr[:], uint64(uintptr(unsafe.Pointer(x.p))))
	return highwayhash.Sum64(addr[:], hashKey[:])
}
