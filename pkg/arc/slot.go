package arc

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/moontrade/arcx/pkg/backoff"
	"github.com/moontrade/arcx/pkg/epoch"
)

// ErrStale reports that a pointer read from a slot was counted down to 0
// by a concurrent drop before the reader could acquire it.
var ErrStale = errors.New("arc: stale read, block was concurrently dropped")

// Slot is a single atomically swappable location holding one logical
// Pointer, padded to its own cache line so adjacent slots do not false-
// share under contention. A Slot is not dereferenceable and must not be
// copied: read it with Load, replace it with Swap or the compare-exchange
// family. The slot owns one count on whatever block it currently holds.
type Slot[T any] struct {
	_   noCopy
	ptr unsafe.Pointer // *block[T]
	_   [CacheLinePad - 8]byte
}

// NewSlot allocates a block holding v and returns a slot owning the only
// reference to it.
func NewSlot[T any](v T) *Slot[T] {
	return &Slot[T]{ptr: unsafe.Pointer(newBlock(v))}
}

// NullSlot returns a slot holding null.
func NullSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// SlotFrom returns a slot holding p's block. The pointer keeps its own
// reference; the slot acquires one of its own.
func SlotFrom[T any](p Pointer[T]) *Slot[T] {
	unguardedIncrement(p.p)
	return &Slot[T]{ptr: unsafe.Pointer(p.p)}
}

// IntoSlot moves the pointer's reference into a fresh slot. The receiver
// becomes null; no count moves.
func (x *Pointer[T]) IntoSlot() *Slot[T] {
	s := &Slot[T]{ptr: unsafe.Pointer(x.p)}
	x.p = nil
	return s
}

func (s *Slot[T]) loadRaw() *block[T] {
	return (*block[T])(atomic.LoadPointer(&s.ptr))
}

// IsNull reports whether the slot currently holds null.
func (s *Slot[T]) IsNull() bool {
	return s.loadRaw() == nil
}

// Load returns a fresh Pointer to the slot's current block, retrying until
// the read address's count is acquired. A read that observes a block
// concurrently counted down to 0 is stale and simply repeats; the guard
// held across the attempt keeps the observed address allocated, so the
// retry never touches freed memory. This loop is what makes concurrent
// read-then-increment safe.
func (s *Slot[T]) Load(order Ordering) Pointer[T] {
	g := epoch.Pin()
	defer g.Unpin()
	var bo backoff.Backoff
	for {
		b := s.loadRaw()
		if tryIncrement(b) {
			return Pointer[T]{p: b}
		}
		bo.Spin()
	}
}

// TryLoad is a single Load attempt for callers that embed staleness
// handling in an outer retry loop. Returns ErrStale when the read was
// concurrently torn down.
func (s *Slot[T]) TryLoad(order Ordering) (Pointer[T], error) {
	g := epoch.Pin()
	defer g.Unpin()
	b := s.loadRaw()
	if !tryIncrement(b) {
		return Pointer[T]{}, ErrStale
	}
	return Pointer[T]{p: b}, nil
}

// CompareExchange installs new when the slot still holds current's block.
// On success the returned Pointer carries the slot's previous logical
// reference, with no extra count movement, and ok is true. On failure new
// is untouched, ok is false and the returned Pointer is a fresh reference
// to a value the slot held during the call, so the caller retries without
// a second read. current and new stay owned by the caller either way.
func (s *Slot[T]) CompareExchange(current, new Pointer[T], success, failure Ordering) (Pointer[T], bool) {
	g := epoch.Pin()
	defer g.Unpin()
	// Donate a count for the slot before the swap; new is caller-owned so
	// the increment cannot race a death.
	unguardedIncrement(new.p)
	if atomic.CompareAndSwapPointer(&s.ptr, unsafe.Pointer(current.p), unsafe.Pointer(new.p)) {
		return Pointer[T]{p: current.p}, true
	}
	// Undo the donation. This can be the block's last reference when the
	// caller already dropped theirs.
	decrement(new.p)
	return s.incrementOrReload(s.loadRaw(), failure), false
}

// CompareExchangeWeak has the CompareExchange contract but additionally
// permits spurious failure, so it is only valid inside a caller retry
// loop. Go's compare-and-swap is strong; the weak form is kept so
// algorithms written against it port unchanged.
func (s *Slot[T]) CompareExchangeWeak(current, new Pointer[T], success, failure Ordering) (Pointer[T], bool) {
	return s.CompareExchange(current, new, success, failure)
}

// CompareAndSwap collapses the CompareExchange result into the single
// returned previous value; callers infer the outcome by comparing the
// result's identity against current.
func (s *Slot[T]) CompareAndSwap(current, new Pointer[T], order Ordering) Pointer[T] {
	prev, _ := s.CompareExchange(current, new, order, order)
	return prev
}

// Swap unconditionally installs new and returns the previous value. The
// slot's reference on the previous block transfers to the returned
// Pointer; new stays owned by the caller, the slot takes its own count.
func (s *Slot[T]) Swap(new Pointer[T], order Ordering) Pointer[T] {
	unguardedIncrement(new.p)
	old := atomic.SwapPointer(&s.ptr, unsafe.Pointer(new.p))
	return Pointer[T]{p: (*block[T])(old)}
}

// Store replaces the slot's value and releases the previous reference.
// Store(Null[T](), order) resets the slot to null.
func (s *Slot[T]) Store(new Pointer[T], order Ordering) {
	prev := s.Swap(new, order)
	prev.Drop()
}

// Drop empties the slot and releases its reference. The slot stays usable
// as a null slot.
func (s *Slot[T]) Drop() {
	old := atomic.SwapPointer(&s.ptr, nil)
	decrement((*block[T])(old))
}

// incrementOrReload turns a raw observed address into an owned Pointer: a
// cheap try-increment while the block is still live, or a full Load when
// the observed value raced to 0 in the meantime.
func (s *Slot[T]) incrementOrReload(b *block[T], order Ordering) Pointer[T] {
	if tryIncrement(b) {
		return Pointer[T]{p: b}
	}
	return s.Load(order)
}

// noCopy may be embedded into structs which must not be copied
// after the first use. go vet's copylocks checker reports misuse.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
