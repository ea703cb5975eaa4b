package arc

import (
	"sync/atomic"

	"github.com/moontrade/arcx/pkg/atomicx"
	"github.com/moontrade/arcx/pkg/counter"
	"github.com/moontrade/arcx/pkg/epoch"
)

// Stats counts block lifecycle events. Leak tests assert Live returns to
// its baseline after teardown and a collect cycle.
var Stats struct {
	Allocs counter.Counter
	Frees  counter.Counter
	Live   counter.Counter
}

// block is the single heap allocation behind a Pointer: the count, a freed
// flag and the value. A block is never relocated, dies logically at the
// 1 -> 0 count transition and is released physically by the epoch
// collector, exactly once.
type block[T any] struct {
	count RefCount
	freed uint32
	value T
}

func newBlock[T any](v T) *block[T] {
	b := &block[T]{value: v}
	b.count.count = 1
	Stats.Allocs.Incr()
	Stats.Live.Incr()
	return b
}

// release makes the block's death visible: the value is zeroed so the GC
// can reclaim whatever it referenced and the freed flag turns any later
// unguarded access into a loud panic. Runs on the epoch collector.
func (b *block[T]) release() {
	if !atomicx.Cas(&b.freed, 0, 1) {
		panic("arc: double free")
	}
	var zero T
	b.value = zero
	Stats.Frees.Incr()
	Stats.Live.Decr()
}

// decrement drops one logical reference and schedules the block for
// deferred release at the 1 -> 0 transition. Never frees synchronously:
// a reader mid-load on the address only ever observes the dead count.
func decrement[T any](b *block[T]) {
	if b == nil {
		return
	}
	if b.count.Decr() == 1 {
		g := epoch.Pin()
		g.Defer(b.release)
		g.Unpin()
	}
}

// tryIncrement acquires one reference if the block is still alive. A nil
// block always succeeds; the null pointer needs no count.
func tryIncrement[T any](b *block[T]) bool {
	if b == nil {
		return true
	}
	_, ok := b.count.TryIncr()
	return ok
}

// unguardedIncrement acquires a reference the caller has already proven
// live. Panics on a dead or released block.
func unguardedIncrement[T any](b *block[T]) {
	if b == nil {
		return
	}
	if atomic.LoadUint32(&b.freed) != 0 {
		panic("arc: unguarded increment of freed block")
	}
	b.count.UnguardedIncr()
}
