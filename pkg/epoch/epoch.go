// Package epoch provides scoped reclamation guards for lock-free data
// structures. A goroutine pins a guard before touching shared pointers and
// schedules destruction through Defer. The global epoch can only advance
// when every pinned guard has observed the current one, and a deferred call
// runs only once the epoch has advanced twice past the epoch it was
// scheduled in, which proves no reader pinned at scheduling time can still
// hold a raw reference to the dead object.
package epoch

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/moontrade/arcx/pkg/atomicx"
	"github.com/moontrade/arcx/pkg/counter"
	"github.com/moontrade/arcx/pkg/spinlock"
	logger "github.com/moontrade/log"
	"golang.org/x/sys/cpu"
)

const CacheLinePad = unsafe.Sizeof(cpu.CacheLinePad{})

// idle marks a record with no active pin.
const idle = ^uint64(0)

// Tunables. Set before first use.
var (
	// RingSize is the per-record retire ring capacity, read once when a
	// record is created. Defers beyond it spill to the overflow list.
	RingSize = 1024
	// UnpinsPerCollect is how many unpins pass between automatic
	// advance-and-collect attempts.
	UnpinsPerCollect = int64(256)
)

// Stats counts guard and reclamation activity. CollectTime accumulates
// wall time spent inside Collect, so the cost of deferred destruction is
// observable without profiling.
var Stats struct {
	Pins        counter.Counter
	Unpins      counter.Counter
	Defers      counter.Counter
	Collects    counter.Counter
	Collected   counter.Counter
	Spills      counter.Counter
	CollectTime counter.TimeCounter
}

var (
	globalEpoch uint64
	registry    atomicx.Pointer[record]
	collectMu   spinlock.Mutex
	overflowMu  spinlock.Mutex
	overflow    []retired
	guards      = sync.Pool{New: func() any { return &Guard{} }}
)

// record is one slot in the global registry. At most one guard owns a
// record at a time; pinned holds the epoch the owner entered at, or idle.
// Records are claimed and recycled, never removed from the registry.
type record struct {
	pinned  uint64
	_       [CacheLinePad - 8]byte
	ring    *ring
	next    *record
	claimed uint32
}

// Guard is a pinned reclamation scope. Acquire with Pin, release with
// Unpin. Scopes nest by pinning again; every Pin owns its own record.
type Guard struct {
	rec *record
}

// Pin marks the caller as a reader at the current epoch and returns the
// guard. While pinned, the epoch cannot advance twice, so no address read
// under the guard is handed back to the allocator before Unpin.
func Pin() *Guard {
	g := guards.Get().(*Guard)
	if g.rec == nil {
		g.rec = acquireRecord()
		// A guard evicted from the pool releases its record for reuse.
		runtime.SetFinalizer(g, func(g *Guard) {
			atomic.StoreUint32(&g.rec.claimed, 0)
		})
	}
	r := g.rec
	e := atomicx.Load64(&globalEpoch)
	for {
		atomic.StoreUint64(&r.pinned, e)
		// Recheck so a concurrent Advance cannot miss this pin.
		next := atomicx.Load64(&globalEpoch)
		if e == next {
			break
		}
		e = next
	}
	Stats.Pins.Incr()
	return g
}

// Defer schedules fn to run once every guard pinned at or before the
// current epoch has unpinned. fn must not pin or block.
func (g *Guard) Defer(fn func()) {
	r := g.rec
	it := retired{epoch: atomic.LoadUint64(&r.pinned), fn: fn}
	if !r.ring.enqueue(it) {
		overflowMu.Lock()
		overflow = append(overflow, it)
		overflowMu.Unlock()
		Stats.Spills.Incr()
		logger.Warn("epoch: retire ring full, spilled to overflow list")
	}
	Stats.Defers.Incr()
}

// Unpin ends the scope and recycles the guard. Every UnpinsPerCollect
// unpins it attempts an advance-and-collect on behalf of the process.
func (g *Guard) Unpin() {
	atomic.StoreUint64(&g.rec.pinned, idle)
	guards.Put(g)
	if Stats.Unpins.Incr()%UnpinsPerCollect == 0 {
		Advance()
		Collect()
	}
}

// Epoch returns the current global epoch.
func Epoch() uint64 {
	return atomicx.Load64(&globalEpoch)
}

// Advance bumps the global epoch if every pinned record has observed the
// current one. Returns true when the epoch moved.
func Advance() bool {
	e := atomicx.Load64(&globalEpoch)
	for r := registry.Load(); r != nil; r = r.next {
		p := atomic.LoadUint64(&r.pinned)
		if p != idle && p != e {
			return false
		}
	}
	return atomicx.Cas64(&globalEpoch, e, e+1)
}

// Collect runs every deferred call scheduled at least two epochs behind
// the current one and returns how many ran. Collection is serialized; a
// caller that loses the race returns immediately. Collect never advances
// the epoch itself and never touches caller-level synchronization.
func Collect() int {
	if !collectMu.TryLock() {
		return 0
	}
	start := time.Now()
	Stats.Collects.Incr()
	e := atomicx.Load64(&globalEpoch)
	n := 0
	for r := registry.Load(); r != nil; r = r.next {
		for {
			it, ok := r.ring.peek()
			if !ok || !safe(it.epoch, e) {
				break
			}
			r.ring.pop()
			it.fn()
			n++
		}
	}
	var run []retired
	overflowMu.Lock()
	if len(overflow) > 0 {
		keep := overflow[:0]
		for _, it := range overflow {
			if safe(it.epoch, e) {
				run = append(run, it)
			} else {
				keep = append(keep, it)
			}
		}
		overflow = keep
	}
	overflowMu.Unlock()
	collectMu.Unlock()
	for _, it := range run {
		it.fn()
		n++
	}
	Stats.Collected.Add(int64(n))
	Stats.CollectTime.Add(int64(time.Since(start)))
	return n
}

// safe reports whether a call retired at retireEpoch may run at current.
// Advance refuses to move past a pinned record, so two advances prove
// every guard pinned at retire time has since unpinned.
func safe(retireEpoch, current uint64) bool {
	return current-retireEpoch >= 2
}

// acquireRecord claims an idle record or grows the registry with a new one.
func acquireRecord() *record {
	for r := registry.Load(); r != nil; r = r.next {
		if atomic.LoadUint32(&r.claimed) == 0 && atomicx.Cas(&r.claimed, 0, 1) {
			atomic.StoreUint64(&r.pinned, idle)
			return r
		}
	}
	r := &record{
		pinned:  idle,
		claimed: 1,
		ring:    newRing(RingSize),
	}
	for {
		head := registry.Load()
		r.next = head
		if registry.CompareAndSwap(head, r) {
			return r
		}
	}
}
