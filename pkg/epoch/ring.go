package epoch

import (
	"sync/atomic"

	"github.com/moontrade/arcx/pkg/pmath"
)

// retired is one deferred call stamped with the epoch it was scheduled in.
type retired struct {
	epoch uint64
	fn    func()
}

// ring is a single-producer single-consumer circular buffer of retired
// calls. The producer is whichever goroutine owns the record while pinned;
// the consumer is the goroutine running Collect, serialized by collectMu.
type ring struct {
	head uint64
	_    [CacheLinePad - 8]byte
	tail uint64
	_    [CacheLinePad - 8]byte
	buf  []retired
	mask uint64
}

func newRing(capacity int) *ring {
	capacity = pmath.CeilToPowerOf2(capacity)
	return &ring{
		buf:  make([]retired, capacity),
		mask: uint64(capacity) - 1,
	}
}

// enqueue appends one retired call. Returns false if the ring is full.
func (q *ring) enqueue(it retired) bool {
	h := atomic.LoadUint64(&q.head)
	t := atomic.LoadUint64(&q.tail)
	if h-t == uint64(len(q.buf)) {
		return false
	}
	q.buf[h&q.mask] = it
	atomic.StoreUint64(&q.head, h+1)
	return true
}

// peek returns the oldest retired call without removing it.
func (q *ring) peek() (retired, bool) {
	t := atomic.LoadUint64(&q.tail)
	h := atomic.LoadUint64(&q.head)
	if t == h {
		return retired{}, false
	}
	return q.buf[t&q.mask], true
}

// pop removes the oldest retired call. Call only after a successful peek.
func (q *ring) pop() {
	t := atomic.LoadUint64(&q.tail)
	q.buf[t&q.mask] = retired{}
	atomic.StoreUint64(&q.tail, t+1)
}

func (q *ring) len() int {
	h := atomic.LoadUint64(&q.head)
	t := atomic.LoadUint64(&q.tail)
	return int(h - t)
}
