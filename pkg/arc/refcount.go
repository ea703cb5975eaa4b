package arc

import (
	"strconv"
	"sync/atomic"
	"unsafe"

	"github.com/moontrade/arcx/pkg/atomicx"
	"golang.org/x/sys/cpu"
)

const CacheLinePad = unsafe.Sizeof(cpu.CacheLinePad{})

// RefCount is the lifecycle counter attached to every shared block, padded
// to a full cache line so contended counts do not false-share with the
// value stored behind them.
//
// Death is monotonic: once a count has been observed at 0 it never rises
// again. TryIncr refuses after 0 and the unguarded operations panic,
// because an owner observing 0 means a use-after-free already happened
// upstream.
type RefCount struct {
	count int64
	_     [CacheLinePad - 8]byte
}

// Load returns the current count.
func (rc *RefCount) Load() int64 {
	return atomic.LoadInt64(&rc.count)
}

// Decr decrements and returns the previous count, so callers detect the
// 1 -> 0 transition.
func (rc *RefCount) Decr() int64 {
	return atomicx.Xaddint64(&rc.count, -1) + 1
}

// TryIncr increments only while the observed count is above 0. On success
// it returns the new count. Once 0 has been observed it returns the
// observed count with ok=false and leaves the count untouched. Use it for
// pointers read from a shared location without a prior ownership proof.
func (rc *RefCount) TryIncr() (int64, bool) {
	c := atomic.LoadInt64(&rc.count)
	for c > 0 {
		if atomicx.Casint64(&rc.count, c, c+1) {
			return c + 1, true
		}
		c = atomic.LoadInt64(&rc.count)
	}
	return c, false
}

// UnguardedIncr increments without checking for death first. The caller
// must already own a live reference. Panics if the count was not positive,
// since that proves the caller's ownership reasoning was wrong.
func (rc *RefCount) UnguardedIncr() int64 {
	c := atomicx.Xaddint64(&rc.count, 1)
	if c < 2 {
		panic("arc: unguarded increment from count " + strconv.FormatInt(c-1, 10))
	}
	return c
}

// UnguardedDecr decrements under the same ownership precondition as
// UnguardedIncr and returns the previous count. Panics if the count was
// already at or through 0.
func (rc *RefCount) UnguardedDecr() int64 {
	c := atomicx.Xaddint64(&rc.count, -1)
	if c < 0 {
		panic("arc: unguarded decrement through 0, count " + strconv.FormatInt(c, 10))
	}
	return c + 1
}
