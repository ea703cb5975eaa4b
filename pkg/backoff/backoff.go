package backoff

import "runtime"

const maxBackoff = 16

// Backoff performs exponential backoff between lock-free retries by yielding
// the processor an increasing number of times. The zero value is ready to use.
//
//	var bo backoff.Backoff
//	for !slot.CompareAndSwap(...) {
//		bo.Spin()
//	}
type Backoff struct {
	n int
}

// Spin yields, doubling the yield count up to a fixed ceiling.
func (b *Backoff) Spin() {
	if b.n < 1 {
		b.n = 1
	}
	for i := 0; i < b.n; i++ {
		runtime.Gosched()
	}
	if b.n < maxBackoff {
		b.n <<= 1
	}
}

// Reset returns the backoff to its initial state.
func (b *Backoff) Reset() {
	b.n = 0
}
