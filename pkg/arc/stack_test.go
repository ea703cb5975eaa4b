package arc

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/moontrade/arcx/pkg/backoff"
	"github.com/panjf2000/ants/v2"
)

// tstack is a Treiber stack over one Slot: push CASes a fresh node in as
// the head, pop CASes the head out and takes its payload once uniquely
// owned. Exercises the full publish/load/compare-exchange/take surface.
type tstack struct {
	head *Slot[tnode]
}

type tnode struct {
	value int64
	next  Pointer[tnode]
}

func newTstack() *tstack {
	return &tstack{head: NullSlot[tnode]()}
}

func (s *tstack) push(v int64) {
	n := New(tnode{value: v, next: s.head.Load(Acquire)})
	var bo backoff.Backoff
	for {
		node := n.DerefExclusive()
		prev, ok := s.head.CompareExchangeWeak(node.next, n, AcqRel, Acquire)
		if ok {
			prev.Drop()
			n.Drop()
			return
		}
		// Relink the unpublished node to the up-to-date head and retry.
		node.next.Drop()
		node.next = prev
		bo.Spin()
	}
}

func (s *tstack) pop() (int64, bool) {
	var bo backoff.Backoff
	cur := s.head.Load(Acquire)
	for {
		if cur.IsNull() {
			return 0, false
		}
		node, _ := cur.Deref()
		prev, ok := s.head.CompareExchangeWeak(cur, node.next, Acquire, Relaxed)
		if !ok {
			cur.Drop()
			cur = prev
			bo.Spin()
			continue
		}
		prev.Drop()
		// The node is detached; transient loads by racing poppers drain
		// quickly, then the payload moves out without another allocation.
		for {
			n, taken := cur.TryTake()
			if taken {
				n.next.Drop()
				return n.value, true
			}
			bo.Spin()
		}
	}
}

func (s *tstack) isEmpty() bool {
	return s.head.IsNull()
}

func TestTreiberStack(t *testing.T) {
	drain()
	live := Stats.Live.Load()

	const pushers = 8
	const poppers = 8
	const max = 10000 // values 0..max, each exactly once

	s := newTstack()
	pool, err := ants.NewPool(pushers + poppers)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release()

	seen := make([]int32, max+1)
	var popped int64
	var wg sync.WaitGroup

	wg.Add(pushers)
	for w := 0; w < pushers; w++ {
		w := w
		if err := pool.Submit(func() {
			defer wg.Done()
			for v := int64(w); v <= max; v += pushers {
				s.push(v)
			}
		}); err != nil {
			t.Fatal(err)
		}
	}

	wg.Add(poppers)
	for w := 0; w < poppers; w++ {
		if err := pool.Submit(func() {
			defer wg.Done()
			for atomic.LoadInt64(&popped) < max+1 {
				v, ok := s.pop()
				if !ok {
					runtime.Gosched()
					continue
				}
				if v < 0 || v > max {
					t.Errorf("popped out-of-range value %d", v)
					return
				}
				if n := atomic.AddInt32(&seen[v], 1); n != 1 {
					t.Errorf("value %d popped %d times", v, n)
					return
				}
				atomic.AddInt64(&popped, 1)
			}
		}); err != nil {
			t.Fatal(err)
		}
	}

	wg.Wait()

	if !s.isEmpty() {
		t.Fatal("stack not empty after all pops")
	}
	if _, ok := s.pop(); ok {
		t.Fatal("pop on empty stack")
	}
	for v := 0; v <= max; v++ {
		if seen[v] != 1 {
			t.Fatalf("value %d seen %d times", v, seen[v])
		}
	}

	s.head.Drop()
	checkLive(t, live)
}

func TestStackSequential(t *testing.T) {
	drain()
	live := Stats.Live.Load()
	s := newTstack()
	for v := int64(0); v < 100; v++ {
		s.push(v)
	}
	for v := int64(99); v >= 0; v-- {
		got, ok := s.pop()
		if !ok || got != v {
			t.Fatalf("pop = %d, %v; want %d", got, ok, v)
		}
	}
	if !s.isEmpty() {
		t.Fatal("stack not empty")
	}
	s.head.Drop()
	checkLive(t, live)
}
