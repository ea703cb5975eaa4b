package atomicx_test

import (
	"sync"
	"testing"

	"github.com/moontrade/arcx/pkg/atomicx"
)

func TestPointer(t *testing.T) {
	var p atomicx.Pointer[int]
	if p.Load() != nil {
		t.Fatal("zero value should load nil")
	}
	a, b := new(int), new(int)
	p.Store(a)
	if p.Load() != a || p.Get() != a {
		t.Fatal("store/load mismatch")
	}
	if p.CompareAndSwap(b, a) {
		t.Fatal("cas should fail when old does not match")
	}
	if !p.CompareAndSwap(a, b) {
		t.Fatal("cas should succeed")
	}
	if old := p.Swap(nil); old != b {
		t.Fatal("swap should return previous value")
	}
}

func TestXadd64Concurrent(t *testing.T) {
	const workers = 8
	const per = 100000
	var x uint64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				atomicx.Xadd64(&x, 1)
			}
		}()
	}
	wg.Wait()
	if atomicx.Load64(&x) != workers*per {
		t.Fatalf("expected %d, got %d", workers*per, x)
	}
}

func BenchmarkPointerLoad(b *testing.B) {
	var p atomicx.Pointer[int]
	p.Store(new(int))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Load()
	}
}

func TestIntegerCas(t *testing.T) {
	var u64 uint64 = 7
	if atomicx.Cas64(&u64, 6, 8) {
		t.Fatal("cas64 should fail on mismatch")
	}
	if !atomicx.Cas64(&u64, 7, 8) || atomicx.Load64(&u64) != 8 {
		t.Fatal("cas64")
	}
	var u32 uint32 = 1
	if !atomicx.Cas(&u32, 1, 2) || u32 != 2 {
		t.Fatal("cas")
	}
	var i64 int64 = -1
	if atomicx.Xaddint64(&i64, 2) != 1 {
		t.Fatal("xaddint64")
	}
	if !atomicx.Casint64(&i64, 1, 5) || i64 != 5 {
		t.Fatal("casint64")
	}
}
