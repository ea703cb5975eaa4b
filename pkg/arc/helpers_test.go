package arc

import (
	"testing"

	"github.com/moontrade/arcx/pkg/epoch"
)

// drain advances the epoch past every scheduled release and collects.
func drain() {
	for i := 0; i < 8; i++ {
		epoch.Advance()
		epoch.Collect()
	}
}

// checkLive fails the test unless Live returned to baseline after a drain.
func checkLive(t *testing.T, baseline int64) {
	t.Helper()
	drain()
	if live := Stats.Live.Load(); live != baseline {
		t.Fatalf("leaked %d blocks (live=%d baseline=%d, allocs=%d frees=%d)",
			live-baseline, live, baseline, Stats.Allocs.Load(), Stats.Frees.Load())
	}
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic", name)
		}
	}()
	fn()
}
