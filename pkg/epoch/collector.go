package epoch

import (
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/moontrade/arcx/pkg/spinlock"
)

// CollectInterval is the background collector cadence.
var CollectInterval = time.Millisecond

var (
	collectorMu   spinlock.Mutex
	collectorStop chan struct{}
)

// StartCollector runs Advance and Collect on a background goroutine until
// StopCollector is called. Starting twice is a no-op. Programs with steady
// pin traffic do not need it; Unpin already collects periodically.
func StartCollector() {
	collectorMu.Lock()
	defer collectorMu.Unlock()
	if collectorStop != nil {
		return
	}
	stop := make(chan struct{})
	collectorStop = stop
	gopool.Go(func() {
		tick := time.NewTicker(CollectInterval)
		defer tick.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tick.C:
				Advance()
				Collect()
			}
		}
	})
}

// StopCollector stops the background collector. Pending deferred calls are
// still collected by later Unpins or explicit Collects.
func StopCollector() {
	collectorMu.Lock()
	defer collectorMu.Unlock()
	if collectorStop == nil {
		return
	}
	close(collectorStop)
	collectorStop = nil
}
