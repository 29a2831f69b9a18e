package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/Swind/go-priority-task-runner/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type poolStub struct {
	stats core.PoolStats
}

func (s poolStub) Stats() core.PoolStats { return s.stats }

func TestSnapshotPoller_CollectsPoolStats(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{
		Queued:      4,
		Active:      2,
		Workers:     8,
		LiveWorkers: 8,
		Executing:   true,
		Rejected:    3,
		Running:     true,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller.Start(ctx)
	defer poller.Stop()

	assertEventually(t, 2*time.Second, func() bool {
		queued := testutil.ToFloat64(poller.poolQueued.WithLabelValues("pool-a"))
		active := testutil.ToFloat64(poller.poolActive.WithLabelValues("pool-a"))
		return queued == 4 && active == 2
	})

	if got := testutil.ToFloat64(poller.poolRunning.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("pool running gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolExecuting.WithLabelValues("pool-a")); got != 1 {
		t.Fatalf("pool executing gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(poller.poolLive.WithLabelValues("pool-a")); got != 8 {
		t.Fatalf("pool live gauge = %v, want 8", got)
	}
	if got := testutil.ToFloat64(poller.poolRejected.WithLabelValues("pool-a")); got != 3 {
		t.Fatalf("pool rejected gauge = %v, want 3", got)
	}
}

func TestSnapshotPoller_RemovePool(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, time.Hour)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	poller.AddPool("pool-a", poolStub{stats: core.PoolStats{Workers: 2}})
	poller.collectOnce()
	if got := testutil.CollectAndCount(poller.poolWorkers); got != 1 {
		t.Fatalf("series before remove = %d, want 1", got)
	}

	poller.RemovePool("pool-a")
	if got := testutil.CollectAndCount(poller.poolWorkers); got != 0 {
		t.Fatalf("series after remove = %d, want 0", got)
	}
}

func TestSnapshotPoller_StartStop_Idempotent(t *testing.T) {
	reg := prom.NewRegistry()
	poller, err := NewSnapshotPoller(reg, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewSnapshotPoller failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller.Start(ctx)
	poller.Start(ctx)
	poller.Stop()
	poller.Stop()
}

func assertEventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
