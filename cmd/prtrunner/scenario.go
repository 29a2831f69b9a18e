package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	taskrunner "github.com/Swind/go-priority-task-runner"
	"github.com/Swind/go-priority-task-runner/core"
	"github.com/Swind/go-priority-task-runner/internal/workload"
	promadapter "github.com/Swind/go-priority-task-runner/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	runnerName       = "prtrunner"
	executeIDOffset  = 10000
	pollInterval     = 500 * time.Millisecond
	shutdownDeadline = 5 * time.Second
)

// runScenario queues cfg.PreStart tasks, starts the runner, schedules the rest
// while interleaving cfg.Executes blocking submissions, waits for every
// scheduled task to complete and stops the runner.
func runScenario(ctx context.Context, cfg *Config, logger *slog.Logger, out io.Writer) error {
	reg := prom.NewRegistry()
	exporter, err := promadapter.NewMetricsExporter(runnerName, reg, promadapter.ExporterOptions{})
	if err != nil {
		return fmt.Errorf("creating metrics exporter: %w", err)
	}
	poller, err := promadapter.NewSnapshotPoller(reg, pollInterval)
	if err != nil {
		return fmt.Errorf("creating snapshot poller: %w", err)
	}

	coreLogger := core.NewSlogLogger(logger)
	runner, err := taskrunner.NewPriorityTaskRunner(cfg.Workers,
		taskrunner.WithName(runnerName),
		taskrunner.WithLogger(coreLogger),
		taskrunner.WithMetrics(exporter),
	)
	if err != nil {
		return err
	}
	poller.AddPool(runner.Name(), runner)

	var pending sync.WaitGroup
	pending.Add(cfg.Tasks)
	logging := core.NewLoggingListener(coreLogger)
	listener := core.ListenerFuncs{
		Commence: logging.OnTaskCommence,
		Completion: func(t core.Task) {
			logging.OnTaskCompletion(t)
			pending.Done()
		},
	}

	newTask := func(i int) core.Task {
		return workload.NewMaxFinderTask(core.TaskID((i+1)*100), rand.IntN(cfg.MaxPriority+1), cfg.ArraySize, coreLogger)
	}

	for i := 0; i < cfg.PreStart; i++ {
		if err := runner.ScheduleTask(newTask(i), listener); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "%d tasks waiting before start\n", runner.NumTasks())

	if err := runner.Start(ctx); err != nil {
		return err
	}
	defer runner.Stop()

	g, gctx := errgroup.WithContext(ctx)
	poller.Start(gctx)
	defer poller.Stop()

	workloadDone := make(chan struct{})
	if cfg.MetricsAddr != "" {
		serveMetrics(gctx, g, cfg, reg, workloadDone, logger)
	}

	g.Go(func() error {
		defer close(workloadDone)
		if err := produce(gctx, cfg, runner, newTask, listener, out); err != nil {
			return err
		}
		return waitAll(gctx, &pending)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := runner.Stop(); err != nil {
		return err
	}
	printSummary(out, runner)
	return nil
}

// produce schedules the remaining tasks at cfg.Rate and spreads the blocking
// submissions evenly among them.
func produce(ctx context.Context, cfg *Config, runner *taskrunner.PriorityTaskRunner, newTask func(int) core.Task, listener core.NotificationListener, out io.Writer) error {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	remaining := cfg.Tasks - cfg.PreStart
	executed := 0
	execute := func() error {
		id := core.TaskID(executeIDOffset + executed)
		task := workload.NewMaxFinderTask(id, 0, cfg.ArraySize, nil)
		if err := runner.ExecuteTask(ctx, task, nil); err != nil {
			return err
		}
		executed++
		fmt.Fprintf(out, "executed task %d: max %d\n", id, task.Result)
		return nil
	}

	for i := 0; i < remaining; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := runner.ScheduleTask(newTask(cfg.PreStart+i), listener); err != nil {
			return err
		}
		// Execute once the share of scheduled tasks passes the next threshold.
		if executed < cfg.Executes && (i+1)*cfg.Executes >= (executed+1)*remaining {
			if err := execute(); err != nil {
				return err
			}
		}
	}
	for executed < cfg.Executes {
		if err := execute(); err != nil {
			return err
		}
	}
	return nil
}

func waitAll(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func serveMetrics(ctx context.Context, g *errgroup.Group, cfg *Config, reg *prom.Registry, workloadDone <-chan struct{}, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-workloadDone:
			select {
			case <-time.After(cfg.Linger):
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func printSummary(out io.Writer, runner *taskrunner.PriorityTaskRunner) {
	stats := runner.Stats()
	fmt.Fprintf(out, "runner %s stopped: workers=%d live=%d queued=%d rejected=%d\n",
		stats.ID, stats.Workers, stats.LiveWorkers, stats.Queued, stats.Rejected)
	for _, rec := range runner.RecentTasks(5) {
		fmt.Fprintf(out, "  task %d priority=%d source=%s worker=%d took=%s\n",
			rec.TaskID, rec.Priority, rec.Source, rec.WorkerID, rec.Duration)
	}
}
