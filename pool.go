package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Swind/go-priority-task-runner/core"
	"github.com/google/uuid"
)

const (
	runnerCreated int32 = iota
	runnerStarted
	runnerStopped
)

// PriorityTaskRunner runs tasks on a fixed set of worker goroutines.
//
// Scheduled tasks run by priority, highest first, FIFO among equal priorities.
// A task passed to ExecuteTask preempts the queue and its caller blocks until
// the task's completion notification fired.
type PriorityTaskRunner struct {
	name      string
	workers   int
	scheduler *core.TaskScheduler
	history   *core.ExecutionHistory

	logger              core.Logger
	panicHandler        core.PanicHandler
	metrics             core.Metrics
	rejectedTaskHandler core.RejectedTaskHandler

	// baseCtx is handed to tasks. Stop never cancels it.
	baseCtx context.Context

	state     atomic.Int32
	stateMu   sync.Mutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	execSem   chan struct{} // serializes ExecuteTask callers
	live      atomic.Int32
	rejected  atomic.Int64
	workerSts []atomic.Int32
}

// Option configures a PriorityTaskRunner.
type Option func(*core.RunnerConfig)

// WithName sets the runner name used in logs and metrics.
func WithName(name string) Option {
	return func(c *core.RunnerConfig) { c.Name = name }
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(c *core.RunnerConfig) { c.Logger = l }
}

// WithPanicHandler sets the handler for panicking tasks.
func WithPanicHandler(h core.PanicHandler) Option {
	return func(c *core.RunnerConfig) { c.PanicHandler = h }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m core.Metrics) Option {
	return func(c *core.RunnerConfig) { c.Metrics = m }
}

// WithRejectedTaskHandler sets the handler for refused submissions.
func WithRejectedTaskHandler(h core.RejectedTaskHandler) Option {
	return func(c *core.RunnerConfig) { c.RejectedTaskHandler = h }
}

// WithHistoryCapacity bounds the execution history.
func WithHistoryCapacity(n int) Option {
	return func(c *core.RunnerConfig) { c.HistoryCapacity = n }
}

// WithConfig copies every set field of cfg.
func WithConfig(cfg *core.RunnerConfig) Option {
	return func(c *core.RunnerConfig) {
		if cfg == nil {
			return
		}
		if cfg.Name != "" {
			c.Name = cfg.Name
		}
		if cfg.Logger != nil {
			c.Logger = cfg.Logger
		}
		if cfg.PanicHandler != nil {
			c.PanicHandler = cfg.PanicHandler
		}
		if cfg.Metrics != nil {
			c.Metrics = cfg.Metrics
		}
		if cfg.RejectedTaskHandler != nil {
			c.RejectedTaskHandler = cfg.RejectedTaskHandler
		}
		if cfg.HistoryCapacity > 0 {
			c.HistoryCapacity = cfg.HistoryCapacity
		}
	}
}

// NewPriorityTaskRunner creates a runner with the given number of workers.
// No goroutine is started until Start.
func NewPriorityTaskRunner(workers int, opts ...Option) (*PriorityTaskRunner, error) {
	if workers < 1 {
		return nil, fmt.Errorf("new runner with %d workers: %w", workers, core.ErrInvalidWorkerCount)
	}

	var cfg core.RunnerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.WithDefaults()
	if cfg.Name == "" {
		cfg.Name = "runner-" + uuid.NewString()[:8]
	}

	return &PriorityTaskRunner{
		name:                cfg.Name,
		workers:             workers,
		scheduler:           core.NewTaskScheduler(workers),
		history:             core.NewExecutionHistory(cfg.HistoryCapacity),
		logger:              cfg.Logger,
		panicHandler:        cfg.PanicHandler,
		metrics:             cfg.Metrics,
		rejectedTaskHandler: cfg.RejectedTaskHandler,
		stopCh:              make(chan struct{}),
		execSem:             make(chan struct{}, 1),
		workerSts:           make([]atomic.Int32, workers),
	}, nil
}

// Start launches all workers and returns once every one of them is live.
//
// If ctx ends before the barrier is reached, the runner is stopped and
// ctx.Err() is returned.
func (r *PriorityTaskRunner) Start(ctx context.Context) error {
	r.stateMu.Lock()
	switch r.state.Load() {
	case runnerStarted:
		r.stateMu.Unlock()
		return core.ErrAlreadyStarted
	case runnerStopped:
		r.stateMu.Unlock()
		return core.ErrStopped
	}

	r.baseCtx = context.WithoutCancel(ctx)
	var barrier sync.WaitGroup
	barrier.Add(r.workers)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.workerLoop(i, &barrier)
	}
	r.state.Store(runnerStarted)
	r.stateMu.Unlock()

	live := make(chan struct{})
	go func() {
		barrier.Wait()
		close(live)
	}()

	select {
	case <-live:
	case <-ctx.Done():
		select {
		case <-live:
		default:
			r.logger.Warn("runner start interrupted", core.F("runner", r.name), core.F("error", ctx.Err()))
			_ = r.Stop()
			return fmt.Errorf("start runner %s: %w", r.name, ctx.Err())
		}
	}

	r.logger.Info("runner started",
		core.F("runner", r.name),
		core.F("workers", r.workers),
		core.F("queued", r.scheduler.QueuedTaskCount()),
	)
	return nil
}

// Stop signals all workers and waits until every one has exited.
//
// In-flight tasks run to completion. Tasks still queued are dropped and a
// blocked ExecuteTask caller whose task was not taken yet gets ErrStopped.
// Repeated calls return nil.
func (r *PriorityTaskRunner) Stop() error {
	r.stateMu.Lock()
	switch r.state.Load() {
	case runnerCreated:
		r.stateMu.Unlock()
		return core.ErrNotStarted
	case runnerStarted:
		r.state.Store(runnerStopped)
	}
	r.stateMu.Unlock()

	r.stopOnce.Do(func() {
		dropped := r.scheduler.Shutdown()
		close(r.stopCh)
		r.wg.Wait()

		r.metrics.RecordQueueDepth(r.name, 0)
		fields := []core.Field{core.F("runner", r.name), core.F("live_workers", r.live.Load())}
		if dropped > 0 {
			fields = append(fields, core.F("dropped", dropped))
			r.logger.Warn("runner stopped with queued tasks", fields...)
			return
		}
		r.logger.Info("runner stopped", fields...)
	})
	return nil
}

// ScheduleTask queues t for execution by priority and returns immediately.
// It may be called before Start. A nil listener is replaced by core.NopListener.
func (r *PriorityTaskRunner) ScheduleTask(t core.Task, listener core.NotificationListener) error {
	if t == nil {
		return core.ErrNilTask
	}
	if listener == nil {
		listener = core.NopListener{}
	}

	if err := r.scheduler.Schedule(t, listener); err != nil {
		r.reject(t, "stopped")
		return fmt.Errorf("schedule task %d: %w", t.ID(), err)
	}
	r.metrics.RecordQueueDepth(r.name, r.scheduler.QueuedTaskCount())
	return nil
}

// ExecuteTask runs t on a worker ahead of every queued task and blocks until
// its completion notification fired. Concurrent callers are served one at a
// time, each with its own completion signal.
//
// If ctx ends while t is still waiting for a worker, t is withdrawn. If a
// worker already took it, ExecuteTask returns ctx.Err() and t still runs to completion.
func (r *PriorityTaskRunner) ExecuteTask(ctx context.Context, t core.Task, listener core.NotificationListener) error {
	if t == nil {
		return core.ErrNilTask
	}
	switch r.state.Load() {
	case runnerCreated:
		return fmt.Errorf("execute task %d: %w", t.ID(), core.ErrNotStarted)
	case runnerStopped:
		r.reject(t, "stopped")
		return fmt.Errorf("execute task %d: %w", t.ID(), core.ErrStopped)
	}
	if listener == nil {
		listener = core.NopListener{}
	}

	select {
	case r.execSem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("execute task %d: %w", t.ID(), ctx.Err())
	}
	defer func() { <-r.execSem }()

	sub := core.NewSubmission(t, listener)
	if err := r.scheduler.Offer(sub); err != nil {
		if errors.Is(err, core.ErrStopped) {
			r.reject(t, "stopped")
		}
		return fmt.Errorf("execute task %d: %w", t.ID(), err)
	}

	err := sub.Wait(ctx)
	if err != nil && ctx.Err() != nil && r.scheduler.Withdraw(sub) {
		r.logger.Debug("execute task withdrawn", core.F("runner", r.name), core.F("task_id", t.ID()))
	}
	if err != nil {
		return fmt.Errorf("execute task %d: %w", t.ID(), err)
	}
	return nil
}

func (r *PriorityTaskRunner) reject(t core.Task, reason string) {
	r.rejected.Add(1)
	r.rejectedTaskHandler.HandleRejectedTask(r.name, t, reason)
	r.metrics.RecordTaskRejected(r.name, reason)
}

// workerLoop is the main loop for each worker
func (r *PriorityTaskRunner) workerLoop(id int, barrier *sync.WaitGroup) {
	defer r.wg.Done()
	defer func() {
		r.live.Add(-1)
		r.setWorkerState(id, core.WorkerTerminated)
	}()

	r.live.Add(1)
	r.setWorkerState(id, core.WorkerLive)
	barrier.Done()

	ctx := core.WithWorker(r.baseCtx, r.name, id)
	for {
		r.setWorkerState(id, core.WorkerIdle)
		work, ok := r.scheduler.GetWork(r.stopCh)
		if !ok {
			return
		}

		r.setWorkerState(id, core.WorkerRunningTask)
		r.scheduler.OnTaskStart()
		r.runWork(ctx, id, work)
		r.scheduler.OnTaskEnd()
	}
}

// runWork delivers commence, runs the task and delivers completion.
// Faults in any of the three are contained here.
func (r *PriorityTaskRunner) runWork(ctx context.Context, workerID int, work core.Work) {
	task := work.Entry.Task
	listener := work.Entry.Listener

	r.notify(listener, task, "commence")

	startedAt := time.Now()
	panicked := r.runTask(ctx, workerID, task)
	finishedAt := time.Now()
	duration := finishedAt.Sub(startedAt)

	r.notify(listener, task, "completion")

	r.metrics.RecordTaskDuration(r.name, work.Source, duration)
	r.history.Add(core.TaskExecutionRecord{
		TaskID:     task.ID(),
		Priority:   task.Priority(),
		Source:     work.Source,
		RunnerName: r.name,
		WorkerID:   workerID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   duration,
		Panicked:   panicked,
	})

	if work.Submission != nil {
		work.Submission.Complete(nil)
	}
}

func (r *PriorityTaskRunner) runTask(ctx context.Context, workerID int, task core.Task) (panicked bool) {
	defer func() {
		if p := recover(); p != nil {
			panicked = true
			r.panicHandler.HandlePanic(ctx, r.name, workerID, task, p, debug.Stack())
			r.metrics.RecordTaskPanic(r.name, p)
		}
	}()
	task.Run(ctx)
	return false
}

func (r *PriorityTaskRunner) notify(listener core.NotificationListener, task core.Task, event string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("listener panicked",
				core.F("runner", r.name),
				core.F("task_id", task.ID()),
				core.F("event", event),
				core.F("panic", p),
			)
			r.metrics.RecordListenerPanic(r.name, event)
		}
	}()

	if event == "commence" {
		listener.OnTaskCommence(task)
		return
	}
	listener.OnTaskCompletion(task)
}

func (r *PriorityTaskRunner) setWorkerState(id int, s core.WorkerState) {
	r.workerSts[id].Store(int32(s))
}

// NumTasks returns the number of tasks waiting in the queue. A task staged by
// ExecuteTask or already running is not counted.
func (r *PriorityTaskRunner) NumTasks() int {
	return r.scheduler.QueuedTaskCount()
}

// Name returns the name of the runner
func (r *PriorityTaskRunner) Name() string {
	return r.name
}

// IsRunning reports whether the runner has been started and not stopped.
func (r *PriorityTaskRunner) IsRunning() bool {
	return r.state.Load() == runnerStarted
}

// WorkerCount returns the number of workers
func (r *PriorityTaskRunner) WorkerCount() int {
	return r.workers
}

// LiveWorkerCount returns how many worker goroutines are currently alive.
func (r *PriorityTaskRunner) LiveWorkerCount() int {
	return int(r.live.Load())
}

func (r *PriorityTaskRunner) ActiveTaskCount() int {
	return r.scheduler.ActiveTaskCount()
}

// WorkerStates returns a snapshot of every worker's state, indexed by worker ID.
func (r *PriorityTaskRunner) WorkerStates() []core.WorkerState {
	out := make([]core.WorkerState, len(r.workerSts))
	for i := range r.workerSts {
		out[i] = core.WorkerState(r.workerSts[i].Load())
	}
	return out
}

// Stats returns a point-in-time snapshot of the runner.
func (r *PriorityTaskRunner) Stats() core.PoolStats {
	return core.PoolStats{
		ID:          r.name,
		Workers:     r.workers,
		LiveWorkers: r.LiveWorkerCount(),
		Queued:      r.scheduler.QueuedTaskCount(),
		Active:      r.scheduler.ActiveTaskCount(),
		Executing:   r.scheduler.Executing(),
		Rejected:    r.rejected.Load(),
		Running:     r.IsRunning(),
	}
}

// RecentTasks returns up to limit execution records, newest first.
func (r *PriorityTaskRunner) RecentTasks(limit int) []core.TaskExecutionRecord {
	return r.history.Recent(limit)
}

// LastTask returns the most recent execution record.
func (r *PriorityTaskRunner) LastTask() (core.TaskExecutionRecord, bool) {
	return r.history.Last()
}

// =============================================================================
// Global Runner Helper (Singleton)
// =============================================================================

var (
	globalRunner *PriorityTaskRunner
	globalMu     sync.Mutex
)

// InitGlobalRunner creates and starts the process-wide runner.
// Calling it again while a global runner exists is a no-op.
func InitGlobalRunner(workers int, opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRunner != nil {
		return nil
	}

	r, err := NewPriorityTaskRunner(workers, append([]Option{WithName("global-runner")}, opts...)...)
	if err != nil {
		return err
	}
	if err := r.Start(context.Background()); err != nil {
		return err
	}
	globalRunner = r
	return nil
}

// GetGlobalRunner returns the global runner instance.
// It panics if InitGlobalRunner has not been called.
func GetGlobalRunner() *PriorityTaskRunner {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRunner == nil {
		panic("global runner not initialized. Call InitGlobalRunner() first.")
	}
	return globalRunner
}

// ShutdownGlobalRunner stops the global runner.
func ShutdownGlobalRunner() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRunner != nil {
		_ = globalRunner.Stop()
		globalRunner = nil
	}
}
