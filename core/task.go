package core

import (
	"context"
)

// TaskID identifies a submitted task. Uniqueness is the caller's responsibility.
type TaskID int

// Task is the unit of work executed by a PriorityTaskRunner.
//
// Higher Priority values run first. A task is immutable once submitted.
type Task interface {
	ID() TaskID
	Priority() int
	Run(ctx context.Context)
}

// funcTask adapts a closure to the Task interface.
type funcTask struct {
	id       TaskID
	priority int
	fn       func(ctx context.Context)
}

// NewTask returns a Task that runs fn.
func NewTask(id TaskID, priority int, fn func(ctx context.Context)) Task {
	return &funcTask{id: id, priority: priority, fn: fn}
}

func (t *funcTask) ID() TaskID    { return t.id }
func (t *funcTask) Priority() int { return t.priority }

func (t *funcTask) Run(ctx context.Context) {
	if t.fn != nil {
		t.fn(ctx)
	}
}

// =============================================================================
// NotificationListener: lifecycle callbacks around a task run
// =============================================================================

// NotificationListener receives a commence and a completion callback per task.
// Both are delivered synchronously on the worker goroutine that runs the task,
// OnTaskCommence immediately before Run and OnTaskCompletion immediately after.
type NotificationListener interface {
	OnTaskCommence(t Task)
	OnTaskCompletion(t Task)
}

// NopListener ignores all notifications.
type NopListener struct{}

func (NopListener) OnTaskCommence(Task)   {}
func (NopListener) OnTaskCompletion(Task) {}

// ListenerFuncs adapts a pair of functions to NotificationListener. Nil fields are skipped.
type ListenerFuncs struct {
	Commence   func(t Task)
	Completion func(t Task)
}

func (l ListenerFuncs) OnTaskCommence(t Task) {
	if l.Commence != nil {
		l.Commence(t)
	}
}

func (l ListenerFuncs) OnTaskCompletion(t Task) {
	if l.Completion != nil {
		l.Completion(t)
	}
}

// LoggingListener reports notifications through a Logger.
type LoggingListener struct {
	Logger Logger
}

// NewLoggingListener creates a LoggingListener. A nil logger falls back to DefaultLogger.
func NewLoggingListener(logger Logger) *LoggingListener {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	return &LoggingListener{Logger: logger}
}

func (l *LoggingListener) OnTaskCommence(t Task) {
	l.Logger.Info("task commenced", F("task_id", t.ID()), F("priority", t.Priority()))
}

func (l *LoggingListener) OnTaskCompletion(t Task) {
	l.Logger.Info("task completed", F("task_id", t.ID()), F("priority", t.Priority()))
}

// =============================================================================
// Context Helper
// =============================================================================

type workerKeyType struct{}
type runnerNameKeyType struct{}

var (
	workerKey     workerKeyType
	runnerNameKey runnerNameKeyType
)

// WithWorker returns a context carrying the runner name and worker ID.
func WithWorker(ctx context.Context, runnerName string, workerID int) context.Context {
	ctx = context.WithValue(ctx, runnerNameKey, runnerName)
	return context.WithValue(ctx, workerKey, workerID)
}

// WorkerIDFromContext returns the ID of the worker running the current task.
func WorkerIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerKey).(int)
	return id, ok
}

// RunnerNameFromContext returns the name of the runner executing the current task.
func RunnerNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(runnerNameKey).(string); ok {
		return v
	}
	return ""
}
