package taskrunner

import (
	"context"

	"github.com/Swind/go-priority-task-runner/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskrunner package for most use cases.

// Task is the unit of work
type Task = core.Task

// TaskID identifies a task
type TaskID = core.TaskID

// NotificationListener receives commence and completion callbacks
type NotificationListener = core.NotificationListener

// NopListener ignores notifications
type NopListener = core.NopListener

// ListenerFuncs adapts functions to NotificationListener
type ListenerFuncs = core.ListenerFuncs

// PoolStats is a runner snapshot
type PoolStats = core.PoolStats

// TaskExecutionRecord describes one finished task run
type TaskExecutionRecord = core.TaskExecutionRecord

// Errors
var (
	ErrInvalidWorkerCount = core.ErrInvalidWorkerCount
	ErrNilTask            = core.ErrNilTask
	ErrNotStarted         = core.ErrNotStarted
	ErrAlreadyStarted     = core.ErrAlreadyStarted
	ErrStopped            = core.ErrStopped
)

// NewTask returns a Task backed by fn.
func NewTask(id TaskID, priority int, fn func(ctx context.Context)) Task {
	return core.NewTask(id, priority, fn)
}

// WorkerIDFromContext returns the worker running the current task.
var WorkerIDFromContext = core.WorkerIDFromContext
