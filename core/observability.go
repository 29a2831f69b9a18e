package core

import "time"

// TaskSource tells where a worker picked a task up from.
type TaskSource string

const (
	// TaskSourceQueue marks tasks submitted with ScheduleTask.
	TaskSourceQueue TaskSource = "queue"
	// TaskSourceExecute marks tasks submitted with ExecuteTask.
	TaskSourceExecute TaskSource = "execute"
)

// WorkerState is the lifecycle state of one worker goroutine.
type WorkerState int32

const (
	WorkerCreated WorkerState = iota
	WorkerLive
	WorkerIdle
	WorkerRunningTask
	WorkerTerminated
)

func (s WorkerState) String() string {
	switch s {
	case WorkerCreated:
		return "created"
	case WorkerLive:
		return "live"
	case WorkerIdle:
		return "idle"
	case WorkerRunningTask:
		return "running"
	case WorkerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// TaskExecutionRecord captures a completed task execution event.
type TaskExecutionRecord struct {
	TaskID     TaskID
	Priority   int
	Source     TaskSource
	RunnerName string
	WorkerID   int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Panicked   bool
}

// PoolStats represents runtime observability state for a runner.
type PoolStats struct {
	ID          string
	Workers     int
	LiveWorkers int
	Queued      int
	Active      int
	Executing   bool // a blocking submission is staged in the execution slot
	Rejected    int64
	Running     bool
}
