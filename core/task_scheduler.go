package core

import (
	"sync"
	"sync/atomic"
)

// Work is one unit handed to a worker by GetWork.
type Work struct {
	Entry  TaskEntry
	Source TaskSource

	// Submission is set when the task came from the execution slot.
	Submission *Submission
}

// TaskScheduler decides what a worker runs next.
//
// The priority queue and the execution slot share one lock. The lock is held
// only while choosing the next task, never while a task or listener runs.
type TaskScheduler struct {
	mu           sync.Mutex
	queue        *PriorityTaskQueue
	slot         ExecutionSlot
	shuttingDown bool

	signal      chan struct{}
	workerCount int

	metricQueued int32 // Waiting in queue
	metricActive int32 // Executing in Worker
}

func NewTaskScheduler(workerCount int) *TaskScheduler {
	return &TaskScheduler{
		queue:       NewPriorityTaskQueue(),
		signal:      make(chan struct{}, workerCount*2),
		workerCount: workerCount,
	}
}

// Schedule queues t with its listener. The pair becomes visible to workers atomically.
func (s *TaskScheduler) Schedule(t Task, listener NotificationListener) error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return ErrStopped
	}
	s.queue.Push(t, listener)
	atomic.AddInt32(&s.metricQueued, 1)
	s.mu.Unlock()

	s.wake()
	return nil
}

// Offer stages sub in the execution slot, ahead of every queued task.
func (s *TaskScheduler) Offer(sub *Submission) error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return ErrStopped
	}
	if err := s.slot.Put(sub); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.wake()
	return nil
}

// Withdraw removes sub from the slot if no worker has taken it yet.
func (s *TaskScheduler) Withdraw(sub *Submission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.Remove(sub)
}

func (s *TaskScheduler) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
		// Signal channel full, but task is already queued.
		// Pending signals guarantee a worker will re-check.
	}
}

// next picks the slot submission first, then the highest-priority queued task.
func (s *TaskScheduler) next() (Work, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.slot.Take(); ok {
		return Work{Entry: sub.Entry, Source: TaskSourceExecute, Submission: sub}, true
	}
	if entry, ok := s.queue.Pop(); ok {
		atomic.AddInt32(&s.metricQueued, -1)
		return Work{Entry: entry, Source: TaskSourceQueue}, true
	}
	return Work{}, false
}

// GetWork (Called by Worker) blocks until work is available or stopCh is closed.
// A closed stopCh wins over pending work, so queued tasks are not started after a stop request.
func (s *TaskScheduler) GetWork(stopCh <-chan struct{}) (Work, bool) {
	for {
		select {
		case <-stopCh:
			return Work{}, false
		default:
		}

		if w, ok := s.next(); ok {
			return w, true
		}

		select {
		case <-s.signal:
			continue
		case <-stopCh:
			return Work{}, false
		}
	}
}

// Shutdown rejects further submissions, fails a staged submission with
// ErrStopped and drops queued tasks. It returns the number of dropped tasks.
func (s *TaskScheduler) Shutdown() int {
	s.mu.Lock()
	s.shuttingDown = true
	sub, staged := s.slot.Take()
	dropped := s.queue.Clear()
	atomic.StoreInt32(&s.metricQueued, 0)
	s.mu.Unlock()

	if staged {
		sub.Complete(ErrStopped)
	}
	return dropped
}

// IsShuttingDown reports whether Shutdown was called.
func (s *TaskScheduler) IsShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}

// Executing reports whether a blocking submission is staged and not yet taken.
func (s *TaskScheduler) Executing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.Occupied()
}

// Metrics
func (s *TaskScheduler) WorkerCount() int     { return s.workerCount }
func (s *TaskScheduler) QueuedTaskCount() int { return int(atomic.LoadInt32(&s.metricQueued)) }
func (s *TaskScheduler) ActiveTaskCount() int { return int(atomic.LoadInt32(&s.metricActive)) }

func (s *TaskScheduler) OnTaskStart() {
	atomic.AddInt32(&s.metricActive, 1)
}

func (s *TaskScheduler) OnTaskEnd() {
	atomic.AddInt32(&s.metricActive, -1)
}
