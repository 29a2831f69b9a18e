package core

import (
	"context"
	"sync"
)

// Submission is one blocking ExecuteTask request. Each submission owns its
// completion signal, so concurrent callers never share one.
type Submission struct {
	Entry TaskEntry

	once sync.Once
	done chan struct{}
	err  error
}

// NewSubmission wraps a task and listener into a pending submission.
func NewSubmission(t Task, listener NotificationListener) *Submission {
	return &Submission{
		Entry: TaskEntry{Task: t, Listener: listener},
		done:  make(chan struct{}),
	}
}

// Complete releases the waiter. err is nil when the task ran to completion.
// Only the first call has an effect.
func (s *Submission) Complete(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Done is closed once the submission is complete.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission completes or ctx ends.
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		select {
		case <-s.done:
			return s.err
		default:
			return ctx.Err()
		}
	}
}

// ExecutionSlot stages at most one submission for the blocking execute path.
//
// It is not safe for concurrent use; the TaskScheduler guards it with the
// pool-wide lock.
type ExecutionSlot struct {
	current *Submission
}

// Put stores sub, or returns ErrSlotOccupied if another submission is staged.
func (s *ExecutionSlot) Put(sub *Submission) error {
	if s.current != nil {
		return ErrSlotOccupied
	}
	s.current = sub
	return nil
}

// Take removes and returns the staged submission.
func (s *ExecutionSlot) Take() (*Submission, bool) {
	sub := s.current
	s.current = nil
	return sub, sub != nil
}

// Remove withdraws sub if it is still staged.
func (s *ExecutionSlot) Remove(sub *Submission) bool {
	if s.current != sub || sub == nil {
		return false
	}
	s.current = nil
	return true
}

func (s *ExecutionSlot) Occupied() bool {
	return s.current != nil
}
