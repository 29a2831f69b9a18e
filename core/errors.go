package core

import "errors"

var (
	// ErrInvalidWorkerCount is returned when a runner is created with fewer than one worker.
	ErrInvalidWorkerCount = errors.New("taskrunner: worker count must be at least 1")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("taskrunner: task is nil")

	// ErrNotStarted is returned by operations that need live workers.
	ErrNotStarted = errors.New("taskrunner: runner not started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("taskrunner: runner already started")

	// ErrStopped is returned once the runner has been stopped.
	ErrStopped = errors.New("taskrunner: runner stopped")

	// ErrSlotOccupied is returned when the execution slot already holds a submission.
	ErrSlotOccupied = errors.New("taskrunner: execution slot occupied")
)
