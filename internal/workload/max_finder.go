// Package workload provides sample tasks for the prtrunner CLI and examples.
package workload

import (
	"context"
	"math/rand/v2"

	"github.com/Swind/go-priority-task-runner/core"
)

const defaultMaxSize = 1000

// MaxFinderTask fills a random array and finds its maximum.
type MaxFinderTask struct {
	id       core.TaskID
	priority int
	maxSize  int
	logger   core.Logger

	// Result holds the maximum found by the last Run. Read it only after
	// the task's completion notification fired.
	Result int
}

// NewMaxFinderTask creates a task scanning arrays of up to maxSize elements.
// maxSize <= 0 uses 1000.
func NewMaxFinderTask(id core.TaskID, priority, maxSize int, logger core.Logger) *MaxFinderTask {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	return &MaxFinderTask{id: id, priority: priority, maxSize: maxSize, logger: logger}
}

func (t *MaxFinderTask) ID() core.TaskID { return t.id }
func (t *MaxFinderTask) Priority() int   { return t.priority }

func (t *MaxFinderTask) Run(ctx context.Context) {
	arr := make([]int, 1+rand.IntN(t.maxSize))
	for i := range arr {
		arr[i] = rand.IntN(51)
	}
	t.Result = FindMax(arr)

	workerID, _ := core.WorkerIDFromContext(ctx)
	t.logger.Info("found max",
		core.F("task_id", t.id),
		core.F("worker_id", workerID),
		core.F("size", len(arr)),
		core.F("max", t.Result),
	)
}

// FindMax returns the largest element of arr, or 0 for an empty slice.
func FindMax(arr []int) int {
	if len(arr) == 0 {
		return 0
	}
	m := arr[0]
	for _, v := range arr[1:] {
		m = max(m, v)
	}
	return m
}
