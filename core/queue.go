package core

import (
	"container/heap"
)

const defaultQueueCap = 16

// TaskEntry pairs a task with the listener registered for it.
// The pair travels together so a worker never sees a task without its listener.
type TaskEntry struct {
	Task     Task
	Listener NotificationListener
}

// =============================================================================
// PriorityTaskQueue: Max-Heap on priority with Stability (FIFO for same priority)
// =============================================================================

type priorityItem struct {
	TaskEntry
	priority int    // cached, Task is immutable once submitted
	sequence uint64 // For stability
	index    int    // For heap
}

// priorityHeap implements heap.Interface
type priorityHeap []*priorityItem

func (h priorityHeap) Len() int { return len(h) }

// Less implements priority logic: High priority first, then Small sequence first (FIFO)
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].sequence < h[j].sequence
}

func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *priorityHeap) Push(x any) {
	n := len(*h)
	item := x.(*priorityItem)
	item.index = n
	*h = append(*h, item)
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // Avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

// PriorityTaskQueue orders pending tasks by (priority desc, arrival asc).
//
// It is not safe for concurrent use; the TaskScheduler guards it with the
// pool-wide lock.
type PriorityTaskQueue struct {
	pq           priorityHeap
	nextSequence uint64
}

func NewPriorityTaskQueue() *PriorityTaskQueue {
	return &PriorityTaskQueue{
		pq: make(priorityHeap, 0, defaultQueueCap),
	}
}

func (q *PriorityTaskQueue) Push(t Task, listener NotificationListener) {
	item := &priorityItem{
		TaskEntry: TaskEntry{Task: t, Listener: listener},
		priority:  t.Priority(),
		sequence:  q.nextSequence,
	}
	q.nextSequence++

	heap.Push(&q.pq, item)
}

// Pop removes the highest-priority entry. It never blocks.
func (q *PriorityTaskQueue) Pop() (TaskEntry, bool) {
	if len(q.pq) == 0 {
		return TaskEntry{}, false
	}

	item := heap.Pop(&q.pq).(*priorityItem)
	return item.TaskEntry, true
}

// PeekPriority reports the priority of the entry Pop would return.
func (q *PriorityTaskQueue) PeekPriority() (int, bool) {
	if len(q.pq) == 0 {
		return 0, false
	}
	return q.pq[0].priority, true
}

func (q *PriorityTaskQueue) Len() int {
	return len(q.pq)
}

func (q *PriorityTaskQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear drops all entries and returns how many were dropped.
func (q *PriorityTaskQueue) Clear() int {
	n := len(q.pq)
	q.pq = make(priorityHeap, 0, defaultQueueCap)
	q.nextSequence = 0
	return n
}
