package core

import (
	"context"
	"testing"
)

func testTask(id TaskID, priority int) Task {
	return NewTask(id, priority, func(ctx context.Context) {})
}

// TestPriorityTaskQueue_Stability verifies priority-based task ordering
// Given: A priority queue with mixed-priority tasks
// When: Tasks are popped from the queue
// Then: Higher priorities come first, FIFO within the same priority
func TestPriorityTaskQueue_Stability(t *testing.T) {
	// Arrange
	q := NewPriorityTaskQueue()

	// Act - Push tasks with mixed priorities
	q.Push(testTask(1, 0), NopListener{})
	q.Push(testTask(2, 10), NopListener{})
	q.Push(testTask(3, 0), NopListener{})
	q.Push(testTask(4, 10), NopListener{})
	q.Push(testTask(5, 5), NopListener{})

	expectedIDs := []TaskID{2, 4, 5, 1, 3}

	// Assert - Verify priority order
	for i, want := range expectedIDs {
		entry, ok := q.Pop()
		if !ok {
			t.Fatalf("Step %d: queue is empty, want task %d", i, want)
		}
		if entry.Task.ID() != want {
			t.Errorf("Step %d: task = %d, want %d", i, entry.Task.ID(), want)
		}
	}
}

// TestPriorityTaskQueue_ScenarioOrder verifies the documented six-task order
// Given: Priorities 5, 15, 11, 20, 12, 14 pushed in that order
// When: All are popped
// Then: They come out as 20, 15, 14, 12, 11, 5
func TestPriorityTaskQueue_ScenarioOrder(t *testing.T) {
	q := NewPriorityTaskQueue()
	for i, p := range []int{5, 15, 11, 20, 12, 14} {
		q.Push(testTask(TaskID(i), p), NopListener{})
	}

	want := []int{20, 15, 14, 12, 11, 5}
	for i, w := range want {
		entry, ok := q.Pop()
		if !ok {
			t.Fatalf("Step %d: queue is empty", i)
		}
		if got := entry.Task.Priority(); got != w {
			t.Errorf("Step %d: priority = %d, want %d", i, got, w)
		}
	}
}

// TestPriorityTaskQueue_NegativePriorities verifies priorities are plain integers
func TestPriorityTaskQueue_NegativePriorities(t *testing.T) {
	q := NewPriorityTaskQueue()
	q.Push(testTask(1, -5), NopListener{})
	q.Push(testTask(2, 0), NopListener{})
	q.Push(testTask(3, -1), NopListener{})

	for i, want := range []TaskID{2, 3, 1} {
		entry, _ := q.Pop()
		if entry.Task.ID() != want {
			t.Errorf("Step %d: task = %d, want %d", i, entry.Task.ID(), want)
		}
	}
}

// TestPriorityTaskQueue_ListenerTravelsWithTask verifies the task/listener pairing
// Given: Two tasks pushed with distinct listeners
// When: They are popped
// Then: Each entry carries the listener registered with its task
func TestPriorityTaskQueue_ListenerTravelsWithTask(t *testing.T) {
	q := NewPriorityTaskQueue()

	var got []TaskID
	mk := func(id TaskID) NotificationListener {
		return ListenerFuncs{Commence: func(Task) { got = append(got, id) }}
	}
	q.Push(testTask(1, 1), mk(1))
	q.Push(testTask(2, 9), mk(2))

	for !q.IsEmpty() {
		entry, _ := q.Pop()
		entry.Listener.OnTaskCommence(entry.Task)
		if got[len(got)-1] != entry.Task.ID() {
			t.Fatalf("listener for task %d fired for %d", got[len(got)-1], entry.Task.ID())
		}
	}
}

// TestPriorityTaskQueue_EmptyPop verifies Pop and PeekPriority never block on an empty queue
func TestPriorityTaskQueue_EmptyPop(t *testing.T) {
	q := NewPriorityTaskQueue()

	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue returned ok = true")
	}
	if _, ok := q.PeekPriority(); ok {
		t.Error("PeekPriority() on empty queue returned ok = true")
	}
	if !q.IsEmpty() || q.Len() != 0 {
		t.Errorf("IsEmpty() = %v, Len() = %d, want true, 0", q.IsEmpty(), q.Len())
	}
}

// TestPriorityTaskQueue_PeekAndClear verifies PeekPriority and Clear
// Given: A queue with three tasks
// When: PeekPriority is called, then Clear
// Then: Peek reports the top priority without removing it; Clear reports 3 dropped
func TestPriorityTaskQueue_PeekAndClear(t *testing.T) {
	q := NewPriorityTaskQueue()
	q.Push(testTask(1, 3), NopListener{})
	q.Push(testTask(2, 7), NopListener{})
	q.Push(testTask(3, 5), NopListener{})

	p, ok := q.PeekPriority()
	if !ok || p != 7 {
		t.Errorf("PeekPriority() = %d, %v, want 7, true", p, ok)
	}
	if q.Len() != 3 {
		t.Errorf("Len() after peek = %d, want 3", q.Len())
	}

	if n := q.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if !q.IsEmpty() {
		t.Error("queue not empty after Clear")
	}

	// Queue is usable after Clear
	q.Push(testTask(4, 1), NopListener{})
	if entry, ok := q.Pop(); !ok || entry.Task.ID() != 4 {
		t.Errorf("Pop() after Clear = %v, %v, want task 4", entry.Task, ok)
	}
}
