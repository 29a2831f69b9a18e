package core

import (
	"context"
	"testing"
)

// TestNewTask verifies the closure adapter
func TestNewTask(t *testing.T) {
	ran := false
	task := NewTask(7, -3, func(ctx context.Context) { ran = true })

	if task.ID() != 7 || task.Priority() != -3 {
		t.Errorf("ID(), Priority() = %d, %d, want 7, -3", task.ID(), task.Priority())
	}
	task.Run(context.Background())
	if !ran {
		t.Error("Run() did not call fn")
	}

	// nil fn is a no-op
	NewTask(8, 0, nil).Run(context.Background())
}

// TestListenerFuncs verifies nil callbacks are skipped
func TestListenerFuncs(t *testing.T) {
	var events []string
	l := ListenerFuncs{
		Completion: func(t Task) { events = append(events, "completion") },
	}
	task := testTask(1, 0)

	l.OnTaskCommence(task)
	l.OnTaskCompletion(task)

	if len(events) != 1 || events[0] != "completion" {
		t.Errorf("events = %v, want [completion]", events)
	}

	var nop NopListener
	nop.OnTaskCommence(task)
	nop.OnTaskCompletion(task)
}

// TestLoggingListener verifies both notifications are logged with the task ID
func TestLoggingListener(t *testing.T) {
	logger := &recordingLogger{}
	l := NewLoggingListener(logger)
	task := testTask(100, 15)

	l.OnTaskCommence(task)
	l.OnTaskCompletion(task)

	if len(logger.entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(logger.entries))
	}
	if logger.entries[0].msg != "task commenced" || logger.entries[1].msg != "task completed" {
		t.Errorf("messages = %q, %q", logger.entries[0].msg, logger.entries[1].msg)
	}
	if v := logger.entries[0].field("task_id"); v != TaskID(100) {
		t.Errorf("task_id field = %v, want 100", v)
	}

	if NewLoggingListener(nil).Logger == nil {
		t.Error("NewLoggingListener(nil) left Logger nil")
	}
}

// TestWorkerContext verifies the worker and runner values carried in the task context
func TestWorkerContext(t *testing.T) {
	ctx := WithWorker(context.Background(), "pool-a", 3)

	id, ok := WorkerIDFromContext(ctx)
	if !ok || id != 3 {
		t.Errorf("WorkerIDFromContext() = %d, %v, want 3, true", id, ok)
	}
	if name := RunnerNameFromContext(ctx); name != "pool-a" {
		t.Errorf("RunnerNameFromContext() = %q, want pool-a", name)
	}

	if _, ok := WorkerIDFromContext(context.Background()); ok {
		t.Error("WorkerIDFromContext(Background) returned ok = true")
	}
	if name := RunnerNameFromContext(context.Background()); name != "" {
		t.Errorf("RunnerNameFromContext(Background) = %q, want empty", name)
	}
}
