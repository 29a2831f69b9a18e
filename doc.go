// Package taskrunner provides a bounded pool of worker goroutines that runs
// tasks by priority.
//
// Two submission modes are supported. ScheduleTask queues a task and returns
// immediately; the task's NotificationListener is told when it commences and
// when it completes. ExecuteTask hands a task to the next free worker ahead of
// everything queued and blocks until it has completed.
//
// # Quick Start
//
//	runner, err := taskrunner.NewPriorityTaskRunner(4)
//	if err != nil {
//		return err
//	}
//	if err := runner.Start(ctx); err != nil {
//		return err
//	}
//	defer runner.Stop()
//
//	runner.ScheduleTask(taskrunner.NewTask(100, 15, func(ctx context.Context) {
//		// work
//	}), taskrunner.ListenerFuncs{
//		Completion: func(t taskrunner.Task) { log.Printf("task %d done", t.ID()) },
//	})
//
//	// Blocks until the task ran.
//	runner.ExecuteTask(ctx, taskrunner.NewTask(200, 0, doWork), nil)
//
// # Ordering
//
// Queued tasks are picked highest Priority first. Tasks with equal priority
// are picked in submission order. With several workers polling concurrently,
// priority decides queue position, not a global order of commencement.
//
// # Lifecycle
//
// Start returns once every worker goroutine is live. Stop returns once every
// worker goroutine has exited; tasks already running finish, tasks still
// queued are dropped. Faults in tasks and listeners are recovered per task
// and reported through core.PanicHandler, core.Metrics and core.Logger.
//
// See the observability/prometheus package for a Prometheus adapter.
package taskrunner
