// Command prtrunner drives a PriorityTaskRunner through a sample workload and
// optionally exposes its metrics for Prometheus.
package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// Honour container CPU quotas before sizing anything on GOMAXPROCS.
	undo, _ := maxprocs.Set()
	defer undo()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
