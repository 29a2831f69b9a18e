package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "prtrunner",
		Short: "Run a sample workload on a priority task runner",
		Long: `prtrunner queues a batch of tasks with random priorities, starts a pool of
workers, keeps scheduling while interleaving blocking ExecuteTask calls and
stops the pool once every task has completed.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
	}

	v, err := BindFlags(cmd.Flags())
	if err != nil {
		panic(err)
	}
	cmd.Flags().StringVar(&configFile, "config-file", "", "optional YAML file with the same keys as the flags")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := LoadConfig(v, configFile)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger, closer := newSlogLogger(cfg)
		defer closer.Close()

		if err := runScenario(ctx, cfg, logger, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("prtrunner: %w", err)
		}
		return nil
	}
	return cmd
}
