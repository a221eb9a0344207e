package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knomic/pluginsync/internal/scheduler"
	"github.com/spf13/cobra"
)

var runLogFormat string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drain the work queue in the background",
	Long: `Start the scheduler loop. Every poll_interval the daemon checks whether the
scheduled task is due; when it is, one tick runs. The daemon keeps running
after the queue drains so later imports are picked up. Stop it with SIGINT or
SIGTERM; an in-flight tick is allowed to finish.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runLogFormat, "log-format", "json", "Log format: json or text")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd.ErrOrStderr(), runLogFormat)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.Engine(ctx)
	if err != nil {
		return err
	}

	// Recover a queue whose trigger was lost, e.g. after a crash between a
	// pop and the re-arm.
	if _, err := engine.Resume(ctx); err != nil {
		return err
	}

	runner := scheduler.NewRunner(a.scheduler, func(ctx context.Context) error {
		_, err := engine.Tick(ctx)
		return err
	}, a.settings.PollInterval, a.logger)

	if err := runner.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.logger.Info("Shutting down")

	// A running tick ignores the signal and is bounded by http_timeout.
	stopCtx, cancel := context.WithTimeout(context.Background(), a.settings.HTTPTimeout+5*time.Second)
	defer cancel()
	return runner.Stop(stopCtx)
}
