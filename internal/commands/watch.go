package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCommand(a *app) *cobra.Command {
	var schedule string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run sync passes on a schedule until interrupted",
		Long: "Run a sync pass on a cron schedule (standard 5-field spec or descriptors\n" +
			"such as @hourly and @every 6h). Each pass is independent; a failed pass is\n" +
			"reported and the next one runs as scheduled.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, a, cmd.OutOrStdout(), schedule, runNow)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 6h", "cron schedule for sync passes")
	cmd.Flags().BoolVar(&runNow, "now", true, "run a pass immediately before the first scheduled one")

	return cmd
}

func runWatch(ctx context.Context, a *app, out io.Writer, schedule string, runNow bool) error {
	cronLog := cronLogger{a.log.Named("watch").Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))

	pass := func() { watchPass(ctx, a, out) }
	if _, err := c.AddFunc(schedule, pass); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if runNow {
		pass()
	}

	c.Start()
	fmt.Fprintf(out, "Watching with schedule %q. Press Ctrl+C to stop.\n", schedule)
	<-ctx.Done()

	<-c.Stop().Done()
	fmt.Fprintln(out, "Stopped.")
	return nil
}

func watchPass(ctx context.Context, a *app, out io.Writer) {
	if ctx.Err() != nil {
		return
	}
	res, err := runPass(ctx, a, out, "watch")
	if err != nil {
		fmt.Fprintf(out, "Error during sync: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Successfully added %d transactions to YNAB.\n", res.Added)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
