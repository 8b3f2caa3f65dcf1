package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ynab-sync/ynab-sync/internal/engine"
	"github.com/ynab-sync/ynab-sync/internal/synclog"
)

func newSyncCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import new bank transactions into YNAB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			res, err := runPass(cmd.Context(), a, out, "sync")
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(out, "Successfully added %d transactions to YNAB.\n", res.Added)
			return nil
		},
	}
}

// runPass runs one engine pass, prints its progress and records it in the
// sync history.
func runPass(ctx context.Context, a *app, out io.Writer, trigger string) (engine.Result, error) {
	eng, err := a.newEngine(progressPrinter(out))
	if err != nil {
		return engine.Result{}, err
	}

	res, runErr := eng.Run(ctx)

	entry := synclog.Entry{
		Timestamp:  time.Now(),
		Trigger:    trigger,
		Status:     synclog.StatusOK,
		Added:      res.Added,
		Duplicates: res.Duplicates,
		Details:    fmt.Sprintf("%d account(s) submitted", res.Accounts),
	}
	if runErr != nil {
		entry.Status = synclog.StatusFailed
		entry.Details = runErr.Error()
	}
	if err := synclog.Append(a.configDir(), entry); err != nil {
		a.log.Warn("recording sync history", zap.Error(err))
	}

	if runErr != nil {
		return engine.Result{}, fmt.Errorf("sync failed: %w", runErr)
	}
	return res, nil
}

func progressPrinter(out io.Writer) engine.Observer {
	return func(ev engine.Event) {
		switch ev.Kind {
		case engine.EventAccountMissing:
			fmt.Fprintf(out, "Warning: Bank account %s not found in current session\n", ev.BankAccountID)
		case engine.EventAccountSkipped:
			if ev.Reason == engine.ReasonNoTransactions {
				fmt.Fprintf(out, "%s: no new transactions\n", ev.BankAccountID)
			}
		case engine.EventAccountSynced:
			fmt.Fprintf(out, "%s -> %s: %d submitted, %d added, %d duplicate(s)\n",
				ev.BankAccountID, ev.BudgetAccountID, ev.Submitted, ev.Added, ev.Duplicates)
		}
	}
}
