package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ynab-sync/ynab-sync/internal/synclog"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := synclog.Tail(a.configDir(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of passes to show (0 for all)")

	return cmd
}

func printHistory(w io.Writer, entries []synclog.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No sync history yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-5s  %-6s  added=%d duplicates=%d  %s\n",
			e.Timestamp.Local().Format(time.DateTime), e.Trigger, e.Status, e.Added, e.Duplicates, e.Details)
	}
}
