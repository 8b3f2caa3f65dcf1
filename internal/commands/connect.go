package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ynab-sync/ynab-sync/internal/callback"
	"github.com/ynab-sync/ynab-sync/internal/config"
	"github.com/ynab-sync/ynab-sync/internal/gocardless"
)

type connectOptions struct {
	redirect       string
	wait           bool
	timeout        time.Duration
	maxHistoryDays int
	accessDays     int
	language       string
}

func newConnectCommand(a *app) *cobra.Command {
	var opts connectOptions

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Link a bank through GoCardless",
		Long: "Create a bank-link session for the configured institution and print the\n" +
			"link to open in a browser. With --wait, listen on the redirect address until\n" +
			"the bank sends the browser back.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd, runConnect(cmd.Context(), a, cmd.OutOrStdout(), opts))
		},
	}

	cmd.Flags().StringVar(&opts.redirect, "redirect", "", "redirect URL (default from config, then "+config.DefaultRedirectURL+")")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "wait for the bank redirect on the local redirect address")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "how long --wait waits")
	cmd.Flags().IntVar(&opts.maxHistoryDays, "max-history-days", 0, "request this many days of history (creates an end user agreement)")
	cmd.Flags().IntVar(&opts.accessDays, "access-days", 0, "keep access valid for this many days (creates an end user agreement)")
	cmd.Flags().StringVar(&opts.language, "language", "", "two-letter language for the bank pages")

	return cmd
}

func runConnect(ctx context.Context, a *app, out io.Writer, opts connectOptions) error {
	doc, err := a.store.Load()
	if err != nil {
		return err
	}
	if err := doc.RequireInstitution(); err != nil {
		return err
	}

	redirect := opts.redirect
	if redirect == "" {
		redirect = doc.RedirectURL()
	}

	var listener *callback.Listener
	if opts.wait {
		listener, err = callback.Listen(redirect, a.log)
		if err != nil {
			return err
		}
		defer listener.Close()
		redirect = listener.URL()
	}

	client, err := a.bankClient(doc)
	if err != nil {
		return err
	}

	req := gocardless.RequisitionRequest{
		Redirect:      redirect,
		InstitutionID: doc.GoCardless.InstitutionID,
		Reference:     uuid.NewString(),
		UserLanguage:  opts.language,
	}
	if opts.maxHistoryDays > 0 || opts.accessDays > 0 {
		agreement, err := client.CreateEndUserAgreement(ctx, gocardless.AgreementRequest{
			InstitutionID:      doc.GoCardless.InstitutionID,
			MaxHistoricalDays:  opts.maxHistoryDays,
			AccessValidForDays: opts.accessDays,
		})
		if err != nil {
			return fmt.Errorf("creating agreement: %w", err)
		}
		req.Agreement = agreement.ID
	}

	requisition, err := client.CreateRequisition(ctx, req)
	if err != nil {
		return fmt.Errorf("creating requisition: %w", err)
	}

	doc.GoCardless.RequisitionID = requisition.ID
	doc.AccountsValidated = nil
	if err := a.store.Save(doc); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nPlease complete authentication by visiting: %s\n", requisition.Link)
	if !opts.wait {
		fmt.Fprintln(out, "After authentication, run 'ynab-sync map-accounts' to set up account mappings.")
		return nil
	}

	fmt.Fprintln(out, "Waiting for the bank to redirect back...")
	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if _, err := listener.Wait(waitCtx, req.Reference); err != nil {
		return fmt.Errorf("waiting for bank redirect: %w", err)
	}

	linked, err := client.GetRequisition(ctx, requisition.ID)
	if err != nil {
		return err
	}
	if !linked.Linked() {
		fmt.Fprintln(out, "No bank accounts found. Please complete authentication first.")
		return nil
	}
	fmt.Fprintf(out, "Bank connected with %d account(s). Run 'ynab-sync map-accounts' next.\n", len(linked.Accounts))
	return nil
}
