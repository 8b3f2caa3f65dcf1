package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ynab-sync/ynab-sync/internal/gocardless"
)

func newAccountsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "Show linked bank accounts, balances and mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd, runAccounts(cmd.Context(), a, cmd.OutOrStdout()))
		},
	}
}

func runAccounts(ctx context.Context, a *app, out io.Writer) error {
	doc, err := a.store.Load()
	if err != nil {
		return err
	}
	if err := doc.RequireConnection(); err != nil {
		return err
	}

	client, err := a.bankClient(doc)
	if err != nil {
		return err
	}
	requisition, err := client.GetRequisition(ctx, doc.GoCardless.RequisitionID)
	if err != nil {
		return fmt.Errorf("fetching requisition: %w", err)
	}
	if !requisition.Linked() {
		fmt.Fprintln(out, "No bank accounts found. Please complete authentication first.")
		return nil
	}

	for _, accountID := range requisition.Accounts {
		details, err := client.GetAccountDetails(ctx, accountID)
		if err != nil {
			return fmt.Errorf("fetching details for %s: %w", accountID, err)
		}
		balances, err := client.GetAccountBalances(ctx, accountID)
		if err != nil {
			return fmt.Errorf("fetching balances for %s: %w", accountID, err)
		}

		mapped, ok := doc.AccountMappings.Get(accountID)
		if !ok {
			mapped = "(not mapped)"
		}

		fmt.Fprintf(out, "\n%s (%s)\n", orDefault(details.Name, "Unknown Account"), orDefault(details.IBAN, "No IBAN"))
		fmt.Fprintf(out, "  ID:      %s\n", accountID)
		fmt.Fprintf(out, "  Balance: %s\n", formatBalance(balances))
		fmt.Fprintf(out, "  YNAB:    %s\n", mapped)
	}
	return nil
}

// balancePreference orders the balance types shown, most useful first.
var balancePreference = []string{"interimAvailable", "expected", "closingBooked", "interimBooked"}

func formatBalance(balances []gocardless.Balance) string {
	if len(balances) == 0 {
		return "unavailable"
	}
	pick := balances[0]
pref:
	for _, t := range balancePreference {
		for _, b := range balances {
			if b.BalanceType == t {
				pick = b
				break pref
			}
		}
	}

	amount, err := decimal.NewFromString(pick.BalanceAmount.Amount)
	if err != nil {
		return pick.BalanceAmount.Amount + " " + pick.BalanceAmount.Currency
	}
	return amount.StringFixed(2) + " " + pick.BalanceAmount.Currency
}
