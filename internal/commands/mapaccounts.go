package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ynab-sync/ynab-sync/internal/config"
	"github.com/ynab-sync/ynab-sync/internal/model"
)

func newMapAccountsCommand(a *app) *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:   "map-accounts",
		Short: "Map bank accounts to YNAB accounts",
		Long: "For every account in the bank connection, ask which YNAB account receives its\n" +
			"transactions. Answer 'unmapped' to skip an account during sync. Use --set\n" +
			"bank_account_id=ynab_account_id to map without prompting.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd, runMapAccounts(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), pairs))
		},
	}

	cmd.Flags().StringArrayVar(&pairs, "set", nil, "bank_account_id=ynab_account_id (repeatable)")

	return cmd
}

func runMapAccounts(ctx context.Context, a *app, in io.Reader, out io.Writer, pairs []string) error {
	doc, err := a.store.Load()
	if err != nil {
		return err
	}
	if err := doc.RequireConnection(); err != nil {
		return err
	}

	if len(pairs) > 0 {
		for _, p := range pairs {
			bank, budget, ok := strings.Cut(p, "=")
			if !ok || bank == "" || budget == "" {
				return fmt.Errorf("invalid --set %q: want bank_account_id=ynab_account_id", p)
			}
			doc.AccountMappings.Set(bank, budget)
		}
		return saveMappings(a, out, doc)
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

	printBudgetAccounts(ctx, a, out, doc)

	fmt.Fprintln(out, "\n=== Account Mapping Configuration ===")
	r := bufio.NewReader(in)
	for _, accountID := range requisition.Accounts {
		details, err := client.GetAccountDetails(ctx, accountID)
		if err != nil {
			return fmt.Errorf("fetching details for %s: %w", accountID, err)
		}
		name := orDefault(details.Name, "Unknown Account")
		iban := orDefault(details.IBAN, "No IBAN")

		current, _ := doc.AccountMappings.Get(accountID)
		fmt.Fprintf(out, "\nBank Account: %s (%s)\n", name, iban)
		p := &prompter{in: r, out: out}
		answer, err := p.ask("Enter YNAB Account ID for this bank account ('"+model.Unmapped+"' to skip)", "", current, false)
		if err != nil {
			return err
		}
		if answer != "" {
			doc.AccountMappings.Set(accountID, answer)
		}
	}

	return saveMappings(a, out, doc)
}

func saveMappings(a *app, out io.Writer, doc *config.Document) error {
	validated := true
	doc.AccountsValidated = &validated
	if err := a.store.Save(doc); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nAccount mappings saved successfully!")
	return nil
}

// printBudgetAccounts lists YNAB accounts to choose from when the budget is
// configured. Failures only cost the hint.
func printBudgetAccounts(ctx context.Context, a *app, out io.Writer, doc *config.Document) {
	if doc.YNAB.APIKey == "" || doc.YNAB.BudgetID == "" {
		return
	}
	client, err := a.budgetClient(doc)
	if err != nil {
		return
	}
	accounts, err := client.ListAccounts(ctx, doc.YNAB.BudgetID)
	if err != nil {
		a.log.Warn("listing YNAB accounts", zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		return
	}

	fmt.Fprintln(out, "\n=== YNAB Accounts ===")
	for _, acct := range accounts {
		fmt.Fprintf(out, "%s  %s\n", acct.ID, acct.Name)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
