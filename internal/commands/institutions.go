package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ynab-sync/ynab-sync/internal/gocardless"
)

func newInstitutionsCommand(a *app) *cobra.Command {
	var country string
	var name string

	cmd := &cobra.Command{
		Use:     "institutions",
		Aliases: []string{"list-institutions"},
		Short:   "List available banking institutions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd, runInstitutions(cmd, a, country, name))
		},
	}

	cmd.Flags().StringVar(&country, "country", "gb", "two-letter country code (e.g. gb, us)")
	cmd.Flags().StringVar(&name, "name", "", "filter institutions by name (case-insensitive partial match)")

	return cmd
}

func runInstitutions(cmd *cobra.Command, a *app, country, name string) error {
	doc, err := a.store.Load()
	if err != nil {
		return err
	}
	if err := doc.RequireGoCardless(); err != nil {
		return err
	}

	client, err := a.bankClient(doc)
	if err != nil {
		return err
	}
	institutions, err := client.ListInstitutions(cmd.Context(), country)
	if err != nil {
		return fmt.Errorf("fetching institutions: %w", err)
	}

	institutions = filterInstitutions(institutions, name)
	printInstitutions(cmd.OutOrStdout(), institutions, country, name)
	return nil
}

func filterInstitutions(all []gocardless.Institution, name string) []gocardless.Institution {
	if name == "" {
		return all
	}
	needle := strings.ToLower(name)
	var out []gocardless.Institution
	for _, inst := range all {
		if strings.Contains(strings.ToLower(inst.Name), needle) {
			out = append(out, inst)
		}
	}
	return out
}

func printInstitutions(w io.Writer, institutions []gocardless.Institution, country, name string) {
	scope := strings.ToUpper(country)
	if name != "" {
		scope += fmt.Sprintf(" matching '%s'", name)
	}
	if len(institutions) == 0 {
		fmt.Fprintf(w, "\nNo institutions found for %s\n", scope)
		return
	}

	rule := strings.Repeat("-", 80)
	fmt.Fprintf(w, "\nAvailable institutions for %s:\n", scope)
	fmt.Fprintln(w, rule)
	for _, inst := range institutions {
		fmt.Fprintf(w, "ID: %s\n", inst.ID)
		fmt.Fprintf(w, "Name: %s\n", inst.Name)
		fmt.Fprintf(w, "BIC: %s\n", inst.BIC)
		fmt.Fprintf(w, "Transaction History: %d days\n", inst.TransactionHistoryDays)
		fmt.Fprintln(w, rule)
	}
}
