package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ynab-sync/ynab-sync/internal/config"
)

type configureOptions struct {
	ynabAPIKey    string
	budgetID      string
	accountID     string
	secretID      string
	secretKey     string
	institutionID string
	redirectURL   string
	noPrompt      bool
}

func newConfigureCommand(a *app) *cobra.Command {
	var opts configureOptions

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure YNAB and GoCardless credentials",
		Long: "Store YNAB and GoCardless credentials in the config file. Values not given\n" +
			"as flags are prompted for, with the current value as the default.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(a, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.ynabAPIKey, "ynab-api-key", "", "YNAB personal access token")
	cmd.Flags().StringVar(&opts.budgetID, "budget-id", "", "YNAB budget ID")
	cmd.Flags().StringVar(&opts.accountID, "account-id", "", "default YNAB account ID")
	cmd.Flags().StringVar(&opts.secretID, "secret-id", "", "GoCardless secret ID")
	cmd.Flags().StringVar(&opts.secretKey, "secret-key", "", "GoCardless secret key")
	cmd.Flags().StringVar(&opts.institutionID, "institution-id", "", "GoCardless institution ID (e.g. REVOLUT_REVOGB21)")
	cmd.Flags().StringVar(&opts.redirectURL, "redirect-url", "", "where the bank redirects after linking (default "+config.DefaultRedirectURL+")")
	cmd.Flags().BoolVar(&opts.noPrompt, "no-prompt", false, "only apply flags, never prompt")

	return cmd
}

func runConfigure(a *app, in io.Reader, out io.Writer, opts configureOptions) error {
	// Read the file directly so environment credential overrides are not saved.
	doc, err := config.Load(a.settings.ConfigPath)
	if err != nil {
		return err
	}

	p := &prompter{in: bufio.NewReader(in), out: out, skip: opts.noPrompt}

	fmt.Fprintln(out, "\n=== YNAB Configuration ===")
	if doc.YNAB.APIKey, err = p.ask("Enter your YNAB API key", opts.ynabAPIKey, doc.YNAB.APIKey, true); err != nil {
		return err
	}
	if doc.YNAB.BudgetID, err = p.ask("Enter your YNAB Budget ID", opts.budgetID, doc.YNAB.BudgetID, false); err != nil {
		return err
	}
	if opts.accountID != "" {
		doc.YNAB.AccountID = opts.accountID
	}

	fmt.Fprintln(out, "\n=== GoCardless Configuration ===")
	if doc.GoCardless.SecretID, err = p.ask("Enter your GoCardless Secret ID", opts.secretID, doc.GoCardless.SecretID, false); err != nil {
		return err
	}
	if doc.GoCardless.SecretKey, err = p.ask("Enter your GoCardless Secret Key", opts.secretKey, doc.GoCardless.SecretKey, true); err != nil {
		return err
	}
	if doc.GoCardless.InstitutionID, err = p.ask("Enter your GoCardless Institution ID (e.g. REVOLUT_REVOGB21)", opts.institutionID, doc.GoCardless.InstitutionID, false); err != nil {
		return err
	}
	if opts.redirectURL != "" {
		doc.GoCardless.RedirectURL = opts.redirectURL
	}

	if err := config.Save(a.settings.ConfigPath, doc); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nConfiguration saved successfully!")
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Run 'ynab-sync connect' to authenticate with your bank")
	fmt.Fprintln(out, "2. Run 'ynab-sync map-accounts' to set up account mappings")
	fmt.Fprintln(out, "3. Run 'ynab-sync sync' to import transactions")
	return nil
}

// prompter reads answers line by line, falling back to a default.
type prompter struct {
	in   *bufio.Reader
	out  io.Writer
	skip bool
}

// ask returns flagValue when set, else prompts. An empty answer keeps current.
func (p *prompter) ask(label, flagValue, current string, secret bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if p.skip {
		return current, nil
	}

	switch {
	case current == "":
		fmt.Fprintf(p.out, "%s: ", label)
	case secret:
		fmt.Fprintf(p.out, "%s [keep current]: ", label)
	default:
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer, nil
	}
	return current, nil
}
