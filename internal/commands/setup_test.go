package commands_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_Flags(t *testing.T) {
	newFakeUpstreams(t)
	path := filepath.Join(t.TempDir(), ".ynab_sync", "config.yaml")

	out, err := runCLI(t, path, "", "configure", "--no-prompt",
		"--ynab-api-key", "ynab-key",
		"--budget-id", "budget-1",
		"--secret-id", "sid",
		"--secret-key", "skey",
		"--institution-id", "REVOLUT_REVOGB21",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved successfully!")

	cfg := readConfig(t, path)
	assert.Contains(t, cfg, "api_key: ynab-key")
	assert.Contains(t, cfg, "budget_id: budget-1")
	assert.Contains(t, cfg, "secret_id: sid")
	assert.Contains(t, cfg, "institution_id: REVOLUT_REVOGB21")
	assert.Contains(t, cfg, "last_sync:")
}

func TestConfigure_Prompts(t *testing.T) {
	newFakeUpstreams(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, path, "ynab-key\nbudget-1\nsid\nskey\nMONZO_MONZGB2L\n", "configure")
	require.NoError(t, err)
	assert.Contains(t, out, "Enter your YNAB API key")
	assert.Contains(t, out, "Enter your GoCardless Institution ID")

	cfg := readConfig(t, path)
	assert.Contains(t, cfg, "api_key: ynab-key")
	assert.Contains(t, cfg, "secret_key: skey")
	assert.Contains(t, cfg, "institution_id: MONZO_MONZGB2L")
}

func TestConfigure_EmptyAnswerKeepsCurrent(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, fullConfig)

	out, err := runCLI(t, path, "\n\n\n\n\n", "configure")
	require.NoError(t, err)
	assert.Contains(t, out, "[budget-1]")
	assert.NotContains(t, out, "ynab-key", "secrets are not echoed")

	cfg := readConfig(t, path)
	assert.Contains(t, cfg, "api_key: ynab-key")
	assert.Contains(t, cfg, "requisition_id: req-1")
	assert.Contains(t, cfg, "acct_a: ynab_a")
}

func TestInstitutions_Filter(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, fullConfig)

	out, err := runCLI(t, path, "", "institutions", "--name", "rev")
	require.NoError(t, err)
	assert.Contains(t, out, "Available institutions for GB matching 'rev':")
	assert.Contains(t, out, "ID: REVOLUT_REVOGB21")
	assert.Contains(t, out, "Transaction History: 730 days")
	assert.NotContains(t, out, "Monzo")
}

func TestInstitutions_NoMatch(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, fullConfig)

	out, err := runCLI(t, path, "", "list-institutions", "--name", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No institutions found for GB matching 'nope'")
}

func TestInstitutions_RequiresCredentials(t *testing.T) {
	newFakeUpstreams(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := runCLI(t, path, "", "institutions")
	require.NoError(t, err)
	assert.Contains(t, out, "GoCardless credentials not found")
}

func TestConnect_PrintsLink(t *testing.T) {
	f := newFakeUpstreams(t)
	path := writeConfig(t, `last_sync: "2023-01-01"
ynab: {api_key: k, budget_id: b}
gocardless: {secret_id: s, secret_key: k, institution_id: REVOLUT_REVOGB21}
`)

	out, err := runCLI(t, path, "", "connect", "--max-history-days", "180")
	require.NoError(t, err)
	assert.Contains(t, out, "https://ob.example/start/req-1")
	assert.Contains(t, readConfig(t, path), "requisition_id: req-1")

	require.Len(t, f.requisitions, 1)
	req := f.requisitions[0]
	assert.Equal(t, "REVOLUT_REVOGB21", req["institution_id"])
	assert.Equal(t, "http://localhost:8000", req["redirect"])
	assert.Equal(t, "agr-1", req["agreement"])
	assert.NotEmpty(t, req["reference"])
}

func TestConnect_Wait(t *testing.T) {
	f := newFakeUpstreams(t)
	f.redirectOnce = true
	path := writeConfig(t, `last_sync: "2023-01-01"
gocardless: {secret_id: s, secret_key: k, institution_id: REVOLUT_REVOGB21}
`)

	out, err := runCLI(t, path, "", "connect", "--wait", "--redirect", "http://127.0.0.1:0/done", "--timeout", "5s")
	require.NoError(t, err)
	assert.Contains(t, out, "Bank connected with 2 account(s)")
}

func TestConnect_RequiresInstitution(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, `gocardless: {secret_id: s, secret_key: k}
`)

	out, err := runCLI(t, path, "", "connect")
	require.NoError(t, err)
	assert.Contains(t, out, "GoCardless institution ID not found")
}

func TestMapAccounts_Prompts(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, `last_sync: "2023-01-01"
ynab: {api_key: k, budget_id: b}
gocardless: {secret_id: s, secret_key: k, requisition_id: req-1}
`)

	out, err := runCLI(t, path, "ynab_a\nunmapped\n", "map-accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "ynab_a  Current")
	assert.NotContains(t, out, "ynab_old")
	assert.Contains(t, out, "Bank Account: Account acct_a (GB00acct_a)")
	assert.Contains(t, out, "Account mappings saved successfully!")

	cfg := readConfig(t, path)
	assert.Contains(t, cfg, "acct_a: ynab_a\n    acct_b: unmapped")
	assert.Contains(t, cfg, "accounts_validated: true")
}

func TestMapAccounts_Set(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, fullConfig)

	_, err := runCLI(t, path, "", "map-accounts", "--set", "acct_b=unmapped", "--set", "acct_c=ynab_c")
	require.NoError(t, err)
	assert.Contains(t, readConfig(t, path), "acct_a: ynab_a\n    acct_b: unmapped\n    acct_c: ynab_c")
}

func TestMapAccounts_InvalidSet(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, fullConfig)

	_, err := runCLI(t, path, "", "map-accounts", "--set", "acct_b")
	require.Error(t, err)
}

func TestMapAccounts_RequiresConnection(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, `gocardless: {secret_id: s, secret_key: k}
`)

	out, err := runCLI(t, path, "", "map-accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "No bank connection found")
}

func TestAccounts_ShowsBalances(t *testing.T) {
	newFakeUpstreams(t)
	path := writeConfig(t, fullConfig)

	out, err := runCLI(t, path, "", "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "Account acct_a (GB00acct_a)")
	assert.Contains(t, out, "Balance: 1234.50 GBP")
	assert.Contains(t, out, "YNAB:    ynab_b")
}
