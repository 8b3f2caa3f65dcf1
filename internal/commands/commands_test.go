package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ynab-sync/ynab-sync/internal/commands"
)

// fakeUpstreams serves both the bank-data API and the budgeting API.
type fakeUpstreams struct {
	bank   *httptest.Server
	budget *httptest.Server

	mu           sync.Mutex
	accounts     []string
	transactions map[string]string // account -> JSON body
	budgetStatus int
	submitted    [][]map[string]any
	requisitions []map[string]any
	redirectOnce bool
}

func newFakeUpstreams(t *testing.T) *fakeUpstreams {
	t.Helper()
	f := &fakeUpstreams{
		accounts:     []string{"acct_a", "acct_b"},
		transactions: map[string]string{},
	}

	bank := chi.NewRouter()
	bank.Post("/token/new/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"access": "tok"})
	})
	bank.Get("/institutions/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"REVOLUT_REVOGB21","name":"Revolut","bic":"REVOGB21","transaction_total_days":"730"},
			{"id":"MONZO_MONZGB2L","name":"Monzo","bic":"MONZGB2L","transaction_total_days":90}
		]`))
	})
	bank.Post("/agreements/enduser/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "agr-1"})
	})
	bank.Post("/requisitions/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.requisitions = append(f.requisitions, body)
		redirect := f.redirectOnce
		f.mu.Unlock()
		if redirect {
			// Simulate the browser returning from the bank.
			go func() {
				resp, err := http.Get(body["redirect"].(string) + "?ref=" + body["reference"].(string))
				if err == nil {
					resp.Body.Close()
				}
			}()
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"id": "req-1", "link": "https://ob.example/start/req-1"})
	})
	bank.Get("/requisitions/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, map[string]any{"id": chi.URLParam(r, "id"), "accounts": f.accounts})
	})
	bank.Get("/accounts/{id}/details/", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		writeJSON(w, map[string]any{"account": map[string]any{"name": "Account " + id, "iban": "GB00" + id}})
	})
	bank.Get("/accounts/{id}/balances/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balances":[
			{"balanceAmount":{"amount":"10.5","currency":"GBP"},"balanceType":"closingBooked"},
			{"balanceAmount":{"amount":"1234.5","currency":"GBP"},"balanceType":"interimAvailable"}
		]}`))
	})
	bank.Get("/accounts/{id}/transactions/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body, ok := f.transactions[chi.URLParam(r, "id")]
		f.mu.Unlock()
		if !ok {
			body = `{"transactions":{"booked":[],"pending":[]}}`
		}
		_, _ = w.Write([]byte(body))
	})
	f.bank = httptest.NewServer(bank)
	t.Cleanup(f.bank.Close)

	budget := chi.NewRouter()
	budget.Post("/budgets/{budget}/transactions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Transactions []map[string]any `json:"transactions"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.submitted = append(f.submitted, body.Transactions)
		status := f.budgetStatus
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"id":"400","name":"bad_request","detail":"invalid account"}}`))
			return
		}
		ids := make([]string, len(body.Transactions))
		for i := range ids {
			ids[i] = "ynab-tx"
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"data": map[string]any{"transaction_ids": ids, "duplicate_import_ids": []string{}}})
	})
	budget.Get("/budgets/{budget}/accounts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"accounts":[
			{"id":"ynab_a","name":"Current","closed":false},
			{"id":"ynab_old","name":"Old","closed":true}
		]}}`))
	})
	f.budget = httptest.NewServer(budget)
	t.Cleanup(f.budget.Close)

	t.Setenv("YNAB_SYNC_GOCARDLESS_BASE_URL", f.bank.URL)
	t.Setenv("YNAB_SYNC_YNAB_BASE_URL", f.budget.URL)
	t.Setenv("YNAB_SYNC_GOCARDLESS_RATE_PER_SECOND", "0")
	t.Setenv("YNAB_SYNC_YNAB_API_KEY", "")
	t.Setenv("YNAB_SYNC_GOCARDLESS_SECRET_ID", "")
	t.Setenv("YNAB_SYNC_GOCARDLESS_SECRET_KEY", "")
	t.Setenv("YNAB_SYNC_LOG_LEVEL", "")
	return f
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

const bookedA = `{"transactions":{"booked":[{
	"transactionId":"tx1",
	"bookingDate":"2023-01-01",
	"transactionAmount":{"amount":"100.50","currency":"GBP"},
	"debtorName":"John Doe"
}],"pending":[]}}`

const fullConfig = `last_sync: "2023-01-01"
ynab:
  api_key: ynab-key
  budget_id: budget-1
gocardless:
  secret_id: sid
  secret_key: skey
  institution_id: REVOLUT_REVOGB21
  requisition_id: req-1
account_mappings:
  acct_a: ynab_a
  acct_b: ynab_b
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".ynab_sync", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func readConfig(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func runCLI(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCLIContext(context.Background(), t, configPath, stdin, args...)
}

func runCLIContext(ctx context.Context, t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	base := []string{"--config", configPath, "--env-file", filepath.Join(t.TempDir(), "missing.env")}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}
