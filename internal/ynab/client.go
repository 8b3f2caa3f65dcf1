// Package ynab is a client for the YNAB budgeting API.
package ynab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ynab-sync/ynab-sync/internal/model"
	"github.com/ynab-sync/ynab-sync/internal/upstream"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.ynab.com/v1"

const defaultTimeout = 30 * time.Second

// ErrNotConfigured is returned when no API key is supplied.
var ErrNotConfigured = errors.New("ynab: api key is required")

// Config configures a Client.
type Config struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is an optional base HTTP client (for testing). Its
	// transport is wrapped to add the bearer token.
	HTTPClient *http.Client

	// Timeout bounds every outbound call. Ignored when HTTPClient is set.
	Timeout time.Duration

	Logger *zap.Logger
}

// Client writes transactions to one YNAB user's budgets.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a Client authenticated with a personal access token.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var hc http.Client
	if cfg.HTTPClient != nil {
		hc = *cfg.HTTPClient
	} else {
		hc.Timeout = cfg.Timeout
		if hc.Timeout == 0 {
			hc.Timeout = defaultTimeout
		}
	}
	hc.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"}),
		Base:   hc.Transport,
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &hc,
		log:        log.Named("ynab"),
	}, nil
}

type createRequest struct {
	Transactions []model.NormalizedTransaction `json:"transactions"`
}

type createIDs struct {
	TransactionIDs     []string `json:"transaction_ids"`
	DuplicateImportIDs []string `json:"duplicate_import_ids"`
}

type createResponse struct {
	createIDs
	Data *createIDs `json:"data"`
}

// CreateResult lists what the server did with a submitted batch.
type CreateResult struct {
	// TransactionIDs are the server-assigned ids of newly created transactions.
	TransactionIDs []string
	// DuplicateImportIDs were already present and skipped by the server.
	DuplicateImportIDs []string
}

// CreateTransactions submits a batch to the budget. Duplicate suppression
// is left to the server via import ids.
func (c *Client) CreateTransactions(ctx context.Context, budgetID string, txns []model.NormalizedTransaction) (*CreateResult, error) {
	var resp createResponse
	if err := upstream.Do(ctx, c.httpClient, c.log, upstream.Call{
		Method: http.MethodPost,
		URL:    fmt.Sprintf("%s/budgets/%s/transactions", c.baseURL, url.PathEscape(budgetID)),
		Body:   createRequest{Transactions: txns},
	}, &resp); err != nil {
		return nil, err
	}

	ids := resp.createIDs
	if resp.Data != nil {
		ids = *resp.Data
	}
	return &CreateResult{
		TransactionIDs:     ids.TransactionIDs,
		DuplicateImportIDs: ids.DuplicateImportIDs,
	}, nil
}

// Account is a budgeting account.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	OnBudget bool   `json:"on_budget"`
	Closed   bool   `json:"closed"`
	Balance  int64  `json:"balance"` // milliunits
	Deleted  bool   `json:"deleted"`
}

type accountsResponse struct {
	Data struct {
		Accounts []Account `json:"accounts"`
	} `json:"data"`
}

// ListAccounts returns the open, non-deleted accounts of a budget.
func (c *Client) ListAccounts(ctx context.Context, budgetID string) ([]Account, error) {
	var resp accountsResponse
	if err := upstream.Do(ctx, c.httpClient, c.log, upstream.Call{
		Method: http.MethodGet,
		URL:    fmt.Sprintf("%s/budgets/%s/accounts", c.baseURL, url.PathEscape(budgetID)),
	}, &resp); err != nil {
		return nil, err
	}

	var open []Account
	for _, a := range resp.Data.Accounts {
		if a.Closed || a.Deleted {
			continue
		}
		open = append(open, a)
	}
	return open, nil
}
