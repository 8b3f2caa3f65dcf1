// Package gocardless is a client for the GoCardless Bank Account Data API.
package gocardless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ynab-sync/ynab-sync/internal/model"
	"github.com/ynab-sync/ynab-sync/internal/upstream"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://bankaccountdata.gocardless.com/api/v2"

const (
	defaultTimeout      = 30 * time.Second
	institutionCacheTTL = 10 * time.Minute
	dateFormat          = "2006-01-02"
	defaultCountry      = "gb"
)

// ErrNotConfigured is returned when the secret pair is incomplete.
var ErrNotConfigured = errors.New("gocardless: secret_id and secret_key are required")

// Config configures a Client.
type Config struct {
	Credentials Credentials

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is an optional custom HTTP client (for testing).
	HTTPClient *http.Client

	// Timeout bounds every outbound call. Ignored when HTTPClient is set.
	Timeout time.Duration

	// RatePerSecond limits outbound calls. Zero means unlimited.
	RatePerSecond float64

	Logger *zap.Logger
}

// Client is an authenticated read client. It acquires an access token
// lazily before the first call and re-acquires it once when the API
// rejects it.
type Client struct {
	creds        Credentials
	baseURL      string
	httpClient   *http.Client
	log          *zap.Logger
	limiter      *rate.Limiter
	institutions *cache.Cache

	mu    sync.Mutex
	token string
}

// NewClient creates a Client. No network call is made.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Credentials.SecretID == "" || cfg.Credentials.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		creds:        cfg.Credentials,
		baseURL:      baseURL,
		httpClient:   httpClient,
		log:          log.Named("gocardless"),
		limiter:      rate.NewLimiter(limit, burst),
		institutions: cache.New(institutionCacheTTL, 2*institutionCacheTTL),
	}, nil
}

// AcquireAccessToken exchanges the secret pair for a new access token and
// uses it for all subsequent calls.
func (c *Client) AcquireAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquireLocked(ctx)
}

func (c *Client) acquireLocked(ctx context.Context) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &AuthError{Err: err}
	}

	var resp tokenResponse
	err := upstream.Do(ctx, c.httpClient, c.log, upstream.Call{
		Method:     http.MethodPost,
		URL:        c.baseURL + "/token/new/",
		Body:       tokenRequest{SecretID: c.creds.SecretID, SecretKey: c.creds.SecretKey},
		SecretBody: true,
	}, &resp)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	if resp.Access == "" {
		return "", &AuthError{Err: errors.New("token response has no access token")}
	}

	c.token = resp.Access
	c.log.Debug("acquired access token", zap.Int("expires_in", resp.AccessExpires))
	return c.token, nil
}

// currentToken returns the held token, acquiring one if none is held.
func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	return c.acquireLocked(ctx)
}

// dropToken forgets token unless it was already replaced.
func (c *Client) dropToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}

// do runs an authenticated call. A 401 triggers one token re-acquire and a
// single retry of the same call.
func (c *Client) do(ctx context.Context, call upstream.Call, out any) error {
	for attempt := 0; ; attempt++ {
		token, err := c.currentToken(ctx)
		if err != nil {
			return err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: %w", call.Method, call.URL, err)
		}

		call.Header = http.Header{"Authorization": {"Bearer " + token}}
		err = upstream.Do(ctx, c.httpClient, c.log, call, out)
		if attempt == 0 && upstream.HasStatus(err, http.StatusUnauthorized) {
			c.log.Info("access token rejected, re-acquiring", zap.String("url", call.URL))
			c.dropToken(token)
			continue
		}
		return err
	}
}

// ListInstitutions returns the banks available in a two-letter country.
// Results are cached per country for the client's lifetime.
func (c *Client) ListInstitutions(ctx context.Context, countryCode string) ([]Institution, error) {
	country := strings.ToLower(strings.TrimSpace(countryCode))
	if country == "" {
		country = defaultCountry
	}
	if v, ok := c.institutions.Get(country); ok {
		return v.([]Institution), nil
	}

	var out []Institution
	q := url.Values{"country": {country}}
	if err := c.do(ctx, upstream.Call{
		Method: http.MethodGet,
		URL:    c.baseURL + "/institutions/?" + q.Encode(),
	}, &out); err != nil {
		return nil, err
	}

	c.institutions.SetDefault(country, out)
	return out, nil
}

// CreateEndUserAgreement creates an agreement with custom access terms.
func (c *Client) CreateEndUserAgreement(ctx context.Context, req AgreementRequest) (*Agreement, error) {
	var out Agreement
	if err := c.do(ctx, upstream.Call{
		Method: http.MethodPost,
		URL:    c.baseURL + "/agreements/enduser/",
		Body:   req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequisition starts a bank-link session. The returned Link is the URL
// the end user must visit. An empty Reference is replaced with a random UUID.
func (c *Client) CreateRequisition(ctx context.Context, req RequisitionRequest) (*Requisition, error) {
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}

	var out Requisition
	if err := c.do(ctx, upstream.Call{
		Method: http.MethodPost,
		URL:    c.baseURL + "/requisitions/",
		Body:   req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRequisition returns a requisition's current state.
func (c *Client) GetRequisition(ctx context.Context, requisitionID string) (*Requisition, error) {
	var out Requisition
	if err := c.do(ctx, upstream.Call{
		Method: http.MethodGet,
		URL:    c.baseURL + "/requisitions/" + url.PathEscape(requisitionID) + "/",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountDetails returns metadata for one account.
func (c *Client) GetAccountDetails(ctx context.Context, accountID string) (*AccountDetails, error) {
	var out accountDetailsResponse
	if err := c.do(ctx, upstream.Call{
		Method: http.MethodGet,
		URL:    c.accountURL(accountID, "details"),
	}, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// GetAccountBalances returns the balance history of one account.
func (c *Client) GetAccountBalances(ctx context.Context, accountID string) ([]Balance, error) {
	var out balancesResponse
	if err := c.do(ctx, upstream.Call{
		Method: http.MethodGet,
		URL:    c.accountURL(accountID, "balances"),
	}, &out); err != nil {
		return nil, err
	}
	return out.Balances, nil
}

// GetAccountTransactions returns booked and pending transactions for one
// account. A non-zero dateFrom bounds the window below (inclusive, date only).
func (c *Client) GetAccountTransactions(ctx context.Context, accountID string, dateFrom time.Time) (*model.AccountTransactions, error) {
	u := c.accountURL(accountID, "transactions")
	if !dateFrom.IsZero() {
		u += "?" + url.Values{"date_from": {dateFrom.Format(dateFormat)}}.Encode()
	}

	var out model.AccountTransactions
	if err := c.do(ctx, upstream.Call{Method: http.MethodGet, URL: u}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) accountURL(accountID, resource string) string {
	return fmt.Sprintf("%s/accounts/%s/%s/", c.baseURL, url.PathEscape(accountID), resource)
}
