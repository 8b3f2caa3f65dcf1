package gocardless

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Credentials are the secret pair exchanged for an access token.
type Credentials struct {
	SecretID  string
	SecretKey string
}

type tokenRequest struct {
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
}

type tokenResponse struct {
	Access        string `json:"access"`
	AccessExpires int    `json:"access_expires,omitempty"`
}

// Days is a day count the API encodes either as a number or a numeric string.
type Days int

// UnmarshalJSON accepts 90, "90" and "".
func (d *Days) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("parsing day count %s: %w", b, err)
	}
	*d = Days(n)
	return nil
}

// MarshalJSON encodes the count as a number.
func (d Days) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(d))
}

// Institution summarizes a bank supported by the API.
type Institution struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	BIC                    string `json:"bic"`
	TransactionHistoryDays Days   `json:"transaction_total_days"`
	Logo                   string `json:"logo,omitempty"`
}

// AgreementRequest customizes the end user agreement for an institution.
// Zero-valued optional fields are left to API defaults.
type AgreementRequest struct {
	InstitutionID      string   `json:"institution_id"`
	MaxHistoricalDays  int      `json:"max_historical_days,omitempty"`
	AccessValidForDays int      `json:"access_valid_for_days,omitempty"`
	AccessScope        []string `json:"access_scope,omitempty"`
}

// Agreement is an end user agreement.
type Agreement struct {
	ID                 string   `json:"id"`
	Created            string   `json:"created"`
	InstitutionID      string   `json:"institution_id"`
	MaxHistoricalDays  Days     `json:"max_historical_days"`
	AccessValidForDays Days     `json:"access_valid_for_days"`
	AccessScope        []string `json:"access_scope"`
	Accepted           string   `json:"accepted,omitempty"`
}

// RequisitionRequest creates a bank-link session.
type RequisitionRequest struct {
	Redirect      string `json:"redirect"`
	InstitutionID string `json:"institution_id"`
	Reference     string `json:"reference,omitempty"`
	Agreement     string `json:"agreement,omitempty"`
	UserLanguage  string `json:"user_language,omitempty"`
}

// Requisition is a bank-link session. Accounts stays empty until the end
// user completes authentication with their bank.
type Requisition struct {
	ID            string   `json:"id"`
	Created       string   `json:"created,omitempty"`
	Redirect      string   `json:"redirect,omitempty"`
	Status        string   `json:"status,omitempty"`
	InstitutionID string   `json:"institution_id,omitempty"`
	Agreement     string   `json:"agreement,omitempty"`
	Reference     string   `json:"reference,omitempty"`
	Accounts      []string `json:"accounts"`
	UserLanguage  string   `json:"user_language,omitempty"`
	Link          string   `json:"link"`
}

// Linked reports whether the end user has completed authentication.
func (r *Requisition) Linked() bool {
	return len(r.Accounts) > 0
}

// HasAccount reports whether accountID belongs to the requisition.
func (r *Requisition) HasAccount(accountID string) bool {
	for _, a := range r.Accounts {
		if a == accountID {
			return true
		}
	}
	return false
}

// AccountDetails is account metadata.
type AccountDetails struct {
	ResourceID string `json:"resourceId,omitempty"`
	IBAN       string `json:"iban,omitempty"`
	Currency   string `json:"currency,omitempty"`
	OwnerName  string `json:"ownerName,omitempty"`
	Name       string `json:"name,omitempty"`
	Product    string `json:"product,omitempty"`
}

type accountDetailsResponse struct {
	Account AccountDetails `json:"account"`
}

// Balance is one entry of an account's balance history.
type Balance struct {
	BalanceAmount struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"balanceAmount"`
	BalanceType   string `json:"balanceType"`
	ReferenceDate string `json:"referenceDate,omitempty"`
}

type balancesResponse struct {
	Balances []Balance `json:"balances"`
}
