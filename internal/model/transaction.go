package model

// RawBankTransaction is one booked or pending item from the bank-data API.
type RawBankTransaction struct {
	TransactionID                     string            `json:"transactionId,omitempty"`
	BookingDate                       string            `json:"bookingDate"`
	ValueDate                         string            `json:"valueDate,omitempty"`
	TransactionAmount                 TransactionAmount `json:"transactionAmount"`
	DebtorName                        string            `json:"debtorName,omitempty"`
	CreditorName                      string            `json:"creditorName,omitempty"`
	RemittanceInformationUnstructured string            `json:"remittanceInformationUnstructured,omitempty"`
}

// TransactionAmount is a signed decimal string plus its ISO currency code.
type TransactionAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// AccountTransactions is the response body of the account transactions endpoint.
// Only Booked is consumed by the importer.
type AccountTransactions struct {
	Transactions struct {
		Booked  []RawBankTransaction `json:"booked"`
		Pending []RawBankTransaction `json:"pending"`
	} `json:"transactions"`
}

// NormalizedTransaction is a transaction in the budgeting API's shape.
type NormalizedTransaction struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`       // YYYY-MM-DD
	Amount    int64  `json:"amount"`     // milliunits, negative = outflow
	PayeeName string `json:"payee_name"` //nolint:revive
	Cleared   string `json:"cleared,omitempty"`
	ImportID  string `json:"import_id,omitempty"`
}
