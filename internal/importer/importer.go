package importer

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ynab-sync/ynab-sync/internal/model"
)

// UnknownPayee is used when a transaction carries neither a debtor name nor
// remittance text.
const UnknownPayee = "Unknown"

// ClearedStatus is the cleared state assigned to imported transactions.
const ClearedStatus = "cleared"

// milliunitExp shifts a major-unit amount into milliunits.
const milliunitExp = 3

var (
	maxMilliunits = decimal.NewFromInt(math.MaxInt64)
	minMilliunits = decimal.NewFromInt(math.MinInt64)
)

// Normalize converts the booked transactions of one bank account into
// budgeting transactions for accountID. Pending transactions are ignored.
// It returns nil for an empty booked list.
func Normalize(txns model.AccountTransactions, accountID string) ([]model.NormalizedTransaction, error) {
	booked := txns.Transactions.Booked
	if len(booked) == 0 {
		return nil, nil
	}

	out := make([]model.NormalizedTransaction, 0, len(booked))
	for i, raw := range booked {
		n, err := normalizeOne(raw, accountID)
		if err != nil {
			return nil, fmt.Errorf("booked transaction %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func normalizeOne(raw model.RawBankTransaction, accountID string) (model.NormalizedTransaction, error) {
	amount, err := Milliunits(raw.TransactionAmount.Amount)
	if err != nil {
		return model.NormalizedTransaction{}, err
	}

	return model.NormalizedTransaction{
		AccountID: accountID,
		Date:      raw.BookingDate,
		Amount:    amount,
		PayeeName: Payee(raw),
		Cleared:   ClearedStatus,
		ImportID:  FormatImportID(raw.TransactionID),
	}, nil
}

// Milliunits parses a signed decimal amount and returns it in milliunits,
// rounded to the nearest integer (halves away from zero).
// "100.50" -> 100500, "-50.25" -> -50250. Amounts outside the int64
// milliunit range are an error.
func Milliunits(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	m := d.Shift(milliunitExp).Round(0)
	if m.GreaterThan(maxMilliunits) || m.LessThan(minMilliunits) {
		return 0, fmt.Errorf("parsing amount %q: out of range", amount)
	}
	return m.IntPart(), nil
}

// Payee resolves the payee name: debtor name, then remittance text, then
// UnknownPayee.
func Payee(raw model.RawBankTransaction) string {
	if raw.DebtorName != "" {
		return raw.DebtorName
	}
	if raw.RemittanceInformationUnstructured != "" {
		return raw.RemittanceInformationUnstructured
	}
	return UnknownPayee
}
