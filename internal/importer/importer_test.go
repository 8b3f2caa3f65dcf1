package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynab-sync/ynab-sync/internal/model"
)

func booked(txns ...model.RawBankTransaction) model.AccountTransactions {
	var at model.AccountTransactions
	at.Transactions.Booked = txns
	return at
}

func sampleTransactions() model.AccountTransactions {
	return booked(
		model.RawBankTransaction{
			TransactionID:                     "tx1",
			BookingDate:                       "2023-01-01",
			TransactionAmount:                 model.TransactionAmount{Amount: "100.50", Currency: "GBP"},
			DebtorName:                        "John Doe",
			RemittanceInformationUnstructured: "Payment from John",
		},
		model.RawBankTransaction{
			TransactionID:                     "tx2",
			BookingDate:                       "2023-01-02",
			TransactionAmount:                 model.TransactionAmount{Amount: "-50.25", Currency: "GBP"},
			RemittanceInformationUnstructured: "Grocery Store",
		},
	)
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(sampleTransactions(), "test_account_id")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.NormalizedTransaction{
		AccountID: "test_account_id",
		Date:      "2023-01-01",
		Amount:    100500,
		PayeeName: "John Doe",
		Cleared:   "cleared",
		ImportID:  "gc:tx1",
	}, got[0])

	assert.Equal(t, "2023-01-02", got[1].Date)
	assert.Equal(t, int64(-50250), got[1].Amount)
	assert.Equal(t, "Grocery Store", got[1].PayeeName)
	assert.Equal(t, "gc:tx2", got[1].ImportID)
}

func TestNormalize_Deterministic(t *testing.T) {
	in := sampleTransactions()
	first, err := Normalize(in, "acct")
	require.NoError(t, err)
	second, err := Normalize(in, "acct")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalize_Empty(t *testing.T) {
	got, err := Normalize(booked(), "acct")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Normalize(model.AccountTransactions{}, "acct")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalize_IgnoresPending(t *testing.T) {
	var at model.AccountTransactions
	at.Transactions.Pending = []model.RawBankTransaction{
		{BookingDate: "2023-01-03", TransactionAmount: model.TransactionAmount{Amount: "1.00"}},
	}
	got, err := Normalize(at, "acct")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalize_BadAmount(t *testing.T) {
	in := booked(model.RawBankTransaction{
		BookingDate:       "2023-01-01",
		TransactionAmount: model.TransactionAmount{Amount: "NOTANUMBER"},
	})
	_, err := Normalize(in, "acct")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
	assert.Contains(t, err.Error(), "booked transaction 0")
}

func TestMilliunits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100.50", 100500},
		{"-50.25", -50250},
		{"0", 0},
		{"12", 12000},
		{"0.001", 1},
		{"0.0004", 0},
		{"0.0005", 1},
		{"-0.0005", -1},
		{"-1234.5678", -1234568},
		{"99999999.999", 99999999999},
		{"9223372036854775.807", 9223372036854775807},
		{"-9223372036854775.808", -9223372036854775808},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Milliunits(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMilliunits_OutOfRange(t *testing.T) {
	for _, in := range []string{"10000000000000000.00", "-10000000000000000.00", "9223372036854775.808", "-9223372036854775.809"} {
		_, err := Milliunits(in)
		require.Error(t, err, "input %q", in)
		assert.Contains(t, err.Error(), "out of range")
	}
}

func TestNormalize_OutOfRangeAmountFails(t *testing.T) {
	in := booked(model.RawBankTransaction{
		TransactionID:     "tx1",
		BookingDate:       "2023-01-01",
		TransactionAmount: model.TransactionAmount{Amount: "10000000000000000.00"},
	})
	_, err := Normalize(in, "acct")
	require.Error(t, err)
}

func TestNormalize_LongTransactionIDsKeepDistinctImportIDs(t *testing.T) {
	in := booked(
		model.RawBankTransaction{
			TransactionID:     "2023010100000000000000000000000000001",
			BookingDate:       "2023-01-01",
			TransactionAmount: model.TransactionAmount{Amount: "1.00"},
		},
		model.RawBankTransaction{
			TransactionID:     "2023010100000000000000000000000000002",
			BookingDate:       "2023-01-01",
			TransactionAmount: model.TransactionAmount{Amount: "1.00"},
		},
	)
	got, err := Normalize(in, "acct")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ImportID, got[1].ImportID)
}

func TestPayee_Precedence(t *testing.T) {
	assert.Equal(t, "John Doe", Payee(model.RawBankTransaction{
		DebtorName:                        "John Doe",
		RemittanceInformationUnstructured: "Grocery Store",
	}))
	assert.Equal(t, "Grocery Store", Payee(model.RawBankTransaction{
		RemittanceInformationUnstructured: "Grocery Store",
	}))
	assert.Equal(t, "Unknown", Payee(model.RawBankTransaction{}))
}

func TestNormalize_DatePassThrough(t *testing.T) {
	in := booked(model.RawBankTransaction{
		BookingDate:       "2024-02-29",
		TransactionAmount: model.TransactionAmount{Amount: "1"},
	})
	got, err := Normalize(in, "acct")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got[0].Date)
	assert.Empty(t, got[0].ImportID)
}
