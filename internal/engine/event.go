package engine

// EventKind classifies progress events.
type EventKind string

const (
	EventAccountSkipped EventKind = "account_skipped"
	EventAccountMissing EventKind = "account_missing"
	EventAccountSynced  EventKind = "account_synced"
	EventPassCompleted  EventKind = "pass_completed"
)

// Skip reasons.
const (
	ReasonUnmapped        = "unmapped"
	ReasonNoTransactions  = "no transactions"
	ReasonNotInConnection = "not found in current bank connection"
)

// Event reports progress of a pass to an Observer.
type Event struct {
	Kind            EventKind
	BankAccountID   string
	BudgetAccountID string
	Fetched         int
	Submitted       int
	Added           int
	Duplicates      int
	Reason          string
}

// Observer receives events synchronously on the pass goroutine.
type Observer func(Event)
