package model

// Unmapped marks a bank account that must be skipped during sync.
const Unmapped = "unmapped"

// AccountLink pairs a bank account with its budgeting account.
type AccountLink struct {
	BankAccountID   string
	BudgetAccountID string // Unmapped = skip
}

// Skipped reports whether the link is marked with the Unmapped sentinel.
func (l AccountLink) Skipped() bool {
	return l.BudgetAccountID == Unmapped
}

// AccountMapping is an ordered bank-account -> budgeting-account mapping.
// Order is preserved from the configuration document and drives sync order.
type AccountMapping struct {
	links []AccountLink
	index map[string]int
}

// NewAccountMapping builds a mapping from links in order. A repeated bank
// account keeps its first position and takes the last value.
func NewAccountMapping(links ...AccountLink) AccountMapping {
	var m AccountMapping
	for _, l := range links {
		m.Set(l.BankAccountID, l.BudgetAccountID)
	}
	return m
}

// Set adds or replaces a mapping entry.
func (m *AccountMapping) Set(bankAccountID, budgetAccountID string) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[bankAccountID]; ok {
		m.links[i].BudgetAccountID = budgetAccountID
		return
	}
	m.index[bankAccountID] = len(m.links)
	m.links = append(m.links, AccountLink{BankAccountID: bankAccountID, BudgetAccountID: budgetAccountID})
}

// Get returns the budgeting account for a bank account.
func (m AccountMapping) Get(bankAccountID string) (string, bool) {
	i, ok := m.index[bankAccountID]
	if !ok {
		return "", false
	}
	return m.links[i].BudgetAccountID, true
}

// Links returns the entries in order.
func (m AccountMapping) Links() []AccountLink {
	out := make([]AccountLink, len(m.links))
	copy(out, m.links)
	return out
}

// Len returns the number of entries.
func (m AccountMapping) Len() int { return len(m.links) }
