package models

import "github.com/shopspring/decimal"

// MerchantGroup is the set of debit transactions sharing one merchant key.
// It only lives for the duration of a detection run.
type MerchantGroup struct {
	Key          string
	Transactions []Transaction
}

// Candidate is a recurring merchant group enriched with everything needed to
// persist it as a Subscription.
type Candidate struct {
	Key         string
	Occurrences int
	Amount      decimal.Decimal
	Anchor      Transaction
	Category    string
	Icon        string
}
