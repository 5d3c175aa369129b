// Package models provides the data structures shared by the detection engine,
// its stores and the CLI.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one bank transaction as supplied by the transaction source.
// Amount is signed: positive means money leaving the account.
// MerchantName and Name may be empty when the provider did not supply them.
type Transaction struct {
	ID           string          `json:"id"`
	ProviderID   string          `json:"provider_transaction_id"`
	MerchantName string          `json:"merchant_name,omitempty"`
	Name         string          `json:"name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
}

// IsDebit reports whether the transaction moved money out of the account.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsPositive()
}

// Before orders transactions by date, then by provider id. It is the ordering
// used to pick a group's anchor: the greatest transaction under Before.
func (t Transaction) Before(other Transaction) bool {
	if !t.Date.Equal(other.Date) {
		return t.Date.Before(other.Date)
	}
	return t.ProviderID < other.ProviderID
}
