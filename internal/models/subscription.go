package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is a persisted recurring charge for one account holder.
//
// Detected subscriptions carry the merchant key they were grouped under and
// are unique per (HolderID, MerchantKey). Manual subscriptions have an empty
// MerchantKey and are exempt from that rule.
type Subscription struct {
	ID                    string          `json:"id" csv:"id"`
	HolderID              string          `json:"holder_id" csv:"holder_id"`
	MerchantKey           string          `json:"merchant_key,omitempty" csv:"merchant_key"`
	Name                  string          `json:"name" csv:"name"`
	Category              string          `json:"category" csv:"category"`
	Icon                  string          `json:"icon" csv:"icon"`
	Amount                decimal.Decimal `json:"amount" csv:"amount"`
	BillingCycle          string          `json:"billing_cycle" csv:"billing_cycle"`
	Status                string          `json:"status" csv:"status"`
	ProviderTransactionID string          `json:"provider_transaction_id,omitempty" csv:"provider_transaction_id"`
	NextBillingDate       *time.Time      `json:"next_billing_date,omitempty" csv:"-"`
	Source                string          `json:"source" csv:"source"`
	CreatedAt             time.Time       `json:"created_at" csv:"created_at"`
}

// IsManual reports whether the subscription was entered by the user rather
// than detected from transactions.
func (s Subscription) IsManual() bool {
	return s.MerchantKey == ""
}

// IsActive reports whether the subscription is currently active.
func (s Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// CancellationRequest asks for a subscription to be cancelled on the holder's behalf.
type CancellationRequest struct {
	ID             string    `json:"id"`
	HolderID       string    `json:"holder_id"`
	SubscriptionID string    `json:"subscription_id"`
	Notes          string    `json:"user_notes,omitempty"`
	Contact        string    `json:"contact_info,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// CancellationView is a cancellation request joined with the subscription it targets.
type CancellationView struct {
	CancellationRequest
	SubscriptionName   string          `json:"subscription_name"`
	SubscriptionAmount decimal.Decimal `json:"subscription_amount"`
	SubscriptionIcon   string          `json:"subscription_icon"`
}
