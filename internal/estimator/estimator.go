// Package estimator computes the monthly amount and anchor transaction of a
// recurring merchant group.
package estimator

import (
	"github.com/shopspring/decimal"

	"fjacquet/subsync/internal/models"
)

// Estimate is the outcome of estimating one group.
type Estimate struct {
	Amount decimal.Decimal
	Anchor models.Transaction
}

// EstimateGroup returns the mean of the group's amounts rounded to cents
// (half away from zero) and its anchor transaction. The group must not be empty.
func EstimateGroup(group models.MerchantGroup) Estimate {
	amounts := make([]decimal.Decimal, 0, len(group.Transactions))
	for _, tx := range group.Transactions {
		amounts = append(amounts, tx.Amount)
	}
	return Estimate{
		Amount: models.MeanAmount(amounts),
		Anchor: Anchor(group.Transactions),
	}
}

// Anchor returns the most recent transaction; equal dates are broken by the
// lexicographically greatest provider id. It returns the zero Transaction
// for an empty slice.
func Anchor(txs []models.Transaction) models.Transaction {
	var anchor models.Transaction
	for i, tx := range txs {
		if i == 0 || anchor.Before(tx) {
			anchor = tx
		}
	}
	return anchor
}
