// Package merchant derives the merchant key used to group transactions.
package merchant

import "fjacquet/subsync/internal/models"

// Key returns the merchant key of tx: its merchant name, else its generic
// name, else models.UnknownMerchant. The key keeps its original casing since
// it doubles as the subscription's display name.
func Key(tx models.Transaction) string {
	if tx.MerchantName != "" {
		return tx.MerchantName
	}
	if tx.Name != "" {
		return tx.Name
	}
	return models.UnknownMerchant
}
