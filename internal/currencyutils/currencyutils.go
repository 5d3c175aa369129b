// Package currencyutils parses and formats the amounts found in bank exports.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyMarks = regexp.MustCompile(`CHF|EUR|USD|GBP|[€$£¥\s]`)

// ParseAmount parses an amount such as "1'234.56", "€1.234,56", "$1,234.56"
// or "-15.99" into a decimal.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount strips currency marks and thousand separators and
// normalizes the decimal separator to a dot.
func StandardizeAmount(amountStr string) string {
	s := currencyMarks.ReplaceAllString(amountStr, "")
	s = strings.ReplaceAll(s, "'", "")

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Contains(s, ","):
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}

// FormatAmount renders amount with two decimals, prefixed by the currency
// symbol or code when one is given.
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(2)
	switch strings.ToUpper(currency) {
	case "":
		return formatted
	case "EUR":
		return "€" + formatted
	case "USD":
		return "$" + formatted
	case "GBP":
		return "£" + formatted
	default:
		return strings.ToUpper(currency) + " " + formatted
	}
}
