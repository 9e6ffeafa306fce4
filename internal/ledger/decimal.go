package ledger

import (
	"exchangecore/internal/domain"
	"exchangecore/internal/money"
)

// parseDecimal parses a SQL numeric column's text representation into a
// domain.Decimal, keeping the exact decimal guarantee across the storage
// boundary (no float64 round-trip).
func parseDecimal(s string) (domain.Decimal, error) {
	return money.NewFromString(s)
}
