// Package domain holds the exchange's core records: market symbols, orders,
// trades, balances, and accounts. These are plain data plus the invariants
// that keep them internally consistent; the components that mutate them
// (orderbook, matching, ledger) live in their own packages.
package domain

import "exchangecore/internal/money"

// Decimal is re-exported for convenience so domain.go files don't need a
// second import for the same underlying type.
type Decimal = money.Decimal
