package domain

import (
	"fmt"
	"time"
)

// AccountID identifies an account.
type AccountID string

// Account is created explicitly and never deleted.
type Account struct {
	ID        AccountID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceKey identifies a balance by (account, asset).
type BalanceKey struct {
	AccountID AccountID
	Asset     string
}

func (k BalanceKey) String() string {
	return fmt.Sprintf("%s/%s", k.AccountID, k.Asset)
}

// Balance is a per-(account, asset) record. Total always equals
// Available + Locked; the ledger enforces this on every mutation.
type Balance struct {
	AccountID AccountID
	Asset     string

	Total     Decimal
	Available Decimal
	Locked    Decimal
}

// Invariant reports whether the balance satisfies Total = Available +
// Locked with both components non-negative.
func (b Balance) Invariant() bool {
	if b.Available.Sign() < 0 || b.Locked.Sign() < 0 {
		return false
	}
	return b.Available.Add(b.Locked).Equal(b.Total)
}

func (b Balance) String() string {
	return fmt.Sprintf("Balance[%s/%s total=%s available=%s locked=%s]", b.AccountID, b.Asset, b.Total, b.Available, b.Locked)
}
