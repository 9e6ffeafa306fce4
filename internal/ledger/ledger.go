// Package ledger implements the per-(account, asset) balance ledger:
// reservation, release, deposit, withdrawal, and atomic trade settlement.
// Two implementations share the Ledger interface — MemoryLedger (in
// process, authoritative by default) and PostgresLedger (a storage-backed
// satisfier built on pgx for deployments that need durable balances).
package ledger

import (
	"context"

	"exchangecore/internal/domain"
)

// Tx is a handle that exclusively owns a unit of work until Commit or
// Rollback consumes it. The in-memory and storage-backed variants are a
// tagged union behind this interface.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ledger is the full balance-management capability set: account
// creation and lookup, balance retrieval, deposit, withdrawal, order
// reservation and release, trade settlement, and transaction scoping.
type Ledger interface {
	CreateAccount(ctx context.Context) (*domain.Account, error)
	GetAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	GetBalance(ctx context.Context, id domain.AccountID, asset string) (*domain.Balance, error)
	ListBalances(ctx context.Context, id domain.AccountID) ([]domain.Balance, error)
	EnsureBalance(ctx context.Context, id domain.AccountID, asset string) (*domain.Balance, error)

	Deposit(ctx context.Context, id domain.AccountID, asset string, amount domain.Decimal) error
	Withdraw(ctx context.Context, id domain.AccountID, asset string, amount domain.Decimal) error

	ReserveForOrder(ctx context.Context, order *domain.Order) error
	Release(ctx context.Context, order *domain.Order, remainingQuantity domain.Decimal) error
	SettleTrade(ctx context.Context, trade domain.Trade) error

	Begin(ctx context.Context) (Tx, error)
}

// reservationLeg describes which asset and amount an order's reservation
// or release touches.
type reservationLeg struct {
	asset  string
	amount domain.Decimal
}

// legForOrder computes which asset and how much of it an order's
// reservation touches, for a given quantity (either the order's original
// quantity when reserving, or its remaining quantity when releasing).
// Market orders never reserve.
func legForOrder(order *domain.Order, quantity domain.Decimal) (reservationLeg, bool) {
	if order.Kind == domain.Market {
		return reservationLeg{}, false
	}
	if order.Side == domain.Buy {
		return reservationLeg{asset: order.Market.Quote(), amount: order.Price.Mul(quantity)}, true
	}
	return reservationLeg{asset: order.Market.Base(), amount: quantity}, true
}
