package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
)

// PostgresLedger is the storage-backed Ledger implementation: the
// persisted state layout is accounts and balances keyed by
// (account_id, asset). It runs SettleTrade inside one Serializable
// storage transaction, returning InsufficientBalance when the locked
// balances read inside it do not cover the trade and Internal for any
// storage error.
//
// It is a complete interface satisfier compiled against a real
// pgxpool.Pool; this repo carries no live database so it is not
// exercised by a test.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an already-configured pool. Schema migration is the
// caller's responsibility.
func NewPostgres(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

func (l *PostgresLedger) CreateAccount(ctx context.Context) (*domain.Account, error) {
	id := domain.AccountID(uuid.NewString())
	now := time.Now()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO accounts (id, created_at, updated_at) VALUES ($1, $2, $2)`,
		string(id), now)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create account", err)
	}
	return &domain.Account{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (l *PostgresLedger) GetAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	var acc domain.Account
	var accountID string
	err := l.pool.QueryRow(ctx,
		`SELECT id, created_at, updated_at FROM accounts WHERE id = $1`, string(id),
	).Scan(&accountID, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrAccountNotFound
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "get account", err)
	}
	acc.ID = domain.AccountID(accountID)
	return &acc, nil
}

func (l *PostgresLedger) GetBalance(ctx context.Context, id domain.AccountID, asset string) (*domain.Balance, error) {
	return l.getBalance(ctx, l.pool, id, asset)
}

func (l *PostgresLedger) getBalance(ctx context.Context, q queryer, id domain.AccountID, asset string) (*domain.Balance, error) {
	bal := domain.Balance{AccountID: id, Asset: asset}
	var total, available, locked string
	err := q.QueryRow(ctx,
		`SELECT total, available, locked FROM balances WHERE account_id = $1 AND asset = $2`,
		string(id), asset,
	).Scan(&total, &available, &locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.New(apperr.KindInternal, "balance not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "get balance", err)
	}
	var parseErr error
	if bal.Total, parseErr = decimalFromString(total); parseErr != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "parse total", parseErr)
	}
	if bal.Available, parseErr = decimalFromString(available); parseErr != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "parse available", parseErr)
	}
	if bal.Locked, parseErr = decimalFromString(locked); parseErr != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "parse locked", parseErr)
	}
	return &bal, nil
}

func (l *PostgresLedger) ListBalances(ctx context.Context, id domain.AccountID) ([]domain.Balance, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT asset, total, available, locked FROM balances WHERE account_id = $1 ORDER BY asset`,
		string(id))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list balances", err)
	}
	defer rows.Close()

	var out []domain.Balance
	for rows.Next() {
		var asset, total, available, locked string
		if err := rows.Scan(&asset, &total, &available, &locked); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "scan balance", err)
		}
		bal := domain.Balance{AccountID: id, Asset: asset}
		bal.Total, _ = decimalFromString(total)
		bal.Available, _ = decimalFromString(available)
		bal.Locked, _ = decimalFromString(locked)
		out = append(out, bal)
	}
	return out, rows.Err()
}

func (l *PostgresLedger) EnsureBalance(ctx context.Context, id domain.AccountID, asset string) (*domain.Balance, error) {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO balances (account_id, asset, total, available, locked)
		 VALUES ($1, $2, 0, 0, 0) ON CONFLICT (account_id, asset) DO NOTHING`,
		string(id), asset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "ensure balance", err)
	}
	return l.GetBalance(ctx, id, asset)
}

func (l *PostgresLedger) Deposit(ctx context.Context, id domain.AccountID, asset string, amount domain.Decimal) error {
	if amount.Sign() <= 0 {
		return apperr.Validationf("deposit amount must be positive, got %s", amount)
	}
	if _, err := l.EnsureBalance(ctx, id, asset); err != nil {
		return err
	}
	_, err := l.pool.Exec(ctx,
		`UPDATE balances SET total = total + $3, available = available + $3
		 WHERE account_id = $1 AND asset = $2`,
		string(id), asset, amount.String())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "deposit", err)
	}
	return nil
}

func (l *PostgresLedger) Withdraw(ctx context.Context, id domain.AccountID, asset string, amount domain.Decimal) error {
	if amount.Sign() <= 0 {
		return apperr.Validationf("withdraw amount must be positive, got %s", amount)
	}
	tag, err := l.pool.Exec(ctx,
		`UPDATE balances SET total = total - $3, available = available - $3
		 WHERE account_id = $1 AND asset = $2 AND available >= $3`,
		string(id), asset, amount.String())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "withdraw", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrInsufficientBalance
	}
	return nil
}

func (l *PostgresLedger) ReserveForOrder(ctx context.Context, order *domain.Order) error {
	leg, ok := legForOrder(order, order.Quantity)
	if !ok {
		return nil
	}
	if _, err := l.EnsureBalance(ctx, domain.AccountID(order.UserID), leg.asset); err != nil {
		return err
	}
	tag, err := l.pool.Exec(ctx,
		`UPDATE balances SET available = available - $3, locked = locked + $3
		 WHERE account_id = $1 AND asset = $2 AND available >= $3`,
		order.UserID, leg.asset, leg.amount.String())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "reserve for order", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrInsufficientBalance
	}
	return nil
}

func (l *PostgresLedger) Release(ctx context.Context, order *domain.Order, remainingQuantity domain.Decimal) error {
	leg, ok := legForOrder(order, remainingQuantity)
	if !ok || leg.amount.Sign() == 0 {
		return nil
	}
	_, err := l.pool.Exec(ctx,
		`UPDATE balances SET locked = locked - $3, available = available + $3
		 WHERE account_id = $1 AND asset = $2`,
		order.UserID, leg.asset, leg.amount.String())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "release", err)
	}
	return nil
}

// SettleTrade runs the four-balance update inside one Serializable
// transaction, giving a storage-backed ledger the same atomicity
// guarantee the in-memory ledger gets from its single mutex.
func (l *PostgresLedger) SettleTrade(ctx context.Context, trade domain.Trade) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "begin settlement tx", err)
	}
	defer tx.Rollback(ctx)

	base := trade.Market.Base()
	quote := trade.Market.Quote()

	buyerQuote, err := l.getBalance(ctx, tx, domain.AccountID(trade.BuyerID), quote)
	if err != nil {
		return err
	}
	sellerBase, err := l.getBalance(ctx, tx, domain.AccountID(trade.SellerID), base)
	if err != nil {
		return err
	}
	if buyerQuote.Locked.LessThan(trade.Amount) || sellerBase.Locked.LessThan(trade.Quantity) {
		return apperr.ErrInsufficientBalance
	}

	stmts := []struct {
		sql  string
		args []any
	}{
		{`UPDATE balances SET locked = locked - $3, total = total - $3 WHERE account_id = $1 AND asset = $2`,
			[]any{trade.BuyerID, quote, trade.Amount.String()}},
		{`UPDATE balances SET total = total + $3, available = available + $3 WHERE account_id = $1 AND asset = $2`,
			[]any{trade.BuyerID, base, trade.Quantity.String()}},
		{`UPDATE balances SET locked = locked - $3, total = total - $3 WHERE account_id = $1 AND asset = $2`,
			[]any{trade.SellerID, base, trade.Quantity.String()}},
		{`UPDATE balances SET total = total + $3, available = available + $3 WHERE account_id = $1 AND asset = $2`,
			[]any{trade.SellerID, quote, trade.Amount.String()}},
	}
	for _, s := range stmts {
		if _, err := tx.Exec(ctx, s.sql, s.args...); err != nil {
			return apperr.Wrap(apperr.KindInternal, "settle trade", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindInternal, "commit settlement", err)
	}
	return nil
}

// Begin starts a Serializable storage transaction for callers that need
// to span more than one ledger operation.
func (l *PostgresLedger) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "begin transaction", err)
	}
	return postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (p postgresTx) Commit(ctx context.Context) error {
	if err := p.tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindInternal, "commit", err)
	}
	return nil
}

func (p postgresTx) Rollback(ctx context.Context) error {
	if err := p.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperr.Wrap(apperr.KindInternal, "rollback", err)
	}
	return nil
}

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// getBalance run against either a plain pool query or an in-flight
// transaction.
type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func decimalFromString(s string) (domain.Decimal, error) {
	return parseDecimal(s)
}
