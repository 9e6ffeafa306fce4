package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
)

// MemoryLedger is the in-process, authoritative ledger implementation.
// It guards every balance with a single mutex rather than per-key locks —
// a single critical section spanning all four balances touched by a
// settlement trivially avoids the lock-ordering deadlock per-key locking
// would otherwise require (sorting by (account_id, asset)); the
// storage-backed variant instead delegates to its transaction's own
// isolation.
type MemoryLedger struct {
	mu       sync.Mutex
	accounts map[domain.AccountID]*domain.Account
	balances map[domain.BalanceKey]*domain.Balance
}

// NewMemory constructs an empty MemoryLedger.
func NewMemory() *MemoryLedger {
	return &MemoryLedger{
		accounts: make(map[domain.AccountID]*domain.Account),
		balances: make(map[domain.BalanceKey]*domain.Balance),
	}
}

func (l *MemoryLedger) CreateAccount(ctx context.Context) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	acc := &domain.Account{ID: domain.AccountID(uuid.NewString()), CreatedAt: now, UpdatedAt: now}
	l.accounts[acc.ID] = acc
	return acc, nil
}

func (l *MemoryLedger) GetAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[id]
	if !ok {
		return nil, apperr.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (l *MemoryLedger) GetBalance(ctx context.Context, id domain.AccountID, asset string) (*domain.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[domain.BalanceKey{AccountID: id, Asset: asset}]
	if !ok {
		return nil, apperr.New(apperr.KindInternal, "balance not found")
	}
	cp := *b
	return &cp, nil
}

func (l *MemoryLedger) ListBalances(ctx context.Context, id domain.AccountID) ([]domain.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[id]; !ok {
		return nil, apperr.ErrAccountNotFound
	}
	var out []domain.Balance
	for key, b := range l.balances {
		if key.AccountID == id {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

func (l *MemoryLedger) EnsureBalance(ctx context.Context, id domain.AccountID, asset string) (*domain.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureBalanceLocked(id, asset)
}

// ensureBalanceLocked assumes l.mu is held.
func (l *MemoryLedger) ensureBalanceLocked(id domain.AccountID, asset string) (*domain.Balance, error) {
	if _, ok := l.accounts[id]; !ok {
		return nil, apperr.ErrAccountNotFound
	}
	key := domain.BalanceKey{AccountID: id, Asset: asset}
	b, ok := l.balances[key]
	if !ok {
		b = &domain.Balance{AccountID: id, Asset: asset}
		l.balances[key] = b
	}
	return b, nil
}

func (l *MemoryLedger) Deposit(ctx context.Context, id domain.AccountID, asset string, amount domain.Decimal) error {
	if !moneyPositive(amount) {
		return apperr.Validationf("deposit amount must be positive, got %s", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.ensureBalanceLocked(id, asset)
	if err != nil {
		return err
	}
	b.Total = b.Total.Add(amount)
	b.Available = b.Available.Add(amount)
	return nil
}

func (l *MemoryLedger) Withdraw(ctx context.Context, id domain.AccountID, asset string, amount domain.Decimal) error {
	if !moneyPositive(amount) {
		return apperr.Validationf("withdraw amount must be positive, got %s", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.ensureBalanceLocked(id, asset)
	if err != nil {
		return err
	}
	if b.Available.LessThan(amount) {
		return apperr.ErrInsufficientBalance
	}
	b.Total = b.Total.Sub(amount)
	b.Available = b.Available.Sub(amount)
	return nil
}

func (l *MemoryLedger) ReserveForOrder(ctx context.Context, order *domain.Order) error {
	leg, ok := legForOrder(order, order.Quantity)
	if !ok {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.ensureBalanceLocked(domain.AccountID(order.UserID), leg.asset)
	if err != nil {
		return err
	}
	if b.Available.LessThan(leg.amount) {
		return apperr.ErrInsufficientBalance
	}
	b.Available = b.Available.Sub(leg.amount)
	b.Locked = b.Locked.Add(leg.amount)
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, order *domain.Order, remainingQuantity domain.Decimal) error {
	leg, ok := legForOrder(order, remainingQuantity)
	if !ok || leg.amount.Sign() == 0 {
		return nil // idempotent: release(order, 0) is a no-op
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.ensureBalanceLocked(domain.AccountID(order.UserID), leg.asset)
	if err != nil {
		return err
	}
	b.Locked = b.Locked.Sub(leg.amount)
	b.Available = b.Available.Add(leg.amount)
	return nil
}

// SettleTrade performs the atomic four-balance update a trade requires:
// buyer quote -> buyer base, seller base -> seller quote. All validation
// happens before any mutation so a failure leaves every balance untouched.
func (l *MemoryLedger) SettleTrade(ctx context.Context, trade domain.Trade) error {
	base := trade.Market.Base()
	quote := trade.Market.Quote()

	l.mu.Lock()
	defer l.mu.Unlock()

	buyerQuote, err := l.ensureBalanceLocked(domain.AccountID(trade.BuyerID), quote)
	if err != nil {
		return err
	}
	buyerBase, err := l.ensureBalanceLocked(domain.AccountID(trade.BuyerID), base)
	if err != nil {
		return err
	}
	sellerBase, err := l.ensureBalanceLocked(domain.AccountID(trade.SellerID), base)
	if err != nil {
		return err
	}
	sellerQuote, err := l.ensureBalanceLocked(domain.AccountID(trade.SellerID), quote)
	if err != nil {
		return err
	}

	if buyerQuote.Locked.LessThan(trade.Amount) || sellerBase.Locked.LessThan(trade.Quantity) {
		return apperr.ErrInsufficientBalance
	}

	buyerQuote.Locked = buyerQuote.Locked.Sub(trade.Amount)
	buyerQuote.Total = buyerQuote.Total.Sub(trade.Amount)
	buyerBase.Total = buyerBase.Total.Add(trade.Quantity)
	buyerBase.Available = buyerBase.Available.Add(trade.Quantity)

	sellerBase.Locked = sellerBase.Locked.Sub(trade.Quantity)
	sellerBase.Total = sellerBase.Total.Sub(trade.Quantity)
	sellerQuote.Total = sellerQuote.Total.Add(trade.Amount)
	sellerQuote.Available = sellerQuote.Available.Add(trade.Amount)

	return nil
}

// Begin returns a no-op transaction handle: the in-memory ledger's
// mutations are already atomic within each method call.
func (l *MemoryLedger) Begin(ctx context.Context) (Tx, error) {
	return memoryTx{}, nil
}

type memoryTx struct{}

func (memoryTx) Commit(ctx context.Context) error   { return nil }
func (memoryTx) Rollback(ctx context.Context) error { return nil }

func moneyPositive(d domain.Decimal) bool {
	return d.Sign() > 0
}
