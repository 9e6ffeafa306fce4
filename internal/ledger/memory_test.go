package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
	"exchangecore/internal/ledger"
	"exchangecore/internal/money"
)

func newAccount(t *testing.T, l ledger.Ledger) domain.AccountID {
	t.Helper()
	acc, err := l.CreateAccount(context.Background())
	require.NoError(t, err)
	return acc.ID
}

func limitBuy(user domain.AccountID, price, qty string) *domain.Order {
	p := money.MustFromString(price)
	return &domain.Order{
		ID: "order-1", UserID: string(user), Market: "BTC/USD",
		Side: domain.Buy, Kind: domain.Limit, Price: &p,
		Quantity: money.MustFromString(qty), TIF: domain.GTC,
	}
}

func limitSell(user domain.AccountID, price, qty string) *domain.Order {
	p := money.MustFromString(price)
	return &domain.Order{
		ID: "order-2", UserID: string(user), Market: "BTC/USD",
		Side: domain.Sell, Kind: domain.Limit, Price: &p,
		Quantity: money.MustFromString(qty), TIF: domain.GTC,
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	acc := newAccount(t, l)

	require.NoError(t, l.Deposit(ctx, acc, "USD", money.MustFromString("100")))
	bal, err := l.GetBalance(ctx, acc, "USD")
	require.NoError(t, err)
	assert.True(t, bal.Total.Equal(money.MustFromString("100")))
	assert.True(t, bal.Invariant())

	require.NoError(t, l.Withdraw(ctx, acc, "USD", money.MustFromString("40")))
	bal, err = l.GetBalance(ctx, acc, "USD")
	require.NoError(t, err)
	assert.True(t, bal.Total.Equal(money.MustFromString("60")))

	err = l.Withdraw(ctx, acc, "USD", money.MustFromString("1000"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
}

func TestReserveAndReleaseForBuyOrder(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	buyer := newAccount(t, l)
	require.NoError(t, l.Deposit(ctx, buyer, "USD", money.MustFromString("1000")))

	order := limitBuy(buyer, "100", "2")
	require.NoError(t, l.ReserveForOrder(ctx, order))

	bal, err := l.GetBalance(ctx, buyer, "USD")
	require.NoError(t, err)
	assert.True(t, bal.Available.Equal(money.MustFromString("800")))
	assert.True(t, bal.Locked.Equal(money.MustFromString("200")))
	assert.True(t, bal.Invariant())

	require.NoError(t, l.Release(ctx, order, order.Quantity))
	bal, err = l.GetBalance(ctx, buyer, "USD")
	require.NoError(t, err)
	assert.True(t, bal.Available.Equal(money.MustFromString("1000")))
	assert.True(t, bal.Locked.Equal(money.Zero))
}

func TestReserveInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	buyer := newAccount(t, l)
	require.NoError(t, l.Deposit(ctx, buyer, "USD", money.MustFromString("10")))

	order := limitBuy(buyer, "100", "2")
	err := l.ReserveForOrder(ctx, order)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
}

func TestReleaseZeroIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	buyer := newAccount(t, l)
	order := limitBuy(buyer, "100", "2")
	require.NoError(t, l.Release(ctx, order, money.Zero))
}

func TestMarketOrderDoesNotReserve(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	buyer := newAccount(t, l)

	order := &domain.Order{
		ID: "m1", UserID: string(buyer), Market: "BTC/USD",
		Side: domain.Buy, Kind: domain.Market,
		Quantity: money.MustFromString("1"), TIF: domain.IOC,
	}
	require.NoError(t, l.ReserveForOrder(ctx, order))
}

func TestSettleTradeConservesBalances(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	buyer := newAccount(t, l)
	seller := newAccount(t, l)

	require.NoError(t, l.Deposit(ctx, buyer, "USD", money.MustFromString("1000")))
	require.NoError(t, l.Deposit(ctx, seller, "BTC", money.MustFromString("5")))

	buyOrder := limitBuy(buyer, "100", "2")
	sellOrder := limitSell(seller, "100", "2")
	require.NoError(t, l.ReserveForOrder(ctx, buyOrder))
	require.NoError(t, l.ReserveForOrder(ctx, sellOrder))

	trade := domain.NewTrade(
		"trade-1", "BTC/USD",
		money.MustFromString("100"), money.MustFromString("2"),
		buyOrder.ID, sellOrder.ID, string(buyer), string(seller),
		domain.Buy, buyOrder.CreatedAt,
	)
	require.NoError(t, l.SettleTrade(ctx, trade))

	buyerUSD, err := l.GetBalance(ctx, buyer, "USD")
	require.NoError(t, err)
	assert.True(t, buyerUSD.Total.Equal(money.MustFromString("800")))
	assert.True(t, buyerUSD.Locked.Equal(money.Zero))

	buyerBTC, err := l.GetBalance(ctx, buyer, "BTC")
	require.NoError(t, err)
	assert.True(t, buyerBTC.Total.Equal(money.MustFromString("2")))
	assert.True(t, buyerBTC.Invariant())

	sellerBTC, err := l.GetBalance(ctx, seller, "BTC")
	require.NoError(t, err)
	assert.True(t, sellerBTC.Total.Equal(money.MustFromString("3")))
	assert.True(t, sellerBTC.Locked.Equal(money.Zero))

	sellerUSD, err := l.GetBalance(ctx, seller, "USD")
	require.NoError(t, err)
	assert.True(t, sellerUSD.Total.Equal(money.MustFromString("200")))
	assert.True(t, sellerUSD.Invariant())
}

func TestSettleTradeRejectsWhenLockedInsufficient(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemory()
	buyer := newAccount(t, l)
	seller := newAccount(t, l)

	trade := domain.NewTrade(
		"trade-1", "BTC/USD",
		money.MustFromString("100"), money.MustFromString("2"),
		"b-order", "s-order", string(buyer), string(seller),
		domain.Buy, time.Now(),
	)
	err := l.SettleTrade(ctx, trade)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))
}
