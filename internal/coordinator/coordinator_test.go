package coordinator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/apperr"
	"exchangecore/internal/coordinator"
	"exchangecore/internal/domain"
	"exchangecore/internal/ledger"
	"exchangecore/internal/matching"
	"exchangecore/internal/money"
)

const market = domain.Symbol("BTC/USD")

func newCoordinator(t *testing.T) (*coordinator.Coordinator, *ledger.MemoryLedger) {
	t.Helper()
	engine := matching.New()
	engine.RegisterMarket(domain.MarketConfig{Symbol: market})
	led := ledger.NewMemory()
	return coordinator.New(engine, led), led
}

func fund(t *testing.T, ctx context.Context, led *ledger.MemoryLedger, user, asset, amount string) domain.AccountID {
	t.Helper()
	acc, err := led.CreateAccount(ctx)
	require.NoError(t, err)
	require.NoError(t, led.Deposit(ctx, acc.ID, asset, money.MustFromString(amount)))
	return acc.ID
}

func limitOrder(id string, user domain.AccountID, side domain.Side, price, qty string) *domain.Order {
	p := money.MustFromString(price)
	return &domain.Order{
		ID: id, UserID: string(user), Market: market,
		Side: side, Kind: domain.Limit, Price: &p,
		Quantity: money.MustFromString(qty), TIF: domain.GTC,
	}
}

func TestPlaceOrderEndToEndSettlesBalances(t *testing.T) {
	ctx := context.Background()
	coord, led := newCoordinator(t)

	seller := fund(t, ctx, led, "seller", "BTC", "10")
	buyer := fund(t, ctx, led, "buyer", "USD", "1000")

	_, err := coord.PlaceOrder(ctx, limitOrder("sell-1", seller, domain.Sell, "100", "2"))
	require.NoError(t, err)

	result, err := coord.PlaceOrder(ctx, limitOrder("buy-1", buyer, domain.Buy, "100", "2"))
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	buyerBTC, err := led.GetBalance(ctx, buyer, "BTC")
	require.NoError(t, err)
	assert.True(t, buyerBTC.Total.Equal(money.MustFromString("2")))

	sellerUSD, err := led.GetBalance(ctx, seller, "USD")
	require.NoError(t, err)
	assert.True(t, sellerUSD.Total.Equal(money.MustFromString("200")))

	buyerUSD, err := led.GetBalance(ctx, buyer, "USD")
	require.NoError(t, err)
	assert.True(t, buyerUSD.Locked.Equal(money.Zero))
	assert.True(t, buyerUSD.Invariant())
}

func TestPlaceOrderReleasesReservationOnReject(t *testing.T) {
	ctx := context.Background()
	coord, led := newCoordinator(t)
	seller := fund(t, ctx, led, "seller", "BTC", "1")

	// A limit sell with a zero quantity fails engine validation before
	// matching, so the reservation taken up-front must be released.
	order := limitOrder("bad", seller, domain.Sell, "100", "1")
	order.Quantity = money.Zero

	_, err := coord.PlaceOrder(ctx, order)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	bal, err := led.GetBalance(ctx, seller, "BTC")
	require.NoError(t, err)
	assert.True(t, bal.Available.Equal(money.MustFromString("1")))
	assert.True(t, bal.Locked.Equal(money.Zero))
}

func TestCancelOrderReleasesReservation(t *testing.T) {
	ctx := context.Background()
	coord, led := newCoordinator(t)
	buyer := fund(t, ctx, led, "buyer", "USD", "1000")

	_, err := coord.PlaceOrder(ctx, limitOrder("resting", buyer, domain.Buy, "100", "2"))
	require.NoError(t, err)

	bal, err := led.GetBalance(ctx, buyer, "USD")
	require.NoError(t, err)
	assert.True(t, bal.Locked.Equal(money.MustFromString("200")))

	_, err = coord.CancelOrder(ctx, "resting")
	require.NoError(t, err)

	bal, err = led.GetBalance(ctx, buyer, "USD")
	require.NoError(t, err)
	assert.True(t, bal.Locked.Equal(money.Zero))
	assert.True(t, bal.Available.Equal(money.MustFromString("1000")))
}

func TestPlaceOrderFailsReservationWhenUnderfunded(t *testing.T) {
	ctx := context.Background()
	coord, led := newCoordinator(t)
	buyer := fund(t, ctx, led, "buyer", "USD", "10")

	_, err := coord.PlaceOrder(ctx, limitOrder("buy-1", buyer, domain.Buy, "100", "2"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))

	// the engine never saw the order: book stays empty
	bids, _, err := coord.Depth(market, 10)
	require.NoError(t, err)
	assert.Empty(t, bids)
}
