package orderbook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/domain"
	"exchangecore/internal/money"
	"exchangecore/internal/orderbook"
)

func limitOrder(id string, side domain.Side, price, qty string) *domain.Order {
	p := money.MustFromString(price)
	return &domain.Order{
		ID:       id,
		UserID:   "user-" + id,
		Market:   "BTC/USD",
		Side:     side,
		Kind:     domain.Limit,
		Price:    &p,
		Quantity: money.MustFromString(qty),
		TIF:      domain.GTC,
	}
}

func TestBookAddAndBestPrices(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})

	b.Add(limitOrder("b1", domain.Buy, "100", "1"))
	b.Add(limitOrder("b2", domain.Buy, "101", "1"))
	b.Add(limitOrder("a1", domain.Sell, "105", "1"))
	b.Add(limitOrder("a2", domain.Sell, "104", "1"))

	bestBid, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, bestBid.Equal(money.MustFromString("101")))

	bestAsk, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, bestAsk.Equal(money.MustFromString("104")))
}

func TestBookPriceTimePriorityWithinLevel(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})

	first := limitOrder("first", domain.Sell, "100", "1")
	second := limitOrder("second", domain.Sell, "100", "1")
	b.Add(first)
	b.Add(second)

	level, ok := b.BestLevelMut(domain.Sell)
	require.True(t, ok)
	require.Len(t, level.Orders, 2)
	assert.Equal(t, "first", level.Orders[0].ID)
	assert.Equal(t, "second", level.Orders[1].ID)
}

func TestBookCancelRemovesEmptyLevel(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})
	b.Add(limitOrder("o1", domain.Buy, "100", "1"))

	order, err := b.Cancel("o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)

	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.Get("o1")
	assert.False(t, ok)
}

func TestBookCancelUnknownOrder(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})
	_, err := b.Cancel("missing")
	assert.Error(t, err)
}

func TestBookDepthAggregatesByLevel(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})
	b.Add(limitOrder("b1", domain.Buy, "100", "1"))
	b.Add(limitOrder("b2", domain.Buy, "100", "2"))
	b.Add(limitOrder("b3", domain.Buy, "99", "5"))

	bids, _ := b.Depth(10)
	require.Len(t, bids, 2)
	assert.True(t, bids[0].Price.Equal(money.MustFromString("100")))
	assert.True(t, bids[0].Quantity.Equal(money.MustFromString("3")))
	assert.True(t, bids[1].Price.Equal(money.MustFromString("99")))
}

func TestBookCumulativeLiquidity(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})
	b.Add(limitOrder("a1", domain.Sell, "100", "1"))
	b.Add(limitOrder("a2", domain.Sell, "101", "2"))

	limit := money.MustFromString("100")
	total := b.CumulativeLiquidity(domain.Sell, &limit)
	assert.True(t, total.Equal(money.MustFromString("1")))

	total = b.CumulativeLiquidity(domain.Sell, nil)
	assert.True(t, total.Equal(money.MustFromString("3")))
}

func TestBookEmpty(t *testing.T) {
	b := orderbook.New("BTC/USD", domain.MarketConfig{Symbol: "BTC/USD"})
	assert.True(t, b.Empty(domain.Buy))
	b.Add(limitOrder("b1", domain.Buy, "100", "1"))
	assert.False(t, b.Empty(domain.Buy))
}
