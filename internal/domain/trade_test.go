package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"exchangecore/internal/domain"
	"exchangecore/internal/money"
)

func TestNewTradeComputesAmount(t *testing.T) {
	trade := domain.NewTrade(
		"trade-1", "BTC/USD",
		money.MustFromString("100"), money.MustFromString("2"),
		"buy-order", "sell-order", "buyer", "seller",
		domain.Buy, time.Now(),
	)
	assert.True(t, trade.Amount.Equal(money.MustFromString("200")))
	assert.Equal(t, "buy-order", trade.BuyerOrderID)
	assert.Equal(t, "sell-order", trade.SellerOrderID)
	assert.Equal(t, domain.Buy, trade.TakerSide)
}
