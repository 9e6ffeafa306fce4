package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/money"
)

func TestNewFromString(t *testing.T) {
	d, err := money.NewFromString("12.50")
	require.NoError(t, err)
	assert.True(t, d.Equal(money.MustFromString("12.5")))

	_, err = money.NewFromString("not-a-number")
	assert.Error(t, err)
}

func TestNewAmount(t *testing.T) {
	price := money.MustFromString("10.5")
	qty := money.MustFromString("2")
	assert.True(t, money.NewAmount(price, qty).Equal(money.MustFromString("21")))
}

func TestSignHelpers(t *testing.T) {
	assert.True(t, money.IsPositive(money.MustFromString("1")))
	assert.False(t, money.IsPositive(money.Zero))
	assert.True(t, money.IsNonNegative(money.Zero))
	assert.False(t, money.IsNonNegative(money.MustFromString("-1")))
	assert.True(t, money.IsZero(money.Zero))
}

func TestDivides(t *testing.T) {
	tick := money.MustFromString("0.01")
	assert.True(t, money.Divides(&tick, money.MustFromString("10.03")))
	assert.False(t, money.Divides(&tick, money.MustFromString("10.031")))
	assert.True(t, money.Divides(nil, money.MustFromString("10.031")))

	zero := money.Zero
	assert.True(t, money.Divides(&zero, money.MustFromString("10.031")))
}
