package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
)

func TestParseSymbol(t *testing.T) {
	sym, err := domain.ParseSymbol("BTC/USD")
	require.NoError(t, err)
	assert.Equal(t, "BTC", sym.Base())
	assert.Equal(t, "USD", sym.Quote())
	assert.Equal(t, "BTC/USD", sym.String())
}

func TestParseSymbolInvalid(t *testing.T) {
	cases := []string{"", "BTCUSD", "BTC/USD/EUR", "/USD", "BTC/"}
	for _, c := range cases {
		_, err := domain.ParseSymbol(c)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
}
