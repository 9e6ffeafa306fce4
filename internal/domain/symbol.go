package domain

import (
	"fmt"
	"strings"

	"exchangecore/internal/apperr"
)

// Symbol identifies a market as BASE/QUOTE, e.g. "BTC/USD".
type Symbol string

// ParseSymbol validates and constructs a Symbol from its wire representation.
// Parsing happens once at the boundary; every other package trusts a Symbol
// value is well-formed.
func ParseSymbol(raw string) (Symbol, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return "", apperr.Validationf("market symbol %q must contain exactly one '/'", raw)
	}
	base, quote := parts[0], parts[1]
	if base == "" || quote == "" {
		return "", apperr.Validationf("market symbol %q must have non-empty base and quote", raw)
	}
	return Symbol(raw), nil
}

// Base returns the asset being bought or sold.
func (s Symbol) Base() string {
	base, _, _ := strings.Cut(string(s), "/")
	return base
}

// Quote returns the asset used to price the base asset.
func (s Symbol) Quote() string {
	_, quote, _ := strings.Cut(string(s), "/")
	return quote
}

func (s Symbol) String() string {
	return string(s)
}

// MarketConfig is supplied at registration and governs tick/step validation
// for every order placed against the market. A nil Tick or Step means the
// corresponding constraint is not enforced.
type MarketConfig struct {
	Symbol Symbol
	Tick   *Decimal // minimum price increment
	Step   *Decimal // minimum quantity increment
}

func (m MarketConfig) String() string {
	return fmt.Sprintf("MarketConfig[%s tick=%v step=%v]", m.Symbol, m.Tick, m.Step)
}
