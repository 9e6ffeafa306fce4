// Package money provides the fixed-point decimal primitives the rest of the
// core is built on: exact addition, subtraction, multiplication, and
// deterministic rounding, with no binary floating point anywhere near a
// balance or a trade.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is the shared arbitrary-precision type. Price, Quantity, and
// Amount are type aliases over it that name the unit at call sites; being
// aliases, they are interchangeable and the compiler does not catch a
// mix-up between them.
type Decimal = decimal.Decimal

// Price is the quote-asset cost of one unit of base asset.
type Price = Decimal

// Quantity is a volume of base asset.
type Quantity = Decimal

// Amount is a volume of quote asset (Amount = Price * Quantity).
type Amount = Decimal

// Zero is the additive identity, safe to use as a default value.
var Zero = decimal.Zero

// NewFromString parses a decimal literal, failing on anything that isn't
// an exact base-10 representation (no float64 round-trip).
func NewFromString(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("money: invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// MustFromString is NewFromString for callers that already know the
// literal is well-formed (constants, test fixtures).
func MustFromString(s string) Decimal {
	d, err := NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewFromInt builds a Decimal from a plain integer count of base units.
func NewFromInt(v int64) Decimal {
	return decimal.NewFromInt(v)
}

// NewAmount multiplies a price by a quantity to produce a quote-asset amount.
func NewAmount(price Price, quantity Quantity) Amount {
	return price.Mul(quantity)
}

// IsPositive reports whether d > 0.
func IsPositive(d Decimal) bool {
	return d.Sign() > 0
}

// IsNonNegative reports whether d >= 0.
func IsNonNegative(d Decimal) bool {
	return d.Sign() >= 0
}

// IsZero reports whether d == 0.
func IsZero(d Decimal) bool {
	return d.Sign() == 0
}

// Divides reports whether the quotient value / step is an exact integer,
// used to enforce a market's tick/step constraints. A nil or zero step
// means "no constraint" and always returns true.
func Divides(step *Decimal, value Decimal) bool {
	if step == nil || step.Sign() == 0 {
		return true
	}
	_, rem := value.QuoRem(*step, 0)
	return rem.Sign() == 0
}
