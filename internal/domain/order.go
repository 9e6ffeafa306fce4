package domain

import (
	"fmt"
	"time"

	"exchangecore/internal/apperr"
)

// Side is which direction an order trades.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderKind distinguishes limit from market orders.
type OrderKind int

const (
	Limit OrderKind = iota
	Market
)

func (k OrderKind) String() string {
	switch k {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// TimeInForce controls how an unfilled remainder is handled.
type TimeInForce int

const (
	// GTC rests the unfilled remainder on the book.
	GTC TimeInForce = iota
	// IOC fills what it can immediately and cancels the remainder.
	IOC
	// FOK fills completely or not at all, with no partial execution.
	FOK
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus is an order's lifecycle state.
type OrderStatus int

const (
	New OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case New:
		return "NEW"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Order is the exchange's order record: immutable logical identity plus
// mutable fill progress. Callers must treat the identity fields (ID,
// UserID, Market, Side, Kind, Price, Quantity, TIF, CreatedAt) as fixed
// once an order has been validated and accepted.
type Order struct {
	ID     string
	UserID string
	Market Symbol
	Side   Side
	Kind   OrderKind
	// Price is nil for Market orders, set for Limit orders.
	Price    *Decimal
	Quantity Decimal
	TIF      TimeInForce

	CreatedAt time.Time
	UpdatedAt time.Time

	FilledQuantity    Decimal
	AverageFillPrice  *Decimal
	Status            OrderStatus
}

// RemainingQuantity returns Quantity - FilledQuantity.
func (o *Order) RemainingQuantity() Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

// Validate checks the structural invariants an order must satisfy before
// it may enter the matching engine. It does not check tick/step — that
// depends on the market's MarketConfig and is checked by the engine.
func (o *Order) Validate() error {
	if o.Quantity.Sign() <= 0 {
		return apperr.Validationf("order %s: quantity must be positive, got %s", o.ID, o.Quantity)
	}
	switch o.Kind {
	case Limit:
		if o.Price == nil {
			return apperr.Validationf("order %s: limit order must carry a price", o.ID)
		}
		if o.Price.Sign() <= 0 {
			return apperr.Validationf("order %s: limit price must be positive, got %s", o.ID, o.Price)
		}
	case Market:
		if o.Price != nil {
			return apperr.Validationf("order %s: market order must not carry a price", o.ID)
		}
	default:
		return apperr.Validationf("order %s: unknown order kind %d", o.ID, o.Kind)
	}
	if o.Side != Buy && o.Side != Sell {
		return apperr.Validationf("order %s: unknown side %d", o.ID, o.Side)
	}
	return nil
}

// ApplyFill records a fill of qty at price against the order's progress,
// recomputing the weighted average fill price and status. It does not
// decide resting/cancelling semantics for a remainder — that's the
// matching engine's job once the sweep loop finishes.
func (o *Order) ApplyFill(price Decimal, qty Decimal, at time.Time) {
	priorFilled := o.FilledQuantity
	priorNotional := Decimal{}
	if o.AverageFillPrice != nil {
		priorNotional = o.AverageFillPrice.Mul(priorFilled)
	}

	o.FilledQuantity = o.FilledQuantity.Add(qty)
	newNotional := priorNotional.Add(price.Mul(qty))
	avg := newNotional.Div(o.FilledQuantity)
	o.AverageFillPrice = &avg

	o.UpdatedAt = at

	switch {
	case o.RemainingQuantity().Sign() == 0:
		o.Status = Filled
	case o.FilledQuantity.Sign() > 0:
		o.Status = PartiallyFilled
	}
}

func (o *Order) String() string {
	price := "-"
	if o.Price != nil {
		price = o.Price.String()
	}
	return fmt.Sprintf(
		`Order[ID: %s, User: %s, Market: %s, Side: %s, Kind: %s, TIF: %s, Price: %s, Qty: %s/%s, Status: %s]`,
		o.ID, o.UserID, o.Market, o.Side, o.Kind, o.TIF, price,
		o.RemainingQuantity(), o.Quantity, o.Status,
	)
}

// Clone returns a deep-enough copy for use as a reporting snapshot, not a
// live reference into the book.
func (o *Order) Clone() *Order {
	cp := *o
	if o.Price != nil {
		p := *o.Price
		cp.Price = &p
	}
	if o.AverageFillPrice != nil {
		a := *o.AverageFillPrice
		cp.AverageFillPrice = &a
	}
	return &cp
}
