package matching

import (
	"time"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
	"exchangecore/internal/orderbook"
)

// match runs the price-time priority sweep against book for taker. The
// caller must hold book's exclusive lock.
func (e *Engine) match(b *orderbook.Book, taker *domain.Order) (*MatchResult, error) {
	opposite := taker.Side.Opposite()

	if taker.Kind == domain.Market && b.Empty(opposite) {
		return nil, apperr.ErrInsufficientLiquidity
	}

	if taker.Kind == domain.Limit && taker.TIF == domain.FOK {
		available := b.CumulativeLiquidity(opposite, taker.Price)
		if available.LessThan(taker.Quantity) {
			taker.Status = domain.Rejected
			return &MatchResult{Taker: taker}, apperr.ErrFokUnfulfillable
		}
	}

	var makers []*domain.Order
	var trades []domain.Trade
	now := time.Now()

	for taker.RemainingQuantity().Sign() > 0 {
		level, ok := b.BestLevelMut(opposite)
		if !ok {
			break
		}
		if taker.Kind == domain.Limit && !crosses(taker.Side, *taker.Price, level.Price) {
			break
		}

		maker := level.Orders[0]
		qty := minDecimal(taker.RemainingQuantity(), maker.RemainingQuantity())
		price := level.Price

		trade := e.emitTrade(taker, maker, price, qty, now)
		trades = append(trades, trade)

		taker.ApplyFill(price, qty, now)
		maker.ApplyFill(price, qty, now)
		makers = append(makers, maker.Clone())

		if maker.RemainingQuantity().Sign() == 0 {
			level.Orders = level.Orders[1:]
			b.RemoveFromIndex(maker.ID)
			if len(level.Orders) == 0 {
				b.DropLevel(opposite, level)
			}
		}

		b.SetLastPrice(price)
	}

	finalizeTaker(b, taker)

	return &MatchResult{Taker: taker, MakerOrders: makers, Trades: trades}, nil
}

// crosses reports whether the opposite side's best price p crosses the
// taker's limit price, for the given taker side.
func crosses(side domain.Side, limit, p domain.Decimal) bool {
	if side == domain.Buy {
		return !p.GreaterThan(limit) // p <= limit
	}
	return !p.LessThan(limit) // p >= limit
}

func minDecimal(a, b domain.Decimal) domain.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// emitTrade builds the Trade record for one match of taker against maker,
// assigning buyer/seller identity by side and pinning taker_side to the
// taker's own side unconditionally.
func (e *Engine) emitTrade(taker, maker *domain.Order, price, qty domain.Decimal, at time.Time) domain.Trade {
	var buyerOrder, sellerOrder *domain.Order
	if taker.Side == domain.Buy {
		buyerOrder, sellerOrder = taker, maker
	} else {
		buyerOrder, sellerOrder = maker, taker
	}
	return domain.NewTrade(
		e.nextID(), taker.Market, price, qty,
		buyerOrder.ID, sellerOrder.ID, buyerOrder.UserID, sellerOrder.UserID,
		taker.Side, at,
	)
}

// finalizeTaker sets the taker's terminal status and, for GTC limit
// orders with quantity remaining, rests it on the book as a maker for
// future orders.
func finalizeTaker(b *orderbook.Book, taker *domain.Order) {
	remaining := taker.RemainingQuantity()

	switch {
	case remaining.Sign() == 0:
		taker.Status = domain.Filled
	case taker.FilledQuantity.Sign() > 0:
		taker.Status = domain.PartiallyFilled
	default:
		taker.Status = domain.New
	}

	if remaining.Sign() == 0 {
		return
	}

	switch taker.Kind {
	case domain.Limit:
		switch taker.TIF {
		case domain.GTC:
			b.Add(taker)
		case domain.IOC:
			taker.Status = domain.Cancelled
		case domain.FOK:
			// Unreachable: FOK either fills completely above or is
			// rejected before the loop runs.
			taker.Status = domain.Cancelled
		}
	case domain.Market:
		taker.Status = domain.Cancelled
	}
}
