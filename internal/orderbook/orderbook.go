// Package orderbook implements one market's limit order book: price-time
// priority queues on both sides, a by-id index for cancellation, and depth
// snapshots. Each registered market gets its own Book instance, keyed on
// exact decimal prices rather than floats.
package orderbook

import (
	"sync"

	"github.com/tidwall/btree"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
)

// PriceLevel holds every resting order at one price, in the order they
// were inserted (price-time priority within the level).
type PriceLevel struct {
	Price  domain.Decimal
	Orders []*domain.Order
}

// levels is the per-side btree of price levels, an unexported type alias
// since only Book constructs one.
type levels = btree.BTreeG[*PriceLevel]

// Book is a single market's order book. All exported methods except Depth
// (which takes its own read lock) assume the caller holds the appropriate
// lock (Lock for mutation, RLock for reads).
// The lock lives here rather than in the matching engine so Depth() can
// take a cheap read lock while PlaceOrder takes the exclusive one.
type Book struct {
	Market domain.Symbol
	Config domain.MarketConfig

	mu   sync.RWMutex
	bids *levels // ordered best-first: descending price
	asks *levels // ordered best-first: ascending price
	byID map[string]*domain.Order

	lastPrice *domain.Decimal
}

// New constructs an empty book for market with the given configuration.
func New(market domain.Symbol, cfg domain.MarketConfig) *Book {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.GreaterThan(b.Price)
	})
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price.LessThan(b.Price)
	})
	return &Book{
		Market: market,
		Config: cfg,
		bids:   bids,
		asks:   asks,
		byID:   make(map[string]*domain.Order),
	}
}

// Lock/Unlock/RLock/RUnlock expose the per-market lock to callers that
// need to hold it across several Book operations (the matching engine's
// whole sweep loop, in particular).
func (b *Book) Lock()    { b.mu.Lock() }
func (b *Book) Unlock()  { b.mu.Unlock() }
func (b *Book) RLock()   { b.mu.RLock() }
func (b *Book) RUnlock() { b.mu.RUnlock() }

func (b *Book) sideLevels(side domain.Side) *levels {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// Add appends order to the tail of the queue at its price on its side.
// Precondition (checked by the matching engine, not re-checked here):
// order.Kind == Limit, RemainingQuantity() > 0, order.Market == b.Market.
// Adding an id that is already resting is a caller error.
func (b *Book) Add(order *domain.Order) {
	lv := b.sideLevels(order.Side)
	key := &PriceLevel{Price: *order.Price}
	if existing, ok := lv.GetMut(key); ok {
		existing.Orders = append(existing.Orders, order)
	} else {
		lv.Set(&PriceLevel{Price: *order.Price, Orders: []*domain.Order{order}})
	}
	b.byID[order.ID] = order
}

// Cancel removes the order from its queue and the by-id index, preserving
// the relative order of the remaining entries at that price level.
func (b *Book) Cancel(orderID string) (*domain.Order, error) {
	order, ok := b.byID[orderID]
	if !ok {
		return nil, apperr.ErrOrderNotFound
	}
	delete(b.byID, orderID)

	lv := b.sideLevels(order.Side)
	key := &PriceLevel{Price: *order.Price}
	level, ok := lv.GetMut(key)
	if !ok {
		return order, nil
	}
	for i, o := range level.Orders {
		if o.ID == orderID {
			level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
			break
		}
	}
	if len(level.Orders) == 0 {
		lv.Delete(key)
	}
	return order, nil
}

// BestBid returns the best (highest) resting bid price.
func (b *Book) BestBid() (domain.Decimal, bool) {
	lv, ok := b.bids.Min()
	if !ok {
		return domain.Decimal{}, false
	}
	return lv.Price, true
}

// BestAsk returns the best (lowest) resting ask price.
func (b *Book) BestAsk() (domain.Decimal, bool) {
	lv, ok := b.asks.Min()
	if !ok {
		return domain.Decimal{}, false
	}
	return lv.Price, true
}

// BestLevelMut returns a mutable pointer to the best price level on side,
// for the matching engine to consume orders from its head.
func (b *Book) BestLevelMut(side domain.Side) (*PriceLevel, bool) {
	return b.sideLevels(side).MinMut()
}

// DropLevel removes level entirely (used once its head order list is
// fully consumed by a match).
func (b *Book) DropLevel(side domain.Side, level *PriceLevel) {
	b.sideLevels(side).Delete(level)
}

// RemoveFromIndex removes order from the by-id index without touching the
// price level itself — used by the matching engine once it has spliced a
// fully-consumed maker out of level.Orders directly.
func (b *Book) RemoveFromIndex(orderID string) {
	delete(b.byID, orderID)
}

// Get looks up a resting order by id.
func (b *Book) Get(orderID string) (*domain.Order, bool) {
	o, ok := b.byID[orderID]
	return o, ok
}

// SetLastPrice records the price of the most recent trade in this market.
func (b *Book) SetLastPrice(p domain.Decimal) {
	b.lastPrice = &p
}

// LastPrice returns the most recent trade price, if any.
func (b *Book) LastPrice() (domain.Decimal, bool) {
	if b.lastPrice == nil {
		return domain.Decimal{}, false
	}
	return *b.lastPrice, true
}

// DepthEntry is one aggregated price level in a depth snapshot.
type DepthEntry struct {
	Price    domain.Decimal
	Quantity domain.Decimal
}

// Depth returns up to limit aggregated price levels per side, best-first.
// Aggregation sums RemainingQuantity across every order resting at a
// price. Depth takes a read lock internally so it may be called without
// the caller holding one; do not call it while already holding Lock/RLock.
func (b *Book) Depth(limit int) (bids, asks []DepthEntry) {
	b.RLock()
	defer b.RUnlock()

	bids = depthSide(b.bids, limit)
	asks = depthSide(b.asks, limit)
	return bids, asks
}

func depthSide(lv *levels, limit int) []DepthEntry {
	entries := make([]DepthEntry, 0, limit)
	lv.Scan(func(level *PriceLevel) bool {
		if len(entries) >= limit {
			return false
		}
		qty := domain.Decimal{}
		for _, o := range level.Orders {
			qty = qty.Add(o.RemainingQuantity())
		}
		entries = append(entries, DepthEntry{Price: level.Price, Quantity: qty})
		return true
	})
	return entries
}

// CumulativeLiquidity sums remaining quantity across every resting order
// on side, used by the FOK pre-check. When limitPrice is non-nil,
// scanning stops at the first level that no longer crosses it: bids
// (descending) stop below limitPrice, asks (ascending) stop above it.
func (b *Book) CumulativeLiquidity(side domain.Side, limitPrice *domain.Decimal) domain.Decimal {
	total := domain.Decimal{}
	b.sideLevels(side).Scan(func(level *PriceLevel) bool {
		if limitPrice != nil {
			if side == domain.Buy {
				if level.Price.LessThan(*limitPrice) {
					return false
				}
			} else {
				if level.Price.GreaterThan(*limitPrice) {
					return false
				}
			}
		}
		for _, o := range level.Orders {
			total = total.Add(o.RemainingQuantity())
		}
		return true
	})
	return total
}

// Empty reports whether side has no resting orders.
func (b *Book) Empty(side domain.Side) bool {
	return b.sideLevels(side).Len() == 0
}
