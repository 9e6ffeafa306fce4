// Package matching implements the core matching algorithm: price-time
// priority, GTC/IOC/FOK handling, and trade emission across any number of
// registered markets, on decimal prices rather than floating point.
package matching

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
	"exchangecore/internal/money"
	"exchangecore/internal/orderbook"
)

// MatchResult is returned by PlaceOrder: the taker's final post-match
// state, snapshots of every maker order touched, and the trades emitted,
// in emission order.
type MatchResult struct {
	Taker       *domain.Order
	MakerOrders []*domain.Order
	Trades      []domain.Trade
}

// Engine owns every registered market's order book and runs the matching
// algorithm against incoming orders.
type Engine struct {
	mu     sync.RWMutex
	books  map[domain.Symbol]*orderbook.Book
	nextID func() string
}

// New constructs an empty Engine with no markets registered.
func New() *Engine {
	return &Engine{
		books: make(map[domain.Symbol]*orderbook.Book),
		nextID: func() string {
			return uuid.NewString()
		},
	}
}

// RegisterMarket idempotently registers a market. A repeat registration for
// an already-known symbol is a no-op that returns the existing config.
func (e *Engine) RegisterMarket(cfg domain.MarketConfig) domain.MarketConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.books[cfg.Symbol]; ok {
		return existing.Config
	}
	e.books[cfg.Symbol] = orderbook.New(cfg.Symbol, cfg)
	log.Debug().Str("market", string(cfg.Symbol)).Msg("market registered")
	return cfg
}

func (e *Engine) book(market domain.Symbol) (*orderbook.Book, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[market]
	if !ok {
		return nil, apperr.ErrMarketNotFound
	}
	return b, nil
}

// Depth delegates to the market's order book.
func (e *Engine) Depth(market domain.Symbol, limit int) (bids, asks []orderbook.DepthEntry, err error) {
	b, err := e.book(market)
	if err != nil {
		return nil, nil, err
	}
	bids, asks = b.Depth(limit)
	return bids, asks, nil
}

// GetOrder does a best-effort lookup for a resting order across every
// registered market.
func (e *Engine) GetOrder(orderID string) (*domain.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, b := range e.books {
		b.RLock()
		o, ok := b.Get(orderID)
		b.RUnlock()
		if ok {
			return o.Clone(), true
		}
	}
	return nil, false
}

// CancelOrder removes a resting order from whichever book holds it.
func (e *Engine) CancelOrder(orderID string) (*domain.Order, error) {
	e.mu.RLock()
	books := make([]*orderbook.Book, 0, len(e.books))
	for _, b := range e.books {
		books = append(books, b)
	}
	e.mu.RUnlock()

	for _, b := range books {
		b.Lock()
		if _, ok := b.Get(orderID); !ok {
			b.Unlock()
			continue
		}
		order, err := b.Cancel(orderID)
		b.Unlock()
		if err != nil {
			continue
		}
		order.Status = domain.Cancelled
		order.UpdatedAt = time.Now()
		return order, nil
	}
	return nil, apperr.ErrOrderNotFound
}

// PlaceOrder validates and matches order against market, returning the
// resulting trades and final taker/maker state. See match.go for the
// sweep algorithm.
func (e *Engine) PlaceOrder(order *domain.Order) (*MatchResult, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	b, err := e.book(order.Market)
	if err != nil {
		return nil, err
	}
	if err := checkTickStep(b.Config, order); err != nil {
		return nil, err
	}

	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	b.Lock()
	defer b.Unlock()

	return e.match(b, order)
}

func checkTickStep(cfg domain.MarketConfig, order *domain.Order) error {
	if cfg.Tick != nil && order.Price != nil {
		if !money.Divides(cfg.Tick, *order.Price) {
			return apperr.Validationf("order %s: price %s is not a multiple of tick %s", order.ID, order.Price, *cfg.Tick)
		}
	}
	if cfg.Step != nil {
		if !money.Divides(cfg.Step, order.Quantity) {
			return apperr.Validationf("order %s: quantity %s is not a multiple of step %s", order.ID, order.Quantity, *cfg.Step)
		}
	}
	return nil
}
