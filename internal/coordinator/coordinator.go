// Package coordinator implements the thin orchestration layer that is the
// only place the matching engine and the balance ledger interact: reserve
// funds, run the match, settle resulting trades, release what's left.
package coordinator

import (
	"context"

	"github.com/rs/zerolog/log"

	"exchangecore/internal/apperr"
	"exchangecore/internal/domain"
	"exchangecore/internal/ledger"
	"exchangecore/internal/matching"
	"exchangecore/internal/orderbook"
)

// Coordinator holds references to both subsystems it orchestrates. It is
// the only component in the core that does.
type Coordinator struct {
	Engine *matching.Engine
	Ledger ledger.Ledger
}

// New constructs a Coordinator wired to the given engine and ledger.
func New(engine *matching.Engine, led ledger.Ledger) *Coordinator {
	return &Coordinator{Engine: engine, Ledger: led}
}

// PlaceOrder runs the reserve -> match -> settle -> release sequence. A
// reservation failure aborts before the engine ever sees the order. A
// match failure triggers a compensating release of the full reservation.
// A settlement failure after a successful match is treated as fatal for
// the request — the engine's book already reflects the trade, so the
// divergence is logged and surfaced as an apperr Internal error; recovery
// (replay/reconciliation) is out of scope here.
func (c *Coordinator) PlaceOrder(ctx context.Context, order *domain.Order) (*matching.MatchResult, error) {
	if err := c.Ledger.ReserveForOrder(ctx, order); err != nil {
		return nil, err
	}

	result, err := c.Engine.PlaceOrder(order)
	if err != nil {
		if relErr := c.Ledger.Release(ctx, order, order.Quantity); relErr != nil {
			log.Error().Err(relErr).Str("order", order.ID).Msg("failed to release reservation after rejected order")
		}
		return nil, err
	}

	for _, trade := range result.Trades {
		if err := c.Ledger.SettleTrade(ctx, trade); err != nil {
			log.Error().
				Err(err).
				Str("trade", trade.ID).
				Str("order", order.ID).
				Msg("settlement failed after a match was already recorded in the book; state has diverged")
			return result, apperr.Wrap(apperr.KindInternal, "settlement failed after match", err)
		}
	}

	if result.Taker.Status == domain.Cancelled && result.Taker.RemainingQuantity().Sign() > 0 {
		if err := c.Ledger.Release(ctx, order, result.Taker.RemainingQuantity()); err != nil {
			log.Error().Err(err).Str("order", order.ID).Msg("failed to release residual reservation")
			return result, apperr.Wrap(apperr.KindInternal, "failed to release residual reservation", err)
		}
	}

	return result, nil
}

// CancelOrder removes the resting order from the engine and releases its
// remaining reservation.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := c.Engine.CancelOrder(orderID)
	if err != nil {
		return nil, err
	}
	if err := c.Ledger.Release(ctx, order, order.RemainingQuantity()); err != nil {
		log.Error().Err(err).Str("order", order.ID).Msg("failed to release reservation on cancel")
		return order, apperr.Wrap(apperr.KindInternal, "failed to release reservation on cancel", err)
	}
	return order, nil
}

// Depth delegates to the engine.
func (c *Coordinator) Depth(market domain.Symbol, limit int) (bids, asks []orderbook.DepthEntry, err error) {
	return c.Engine.Depth(market, limit)
}

// GetOrder delegates to the engine, giving a transport handler one call
// path for order lookups.
func (c *Coordinator) GetOrder(orderID string) (*domain.Order, bool) {
	return c.Engine.GetOrder(orderID)
}
