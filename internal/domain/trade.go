package domain

import (
	"fmt"
	"time"
)

// Trade is an immutable record emitted by the matching engine whenever two
// orders cross. Amount is always Price * Quantity, computed at emission
// time and never recomputed afterwards.
type Trade struct {
	ID     string
	Market Symbol

	Price    Decimal
	Quantity Decimal
	Amount   Decimal

	BuyerOrderID  string
	SellerOrderID string
	BuyerID       string
	SellerID      string

	TakerSide Side

	CreatedAt time.Time
}

// NewTrade builds a Trade, computing Amount from Price and Quantity.
func NewTrade(id string, market Symbol, price, quantity Decimal, buyerOrderID, sellerOrderID, buyerID, sellerID string, takerSide Side, at time.Time) Trade {
	return Trade{
		ID:            id,
		Market:        market,
		Price:         price,
		Quantity:      quantity,
		Amount:        price.Mul(quantity),
		BuyerOrderID:  buyerOrderID,
		SellerOrderID: sellerOrderID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		TakerSide:     takerSide,
		CreatedAt:     at,
	}
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"Trade[ID: %s, Market: %s, Price: %s, Qty: %s, Buyer: %s, Seller: %s, Taker: %s]",
		t.ID, t.Market, t.Price, t.Quantity, t.BuyerOrderID, t.SellerOrderID, t.TakerSide,
	)
}
