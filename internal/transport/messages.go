// Package transport implements the exchange's binary TCP wire protocol:
// NewOrder/CancelOrder/Heartbeat frames, each a 2-byte message type
// followed by uint16-length-prefixed fields, carrying a
// variable-length market symbol and decimal-string price/quantity, so
// orders can express arbitrary BASE/QUOTE symbols and exact decimal
// amounts rather than a fixed-width ticker and a float.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"exchangecore/internal/domain"
	"exchangecore/internal/money"
)

var (
	ErrInvalidMessageType = errors.New("transport: invalid message type")
	ErrMessageTooShort    = errors.New("transport: message too short")
)

// MessageType identifies the kind of client-originated message.
type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
)

// ReportType identifies the kind of server-originated message.
type ReportType uint16

const (
	ExecutionReport ReportType = iota
	ErrorReport
)

// NewOrderMessage carries everything needed to construct a domain.Order.
type NewOrderMessage struct {
	UserID string
	Market domain.Symbol
	Side   domain.Side
	Kind   domain.OrderKind
	TIF    domain.TimeInForce
	Price  *string // decimal literal, nil for market orders
	Qty    string  // decimal literal
}

// Order constructs a domain.Order from the wire message, assigning it a
// fresh id.
func (m NewOrderMessage) Order() (*domain.Order, error) {
	qty, err := parseDecimalField("quantity", m.Qty)
	if err != nil {
		return nil, err
	}
	order := &domain.Order{
		ID:       uuid.NewString(),
		UserID:   m.UserID,
		Market:   m.Market,
		Side:     m.Side,
		Kind:     m.Kind,
		Quantity: qty,
		TIF:      m.TIF,
	}
	if m.Price != nil {
		price, err := parseDecimalField("price", *m.Price)
		if err != nil {
			return nil, err
		}
		order.Price = &price
	}
	return order, nil
}

// CancelOrderMessage requests cancellation of a resting order.
type CancelOrderMessage struct {
	OrderID string
}

// writeUint16Prefixed appends a uint16 length prefix followed by s.
func writeUint16Prefixed(buf []byte, s string) []byte {
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(s)))
	buf = append(buf, lenBuf...)
	return append(buf, s...)
}

// readUint16Prefixed reads a uint16 length prefix followed by that many
// bytes, returning the remainder of buf after the field.
func readUint16Prefixed(buf []byte) (string, []byte, error) {
	if len(buf) < 2 {
		return "", nil, ErrMessageTooShort
	}
	n := int(binary.BigEndian.Uint16(buf[0:2]))
	buf = buf[2:]
	if len(buf) < n {
		return "", nil, ErrMessageTooShort
	}
	return string(buf[:n]), buf[n:], nil
}

// EncodeNewOrder serializes a NewOrderMessage for the wire.
func EncodeNewOrder(m NewOrderMessage) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(NewOrder))

	buf = append(buf, byte(m.Side), byte(m.Kind), byte(m.TIF))
	buf = writeUint16Prefixed(buf, string(m.Market))

	hasPrice := byte(0)
	if m.Price != nil {
		hasPrice = 1
	}
	buf = append(buf, hasPrice)
	if m.Price != nil {
		buf = writeUint16Prefixed(buf, *m.Price)
	}
	buf = writeUint16Prefixed(buf, m.Qty)
	buf = writeUint16Prefixed(buf, m.UserID)
	return buf
}

func decodeNewOrder(body []byte) (NewOrderMessage, error) {
	if len(body) < 4 {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	side := domain.Side(body[0])
	kind := domain.OrderKind(body[1])
	tif := domain.TimeInForce(body[2])
	return parseNewOrderBody(side, kind, tif, body[3:])
}

func parseNewOrderBody(side domain.Side, kind domain.OrderKind, tif domain.TimeInForce, body []byte) (NewOrderMessage, error) {
	market, body, err := readUint16Prefixed(body)
	if err != nil {
		return NewOrderMessage{}, err
	}
	if len(body) < 1 {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	hasPrice := body[0] == 1
	body = body[1:]

	var price *string
	if hasPrice {
		p, rest, err := readUint16Prefixed(body)
		if err != nil {
			return NewOrderMessage{}, err
		}
		price = &p
		body = rest
	}

	qty, body, err := readUint16Prefixed(body)
	if err != nil {
		return NewOrderMessage{}, err
	}
	userID, _, err := readUint16Prefixed(body)
	if err != nil {
		return NewOrderMessage{}, err
	}

	return NewOrderMessage{
		UserID: userID,
		Market: domain.Symbol(market),
		Side:   side,
		Kind:   kind,
		TIF:    tif,
		Price:  price,
		Qty:    qty,
	}, nil
}

// EncodeCancelOrder serializes a CancelOrderMessage for the wire.
func EncodeCancelOrder(m CancelOrderMessage) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(CancelOrder))
	return writeUint16Prefixed(buf, m.OrderID)
}

func decodeCancelOrder(body []byte) (CancelOrderMessage, error) {
	orderID, _, err := readUint16Prefixed(body)
	if err != nil {
		return CancelOrderMessage{}, err
	}
	return CancelOrderMessage{OrderID: orderID}, nil
}

// Decode parses a raw wire frame into its typed message.
func Decode(frame []byte) (any, error) {
	if len(frame) < 2 {
		return nil, ErrMessageTooShort
	}
	msgType := MessageType(binary.BigEndian.Uint16(frame[0:2]))
	body := frame[2:]
	switch msgType {
	case NewOrder:
		return decodeNewOrder(body)
	case CancelOrder:
		return decodeCancelOrder(body)
	case Heartbeat:
		return Heartbeat, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

func parseDecimalField(name, s string) (domain.Decimal, error) {
	d, err := money.NewFromString(s)
	if err != nil {
		return domain.Decimal{}, fmt.Errorf("transport: invalid %s %q: %w", name, s, err)
	}
	return d, nil
}
