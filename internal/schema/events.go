package schema

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EventType defines the category of an event flowing through the queue.
type EventType uint16

const (
	EventUnknown EventType = iota
	EventMarket
	EventSignal
	EventOrder
	EventFill
)

// String returns a readable event type name.
func (t EventType) String() string {
	switch t {
	case EventMarket:
		return "Market"
	case EventSignal:
		return "Signal"
	case EventOrder:
		return "Order"
	case EventFill:
		return "Fill"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
}

// Event is implemented by every message placed on the queue.
type Event interface {
	Kind() EventType
}

// SignalDirection is the direction a strategy wants to trade.
type SignalDirection uint8

const (
	DirectionUnknown SignalDirection = iota
	DirectionLong
	DirectionShort
	DirectionExit
)

// OrderSide distinguishes buys from sells.
type OrderSide uint8

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// OrderType is the execution style of an order.
type OrderType uint8

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeMarket
	OrderTypeLimit
)

// MarketEvent announces that a new bar is available for every symbol that
// advanced this tick. Seq counts ticks from 1.
type MarketEvent struct {
	Seq uint64
}

func (MarketEvent) Kind() EventType { return EventMarket }

// SignalEvent is a strategy's directional intent for one symbol.
type SignalEvent struct {
	Symbol    string
	Timestamp time.Time
	Direction SignalDirection
	Strength  float64
}

func (SignalEvent) Kind() EventType { return EventSignal }

// OrderEvent asks the execution handler to trade.
type OrderEvent struct {
	Symbol   string
	Type     OrderType
	Side     OrderSide
	Quantity float64
}

func (OrderEvent) Kind() EventType { return EventOrder }

// FillEvent reports a completed trade back to the portfolio.
type FillEvent struct {
	Timestamp time.Time
	Symbol    string
	Exchange  string
	Side      OrderSide
	Quantity  float64
	FillCost  decimal.Decimal
}

func (FillEvent) Kind() EventType { return EventFill }
