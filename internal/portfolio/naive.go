package portfolio

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"athena/internal/bars"
	"athena/internal/bus"
	"athena/internal/schema"
)

// defaultOrderQty is the naive fixed order size used for every signal.
const defaultOrderQty = 100.0

// EquityPoint is one mark-to-market observation of total account value.
type EquityPoint struct {
	Timestamp time.Time
	Value     decimal.Decimal
}

// Naive sizes every signal to a fixed quantity and marks positions at the
// latest close on each market event. It tracks cash and positions from fills
// only; it never talks to the exchange itself.
type Naive struct {
	src       bars.Source
	queue     *bus.Queue
	cash      decimal.Decimal
	positions map[string]float64
	equity    []EquityPoint
}

// NewNaive creates a portfolio holding only cash.
func NewNaive(src bars.Source, queue *bus.Queue, initialCapital float64) *Naive {
	positions := make(map[string]float64, len(src.Symbols()))
	for _, s := range src.Symbols() {
		positions[s] = 0
	}
	return &Naive{
		src:       src,
		queue:     queue,
		cash:      decimal.NewFromFloat(initialCapital),
		positions: positions,
	}
}

// HandleEvent routes market, signal, and fill events to the matching update.
func (p *Naive) HandleEvent(ctx context.Context, e schema.Event) error {
	switch ev := e.(type) {
	case schema.MarketEvent:
		p.mark()
		return nil
	case schema.SignalEvent:
		return p.order(ev)
	case schema.FillEvent:
		p.apply(ev)
		return nil
	default:
		return nil
	}
}

// order turns a signal into a fixed-size market order.
func (p *Naive) order(signal schema.SignalEvent) error {
	var side schema.OrderSide
	switch signal.Direction {
	case schema.DirectionLong:
		side = schema.OrderSideBuy
	case schema.DirectionShort, schema.DirectionExit:
		side = schema.OrderSideSell
	default:
		return nil
	}
	return p.queue.TryPublish(schema.OrderEvent{
		Symbol:   signal.Symbol,
		Type:     schema.OrderTypeMarket,
		Side:     side,
		Quantity: defaultOrderQty,
	})
}

// apply updates cash and positions from a fill.
func (p *Naive) apply(fill schema.FillEvent) {
	switch fill.Side {
	case schema.OrderSideBuy:
		p.positions[fill.Symbol] += fill.Quantity
		p.cash = p.cash.Sub(fill.FillCost)
	case schema.OrderSideSell:
		p.positions[fill.Symbol] -= fill.Quantity
		p.cash = p.cash.Add(fill.FillCost)
	}
}

// mark appends an equity point valued at the latest closes. Symbols with no
// delivered bar yet contribute nothing.
func (p *Naive) mark() {
	value := p.cash
	var ts time.Time
	for _, symbol := range p.src.Symbols() {
		latest, err := p.src.GetLatestBars(symbol, 1)
		if err != nil || len(latest) == 0 {
			continue
		}
		bar := latest[len(latest)-1]
		if bar.Timestamp.After(ts) {
			ts = bar.Timestamp
		}
		qty := p.positions[symbol]
		if qty == 0 {
			continue
		}
		value = value.Add(decimal.NewFromFloat(bar.Close).Mul(decimal.NewFromFloat(qty)))
	}
	if ts.IsZero() {
		return
	}
	p.equity = append(p.equity, EquityPoint{Timestamp: ts, Value: value})
}

// Cash returns the current cash balance.
func (p *Naive) Cash() decimal.Decimal {
	return p.cash
}

// Position returns the signed position quantity for a symbol.
func (p *Naive) Position(symbol string) float64 {
	return p.positions[symbol]
}

// EquityCurve returns a copy of the mark-to-market history.
func (p *Naive) EquityCurve() []EquityPoint {
	return append([]EquityPoint(nil), p.equity...)
}
