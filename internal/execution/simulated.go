package execution

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"athena/internal/bars"
	"athena/internal/bus"
	"athena/internal/schema"
)

const exchangeName = "SIMULATED"

// Simulated fills every order immediately at the latest close, with no cost
// or slippage model. Fills land on the queue and are drained within the same
// tick as the order that caused them.
type Simulated struct {
	src   bars.Source
	queue *bus.Queue
}

// NewSimulated creates the execution handler.
func NewSimulated(src bars.Source, queue *bus.Queue) *Simulated {
	return &Simulated{src: src, queue: queue}
}

// HandleEvent converts order events into fill events. Orders for symbols with
// no delivered bar yet are rejected back to the dispatcher.
func (h *Simulated) HandleEvent(ctx context.Context, e schema.Event) error {
	order, ok := e.(schema.OrderEvent)
	if !ok {
		return nil
	}
	latest, err := h.src.GetLatestBars(order.Symbol, 1)
	if err != nil {
		return fmt.Errorf("fill %s order: %w", order.Symbol, err)
	}
	if len(latest) == 0 {
		return fmt.Errorf("fill %s order: no bar delivered yet", order.Symbol)
	}
	bar := latest[len(latest)-1]
	fill := schema.FillEvent{
		Timestamp: bar.Timestamp,
		Symbol:    order.Symbol,
		Exchange:  exchangeName,
		Side:      order.Side,
		Quantity:  order.Quantity,
		FillCost:  decimal.NewFromFloat(bar.Close).Mul(decimal.NewFromFloat(order.Quantity)),
	}
	return h.queue.TryPublish(fill)
}
