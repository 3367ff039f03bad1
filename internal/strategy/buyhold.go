package strategy

import (
	"context"

	"athena/internal/bars"
	"athena/internal/bus"
	"athena/internal/schema"
)

// BuyAndHold goes long every symbol on its first available bar and never
// exits. It is the benchmark strategy the rest of the suite is measured
// against, and doubles as the simplest possible exercise of the event flow.
type BuyAndHold struct {
	src    bars.Source
	queue  *bus.Queue
	bought map[string]bool
}

// NewBuyAndHold creates the strategy for every symbol the source carries.
func NewBuyAndHold(src bars.Source, queue *bus.Queue) *BuyAndHold {
	bought := make(map[string]bool, len(src.Symbols()))
	for _, s := range src.Symbols() {
		bought[s] = false
	}
	return &BuyAndHold{src: src, queue: queue, bought: bought}
}

// HandleEvent emits one LONG signal per symbol on the first market event that
// shows a bar for it. All other events are ignored.
func (s *BuyAndHold) HandleEvent(ctx context.Context, e schema.Event) error {
	if e.Kind() != schema.EventMarket {
		return nil
	}
	for _, symbol := range s.src.Symbols() {
		if s.bought[symbol] {
			continue
		}
		latest, err := s.src.GetLatestBars(symbol, 1)
		if err != nil || len(latest) == 0 {
			continue
		}
		signal := schema.SignalEvent{
			Symbol:    symbol,
			Timestamp: latest[0].Timestamp,
			Direction: schema.DirectionLong,
			Strength:  1.0,
		}
		if err := s.queue.TryPublish(signal); err != nil {
			return err
		}
		s.bought[symbol] = true
	}
	return nil
}
