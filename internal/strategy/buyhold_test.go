package strategy

import (
	"context"
	"testing"
	"time"

	"athena/internal/bars"
	"athena/internal/bus"
	"athena/internal/schema"
)

// fakeSource serves a fixed latest bar per symbol.
type fakeSource struct {
	symbols []string
	latest  map[string][]bars.Bar
}

func (f *fakeSource) Symbols() []string { return f.symbols }
func (f *fakeSource) AdvanceTick() bars.Advance { return bars.Advanced }
func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) GetLatestBars(symbol string, n int) ([]bars.Bar, error) {
	return f.latest[symbol], nil
}

func TestBuyAndHoldSignalsOncePerSymbol(t *testing.T) {
	ts := time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		symbols: []string{"AAPL", "MSFT"},
		latest: map[string][]bars.Bar{
			"AAPL": {{Symbol: "AAPL", Timestamp: ts, Close: 100}},
		},
	}
	queue := bus.NewQueue(16)
	s := NewBuyAndHold(src, queue)
	ctx := context.Background()

	// First market event: only AAPL has a bar, so only AAPL signals.
	if err := s.HandleEvent(ctx, schema.MarketEvent{Seq: 1}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	e, ok := queue.TryNext()
	if !ok {
		t.Fatal("expected one signal")
	}
	signal := e.(schema.SignalEvent)
	if signal.Symbol != "AAPL" || signal.Direction != schema.DirectionLong {
		t.Fatalf("unexpected signal %+v", signal)
	}
	if !signal.Timestamp.Equal(ts) {
		t.Fatalf("signal timestamp: got %s want %s", signal.Timestamp, ts)
	}
	if _, ok := queue.TryNext(); ok {
		t.Fatal("MSFT has no bar yet, should not signal")
	}

	// MSFT's first bar arrives: exactly one more signal, AAPL stays bought.
	src.latest["MSFT"] = []bars.Bar{{Symbol: "MSFT", Timestamp: ts, Close: 50}}
	if err := s.HandleEvent(ctx, schema.MarketEvent{Seq: 2}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	e, ok = queue.TryNext()
	if !ok {
		t.Fatal("expected MSFT signal")
	}
	if got := e.(schema.SignalEvent).Symbol; got != "MSFT" {
		t.Fatalf("second signal symbol: got %s want MSFT", got)
	}

	// Further market events stay silent.
	if err := s.HandleEvent(ctx, schema.MarketEvent{Seq: 3}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, ok := queue.TryNext(); ok {
		t.Fatal("buy and hold must never signal twice for one symbol")
	}
}

func TestBuyAndHoldIgnoresOtherEvents(t *testing.T) {
	src := &fakeSource{symbols: []string{"AAPL"}, latest: map[string][]bars.Bar{}}
	queue := bus.NewQueue(4)
	s := NewBuyAndHold(src, queue)

	if err := s.HandleEvent(context.Background(), schema.FillEvent{Symbol: "AAPL"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, ok := queue.TryNext(); ok {
		t.Fatal("fill events must not produce signals")
	}
}
