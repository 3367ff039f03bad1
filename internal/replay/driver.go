package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"athena/internal/bars"
	"athena/internal/bus"
	"athena/internal/schema"
)

// State is the driver's lifecycle state.
type State uint8

const (
	StateRunning State = iota
	StateStopped
)

// Handler consumes events drained from the queue. Handlers run inside the
// tick, so anything they publish is drained before the next heartbeat.
type Handler interface {
	HandleEvent(ctx context.Context, e schema.Event) error
}

// Clock allows deterministic heartbeat control.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config controls the replay loop.
type Config struct {
	// Heartbeat is the pure wait between ticks. Zero means no delay.
	Heartbeat time.Duration
}

// Validate checks if the config is usable.
func (c Config) Validate() error {
	if c.Heartbeat < 0 {
		return fmt.Errorf("invalid replay config: Heartbeat must be >= 0")
	}
	return nil
}

// Driver advances the bar source one tick per heartbeat and publishes one
// availability event per successful tick. It is the only execution path that
// mutates replay state: a tick, including the full drain of every event it
// caused, completes before the next tick begins.
type Driver struct {
	src      bars.Source
	queue    *bus.Queue
	handlers []Handler
	clock    Clock
	cfg      Config
	state    State
	seq      uint64
}

// NewDriver validates the config and assembles a driver in Running state.
func NewDriver(cfg Config, src bars.Source, queue *bus.Queue, handlers ...Handler) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("replay driver needs a bar source")
	}
	if queue == nil {
		return nil, fmt.Errorf("replay driver needs an event queue")
	}
	return &Driver{
		src:      src,
		queue:    queue,
		handlers: handlers,
		clock:    realClock{},
		cfg:      cfg,
	}, nil
}

// WithClock swaps the clock implementation.
func (d *Driver) WithClock(clock Clock) *Driver {
	if clock != nil {
		d.clock = clock
	}
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// Ticks reports how many availability events have been published.
func (d *Driver) Ticks() uint64 {
	return d.seq
}

// Tick advances the source one step, publishes the availability event, and
// drains the queue. Stopped is terminal: further calls are no-ops and never
// enqueue anything.
func (d *Driver) Tick(ctx context.Context) State {
	if d.state == StateStopped {
		return d.state
	}

	switch d.src.AdvanceTick() {
	case bars.Advanced:
		d.seq++
		if err := d.queue.TryPublish(schema.MarketEvent{Seq: d.seq}); err != nil {
			logs.Errorf("publish market event %d: %v", d.seq, err)
		}
	case bars.Exhausted:
		d.state = StateStopped
	}

	// Drain everything this tick produced, including events the handlers
	// enqueue while reacting. This is what makes replay look live: no event
	// outlives the tick that caused it.
	d.drain(ctx)
	return d.state
}

func (d *Driver) drain(ctx context.Context) {
	for {
		e, ok := d.queue.TryNext()
		if !ok {
			return
		}
		for _, h := range d.handlers {
			if err := h.HandleEvent(ctx, e); err != nil {
				logs.Errorf("handle %s event: %v", e.Kind(), err)
			}
		}
	}
}

// Run ticks until the source is exhausted, the context is canceled, or a
// shutdown signal arrives. Cancellation is observed at the top of each tick;
// a tick in flight always completes its drain.
func (d *Driver) Run(ctx context.Context) error {
	logs.Infof("replay starting: %d symbols, heartbeat %s", len(d.src.Symbols()), d.cfg.Heartbeat)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sys.Shutdown():
			logs.Info("replay interrupted. reason: shutdown signal")
			return nil
		default:
		}

		if d.Tick(ctx) == StateStopped {
			logs.Infof("replay finished after %d ticks", d.seq)
			return nil
		}

		if err := d.clock.Sleep(ctx, d.cfg.Heartbeat); err != nil {
			return err
		}
	}
}
