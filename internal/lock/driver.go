package lock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/seqlock/internal/ir"
)

// Report is delivered to the observer after each event.
type Report struct {
	Event   Event
	Signals Signals

	// Transition is the edge applied by a tick event; zero for queries.
	Transition ir.Transition
	Err        error
}

// Observer receives reports from the driver goroutine, in event order.
type Observer func(Report)

// Driver feeds a Lock from a queue of events on a single goroutine.
//
// Any number of producers may Submit; only Run touches the lock, so edges
// are applied in submission order.
type Driver struct {
	lock     *Lock
	queue    *eventQueue
	observer Observer
	logger   *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithObserver sets the report callback.
func WithObserver(fn Observer) DriverOption {
	return func(d *Driver) {
		d.observer = fn
	}
}

// WithDriverLogger sets the driver's logger. Defaults to the lock's.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a driver for l.
func NewDriver(l *Lock, opts ...DriverOption) *Driver {
	d := &Driver{
		lock:   l,
		queue:  newEventQueue(),
		logger: l.logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit queues one clock edge. Returns false once the driver is stopped.
func (d *Driver) Submit(in ir.Input) bool {
	return d.queue.Enqueue(Event{Type: EventTick, Input: in})
}

// Query queues a signals report without a clock edge.
func (d *Driver) Query() bool {
	return d.queue.Enqueue(Event{Type: EventQuery})
}

// Pending returns the number of queued events.
func (d *Driver) Pending() int {
	return d.queue.Len()
}

// Run processes events until ctx is cancelled or Stop is called and the
// queue has drained. Returns ctx.Err() on cancellation, nil on Stop.
//
// A failed tick is logged and reported, and the loop continues: the edge
// has already been applied, so retrying it would change the state twice.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("driver starting", "lock", d.lock.Name())

	for {
		if ev, ok := d.queue.TryDequeue(); ok {
			d.process(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Info("driver stopping: context cancelled", "lock", d.lock.Name())
			d.queue.Close()
			return ctx.Err()

		case <-d.queue.Wait():
			if d.queue.Drained() {
				d.logger.Info("driver stopping: queue closed", "lock", d.lock.Name())
				return nil
			}
		}
	}
}

// Stop closes the queue. Events already queued are still processed.
func (d *Driver) Stop() {
	d.queue.Close()
}

func (d *Driver) process(ctx context.Context, ev Event) {
	r := Report{Event: ev}
	switch ev.Type {
	case EventTick:
		r.Signals, r.Err = d.lock.Tick(ctx, ev.Input)
		r.Transition, _ = d.lock.Last()
	case EventQuery:
		r.Signals = d.lock.Signals()
	default:
		r.Err = fmt.Errorf("unknown event type: %d", ev.Type)
	}

	if r.Err != nil {
		d.logger.Error("event failed",
			"type", ev.Type,
			"reset", ev.Input.Reset,
			"entry", ev.Input.Entry,
			"error", r.Err)
	}
	if d.observer != nil {
		d.observer(r)
	}
}
