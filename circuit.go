// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultIterationLimit is the default number of batches a circuit may process
// without becoming idle before it is considered oscillating.
//
// This is a heuristic: deep but stable designs with long zero-delay chains may
// need a larger value, see WithIterationLimit.
//
const DefaultIterationLimit = 1000

type options struct {
	limit     int
	workers   int
	logger    *slog.Logger
	rec       Recorder
	tracer    trace.Tracer
	observers []Observer
}

// An Option configures a Circuit.
//
type Option func(*options)

// WithIterationLimit sets the number of batches a circuit may process without
// becoming idle before it is halted as oscillating. Values <= 0 select
// DefaultIterationLimit.
//
func WithIterationLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithWorkers sets the number of goroutines used to evaluate large batches of
// the top-level circuit. If 0, the value of GOMAXPROCS will be used. The
// default is 1: components are evaluated on the calling goroutine.
//
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger of the circuit. By default nothing is logged.
//
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets a Recorder for propagation statistics.
//
func WithMetrics(r Recorder) Option {
	return func(o *options) { o.rec = r }
}

// WithTracer sets the OpenTelemetry tracer used to trace circuit operations.
//
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithObserver registers an Observer.
//
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Circuit is a runnable circuit simulation.
//
// All methods are safe for concurrent use: they serialize on a single lock
// per circuit. Independent circuits share no state and may run in parallel.
//
type Circuit struct {
	mu    sync.Mutex
	id    uuid.UUID
	nl    *netlist
	opts  options
	st    *State
	pool  *pool
	log   *slog.Logger
	notes []note
}

// NewCircuit builds a new circuit based on the given parts.
//
// The circuit starts in its reset state, with the initial evaluation of all
// parts pending: call Run (or Tick) to settle it.
//
// Callers should call Dispose() once the circuit is no longer needed in order
// to release worker goroutines.
//
func NewCircuit(parts Parts, opts ...Option) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, ErrNoParts
	}
	o := options{limit: DefaultIterationLimit, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.limit <= 0 {
		o.limit = DefaultIterationLimit
	}
	if o.workers == 0 {
		o.workers = runtime.GOMAXPROCS(-1)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.rec == nil {
		o.rec = nopRecorder{}
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("")
	}

	wrap, err := newChip("CIRCUIT", "", "", parts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	c := &Circuit{
		id:   uuid.New(),
		nl:   wrap.nl,
		opts: o,
	}
	c.log = o.logger.With(slog.String("circuit", c.id.String()))
	if o.workers > 1 {
		c.pool = newPool(o.workers)
	}
	c.reset()
	c.log.Debug("circuit created", slog.Int("parts", len(parts)), slog.Int("nets", len(c.nl.nets)))
	return c, nil
}

// ID returns the unique identifier of the circuit, used in logs and traces.
//
func (c *Circuit) ID() uuid.UUID { return c.id }

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pool != nil {
		c.pool.close()
		c.pool = nil
		c.st.pool = nil
	}
}

func (c *Circuit) reset() {
	c.st = newState(c.nl, c.opts.limit)
	c.st.pool = c.pool
	c.st.record = true
	c.st.status = Stepping
}

// do runs f with the circuit locked, then delivers notifications.
//
func (c *Circuit) do(ctx context.Context, op string, f func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.opts.tracer.Start(ctx, "gatesim."+op,
		trace.WithAttributes(append(attrs, attribute.String("circuit", c.id.String()))...))
	defer span.End()

	c.mu.Lock()
	err := f(ctx)
	notes := c.notes
	c.notes = nil
	span.SetAttributes(attribute.Int64("tick", int64(c.st.now)), attribute.String("status", c.st.status.String()))
	c.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	c.notify(notes)
	return err
}

func (c *Circuit) notify(notes []note) {
	for _, n := range notes {
		for _, o := range c.opts.observers {
			if len(n.changes) > 0 {
				o.Changed(n.tick, n.changes)
			}
			if len(n.conflicts) > 0 {
				o.Conflict(n.tick, n.conflicts)
			}
			if n.halt != nil {
				o.Halted(n.halt)
			}
		}
	}
}

// step processes one batch of the top-level state and queues notifications.
//
func (c *Circuit) step() error {
	err := c.st.step()
	st := c.st
	c.opts.rec.Batch(len(st.batch), len(st.changes))
	n := note{tick: st.now, changes: st.changes, conflicts: st.conflicts}
	st.changes, st.conflicts = nil, nil
	if len(n.conflicts) > 0 {
		sort.Strings(n.conflicts)
		c.opts.rec.Conflicts(len(n.conflicts))
		c.log.Warn("bus conflict", slog.Uint64("tick", n.tick), slog.Any("nets", n.conflicts))
	}
	var oe *OscillationError
	if errors.As(err, &oe) {
		n.halt = oe
		c.opts.rec.Oscillation()
		c.log.Warn("oscillation detected", slog.Uint64("tick", oe.Tick), slog.Any("nets", oe.Nets))
	}
	if len(n.changes) > 0 || len(n.conflicts) > 0 || n.halt != nil {
		c.notes = append(c.notes, n)
	}
	return err
}

// drain runs batches until the circuit is idle. ctx is checked between
// batches only.
//
func (c *Circuit) drain(ctx context.Context) error {
	if c.st.status == Oscillating {
		return ErrHalted
	}
	start := time.Now()
	defer func() { c.opts.rec.Drain(time.Since(start)) }()
	for c.st.q.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "propagation interrupted")
		}
		if err := c.step(); err != nil {
			return err
		}
	}
	c.st.settle()
	return nil
}

// Reset rebuilds the circuit state: all nets are Unknown (or pulled), all parts
// are in their initial state, inputs are Zero and the tick and clock counters
// are zero. The circuit is then run until stable.
//
// Reset is the only way to recover from an oscillation.
//
func (c *Circuit) Reset(ctx context.Context) error {
	return c.do(ctx, "reset", func(ctx context.Context) error {
		c.reset()
		c.log.Info("circuit reset")
		return c.drain(ctx)
	})
}

// Tick advances all clocks by n half-periods. After each half-period, the
// circuit is run until stable.
//
// If the circuit oscillates, Tick returns an *OscillationError and the circuit
// keeps the values committed before the fault.
//
func (c *Circuit) Tick(ctx context.Context, n int) error {
	return c.do(ctx, "tick", func(ctx context.Context) error {
		for i := 0; i < n; i++ {
			if c.st.status == Oscillating {
				return ErrHalted
			}
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "propagation interrupted")
			}
			c.st.advance()
			if err := c.drain(ctx); err != nil {
				return err
			}
		}
		return nil
	}, attribute.Int("half_periods", n))
}

// SetInput sets the value of the named input (see Input) and schedules its
// evaluation at the current tick. The change propagates on the next call to
// Run, Step or Tick.
//
func (c *Circuit) SetInput(name string, v Signal) error {
	return c.do(context.Background(), "set_input", func(context.Context) error {
		if c.st.status == Oscillating {
			return ErrHalted
		}
		in, ok := c.st.inputs[name]
		if !ok {
			return errors.Wrap(ErrUnknownInput, name)
		}
		if len(v) != in.width {
			return widthError(name, in.width, len(v))
		}
		in.set(v)
		c.st.schedule(in.comp, c.st.now)
		c.st.status = Stepping
		c.log.Debug("input set", slog.String("input", name), slog.String("value", v.String()))
		return nil
	}, attribute.String("input", name))
}

// Run runs the circuit until no events are pending.
//
func (c *Circuit) Run(ctx context.Context) error {
	return c.do(ctx, "run", c.drain)
}

// Step processes the next batch of events, that is all events scheduled at
// the lowest pending tick. It returns true if more events are pending.
//
func (c *Circuit) Step(ctx context.Context) (more bool, err error) {
	err = c.do(ctx, "step", func(ctx context.Context) error {
		if c.st.status == Oscillating {
			return ErrHalted
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "propagation interrupted")
		}
		err := c.step()
		more = c.st.q.Len() > 0
		return err
	})
	return more, err
}

// Query returns the value of the named net. Nets of sub-circuit instances are
// addressed by their path: "instance/net" or "instance/sub/net".
//
// Query never modifies the circuit and succeeds even if the circuit is halted.
//
func (c *Circuit) Query(name string) (Signal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.st.lookup(name)
	if err != nil {
		return nil, err
	}
	return n.val.Clone(), nil
}

// Status returns the current propagation status.
//
func (c *Circuit) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.status
}

// Fault returns the oscillation that halted the circuit, if any.
//
func (c *Circuit) Fault() *OscillationError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.fault
}

// Now returns the tick of the last processed batch.
//
func (c *Circuit) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.now
}

// ClockTicks returns the number of clock half-periods since the last reset.
//
func (c *Circuit) ClockTicks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.ticks
}

// Inputs returns the names and widths of the circuit inputs, sorted by name.
//
func (c *Circuit) Inputs() []PinDecl {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := make([]PinDecl, 0, len(c.st.inputs))
	for k, in := range c.st.inputs {
		r = append(r, PinDecl{k, in.width})
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Name < r[j].Name })
	return r
}

// Nets returns the names of the top-level nets, sorted.
//
func (c *Circuit) Nets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.netNames()
}

// Size returns the component count in the top-level circuit.
//
func (c *Circuit) Size() int { return len(c.nl.parts) }
