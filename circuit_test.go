package gatesim_test

import (
	"context"
	"sync"
	"testing"

	hw "github.com/db47h/gatesim"
	hl "github.com/db47h/gatesim/hwlib"
	"github.com/db47h/gatesim/hwtest"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func newCircuit(t *testing.T, parts ...hw.Part) *hw.Circuit {
	t.Helper()
	return newCircuitOpts(t, parts, nil)
}

func newCircuitOpts(t *testing.T, parts hw.Parts, opts []hw.Option) *hw.Circuit {
	t.Helper()
	c, err := hw.NewCircuit(parts, opts...)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	t.Cleanup(c.Dispose)
	run(t, c)
	return c
}

func run(t *testing.T, c *hw.Circuit) {
	t.Helper()
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func setInput(t *testing.T, c *hw.Circuit, name string, v hw.Signal) {
	t.Helper()
	if err := c.SetInput(name, v); err != nil {
		t.Fatal(err)
	}
}

func query(t *testing.T, c *hw.Circuit, name string) hw.Signal {
	t.Helper()
	v, err := c.Query(name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCircuit_and_scenario(t *testing.T) {
	const D = 3
	c := newCircuit(t,
		hw.Input(1)("out=x"),
		hw.Input(1)("out=y"),
		hl.And("a=x, b=y, out=out").WithDelay(D),
	)
	setInput(t, c, "x", hw.Bit(hw.One))
	setInput(t, c, "y", hw.Bit(hw.Unknown))
	run(t, c)
	if v := query(t, c, "out")[0]; v != hw.Unknown {
		t.Fatalf("x=1, y=x: expected out = x, got %v", v)
	}

	prev := c.Now()
	setInput(t, c, "y", hw.Bit(hw.One))
	ctx := context.Background()
	// first batch: the input itself
	more, err := c.Step(ctx)
	if err != nil || !more {
		t.Fatalf("Step: more = %v, err = %v", more, err)
	}
	if v := query(t, c, "y")[0]; v != hw.One {
		t.Fatalf("expected y = 1, got %v", v)
	}
	if v := query(t, c, "out")[0]; v != hw.Unknown {
		t.Fatalf("output changed before its delay: %v", v)
	}
	// second batch: the AND gate
	more, err = c.Step(ctx)
	if err != nil || more {
		t.Fatalf("Step: more = %v, err = %v", more, err)
	}
	if v := query(t, c, "out")[0]; v != hw.One {
		t.Fatalf("expected out = 1, got %v", v)
	}
	if now := c.Now(); now != prev+D {
		t.Fatalf("expected tick %d, got %d", prev+D, now)
	}
	if s := c.Status(); s != hw.Idle {
		t.Fatalf("expected idle, got %v", s)
	}
}

func TestCircuit_conflict(t *testing.T) {
	var rec hwtest.Recorder
	c, err := hw.NewCircuit(hw.Parts{
		hw.Constant(hw.Bit(hw.Zero))("out=n"),
		hw.Constant(hw.Bit(hw.One))("out=n"),
		hl.Not("in=n, out=nn"),
	}, hw.WithObserver(&rec))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	if _, err = c.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v := query(t, c, "n")[0]; v != hw.Error {
		t.Fatalf("expected n = E, got %v", v)
	}
	if diff := cmp.Diff([]string{"n"}, rec.Conflicts()); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
	// Error propagates like any other value.
	run(t, c)
	if v := query(t, c, "nn")[0]; v != hw.Error {
		t.Fatalf("expected nn = E, got %v", v)
	}
	if s := c.Status(); s != hw.Idle {
		t.Fatalf("conflicts must not halt the circuit, status %v", s)
	}
}

func TestCircuit_nested_conflict(t *testing.T) {
	inner, err := hw.Chip("Inner", "", "o",
		hw.Constant(hw.Bit(hw.Zero))("out=n"),
		hw.Constant(hw.Bit(hw.One))("out=n"),
		hl.Buffer(1)("in=n, out=o"),
	)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := hw.Chip("Outer", "", "o",
		inner("o=o").As("u"),
	)
	if err != nil {
		t.Fatal(err)
	}
	var rec hwtest.Recorder
	c := newCircuitOpts(t, hw.Parts{
		inner("o=a").As("u"),
		outer("o=b").As("w"),
	}, []hw.Option{hw.WithObserver(&rec)})

	if v := query(t, c, "u/n")[0]; v != hw.Error {
		t.Fatalf("expected u/n = E, got %v", v)
	}
	if v := query(t, c, "a")[0]; v != hw.Error {
		t.Fatalf("expected a = E, got %v", v)
	}
	// the propagated Error on a and b is not a conflict of its own
	if diff := cmp.Diff([]string{"u/n", "w/u/n"}, rec.Conflicts()); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
	if s := c.Status(); s != hw.Idle {
		t.Fatalf("expected idle, got %v", s)
	}
}

// NOT(Unknown) is Unknown: a bare inverter loop settles to Unknown. The
// pull-down gives the loop a defined starting value, from which it toggles
// forever.
//
func TestCircuit_not_loop(t *testing.T) {
	var rec hwtest.Recorder
	c, err := hw.NewCircuit(hw.Parts{
		hl.Not("in=loop, out=loop").WithDelay(0),
		hl.PullDown(1)("out=loop"),
	}, hw.WithIterationLimit(100), hw.WithObserver(&rec))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	err = c.Run(context.Background())
	if !hw.IsOscillation(err) {
		t.Fatalf("expected an oscillation, got %v", err)
	}
	var oe *hw.OscillationError
	errors.As(err, &oe)
	if diff := cmp.Diff([]string{"loop"}, oe.Nets); diff != "" {
		t.Fatalf("oscillating nets mismatch (-want +got):\n%s", diff)
	}
	if s := c.Status(); s != hw.Oscillating {
		t.Fatalf("expected oscillating, got %v", s)
	}
	if len(rec.Halts()) != 1 {
		t.Fatalf("expected 1 halt notification, got %d", len(rec.Halts()))
	}
	if c.Fault() == nil {
		t.Fatal("nil fault")
	}
}

func nandRing(t *testing.T, opts ...hw.Option) *hw.Circuit {
	return newCircuitOpts(t, hw.Parts{
		hw.Input(1)("out=en"),
		hl.Nand("a=en, b=r2, out=r0"),
		hl.Not("in=r0, out=r1"),
		hl.Not("in=r1, out=r2"),
	}, append([]hw.Option{hw.WithIterationLimit(200)}, opts...))
}

func TestCircuit_halted(t *testing.T) {
	c := nandRing(t)
	ctx := context.Background()
	if v := query(t, c, "r0")[0]; v != hw.One {
		t.Fatalf("disabled ring: expected r0 = 1, got %v", v)
	}
	setInput(t, c, "en", hw.Bit(hw.One))
	err := c.Run(ctx)
	var oe *hw.OscillationError
	if !errors.As(err, &oe) {
		t.Fatalf("expected an oscillation, got %v", err)
	}
	if diff := cmp.Diff([]string{"r0", "r1", "r2"}, oe.Nets); diff != "" {
		t.Fatalf("oscillating nets mismatch (-want +got):\n%s", diff)
	}

	// all mutators fail
	if err = c.SetInput("en", hw.Bit(hw.Zero)); errors.Cause(err) != hw.ErrHalted {
		t.Fatalf("SetInput: expected ErrHalted, got %v", err)
	}
	if err = c.Run(ctx); errors.Cause(err) != hw.ErrHalted {
		t.Fatalf("Run: expected ErrHalted, got %v", err)
	}
	if err = c.Tick(ctx, 1); errors.Cause(err) != hw.ErrHalted {
		t.Fatalf("Tick: expected ErrHalted, got %v", err)
	}
	if _, err = c.Step(ctx); errors.Cause(err) != hw.ErrHalted {
		t.Fatalf("Step: expected ErrHalted, got %v", err)
	}
	if err.Error() != "simulation halted" {
		t.Fatalf("unexpected message %q", err)
	}
	// queries still work
	if v := query(t, c, "en")[0]; v != hw.One {
		t.Fatalf("expected en = 1, got %v", v)
	}

	if err = c.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if s := c.Status(); s != hw.Idle {
		t.Fatalf("expected idle after reset, got %v", s)
	}
	if v := query(t, c, "en")[0]; v != hw.Zero {
		t.Fatalf("expected en = 0 after reset, got %v", v)
	}
	if c.Fault() != nil {
		t.Fatal("fault not cleared by reset")
	}
}

func TestCircuit_tick_fault(t *testing.T) {
	c := newCircuitOpts(t, hw.Parts{
		hw.Clock(1, 1, 0)("out=clk"),
		hw.Input(1)("out=x"),
		hl.Not("in=x, out=nx"),
		hl.Nand("a=clk, b=r2, out=r0"),
		hl.Not("in=r0, out=r1"),
		hl.Not("in=r1, out=r2"),
	}, []hw.Option{hw.WithIterationLimit(200)})
	setInput(t, c, "x", hw.Bit(hw.One))
	run(t, c)
	if v := query(t, c, "nx")[0]; v != hw.Zero {
		t.Fatalf("expected nx = 0, got %v", v)
	}

	// the rising clock edge enables the ring
	err := c.Tick(context.Background(), 1)
	if !hw.IsOscillation(err) {
		t.Fatalf("expected an oscillation, got %v", err)
	}
	if n := c.ClockTicks(); n != 1 {
		t.Fatalf("expected 1 clock tick, got %d", n)
	}
	if v := query(t, c, "clk")[0]; v != hw.One {
		t.Fatalf("expected clk = 1, got %v", v)
	}
	if v := query(t, c, "nx")[0]; v != hw.Zero {
		t.Fatalf("expected nx = 0 after the fault, got %v", v)
	}
	if v := query(t, c, "x")[0]; v != hw.One {
		t.Fatalf("expected x = 1 after the fault, got %v", v)
	}
}

func TestCircuit_determinism(t *testing.T) {
	full, err := hw.Chip("FullAdder", "a, b, cin", "s, cout",
		hl.Xor("a=a, b=b, out=ab"),
		hl.Xor("a=ab, b=cin, out=s"),
		hl.And("a=a, b=b, out=c0"),
		hl.And("a=ab, b=cin, out=c1"),
		hl.Or("a=c0, b=c1, out=cout"),
	)
	if err != nil {
		t.Fatal(err)
	}
	build := func(rec *hwtest.Recorder, workers int) *hw.Circuit {
		return newCircuitOpts(t, hw.Parts{
			hw.Clock(1, 1, 0)("out=clk"),
			hw.Input(1)("out=a"),
			hw.Input(1)("out=b"),
			hl.DFF("in=s, clk=clk, out=q"),
			full("a=a, b=b, cin=q, s=s, cout=cout"),
			hl.FlipFlop(hl.T, hw.Rising)("t=cout, clk=clk, clr=false, pre=false, q=tq"),
		}, []hw.Option{hw.WithObserver(rec), hw.WithWorkers(workers)})
	}
	ctx := context.Background()
	stimulate := func(c *hw.Circuit) []string {
		var out []string
		for i := 0; i < 32; i++ {
			setInput(t, c, "a", hw.SignalOf(1, uint64(i&1)))
			setInput(t, c, "b", hw.SignalOf(1, uint64(i>>1&1)))
			if err := c.Tick(ctx, 2); err != nil {
				t.Fatal(err)
			}
			out = append(out, query(t, c, "s").String()+query(t, c, "cout").String()+query(t, c, "tq").String())
		}
		return out
	}

	var r1, r2, r3 hwtest.Recorder
	c1, c2, c3 := build(&r1, 1), build(&r2, 1), build(&r3, 4)
	o1 := stimulate(c1)
	for _, c := range []*hw.Circuit{c2, c3} {
		if diff := cmp.Diff(o1, stimulate(c)); diff != "" {
			t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff(r1.Batches(), r2.Batches()); diff != "" {
		t.Fatalf("traces mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(r1.Batches(), r3.Batches()); diff != "" {
		t.Fatalf("parallel trace mismatch (-want +got):\n%s", diff)
	}

	// reset; tick(n); query(net) yields identical results
	r1.Reset()
	if err := c1.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(o1, stimulate(c1)); diff != "" {
		t.Fatalf("outputs after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestCircuit_dff(t *testing.T) {
	c := newCircuit(t,
		hw.Clock(1, 1, 0)("out=clk"),
		hl.DFF("in=true, clk=clk, out=q"),
	)
	ctx := context.Background()
	if v := query(t, c, "q")[0]; v != hw.Zero {
		t.Fatalf("expected q = 0 before the first edge, got %v", v)
	}
	if err := c.Tick(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if v := query(t, c, "clk")[0]; v != hw.One {
		t.Fatalf("expected a rising edge, clk = %v", v)
	}
	if v := query(t, c, "q")[0]; v != hw.One {
		t.Fatalf("expected q = 1 after the rising edge, got %v", v)
	}
	for i := 0; i < 5; i++ {
		run(t, c)
		if v := query(t, c, "q")[0]; v != hw.One {
			t.Fatalf("q changed without a clock edge: %v", v)
		}
	}
	if err := c.Tick(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if v := query(t, c, "q")[0]; v != hw.One {
		t.Fatalf("q changed on a falling edge: %v", v)
	}
}

func TestCircuit_hierarchy(t *testing.T) {
	cell, err := hw.Chip("Cell", "in, clk", "out",
		hl.DFF("in=in, clk=clk, out=out").As("reg"),
	)
	if err != nil {
		t.Fatal(err)
	}
	c := newCircuit(t,
		hw.Input(1)("out=clk1"),
		hw.Input(1)("out=clk2"),
		cell("in=true, clk=clk1, out=o1").As("u1"),
		cell("in=true, clk=clk2, out=o2").As("u2"),
	)
	setInput(t, c, "clk1", hw.Bit(hw.One))
	run(t, c)
	if v := query(t, c, "o1")[0]; v != hw.One {
		t.Fatalf("expected o1 = 1, got %v", v)
	}
	if v := query(t, c, "o2")[0]; v != hw.Zero {
		t.Fatalf("toggling u1's clock changed u2: o2 = %v", v)
	}
	// nested nets are addressed by instance path
	if v := query(t, c, "u1/out")[0]; v != hw.One {
		t.Fatalf("expected u1/out = 1, got %v", v)
	}
	if v := query(t, c, "u2/clk")[0]; v != hw.Zero {
		t.Fatalf("expected u2/clk = 0, got %v", v)
	}
	for _, n := range []string{"u3/out", "u1/nope", "nope", "o1/x"} {
		if _, err := c.Query(n); errors.Cause(err) != hw.ErrUnknownNet {
			t.Errorf("Query(%q): expected ErrUnknownNet, got %v", n, err)
		}
	}
}

func TestCircuit_nested_oscillation(t *testing.T) {
	ring, err := hw.Chip("Ring", "en", "out",
		hl.Nand("a=en, b=out, out=r0"),
		hl.Not("in=r0, out=r1"),
		hl.Not("in=r1, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	c := newCircuitOpts(t, hw.Parts{
		hw.Input(1)("out=en"),
		ring("en=en, out=out").As("osc"),
	}, []hw.Option{hw.WithIterationLimit(50)})
	setInput(t, c, "en", hw.Bit(hw.One))
	err = c.Run(context.Background())
	var oe *hw.OscillationError
	if !errors.As(err, &oe) {
		t.Fatalf("expected an oscillation, got %v", err)
	}
	if diff := cmp.Diff([]string{"osc/out", "osc/r0", "osc/r1"}, oe.Nets); diff != "" {
		t.Fatalf("oscillating nets mismatch (-want +got):\n%s", diff)
	}
}

func TestCircuit_cancel(t *testing.T) {
	c := nandRing(t, hw.WithIterationLimit(1<<30))
	setInput(t, c, "en", hw.Bit(hw.One))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Run(ctx)
	if errors.Cause(err) != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	// the circuit is still usable
	for i := 0; i < 10; i++ {
		if _, err := c.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if s := c.Status(); s != hw.Stepping {
		t.Fatalf("expected stepping, got %v", s)
	}
}

func TestCircuit_errors(t *testing.T) {
	if _, err := hw.NewCircuit(nil); errors.Cause(err) != hw.ErrNoParts {
		t.Fatalf("expected ErrNoParts, got %v", err)
	}
	c := newCircuit(t, hw.Input(4)("out=a"))
	if err := c.SetInput("b", hw.NewSignal(4, hw.One)); errors.Cause(err) != hw.ErrUnknownInput {
		t.Fatalf("expected ErrUnknownInput, got %v", err)
	}
	if err := c.SetInput("a", hw.NewSignal(2, hw.One)); err == nil {
		t.Fatal("expected width error")
	}
	if diff := cmp.Diff([]hw.PinDecl{{Name: "a", Width: 4}}, c.Inputs()); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, c.Nets()); diff != "" {
		t.Fatalf("nets mismatch (-want +got):\n%s", diff)
	}
}

func TestCircuit_clock(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c := newCircuitOpts(t, hw.Parts{
		hw.Clock(2, 1, 0)("out=clk"),
	}, []hw.Option{hw.WithObserver(hw.Funcs{OnChange: func(_ uint64, ch []hw.Change) {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range ch {
			seen = append(seen, c.Value.String())
		}
	}})})
	if err := c.Tick(context.Background(), 6); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	// low for 1 half-period, high for 2
	if diff := cmp.Diff([]string{"0", "1", "0", "1", "0"}, seen); diff != "" {
		t.Fatalf("clock trace mismatch (-want +got):\n%s", diff)
	}
	if n := c.ClockTicks(); n != 6 {
		t.Fatalf("expected 6 clock ticks, got %d", n)
	}
}

func TestClockValue(t *testing.T) {
	td := []struct {
		high, low, phase uint
		want             string
	}{
		{1, 1, 0, "01010101"},
		{2, 1, 0, "01101101"},
		{1, 3, 0, "00010001"},
		{1, 1, 1, "10101010"},
		{2, 2, 1, "01100110"},
	}
	for _, d := range td {
		var s []byte
		for i := uint64(0); i < 8; i++ {
			s = append(s, hw.ClockValue(i, d.high, d.low, d.phase).String()[0])
		}
		if string(s) != d.want {
			t.Errorf("ClockValue(%d, %d, %d) = %s, expected %s", d.high, d.low, d.phase, s, d.want)
		}
	}
}
