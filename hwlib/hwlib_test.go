package hwlib_test

import (
	"context"
	"strings"
	"testing"

	hw "github.com/db47h/gatesim"
)

// newCircuit creates a circuit from parts, settles it and registers its
// disposal.
func newCircuit(t *testing.T, parts ...hw.Part) *hw.Circuit {
	t.Helper()
	c, err := hw.NewCircuit(parts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Dispose)
	if err = c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c
}

func set(t *testing.T, c *hw.Circuit, name string, v uint64) {
	t.Helper()
	for _, in := range c.Inputs() {
		if in.Name == name {
			if err := c.SetInput(name, hw.SignalOf(in.Width, v)); err != nil {
				t.Fatal(err)
			}
			return
		}
	}
	t.Fatalf("no input named %q", name)
}

func get(t *testing.T, c *hw.Circuit, name string) hw.Signal {
	t.Helper()
	v, err := c.Query(name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func run(t *testing.T, c *hw.Circuit) {
	t.Helper()
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func tick(t *testing.T, c *hw.Circuit, n int) {
	t.Helper()
	if err := c.Tick(context.Background(), n); err != nil {
		t.Fatal(err)
	}
}

// wrap connects every pin of the part returned by gate to a net of the same
// name, and adds an Input for each input pin.
func wrap(gate hw.NewPartFn) hw.Parts {
	spec := gate("").PartSpec // build dummy gate just to get to the partspec
	var w strings.Builder
	var parts hw.Parts
	for _, d := range spec.Inputs {
		w.WriteString(d.Name + "=" + d.Name + ",")
		parts = append(parts, hw.Input(d.Width)("out="+d.Name))
	}
	for _, d := range spec.Outputs {
		w.WriteString(d.Name + "=" + d.Name + ",")
	}
	return append(parts, gate(strings.TrimSuffix(w.String(), ",")))
}

// testGate checks the outputs of a part with 1 bit inputs and outputs against
// a truth table. Inputs are enumerated with the first input as msb.
func testGate(t *testing.T, gate hw.NewPartFn, result [][]hw.Value) {
	t.Helper()
	spec := gate("").PartSpec
	c := newCircuit(t, wrap(gate)...)

	tot := 1 << uint(len(spec.Inputs))
	inputs := make([]uint64, len(spec.Inputs))
	for i := 0; i < tot; i++ {
		for bit := range inputs {
			inputs[len(inputs)-bit-1] = uint64(i>>uint(bit)) & 1
		}
		for k, d := range spec.Inputs {
			set(t, c, d.Name, inputs[k])
		}
		run(t, c)
		for o, d := range spec.Outputs {
			if exp, got := result[o][i], get(t, c, d.Name)[0]; exp != got {
				t.Errorf("%s %v: %s = %v, got %v", spec.Name, inputs, d.Name, exp, got)
			}
		}
	}
}
