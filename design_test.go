package gatesim_test

import (
	"testing"

	hw "github.com/db47h/gatesim"
	hl "github.com/db47h/gatesim/hwlib"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func lib() hw.Library {
	return hw.Builtins().Merge(hl.Library())
}

func TestDesign_build(t *testing.T) {
	d := hw.Design{Chips: []hw.ChipDef{
		// Top uses HA before it is defined
		{Name: "Top", Inputs: "a, b", Outputs: "s, c", Parts: []hw.PartDef{
			{Type: "HA", Name: "ha", Conns: "a=a, b=b, s=s, c=c"},
		}},
		{Name: "HA", Inputs: "a, b", Outputs: "s, c", Parts: []hw.PartDef{
			{Type: "Xor", Conns: "a=a, b=b, out=s"},
			{Type: "And", Conns: "a=a, b=b, out=c"},
		}},
	}}
	chips, err := d.Build(lib())
	if err != nil {
		t.Fatal(err)
	}
	if len(chips) != 2 {
		t.Fatalf("expected 2 chips, got %d", len(chips))
	}
	c := newCircuit(t,
		hw.Input(1)("out=a"),
		hw.Input(1)("out=b"),
		chips["Top"]("a=a, b=b, s=s, c=c").As("top"),
	)
	for i := uint64(0); i < 4; i++ {
		setInput(t, c, "a", hw.SignalOf(1, i&1))
		setInput(t, c, "b", hw.SignalOf(1, i>>1))
		run(t, c)
		s, _ := query(t, c, "s").Uint64()
		cy, _ := query(t, c, "c").Uint64()
		if s+2*cy != i&1+i>>1 {
			t.Fatalf("%d + %d: got s=%d, c=%d", i&1, i>>1, s, cy)
		}
	}
	if v := query(t, c, "top/ha/c"); v.String() != "1" {
		t.Fatalf("expected top/ha/c = 1, got %s", v)
	}
}

func TestDesign_cycle(t *testing.T) {
	d := hw.Design{Chips: []hw.ChipDef{
		{Name: "A", Inputs: "in", Outputs: "out", Parts: []hw.PartDef{
			{Type: "B", Conns: "in=in, out=out"},
		}},
		{Name: "B", Inputs: "in", Outputs: "out", Parts: []hw.PartDef{
			{Type: "Not", Conns: "in=in, out=x"},
			{Type: "A", Conns: "in=x, out=out"},
		}},
	}}
	_, err := d.Build(lib())
	var se *hw.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected a *StructuralError, got %v", err)
	}
	if diff := cmp.Diff([]string{"A", "B", "A"}, se.Chain); diff != "" {
		t.Fatalf("chain mismatch (-want +got):\n%s", diff)
	}
	if want := "A: instantiation cycle (A -> B -> A)"; err.Error() != want {
		t.Fatalf("got %q, expected %q", err, want)
	}

	self := hw.Design{Chips: []hw.ChipDef{
		{Name: "S", Inputs: "in", Outputs: "out", Parts: []hw.PartDef{
			{Type: "S", Conns: "in=in, out=out"},
		}},
	}}
	if _, err = self.Build(lib()); !errors.As(err, &se) || len(se.Chain) != 2 {
		t.Fatalf("self instantiation: got %v", err)
	}
}

func TestDesign_errors(t *testing.T) {
	td := []struct {
		name  string
		chips []hw.ChipDef
		err   string
	}{
		{"unknown_type", []hw.ChipDef{
			{Name: "C", Inputs: "a", Outputs: "b", Parts: []hw.PartDef{{Type: "Frob", Conns: "in=a, out=b"}}},
		}, "C: Frob#0: unknown part type Frob"},
		{"duplicate", []hw.ChipDef{
			{Name: "C", Inputs: "a", Outputs: "b", Parts: []hw.PartDef{{Type: "Not", Conns: "in=a, out=b"}}},
			{Name: "C", Inputs: "a", Outputs: "b", Parts: []hw.PartDef{{Type: "Not", Conns: "in=a, out=b"}}},
		}, "C: duplicate chip definition"},
		{"shadow", []hw.ChipDef{
			{Name: "Not", Inputs: "a", Outputs: "b", Parts: []hw.PartDef{{Type: "Nand", Conns: "a=a, b=a, out=b"}}},
		}, "Not: chip name shadows library part"},
		{"params", []hw.ChipDef{
			{Name: "C", Inputs: "a", Outputs: "b", Parts: []hw.PartDef{
				{Type: "Not", Name: "n", Conns: "in=a, out=b", Params: hw.Params{"width": -1}},
			}},
		}, "C: n: invalid width -1"},
		{"clock_params", []hw.ChipDef{
			{Name: "C", Outputs: "b", Parts: []hw.PartDef{
				{Type: "Clock", Name: "clk", Conns: "out=b", Params: hw.Params{"low": -1}},
			}},
		}, "C: clk: invalid low -1"},
		{"netlist", []hw.ChipDef{
			{Name: "C", Inputs: "a", Outputs: "b", Parts: []hw.PartDef{{Type: "Not", Conns: "in=a, out=a"}}},
		}, "C: NOT#0.out: chip input pin used as output"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := (&hw.Design{Chips: d.chips}).Build(lib())
			if err == nil || err.Error() != d.err {
				t.Fatalf("got error %v, expected %q", err, d.err)
			}
		})
	}
}

func TestDesign_delay(t *testing.T) {
	delay := uint(5)
	d := hw.Design{Chips: []hw.ChipDef{
		{Name: "Slow", Inputs: "in", Outputs: "out", Parts: []hw.PartDef{
			{Type: "Not", Conns: "in=in, out=out", Delay: &delay},
		}},
	}}
	chips, err := d.Build(lib())
	if err != nil {
		t.Fatal(err)
	}
	c := newCircuit(t,
		hw.Input(1)("out=in"),
		chips["Slow"]("in=in, out=out"),
	)
	start := c.Now()
	setInput(t, c, "in", hw.Bit(hw.One))
	run(t, c)
	if dt := c.Now() - start; dt != 5 {
		t.Fatalf("expected a delay of 5, got %d", dt)
	}
}
