// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package netfile loads chip definitions and simulation scripts from HCL
// files.
//
// A file contains chip blocks, compiled into a gatesim.Design, and simulation
// blocks that drive the inputs of a chip and check its outputs:
//
//	chip "HalfAdder" {
//	  inputs  = "a, b"
//	  outputs = "sum, carry"
//	  part "Xor" "x1" { connect = { a = "a", b = "b", out = "sum" } }
//	  part "And" "a1" { connect = { a = "a", b = "b", out = "carry" } }
//	}
//
//	simulation "half_adder" {
//	  top = "HalfAdder"
//	  step {
//	    set    = { a = 1, b = 0 }
//	    expect = { sum = 1, carry = 0 }
//	  }
//	}
//
// Part blocks take an optional params map of integer parameters and an
// optional delay. Values in set and expect blocks are numbers, bools or
// strings in the format accepted by gatesim.ParseSignal.
//
package netfile

import (
	"sort"
	"strings"

	"github.com/db47h/gatesim"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// File is the decoded contents of a netfile.
//
type File struct {
	Chips       []*Chip       `hcl:"chip,block"`
	Simulations []*Simulation `hcl:"simulation,block"`
}

// Chip is a chip block.
//
type Chip struct {
	Name    string  `hcl:"name,label"`
	Inputs  string  `hcl:"inputs,optional"`
	Outputs string  `hcl:"outputs,optional"`
	Parts   []*Part `hcl:"part,block"`
}

// Part is a part block within a chip.
//
type Part struct {
	Type    string            `hcl:"type,label"`
	Name    string            `hcl:"name,label"`
	Connect map[string]string `hcl:"connect"`
	Params  map[string]int    `hcl:"params,optional"`
	Delay   *int              `hcl:"delay,optional"`
}

// Simulation is a simulation block.
//
type Simulation struct {
	Name           string  `hcl:"name,label"`
	Top            string  `hcl:"top"`
	Clock          string  `hcl:"clock,optional"`
	IterationLimit int     `hcl:"iteration_limit,optional"`
	Steps          []*Step `hcl:"step,block"`
}

// Step is a step block within a simulation. Inputs are set, the circuit runs
// until stable, then clocks advance by Tick half-periods before outputs are
// checked.
//
type Step struct {
	Set    hcl.Expression `hcl:"set,optional"`
	Tick   int            `hcl:"tick,optional"`
	Expect hcl.Expression `hcl:"expect,optional"`
}

// Load parses the named file.
//
func Load(filename string) (*File, error) {
	p := hclparse.NewParser()
	f, diags := p.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse %s", filename)
	}
	return decode(filename, f)
}

// Parse parses src as the contents of a netfile. filename is only used in
// error messages.
//
func Parse(filename string, src []byte) (*File, error) {
	p := hclparse.NewParser()
	f, diags := p.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse %s", filename)
	}
	return decode(filename, f)
}

func decode(filename string, f *hcl.File) (*File, error) {
	var nf File
	if diags := gohcl.DecodeBody(f.Body, nil, &nf); diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to decode %s", filename)
	}
	for _, c := range nf.Chips {
		for _, p := range c.Parts {
			if p.Delay != nil && *p.Delay < 0 {
				return nil, errors.Errorf("%s: chip %s: part %s: negative delay", filename, c.Name, p.Name)
			}
		}
	}
	for _, s := range nf.Simulations {
		for _, st := range s.Steps {
			if st.Tick < 0 {
				return nil, errors.Errorf("%s: simulation %s: negative tick count", filename, s.Name)
			}
		}
	}
	return &nf, nil
}

// Design returns the chip definitions of f as a gatesim.Design.
//
func (f *File) Design() *gatesim.Design {
	d := &gatesim.Design{Chips: make([]gatesim.ChipDef, 0, len(f.Chips))}
	for _, c := range f.Chips {
		cd := gatesim.ChipDef{Name: c.Name, Inputs: c.Inputs, Outputs: c.Outputs}
		for _, p := range c.Parts {
			pd := gatesim.PartDef{
				Type:   p.Type,
				Name:   p.Name,
				Conns:  connections(p.Connect),
				Params: gatesim.Params(p.Params),
			}
			if p.Delay != nil {
				dl := uint(*p.Delay)
				pd.Delay = &dl
			}
			cd.Parts = append(cd.Parts, pd)
		}
		d.Chips = append(d.Chips, cd)
	}
	return d
}

// connections formats a connect map, sorted by pin name.
func connections(m map[string]string) string {
	pins := make([]string, 0, len(m))
	for k := range m {
		pins = append(pins, k)
	}
	sort.Strings(pins)
	var b strings.Builder
	for i, p := range pins {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p + "=" + m[p])
	}
	return b.String()
}

// Build compiles the chips of f against lib.
//
func (f *File) Build(lib gatesim.Library) (map[string]gatesim.NewPartFn, error) {
	return f.Design().Build(lib)
}

// Simulation returns the named simulation block, or nil.
//
func (f *File) Simulation(name string) *Simulation {
	for _, s := range f.Simulations {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// A literal is a value from a set or expect map.
//
type literal struct {
	s   string
	num bool // HCL number, always decimal
}

// parse parses l with the given width.
//
func (l literal) parse(width int) (gatesim.Signal, error) {
	if l.num {
		return gatesim.ParseInt(width, l.s)
	}
	return gatesim.ParseSignal(width, l.s)
}

// values evaluates a set or expect map. Each value is converted to its string
// form, to be parsed once the net width is known.
//
func values(expr hcl.Expression) (map[string]literal, error) {
	if expr == nil {
		return nil, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() || !(v.Type().IsObjectType() || v.Type().IsMapType()) {
		return nil, errors.Errorf("%s: expected a map of net values", expr.Range())
	}
	r := make(map[string]literal)
	for k, e := range v.AsValueMap() {
		if e.IsNull() {
			return nil, errors.Errorf("%s: %s: null value", expr.Range(), k)
		}
		sv, err := convert.Convert(e, cty.String)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", expr.Range(), k)
		}
		var s string
		if err = gocty.FromCtyValue(sv, &s); err != nil {
			return nil, errors.Wrapf(err, "%s: %s", expr.Range(), k)
		}
		r[k] = literal{s: s, num: e.Type() == cty.Number}
	}
	return r, nil
}
