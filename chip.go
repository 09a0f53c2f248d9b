// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"github.com/pkg/errors"
)

type chip struct {
	PartSpec // PartSpec for this chip
	nl       *netlist
}

// mount creates the nested state of a chip instance. The returned component
// forces the chip input nets of the nested state to the values read from the
// host, runs the nested state until it is stable and copies the nested chip
// outputs to the host.
//
func (c *chip) mount(s *Socket) Component {
	sub := s.nest(c.nl)
	ins := make([]Pin, len(c.Inputs))
	for i, d := range c.Inputs {
		ins[i] = s.Pin(d.Name)
	}
	outs := make([]Pin, len(c.Outputs))
	for i, d := range c.Outputs {
		outs[i] = s.Pin(d.Name)
	}
	id := s.comp
	return func(st *State) {
		for i, p := range ins {
			sub.force(c.nl.inputs[i], st.Get(p))
		}
		if err := sub.drain(nil); err != nil {
			st.comps[id].fault = err
			return
		}
		for i, p := range outs {
			st.Set(p, sub.nets[c.nl.outputs[i]].val)
		}
	}
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip. A bracketed number after a pin name declares a bus
// of that width.
//
// An Xor gate could be created like this:
//
//	xor, err := gatesim.Chip(
//		"XOR",
//		"a, b",
//		"out",
//		hwlib.Nand("a=a, b=b, out=nandAB"),
//		hwlib.Nand("a=a, b=nandAB, out=w0"),
//		hwlib.Nand("a=b, b=nandAB, out=w1"),
//		hwlib.Nand("a=w0, b=w1, out=out"),
//	)
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips:
//
//	xnor, err := gatesim.Chip(
//		"XNOR",
//		"a, b",
//		"out",
//		xor("a=a, b=b, out=xorAB"),
//		hwlib.Not("in=xorAB, out=out"),
//	)
//
// Every instance of the returned part owns a private copy of the chip's state.
// The part's propagation delay is 0: timing is entirely determined by its
// internal parts.
//
// Chip returns a *StructuralError if the netlist is malformed: unknown pin
// names, unconnected input pins, width mismatches, outputs connected to
// constants or chip inputs, or nets read by some part but driven by none.
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	c, err := newChip(name, inputs, outputs, parts)
	if err != nil {
		return nil, err
	}
	return c.PartSpec.NewPart, nil
}

func newChip(name string, inputs string, outputs string, parts Parts) (*chip, error) {
	ins, err := ParseIO(inputs)
	if err != nil {
		return nil, &StructuralError{Chip: name, Reason: errors.Wrap(err, "inputs").Error()}
	}
	outs, err := ParseIO(outputs)
	if err != nil {
		return nil, &StructuralError{Chip: name, Reason: errors.Wrap(err, "outputs").Error()}
	}
	nl, err := compile(name, ins, outs, parts)
	if err != nil {
		return nil, err
	}
	c := &chip{
		PartSpec: PartSpec{
			Name:    name,
			Inputs:  ins,
			Outputs: outs,
		},
		nl: nl,
	}
	c.PartSpec.Mount = c.mount
	return c, nil
}
