// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"strconv"
)

// Input returns an input of the given bus width, named after the net connected
// to its out pin. Its value is set with Circuit.SetInput and is all Zero after
// a reset.
//
//	Outputs: out[bits]
//
func Input(bits int) NewPartFn {
	return (&PartSpec{
		Name:    "Input" + strconv.Itoa(bits),
		Outputs: []PinDecl{{"out", bits}},
		Mount: func(s *Socket) Component {
			out := s.Pin("out")
			v := NewSignal(bits, Zero)
			s.Input("out", func(n Signal) { copy(v, n) })
			return func(c *State) { c.Set(out, v) }
		}}).NewPart
}

// ClockValue returns the output of a clock with the given high and low
// durations and phase after ticks half-periods.
//
func ClockValue(ticks uint64, high, low, phase uint) Value {
	cycle := uint64(high + low)
	if cycle == 0 {
		return Zero
	}
	return FromBool((ticks+uint64(phase))%cycle >= uint64(low))
}

// Clock returns a clock source. The clock is low for low ticks, then high for
// high ticks, shifted by phase ticks. A clock advances by one tick on each
// call to Circuit.Tick. Clock(1, 1, 0) is a regular clock, low after reset,
// with a rising edge on odd ticks.
//
//	Outputs: out
//
func Clock(high, low, phase uint) NewPartFn {
	if high == 0 {
		high = 1
	}
	if low == 0 {
		low = 1
	}
	return (&PartSpec{
		Name:    "Clock",
		Outputs: IO("out"),
		Mount: func(s *Socket) Component {
			out := s.Pin("out")
			s.Clock()
			return func(c *State) {
				c.SetBit(out, ClockValue(c.ClockTicks(), high, low, phase))
			}
		}}).NewPart
}

// Constant returns a constant source driving v.
//
//	Outputs: out[len(v)]
//
func Constant(v Signal) NewPartFn {
	v = v.Clone()
	return (&PartSpec{
		Name:    "Constant",
		Outputs: []PinDecl{{"out", len(v)}},
		Mount: func(s *Socket) Component {
			out := s.Pin("out")
			return func(c *State) { c.Set(out, v) }
		}}).NewPart
}
