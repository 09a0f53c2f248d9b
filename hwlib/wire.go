// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/gatesim"
)

// Wiring parts have no delay.

// Slice returns a splitter that extracts bits [lo, hi) of a bus.
//
//	Inputs: in[bits]
//	Outputs: out[hi-lo]
//	Function: out = in[lo:hi]
//
func Slice(bits, lo, hi int) gatesim.NewPartFn {
	if lo < 0 || hi > bits || lo >= hi {
		panic("invalid slice [" + strconv.Itoa(lo) + ":" + strconv.Itoa(hi) + "] of " + strconv.Itoa(bits) + " bits")
	}
	return (&gatesim.PartSpec{
		Name:    "Slice" + strconv.Itoa(bits) + "_" + strconv.Itoa(lo) + "_" + strconv.Itoa(hi),
		Inputs:  bus(bits, pIn),
		Outputs: bus(hi-lo, pOut),
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			return func(c *gatesim.State) { c.Set(out, c.Get(in)[lo:hi]) }
		}}).NewPart
}

// Join returns a joiner that concatenates its inputs in0, in1... into a single
// bus. in0 holds the least significant bits.
//
//	Inputs: in0[widths[0]], in1[widths[1]], ...
//	Outputs: out[sum(widths)]
//
func Join(widths ...int) gatesim.NewPartFn {
	ins := make([]gatesim.PinDecl, len(widths))
	total := 0
	name := "Join"
	for i, w := range widths {
		ins[i] = gatesim.PinDecl{Name: pIn + strconv.Itoa(i), Width: w}
		total += w
		name += "_" + strconv.Itoa(w)
	}
	return (&gatesim.PartSpec{
		Name:    name,
		Inputs:  ins,
		Outputs: bus(total, pOut),
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in := make([]gatesim.Pin, len(ins))
			for i := range in {
				in[i] = s.Pin(ins[i].Name)
			}
			out := s.Pin(pOut)
			r := make(gatesim.Signal, total)
			return func(c *gatesim.State) {
				o := r
				for _, p := range in {
					o = o[copy(o, c.Get(p)):]
				}
				c.Set(out, r)
			}
		}}).NewPart
}

// Extension modes for Extend.
//
const (
	ZeroExtend = iota
	OneExtend
	SignExtend
)

// Extend returns a bit extender from a bus of width from to a bus of width to.
// If to < from, the input is truncated.
//
//	Inputs: in[from]
//	Outputs: out[to]
//
func Extend(from, to, mode int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    "Extend" + strconv.Itoa(from) + "_" + strconv.Itoa(to),
		Inputs:  bus(from, pIn),
		Outputs: bus(to, pOut),
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			r := make(gatesim.Signal, to)
			return func(c *gatesim.State) {
				v := c.Get(in)
				n := copy(r, v)
				fill := gatesim.Zero
				switch mode {
				case OneExtend:
					fill = gatesim.One
				case SignExtend:
					fill = v[from-1]
				}
				for i := n; i < to; i++ {
					r[i] = fill
				}
				c.Set(out, r)
			}
		}}).NewPart
}

func pull(name string, bits int, v gatesim.Value) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    suffix(name, bits),
		Outputs: bus(bits, pOut),
		Mount: func(s *gatesim.Socket) gatesim.Component {
			s.Pull(pOut, v)
			return nil
		}}).NewPart
}

// PullUp returns a pull-up resistor: Unknown bits of the connected net read
// as One.
//
//	Outputs: out[bits]
//
func PullUp(bits int) gatesim.NewPartFn { return pull("PullUp", bits, gatesim.One) }

// PullDown returns a pull-down resistor: Unknown bits of the connected net
// read as Zero.
//
//	Outputs: out[bits]
//
func PullDown(bits int) gatesim.NewPartFn { return pull("PullDown", bits, gatesim.Zero) }
