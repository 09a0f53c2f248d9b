// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/gatesim"
)

// choose returns a if sel is Zero, b if sel is One. For an undefined sel, bits
// where a and b agree are kept and the others are Unknown, or Error if sel is
// Error.
//
func choose(r gatesim.Signal, sel gatesim.Value, a, b gatesim.Signal) {
	switch sel {
	case gatesim.Zero:
		copy(r, a)
	case gatesim.One:
		copy(r, b)
	default:
		for i := range r {
			if a[i] == b[i] && a[i].Defined() {
				r[i] = a[i]
			} else if sel == gatesim.Error {
				r[i] = gatesim.Error
			} else {
				r[i] = gatesim.Unknown
			}
		}
	}
}

// Mux returns a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(w string) gatesim.Part { return mux1.NewPart(w) }

var mux1 = specMuxN(1)

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(w string) gatesim.Part { return dmux1.NewPart(w) }

var dmux1 = specDMuxN(1)

func specMuxN(bits int) *gatesim.PartSpec {
	return &gatesim.PartSpec{
		Name:    suffix("MUX", bits),
		Inputs:  append(bus(bits, pA, pB), gatesim.PinDecl{Name: pSel, Width: 1}),
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			a, b, sel, o := s.Pin(pA), s.Pin(pB), s.Pin(pSel), s.Pin(pOut)
			r := make(gatesim.Signal, bits)
			return func(c *gatesim.State) {
				choose(r, c.Bit(sel), c.Get(a), c.Get(b))
				c.Set(o, r)
			}
		}}
}

func specDMuxN(bits int) *gatesim.PartSpec {
	return &gatesim.PartSpec{
		Name:    suffix("DMUX", bits),
		Inputs:  append(bus(bits, pIn), gatesim.PinDecl{Name: pSel, Width: 1}),
		Outputs: bus(bits, pA, pB),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, sel, a, b := s.Pin(pIn), s.Pin(pSel), s.Pin(pA), s.Pin(pB)
			zero := gatesim.NewSignal(bits, gatesim.Zero)
			r := make(gatesim.Signal, bits)
			return func(c *gatesim.State) {
				v := c.Get(in)
				switch sv := c.Bit(sel); sv {
				case gatesim.Zero:
					c.Set(a, v)
					c.Set(b, zero)
				case gatesim.One:
					c.Set(a, zero)
					c.Set(b, v)
				default:
					choose(r, sv, v, zero)
					c.Set(a, r)
					c.Set(b, r)
				}
			}
		}}
}

// MuxN returns a N-bits Mux
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: if sel == 0 { out = a } else { out = b }
//
func MuxN(bits int) gatesim.NewPartFn {
	return specMuxN(bits).NewPart
}

// DMuxN returns a N-bits demultiplexer.
//
//	Inputs: in[bits], sel
//	Outputs: a[bits], b[bits]
//
func DMuxN(bits int) gatesim.NewPartFn {
	return specDMuxN(bits).NewPart
}

// MuxNWay returns a multiplexer with 1<<selBits inputs in0, in1, ... of the
// given width.
//
//	Inputs: in0[bits] ... inK[bits], sel[selBits]
//	Outputs: out[bits]
//	Function: out = in<sel>
//
func MuxNWay(bits, selBits int) gatesim.NewPartFn {
	ways := 1 << uint(selBits)
	ins := make([]gatesim.PinDecl, 0, ways+1)
	for i := 0; i < ways; i++ {
		ins = append(ins, gatesim.PinDecl{Name: pIn + strconv.Itoa(i), Width: bits})
	}
	ins = append(ins, gatesim.PinDecl{Name: pSel, Width: selBits})
	return (&gatesim.PartSpec{
		Name:    "MUX" + strconv.Itoa(bits) + "x" + strconv.Itoa(ways),
		Inputs:  ins,
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in := make([]gatesim.Pin, ways)
			for i := range in {
				in[i] = s.Pin(pIn + strconv.Itoa(i))
			}
			sel, out := s.Pin(pSel), s.Pin(pOut)
			return func(c *gatesim.State) {
				sv := c.Get(sel)
				if n, ok := sv.Uint64(); ok {
					c.Set(out, c.Get(in[n]))
					return
				}
				if sv.HasError() {
					c.SetBit(out, gatesim.Error)
				} else {
					c.SetBit(out, gatesim.Unknown)
				}
			}
		}}).NewPart
}
