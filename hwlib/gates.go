// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable parts for gatesim.
//
// Unless stated otherwise, parts have a propagation delay of one tick. Bus
// variants are named with an N suffix and take the bus width as argument.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/gatesim"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pSel = "sel"
	pOut = "out"
	pEn  = "en"
	pClk = "clk"
)

// GateDelay is the propagation delay of the parts of this package.
//
const GateDelay = 1

// make a bus declaration
func bus(bits int, names ...string) []gatesim.PinDecl {
	b := make([]gatesim.PinDecl, len(names))
	for i, n := range names {
		b[i] = gatesim.PinDecl{Name: n, Width: bits}
	}
	return b
}

func suffix(name string, bits int) string {
	if bits == 1 {
		return name
	}
	return name + strconv.Itoa(bits)
}

func notN(bits int) *gatesim.PartSpec {
	return &gatesim.PartSpec{
		Name:    suffix("NOT", bits),
		Inputs:  bus(bits, pIn),
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			return func(c *gatesim.State) { c.Set(out, c.Get(in).Not()) }
		}}
}

var not1 = notN(1)

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) gatesim.Part { return not1.NewPart(w) }

// NotN returns a N-bits NOT gate.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = !in[i] }
//
func NotN(bits int) gatesim.NewPartFn {
	return notN(bits).NewPart
}

// other gates
type gate func(a, b gatesim.Value) gatesim.Value

func (g gate) mount(s *gatesim.Socket) gatesim.Component {
	a, b, out := s.Pin(pA), s.Pin(pB), s.Pin(pOut)
	r := make(gatesim.Signal, s.Width(pOut))
	return func(c *gatesim.State) {
		va, vb := c.Get(a), c.Get(b)
		for i := range r {
			r[i] = g(va[i], vb[i])
		}
		c.Set(out, r)
	}
}

func newGate(name string, bits int, fn func(a, b gatesim.Value) gatesim.Value) *gatesim.PartSpec {
	return &gatesim.PartSpec{
		Name:    suffix(name, bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount:   gate(fn).mount,
	}
}

func nand(a, b gatesim.Value) gatesim.Value { return a.And(b).Not() }
func nor(a, b gatesim.Value) gatesim.Value  { return a.Or(b).Not() }
func xnor(a, b gatesim.Value) gatesim.Value { return a.Xor(b).Not() }

var (
	and1  = newGate("AND", 1, gatesim.Value.And)
	nand1 = newGate("NAND", 1, nand)
	or1   = newGate("OR", 1, gatesim.Value.Or)
	nor1  = newGate("NOR", 1, nor)
	xor1  = newGate("XOR", 1, gatesim.Value.Xor)
	xnor1 = newGate("XNOR", 1, xnor)
)

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And(w string) gatesim.Part { return and1.NewPart(w) }

// Nand returns a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func Nand(w string) gatesim.Part { return nand1.NewPart(w) }

// Or returns a OR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a || b
//
func Or(w string) gatesim.Part { return or1.NewPart(w) }

// Nor returns a NOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a || b)
//
func Nor(w string) gatesim.Part { return nor1.NewPart(w) }

// Xor returns a XOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = (a && !b) || (!a && b)
//
func Xor(w string) gatesim.Part { return xor1.NewPart(w) }

// Xnor returns a XNOR gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b || !a && !b
//
func Xnor(w string) gatesim.Part { return xnor1.NewPart(w) }

// GateN returns a N-bits logic gate.
//
//	Inputs: a[bits], b[bits]
//	Outouts: out[bits]
//	Function: for i := range out { out[i] = f(a[i], b[i]) }
//
func GateN(name string, bits int, f func(a, b gatesim.Value) gatesim.Value) gatesim.NewPartFn {
	return newGate(name, bits, f).NewPart
}

// AndN returns a N-bits AND gate.
func AndN(bits int) gatesim.NewPartFn { return GateN("AND", bits, gatesim.Value.And) }

// NandN returns a N-bits NAND gate.
func NandN(bits int) gatesim.NewPartFn { return GateN("NAND", bits, nand) }

// OrN returns a N-bits OR gate.
func OrN(bits int) gatesim.NewPartFn { return GateN("OR", bits, gatesim.Value.Or) }

// NorN returns a N-bits NOR gate.
func NorN(bits int) gatesim.NewPartFn { return GateN("NOR", bits, nor) }

// XorN returns a N-bits XOR gate.
func XorN(bits int) gatesim.NewPartFn { return GateN("XOR", bits, gatesim.Value.Xor) }

// XnorN returns a N-bits XNOR gate.
func XnorN(bits int) gatesim.NewPartFn { return GateN("XNOR", bits, xnor) }

func nWay(name string, ways int, f func(a, b gatesim.Value) gatesim.Value) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    name + strconv.Itoa(ways) + "Way",
		Inputs:  []gatesim.PinDecl{{Name: pIn, Width: ways}},
		Outputs: gatesim.IO(pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			return func(c *gatesim.State) {
				v := c.Get(in)
				r := v[0]
				for _, b := range v[1:] {
					r = f(r, b)
				}
				c.SetBit(out, r)
			}
		}}).NewPart
}

// OrNWay returns a N-Way OR gate.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = in[0] || in[1] || in[2] || ... || in[n-1]
//
func OrNWay(ways int) gatesim.NewPartFn { return nWay("OR", ways, gatesim.Value.Or) }

// AndNWay returns a N-Way AND gate.
//
//	Inputs: in[n]
//	Outputs: out
//	Function: out = in[0] && in[1] && in[2] && ... && in[n-1]
//
func AndNWay(ways int) gatesim.NewPartFn { return nWay("AND", ways, gatesim.Value.And) }

// Buffer returns a N-bits buffer. Buffers are used to add delay to a signal
// path.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: out = in
//
func Buffer(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    suffix("Buffer", bits),
		Inputs:  bus(bits, pIn),
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			return func(c *gatesim.State) { c.Set(out, c.Get(in)) }
		}}).NewPart
}

// TriState returns a N-bits controlled buffer. When en is Zero, the buffer
// releases its output, letting other parts drive the net.
//
//	Inputs: in[bits], en
//	Outputs: out[bits]
//	Function: if en { out = in } else { out = Unknown }
//
func TriState(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    suffix("TriState", bits),
		Inputs:  append(bus(bits, pIn), gatesim.PinDecl{Name: pEn, Width: 1}),
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, en, out := s.Pin(pIn), s.Pin(pEn), s.Pin(pOut)
			return func(c *gatesim.State) {
				switch c.Bit(en) {
				case gatesim.One:
					c.Set(out, c.Get(in))
				case gatesim.Zero:
					c.SetBit(out, gatesim.Unknown)
				default:
					c.SetBit(out, gatesim.Error)
				}
			}
		}}).NewPart
}
