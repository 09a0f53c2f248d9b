// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/gatesim"
)

// add returns the sum and carry of a + b + c. Undefined inputs propagate
// through the Value operators.
//
func add(a, b, c gatesim.Value) (s, cout gatesim.Value) {
	s0 := a.Xor(b)
	return s0.Xor(c), a.And(b).Or(s0.And(c))
}

var hAdder = &gatesim.PartSpec{
	Name:    "HalfAdder",
	Inputs:  gatesim.IO("a, b"),
	Outputs: gatesim.IO("s, c"),
	Delay:   GateDelay,
	Mount: func(s *gatesim.Socket) gatesim.Component {
		a, b := s.Pin(pA), s.Pin(pB)
		sum, cout := s.Pin("s"), s.Pin("c")
		return func(c *gatesim.State) {
			vs, vc := add(c.Bit(a), c.Bit(b), gatesim.Zero)
			c.SetBit(sum, vs)
			c.SetBit(cout, vc)
		}
	}}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(c string) gatesim.Part {
	return hAdder.NewPart(c)
}

var adder = &gatesim.PartSpec{
	Name:    "FullAdder",
	Inputs:  gatesim.IO("a, b, cin"),
	Outputs: gatesim.IO("s, cout"),
	Delay:   GateDelay,
	Mount: func(s *gatesim.Socket) gatesim.Component {
		a, b, cin := s.Pin(pA), s.Pin(pB), s.Pin("cin")
		sum, cout := s.Pin("s"), s.Pin("cout")
		return func(c *gatesim.State) {
			vs, vc := add(c.Bit(a), c.Bit(b), c.Bit(cin))
			c.SetBit(sum, vs)
			c.SetBit(cout, vc)
		}
	}}

// FullAdder returns a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(c string) gatesim.Part {
	return adder.NewPart(c)
}

// AdderN returns a N-bits adder
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits], c
//
func AdderN(bits int) gatesim.NewPartFn {
	adderN := &gatesim.PartSpec{
		Name:    "Adder" + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: append(bus(bits, pOut), gatesim.PinDecl{Name: "c", Width: 1}),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			a, b := s.Pin(pA), s.Pin(pB)
			out, cout := s.Pin(pOut), s.Pin("c")
			r := make(gatesim.Signal, bits)
			return func(c *gatesim.State) {
				va, vb := c.Get(a), c.Get(b)
				cc := gatesim.Zero
				for i := range r {
					r[i], cc = add(va[i], vb[i], cc)
				}
				c.Set(out, r)
				c.SetBit(cout, cc)
			}
		}}
	return adderN.NewPart
}

// IncN returns a N-bits incrementer.
//
//	Inputs: in[bits]
//	Outputs: out[bits]
//	Function: out = in + 1
//
func IncN(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    "Inc" + strconv.Itoa(bits),
		Inputs:  bus(bits, pIn),
		Outputs: bus(bits, pOut),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, out := s.Pin(pIn), s.Pin(pOut)
			r := make(gatesim.Signal, bits)
			return func(c *gatesim.State) {
				v := c.Get(in)
				cc := gatesim.One
				for i := range r {
					r[i], cc = add(v[i], gatesim.Zero, cc)
				}
				c.Set(out, r)
			}
		}}).NewPart
}

// ComparatorN returns a N-bits unsigned comparator.
//
//	Inputs: a[bits], b[bits]
//	Outputs: lt, eq, gt
//
func ComparatorN(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    "Comparator" + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: gatesim.IO("lt, eq, gt"),
		Delay:   GateDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			a, b := s.Pin(pA), s.Pin(pB)
			lt, eq, gt := s.Pin("lt"), s.Pin("eq"), s.Pin("gt")
			return func(c *gatesim.State) {
				va, vb := c.Get(a), c.Get(b)
				x, okA := va.Uint64()
				y, okB := vb.Uint64()
				if !okA || !okB {
					v := gatesim.Unknown
					if va.HasError() || vb.HasError() {
						v = gatesim.Error
					}
					c.SetBit(lt, v)
					c.SetBit(eq, v)
					c.SetBit(gt, v)
					return
				}
				c.SetBit(lt, gatesim.FromBool(x < y))
				c.SetBit(eq, gatesim.FromBool(x == y))
				c.SetBit(gt, gatesim.FromBool(x > y))
			}
		}}).NewPart
}
