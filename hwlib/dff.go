// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/gatesim"
)

// MemDelay is the propagation delay of sequential parts.
//
const MemDelay = 1

var dff = &gatesim.PartSpec{
	Name:    "DFF",
	Inputs:  gatesim.IO("in, clk"),
	Outputs: gatesim.IO(pOut),
	Delay:   MemDelay,
	Mount: func(s *gatesim.Socket) gatesim.Component {
		in, clk, out := s.Pin(pIn), s.Pin(pClk), s.Pin(pOut)
		var e gatesim.EdgeDetector
		cur := gatesim.Zero
		return func(c *gatesim.State) {
			if e.Update(c.Bit(clk)) {
				if v := c.Bit(in); v.Defined() {
					cur = v
				}
			}
			c.SetBit(out, cur)
		}
	}}

// DFF returns a data flip flop triggered on the rising edge of clk. Its
// output is Zero until the first edge.
//
//	Inputs: in, clk
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(w string) gatesim.Part {
	return dff.NewPart(w)
}

// A FlipFlopKind selects the next state function of a flip flop.
//
type FlipFlopKind uint8

// Supported flip flops.
//
const (
	D  FlipFlopKind = iota // inputs: d
	T                      // inputs: t
	JK                     // inputs: j, k
	SR                     // inputs: s, r
)

var ffKinds = [...]struct {
	name   string
	inputs string
	next   func(in []gatesim.Value, cur gatesim.Value) gatesim.Value
}{
	D: {"DFlipFlop", "d", func(in []gatesim.Value, _ gatesim.Value) gatesim.Value { return in[0] }},
	T: {"TFlipFlop", "t", func(in []gatesim.Value, cur gatesim.Value) gatesim.Value {
		return in[0].Xor(cur)
	}},
	JK: {"JKFlipFlop", "j, k", func(in []gatesim.Value, cur gatesim.Value) gatesim.Value {
		j, k := in[0], in[1]
		switch {
		case j == gatesim.One && k == gatesim.One:
			return cur.Not()
		case j == gatesim.One && k == gatesim.Zero:
			return gatesim.One
		case j == gatesim.Zero && k == gatesim.One:
			return gatesim.Zero
		case j == gatesim.Zero && k == gatesim.Zero:
			return cur
		}
		return gatesim.Unknown
	}},
	SR: {"SRFlipFlop", "s, r", func(in []gatesim.Value, cur gatesim.Value) gatesim.Value {
		s, r := in[0], in[1]
		switch {
		case s == gatesim.Zero && r == gatesim.Zero:
			return cur
		case s == gatesim.One && r == gatesim.Zero:
			return gatesim.One
		case s == gatesim.Zero && r == gatesim.One:
			return gatesim.Zero
		}
		return gatesim.Error
	}},
}

func (k FlipFlopKind) String() string {
	if int(k) < len(ffKinds) {
		return ffKinds[k].name
	}
	return "FlipFlopKind(" + strconv.Itoa(int(k)) + ")"
}

// FlipFlop returns a flip flop of the given kind with asynchronous clear and
// preset. A clear or preset held at One overrides the clock, clear taking
// precedence. On a clock trigger, the state only changes if the next state is
// defined.
//
//	Inputs: <kind inputs>, clk, clr, pre
//	Outputs: q, nq
//
func FlipFlop(kind FlipFlopKind, trigger gatesim.Trigger) gatesim.NewPartFn {
	k := ffKinds[kind]
	ins := append(gatesim.IO(k.inputs), gatesim.IO("clk, clr, pre")...)
	return (&gatesim.PartSpec{
		Name:    k.name,
		Inputs:  ins,
		Outputs: gatesim.IO("q, nq"),
		Delay:   MemDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			n := len(ins) - 3
			in := make([]gatesim.Pin, n)
			for i := range in {
				in[i] = s.Pin(ins[i].Name)
			}
			clk, clr, pre := s.Pin("clk"), s.Pin("clr"), s.Pin("pre")
			q, nq := s.Pin("q"), s.Pin("nq")
			e := gatesim.EdgeDetector{Trigger: trigger}
			cur := gatesim.Zero
			vals := make([]gatesim.Value, n)
			return func(c *gatesim.State) {
				triggered := e.Update(c.Bit(clk))
				switch {
				case c.Bit(clr) == gatesim.One:
					cur = gatesim.Zero
				case c.Bit(pre) == gatesim.One:
					cur = gatesim.One
				case triggered:
					for i, p := range in {
						vals[i] = c.Bit(p)
					}
					if v := k.next(vals, cur); v.Defined() {
						cur = v
					}
				}
				c.SetBit(q, cur)
				c.SetBit(nq, cur.Not())
			}
		}}).NewPart
}

// Register returns a N-bits register triggered on the rising edge of clk.
// clr asynchronously resets the register to Zero.
//
//	Inputs: in[bits], load, clr, clk
//	Outputs: out[bits]
//	Function: if clr { out = 0 } else if load && rising(clk) { out = in }
//
func Register(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    suffix("Register", bits),
		Inputs:  append(bus(bits, pIn), gatesim.IO("load, clr, clk")...),
		Outputs: bus(bits, pOut),
		Delay:   MemDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, load, clr, clk, out := s.Pin(pIn), s.Pin("load"), s.Pin("clr"), s.Pin(pClk), s.Pin(pOut)
			var e gatesim.EdgeDetector
			cur := gatesim.NewSignal(bits, gatesim.Zero)
			return func(c *gatesim.State) {
				triggered := e.Update(c.Bit(clk))
				switch {
				case c.Bit(clr) == gatesim.One:
					cur = gatesim.NewSignal(bits, gatesim.Zero)
				case triggered && c.Bit(load) == gatesim.One:
					copy(cur, c.Get(in))
				}
				c.Set(out, cur)
			}
		}}).NewPart
}

// Counter returns a N-bits counter triggered on the rising edge of clk. The
// counter wraps to zero after its maximum value. carry is One while the
// counter is enabled and holds its maximum value.
//
//	Inputs: in[bits], load, en, clr, clk
//	Outputs: out[bits], carry
//	Function: if clr { out = 0 } else if rising(clk) { if load { out = in } else if en { out++ } }
//
func Counter(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    suffix("Counter", bits),
		Inputs:  append(bus(bits, pIn), gatesim.IO("load, en, clr, clk")...),
		Outputs: append(bus(bits, pOut), gatesim.PinDecl{Name: "carry", Width: 1}),
		Delay:   MemDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, load, en, clr, clk := s.Pin(pIn), s.Pin("load"), s.Pin(pEn), s.Pin("clr"), s.Pin(pClk)
			out, carry := s.Pin(pOut), s.Pin("carry")
			var e gatesim.EdgeDetector
			cur := gatesim.NewSignal(bits, gatesim.Zero)
			top := gatesim.NewSignal(bits, gatesim.One)
			inc := func() {
				cc := gatesim.One
				for i := range cur {
					cur[i], cc = add(cur[i], gatesim.Zero, cc)
				}
			}
			return func(c *gatesim.State) {
				triggered := e.Update(c.Bit(clk))
				enabled := c.Bit(en) == gatesim.One
				switch {
				case c.Bit(clr) == gatesim.One:
					cur = gatesim.NewSignal(bits, gatesim.Zero)
				case !triggered:
				case c.Bit(load) == gatesim.One:
					copy(cur, c.Get(in))
				case enabled:
					inc()
				}
				c.Set(out, cur)
				c.SetBit(carry, gatesim.FromBool(enabled && cur.Equal(top)))
			}
		}}).NewPart
}

// ShiftRegister returns a N-bits serial-in parallel-out shift register.
// On each rising edge of clk, bits move one position towards the msb and bit
// 0 takes the value of in.
//
//	Inputs: in, clk
//	Outputs: out[bits]
//
func ShiftRegister(bits int) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:    "ShiftRegister" + strconv.Itoa(bits),
		Inputs:  gatesim.IO("in, clk"),
		Outputs: bus(bits, pOut),
		Delay:   MemDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in, clk, out := s.Pin(pIn), s.Pin(pClk), s.Pin(pOut)
			var e gatesim.EdgeDetector
			cur := gatesim.NewSignal(bits, gatesim.Zero)
			return func(c *gatesim.State) {
				if e.Update(c.Bit(clk)) {
					copy(cur[1:], cur[:bits-1])
					cur[0] = c.Bit(in)
				}
				c.Set(out, cur)
			}
		}}).NewPart
}
