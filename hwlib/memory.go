// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/gatesim"
)

// RAM returns a random access memory of 1<<addrBits words of dataBits bits
// with a single bidirectional data port. All words are Zero after reset.
//
// While oe is One, the RAM drives data with the word at addr. Otherwise the
// data port is released so that other parts can drive it. On a rising edge of
// clk with we One, the value of the data net is stored at addr.
//
//	Inputs: addr[addrBits], we, oe, clk
//	Bidirectional: data[dataBits]
//
func RAM(addrBits, dataBits int) gatesim.NewPartFn {
	words := 1 << uint(addrBits)
	return (&gatesim.PartSpec{
		Name:   "RAM" + strconv.Itoa(words) + "x" + strconv.Itoa(dataBits),
		Inputs: append([]gatesim.PinDecl{{Name: "addr", Width: addrBits}}, gatesim.IO("we, oe, clk")...),
		Bidirs: []gatesim.PinDecl{{Name: "data", Width: dataBits}},
		Delay:  MemDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			addr, we, oe, clk := s.Pin("addr"), s.Pin("we"), s.Pin("oe"), s.Pin(pClk)
			data := s.Pin("data")
			mem := make([]gatesim.Signal, words)
			for i := range mem {
				mem[i] = gatesim.NewSignal(dataBits, gatesim.Zero)
			}
			var e gatesim.EdgeDetector
			return func(c *gatesim.State) {
				a, ok := c.Get(addr).Uint64()
				if e.Update(c.Bit(clk)) && c.Bit(we) == gatesim.One && ok {
					copy(mem[a], c.Get(data))
				}
				switch {
				case c.Bit(oe) != gatesim.One:
					c.SetBit(data, gatesim.Unknown)
				case ok:
					c.Set(data, mem[a])
				default:
					c.SetBit(data, gatesim.Error)
				}
			}
		}}).NewPart
}

// ROM returns a read only memory of 1<<addrBits words of dataBits bits
// initialized with contents. Missing words are Zero.
//
//	Inputs: addr[addrBits]
//	Outputs: out[dataBits]
//
func ROM(addrBits, dataBits int, contents []uint64) gatesim.NewPartFn {
	words := 1 << uint(addrBits)
	mem := make([]gatesim.Signal, words)
	for i := range mem {
		var v uint64
		if i < len(contents) {
			v = contents[i]
		}
		mem[i] = gatesim.SignalOf(dataBits, v)
	}
	return (&gatesim.PartSpec{
		Name:    "ROM" + strconv.Itoa(words) + "x" + strconv.Itoa(dataBits),
		Inputs:  []gatesim.PinDecl{{Name: "addr", Width: addrBits}},
		Outputs: bus(dataBits, pOut),
		Delay:   MemDelay,
		Mount: func(s *gatesim.Socket) gatesim.Component {
			addr, out := s.Pin("addr"), s.Pin(pOut)
			return func(c *gatesim.State) {
				v := c.Get(addr)
				if a, ok := v.Uint64(); ok {
					c.Set(out, mem[a])
				} else if v.HasError() {
					c.SetBit(out, gatesim.Error)
				} else {
					c.SetBit(out, gatesim.Unknown)
				}
			}
		}}).NewPart
}
