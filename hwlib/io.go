// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/gatesim"
)

// Output creates an output or probe. The f function is called with the value
// of the connected net every time it changes.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(gatesim.Value)) gatesim.NewPartFn {
	p := &gatesim.PartSpec{
		Name:   "Output",
		Inputs: gatesim.IO(pIn),
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in := s.Pin(pIn)
			return func(c *gatesim.State) { f(c.Bit(in)) }
		},
	}
	return p.NewPart
}

// OutputN creates an output bus of the given bits size. f must not retain
// the Signal.
//
func OutputN(bits int, f func(gatesim.Signal)) gatesim.NewPartFn {
	return (&gatesim.PartSpec{
		Name:   suffix("OutputBus", bits),
		Inputs: bus(bits, pIn),
		Mount: func(s *gatesim.Socket) gatesim.Component {
			in := s.Pin(pIn)
			return func(c *gatesim.State) { f(c.Get(in)) }
		}}).NewPart
}

// Int64 returns the signal as an int64, or -1 if s is not fully defined.
// Bit 0 is lsb.
//
func Int64(s gatesim.Signal) int64 {
	u, ok := s.Uint64()
	if !ok {
		return -1
	}
	return int64(u)
}
