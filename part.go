// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import "strconv"

// A Component is the behavior of a mounted part. It is called by the
// propagator whenever one of the part's input nets changes (after the part's
// propagation delay) and must compute the part's outputs from the current
// input values by calling c.Get and c.Set.
//
// Stateful parts keep their internal state in the closure. Components of a
// same batch may be called concurrently: a Component must only touch its own
// state and pins.
//
type Component func(c *State)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pins and return a closure around these pins.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: IO("in"),
//		Outputs: IO("out"),
//		Mount: func (s *Socket) Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return func (c *State) { c.Set(out, c.Get(in).Not()) }
//		}}
//
// A MountFn may return nil for parts that have no behavior of their own, like
// pull resistors.
//
type MountFn func(s *Socket) Component

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec:
//
//	notSpec := &gatesim.PartSpec{
//		Name: "Not",
//		Inputs: gatesim.IO("in"),
//		Outputs: gatesim.IO("out"),
//		Delay: 1,
//		Mount: func (s *gatesim.Socket) gatesim.Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return func (c *gatesim.State) { c.Set(out, c.Get(in).Not()) }
//		}}
//
// Then get a NewPartFn for that PartSpec:
//
//	var notGate = notSpec.NewPart
//
// Which can the be used when building other chips:
//
//	c, _ := Chip("dummy", "a, b", "c, d",
//		notGate("in=a, out=c"),
//		notGate("in=b, out=d"),
//	)
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pins. Input pins never drive their net.
	Inputs []PinDecl
	// Output pins, driven by the part's Component.
	Outputs []PinDecl
	// Bidirectional pins: the part reads their net and may drive it. A
	// part releases a bidirectional pin by setting it to Unknown.
	Bidirs []PinDecl

	// Propagation delay, in ticks, between a change on one of the input
	// nets and the re-evaluation of the part.
	Delay uint

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// Connections are checked when the part is used in a Chip.
//
func (p *PartSpec) NewPart(connections string) Part {
	return Part{PartSpec: p, Conns: connections}
}

func (p *PartSpec) pin(name string) (PinDecl, Dir, bool) {
	for _, d := range p.Inputs {
		if d.Name == name {
			return d, In, true
		}
	}
	for _, d := range p.Outputs {
		if d.Name == name {
			return d, Out, true
		}
	}
	for _, d := range p.Bidirs {
		if d.Name == name {
			return d, InOut, true
		}
	}
	return PinDecl{}, 0, false
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns string

	name     string
	delay    uint
	hasDelay bool
}

// As returns a copy of p with the given instance name. Instance names are used
// in error messages and to address nets of sub-circuits ("name/net").
//
func (p Part) As(name string) Part {
	p.name = name
	return p
}

// WithDelay returns a copy of p with its propagation delay overridden.
//
func (p Part) WithDelay(d uint) Part {
	p.delay, p.hasDelay = d, true
	return p
}

func (p *Part) instanceName(i int) string {
	if p.name != "" {
		return p.name
	}
	return p.PartSpec.Name + "#" + strconv.Itoa(i)
}

func (p *Part) effectiveDelay() uint {
	if p.hasDelay {
		return p.delay
	}
	return p.PartSpec.Delay
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// Dir is a pin direction.
//
type Dir uint8

// Pin directions.
//
const (
	In Dir = iota
	Out
	InOut
)

func (d Dir) String() string {
	switch d {
	case In:
		return "input"
	case Out:
		return "output"
	}
	return "bidirectional"
}
