// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

// A Pin identifies a mounted pin in a circuit State. Pins are obtained from
// a Socket when mounting a part.
//
type Pin int

// A Socket maps a part's pin names to pins in a circuit state.
//
type Socket struct {
	s    *State
	comp int
}

// Name returns the instance name of the part being mounted.
//
func (s *Socket) Name() string {
	return s.s.comps[s.comp].name
}

// Pin returns the pin allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) Pin {
	p, ok := s.s.comps[s.comp].pins[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return p
}

// Width returns the bus width of the named pin.
//
func (s *Socket) Width(name string) int {
	return len(s.s.pins[s.Pin(name)].drive)
}

// Net returns the name of the net connected to the named pin.
//
func (s *Socket) Net(name string) string {
	return s.s.nets[s.s.pins[s.Pin(name)].net].name
}

// Pull declares a pull value for the net connected to the named pin: bits of
// the net that no part drives read as v instead of Unknown.
//
func (s *Socket) Pull(name string, v Value) {
	n := &s.s.nets[s.s.pins[s.Pin(name)].net]
	p := NewSignal(len(n.val), v)
	if n.pull != nil {
		p = p.Combine(n.pull)
	}
	n.pull = p
}

// Clock marks the part as a clock source. Clock sources are re-evaluated each
// time the simulation clock advances by one half-period (see Circuit.Tick),
// and read the number of elapsed half-periods with State.ClockTicks.
//
func (s *Socket) Clock() {
	s.s.comps[s.comp].clock = true
	s.s.clocks = append(s.s.clocks, s.comp)
}

// Input registers the part as an external stimulus source named after the
// net connected to the given pin. Circuit.SetInput calls set with the new
// value then schedules the part for evaluation.
//
func (s *Socket) Input(pin string, set func(v Signal)) {
	s.s.inputs[s.Net(pin)] = &stimulus{comp: s.comp, width: s.Width(pin), set: set}
}

// nest creates the nested state of a sub-circuit instance.
//
func (s *Socket) nest(nl *netlist) *State {
	sub := newState(nl, s.s.limit)
	s.s.comps[s.comp].sub = len(s.s.subs)
	s.s.subs = append(s.s.subs, sub)
	return sub
}

type stimulus struct {
	comp  int
	width int
	set   func(Signal)
}
