// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Status is the propagation status of a circuit.
//
type Status uint8

// Propagation states.
//
const (
	Idle        Status = iota // no pending events
	Stepping                  // events pending
	Oscillating               // halted until reset
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	}
	return "oscillating"
}

// A Change records the new value of a net at the end of a batch.
//
type Change struct {
	Net   string
	Value Signal
}

type net struct {
	name    string
	val     Signal // committed value
	tmp     Signal
	pull    Signal
	drivers []Pin
	readers []int
	input   bool
	changes int // since the state was last idle
	dirty   bool
}

type pinSlot struct {
	net   int
	drive Signal // committed drive
	next  Signal // drive set during the current batch
}

type comp struct {
	name  string
	fn    Component
	delay uint
	pins  map[string]Pin
	outs  []Pin
	sub   int // index in State.subs, -1 if not a chip
	clock bool
	fault error
}

// State is the simulation state of a netlist: net values, part states and
// pending events. A top-level State is owned by a Circuit; chip instances own
// a nested State each, stored in the subs arena of their host.
//
// Components access the State through Get and Set. Values set during a batch
// only become visible once the whole batch has been evaluated.
//
type State struct {
	nl     *netlist
	nets   []net
	pins   []pinSlot
	comps  []comp
	subs   []*State
	clocks []int
	inputs map[string]*stimulus
	q      queue
	now    uint64
	ticks  uint64
	limit  int
	iter   int
	status Status
	fault  *OscillationError
	pool   *pool

	batch     []int
	dirty     []int
	record    bool
	changes   []Change
	conflicts []string // nested ones prefixed with the instance path
}

func newState(nl *netlist, limit int) *State {
	s := &State{
		nl:     nl,
		nets:   make([]net, len(nl.nets)),
		comps:  make([]comp, len(nl.parts)),
		inputs: make(map[string]*stimulus),
		q:      newQueue(),
		limit:  limit,
	}
	for i, d := range nl.nets {
		s.nets[i] = net{
			name:  d.name,
			val:   NewSignal(d.width, Unknown),
			tmp:   NewSignal(d.width, Unknown),
			pull:  d.pull.Clone(),
			input: d.input,
		}
	}
	for i := range nl.parts {
		pl := &nl.parts[i]
		c := &s.comps[i]
		c.name, c.delay, c.sub = pl.name, pl.delay, -1
		c.pins = make(map[string]Pin, len(pl.pins))
		for _, r := range pl.pins {
			p := Pin(len(s.pins))
			w := len(s.nets[r.net].val)
			s.pins = append(s.pins, pinSlot{net: r.net, drive: NewSignal(w, Unknown), next: NewSignal(w, Unknown)})
			c.pins[r.name] = p
			n := &s.nets[r.net]
			if r.dir != In {
				c.outs = append(c.outs, p)
				n.drivers = append(n.drivers, p)
			}
			if r.dir != Out && (len(n.readers) == 0 || n.readers[len(n.readers)-1] != i) {
				n.readers = append(n.readers, i)
			}
		}
	}
	for i := range s.comps {
		s.comps[i].fn = nl.parts[i].spec.Mount(&Socket{s: s, comp: i})
	}
	for i := range s.nets {
		if n := &s.nets[i]; !n.input {
			v, _ := s.resolve(n)
			copy(n.val, v)
		}
	}
	for i := range s.comps {
		s.schedule(i, 0)
	}
	return s
}

// Get returns the committed value of the net connected to pin p. The returned
// Signal must not be modified.
//
func (s *State) Get(p Pin) Signal {
	return s.nets[s.pins[p].net].val
}

// Bit returns bit 0 of the net connected to pin p.
//
func (s *State) Bit(p Pin) Value {
	return s.nets[s.pins[p].net].val[0]
}

// Set sets the value driven by output pin p. The new value is committed at the
// end of the current batch. Set panics if the width of v does not match the
// width of p.
//
func (s *State) Set(p Pin, v Signal) {
	next := s.pins[p].next
	if len(v) != len(next) {
		panic(widthError("Set", len(next), len(v)))
	}
	copy(next, v)
}

// SetBit sets all bits driven by pin p to v.
//
func (s *State) SetBit(p Pin, v Value) {
	next := s.pins[p].next
	for i := range next {
		next[i] = v
	}
}

// Now returns the tick of the batch being processed.
//
func (s *State) Now() uint64 { return s.now }

// ClockTicks returns the number of clock half-periods elapsed since reset.
//
func (s *State) ClockTicks() uint64 { return s.ticks }

func (s *State) schedule(comp int, tick uint64) {
	if s.comps[comp].fn == nil {
		return
	}
	s.q.push(tick, comp)
}

// resolve computes the value of n from its drivers and pull. conflict is true
// if an Error bit results from defined drivers that disagree.
//
func (s *State) resolve(n *net) (v Signal, conflict bool) {
	v = n.tmp
	for i := range v {
		r := Unknown
		forced := false
		for _, p := range n.drivers {
			d := s.pins[p].drive[i]
			forced = forced || d == Error
			r = Combine(r, d)
		}
		if r == Error && !forced {
			conflict = true
		}
		if r == Unknown && n.pull != nil {
			r = n.pull[i]
		}
		v[i] = r
	}
	return v, conflict
}

// commit sets the value of net n and schedules its readers.
//
func (s *State) commit(n int, v Signal, conflict bool) {
	nt := &s.nets[n]
	if nt.val.Equal(v) {
		return
	}
	copy(nt.val, v)
	nt.changes++
	if s.record {
		s.changes = append(s.changes, Change{Net: nt.name, Value: nt.val.Clone()})
	}
	if conflict {
		s.conflicts = append(s.conflicts, nt.name)
	}
	for _, r := range nt.readers {
		s.schedule(r, s.now+uint64(s.comps[r].delay))
	}
}

// force sets the value of the chip input net n.
//
func (s *State) force(n int, v Signal) {
	s.commit(n, v, false)
	if s.q.Len() > 0 && s.status == Idle {
		s.status = Stepping
	}
}

// step processes all events scheduled for the lowest pending tick.
//
func (s *State) step() error {
	if s.status == Oscillating {
		return ErrHalted
	}
	if s.q.Len() == 0 {
		s.batch = s.batch[:0]
		s.settle()
		return nil
	}
	s.status = Stepping
	s.now, s.batch = s.q.popBatch(s.batch[:0])

	if s.pool != nil && len(s.batch) >= 2*s.pool.size() {
		s.pool.run(s, s.batch)
	} else {
		for _, ci := range s.batch {
			s.comps[ci].fn(s)
		}
	}

	s.dirty = s.dirty[:0]
	for _, ci := range s.batch {
		c := &s.comps[ci]
		if c.fault != nil {
			return s.halt(c)
		}
		if c.sub >= 0 {
			s.nestedConflicts(c)
		}
		for _, p := range c.outs {
			ps := &s.pins[p]
			if ps.next.Equal(ps.drive) {
				continue
			}
			copy(ps.drive, ps.next)
			if n := &s.nets[ps.net]; !n.dirty {
				n.dirty = true
				s.dirty = append(s.dirty, ps.net)
			}
		}
	}
	sort.Ints(s.dirty)
	for _, n := range s.dirty {
		s.nets[n].dirty = false
		v, conflict := s.resolve(&s.nets[n])
		s.commit(n, v, conflict)
	}

	s.iter++
	if s.limit > 0 && s.iter > s.limit && s.q.Len() > 0 {
		return s.oscillate()
	}
	if s.q.Len() == 0 {
		s.settle()
	}
	return nil
}

// drain processes batches until no events are left. ctx may be nil.
//
func (s *State) drain(ctx context.Context) error {
	if s.status == Oscillating {
		return ErrHalted
	}
	for s.q.Len() > 0 {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "propagation interrupted")
			}
		}
		if err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) settle() {
	s.status = Idle
	s.iter = 0
	for i := range s.nets {
		s.nets[i].changes = 0
	}
}

// oscillate halts the state and reports the nets that toggled more than once
// since the state was last idle.
//
func (s *State) oscillate() error {
	var nets []string
	for k := 2; len(nets) == 0 && k > 0; k-- {
		for i := range s.nets {
			if s.nets[i].changes >= k {
				nets = append(nets, s.nets[i].name)
			}
		}
	}
	sort.Strings(nets)
	s.status = Oscillating
	s.fault = &OscillationError{Tick: s.now, Nets: nets}
	return s.fault
}

// halt propagates the oscillation of a nested state.
//
func (s *State) halt(c *comp) error {
	var nets []string
	var oe *OscillationError
	if errors.As(c.fault, &oe) {
		for _, n := range oe.Nets {
			nets = append(nets, c.name+"/"+n)
		}
	}
	s.status = Oscillating
	s.fault = &OscillationError{Tick: s.now, Nets: nets}
	return s.fault
}

// nestedConflicts moves the conflicts found in the nested state of chip
// instance c to s, prefixed with the instance name.
//
func (s *State) nestedConflicts(c *comp) {
	sub := s.subs[c.sub]
	for _, n := range sub.conflicts {
		s.conflicts = append(s.conflicts, c.name+"/"+n)
	}
	sub.conflicts = sub.conflicts[:0]
}

// advance moves the clocks of s and all nested states by one half-period and
// schedules the clock sources, and the chips that contain any, for evaluation.
// It returns false if no clock was found.
//
func (s *State) advance() bool {
	s.ticks++
	found := false
	for _, ci := range s.clocks {
		s.schedule(ci, s.now)
		found = true
	}
	for ci := range s.comps {
		if sub := s.comps[ci].sub; sub >= 0 && s.subs[sub].advance() {
			s.schedule(ci, s.now)
			found = true
		}
	}
	if found && s.status == Idle {
		s.status = Stepping
	}
	return found
}

// lookup returns the net at the given path, where nested nets are addressed
// as "instance/net".
//
func (s *State) lookup(path string) (*net, error) {
	name, rest := path, ""
	if i := strings.IndexByte(path, '/'); i >= 0 {
		name, rest = path[:i], path[i+1:]
	}
	if rest == "" {
		n, ok := s.nl.index[name]
		if !ok {
			return nil, errors.Wrap(ErrUnknownNet, path)
		}
		return &s.nets[n], nil
	}
	ci, ok := s.nl.comps[name]
	if !ok || s.comps[ci].sub < 0 {
		return nil, errors.Wrap(ErrUnknownNet, path)
	}
	n, err := s.subs[s.comps[ci].sub].lookup(rest)
	if err != nil {
		return nil, errors.Wrap(ErrUnknownNet, path)
	}
	return n, nil
}

func (s *State) netNames() []string {
	names := make([]string, 0, len(s.nl.index))
	for k := range s.nl.index {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
