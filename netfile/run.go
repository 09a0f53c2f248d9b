// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package netfile

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/db47h/gatesim"
	"github.com/pkg/errors"
)

// A Failure is an expectation that did not hold.
//
type Failure struct {
	Step int // index of the step block
	Net  string
	Want string
	Got  string
}

func (f Failure) String() string {
	return "step " + strconv.Itoa(f.Step) + ": " + f.Net + ": expected " + f.Want + ", got " + f.Got
}

// Result is the outcome of a simulation.
//
type Result struct {
	Name     string
	Steps    int
	Ticks    uint64 // clock half-periods elapsed
	Failures []Failure
}

// Passed returns true if all expectations held.
//
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Circuit builds the test bench of s: an Input for each input of the top
// chip, except the clock input driven by a regular clock, and an instance of
// the top chip named after it. All top chip pins are connected to nets of the
// same name.
//
func (s *Simulation) Circuit(chips map[string]gatesim.NewPartFn, opts ...gatesim.Option) (*gatesim.Circuit, error) {
	top, ok := chips[s.Top]
	if !ok {
		return nil, errors.Errorf("simulation %s: unknown chip %s", s.Name, s.Top)
	}
	p := top("").As(s.Top)
	var parts gatesim.Parts
	var conns []string
	clock := false
	for _, d := range p.Inputs {
		conns = append(conns, d.Name+"="+d.Name)
		if d.Name == s.Clock {
			if d.Width != 1 {
				return nil, errors.Errorf("simulation %s: clock %s must be 1 bit wide", s.Name, d.Name)
			}
			parts = append(parts, gatesim.Clock(1, 1, 0)("out="+d.Name))
			clock = true
			continue
		}
		parts = append(parts, gatesim.Input(d.Width)("out="+d.Name))
	}
	if s.Clock != "" && !clock {
		return nil, errors.Errorf("simulation %s: %s is not an input of %s", s.Name, s.Clock, s.Top)
	}
	for _, d := range append(append([]gatesim.PinDecl(nil), p.Outputs...), p.Bidirs...) {
		conns = append(conns, d.Name+"="+d.Name)
	}
	parts = append(parts, top(strings.Join(conns, ", ")).As(s.Top))

	if s.IterationLimit > 0 {
		opts = append(opts, gatesim.WithIterationLimit(s.IterationLimit))
	}
	return gatesim.NewCircuit(parts, opts...)
}

// Run runs simulation s against the compiled chips. Expectation failures are
// reported in the Result; structural errors, oscillations and invalid
// stimulus are returned as errors.
//
func (s *Simulation) Run(ctx context.Context, chips map[string]gatesim.NewPartFn, opts ...gatesim.Option) (*Result, error) {
	c, err := s.Circuit(chips, opts...)
	if err != nil {
		return nil, err
	}
	defer c.Dispose()
	if err = c.Run(ctx); err != nil {
		return nil, errors.Wrapf(err, "simulation %s", s.Name)
	}

	r := &Result{Name: s.Name, Steps: len(s.Steps)}
	for i, st := range s.Steps {
		set, err := values(st.Set)
		if err != nil {
			return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
		}
		for _, name := range sortedKeys(set) {
			v, err := parseValue(c, name, set[name])
			if err != nil {
				return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
			}
			if err = c.SetInput(name, v); err != nil {
				return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
			}
		}
		if err = c.Run(ctx); err != nil {
			return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
		}
		if st.Tick > 0 {
			if err = c.Tick(ctx, st.Tick); err != nil {
				return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
			}
		}

		expect, err := values(st.Expect)
		if err != nil {
			return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
		}
		for _, name := range sortedKeys(expect) {
			want, err := parseValue(c, name, expect[name])
			if err != nil {
				return nil, errors.Wrapf(err, "simulation %s: step %d", s.Name, i)
			}
			got, _ := c.Query(name)
			if !got.Equal(want) {
				r.Failures = append(r.Failures, Failure{Step: i, Net: name, Want: want.String(), Got: got.String()})
			}
		}
	}
	r.Ticks = c.ClockTicks()
	return r, nil
}

// parseValue parses v with the width of the named net.
//
func parseValue(c *gatesim.Circuit, name string, v literal) (gatesim.Signal, error) {
	cur, err := c.Query(name)
	if err != nil {
		return nil, err
	}
	s, err := v.parse(cur.Width())
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return s, nil
}

func sortedKeys(m map[string]literal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
