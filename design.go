// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// Params holds the integer parameters of a part type, like a bus width.
//
type Params map[string]int

// Int returns the value of the named parameter, or def if it is not set.
//
func (p Params) Int(name string, def int) int {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// A Factory returns the NewPartFn of a parameterized part type.
//
type Factory func(p Params) (NewPartFn, error)

// A Library maps part type names to factories.
//
type Library map[string]Factory

// Merge returns a new library with the contents of l and others. Later
// libraries take precedence.
//
func (l Library) Merge(others ...Library) Library {
	r := make(Library, len(l))
	for k, v := range l {
		r[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			r[k] = v
		}
	}
	return r
}

// Builtins returns a library with the parts of this package: Input (param
// width), Clock (params high, low, phase) and Constant (params width, value).
//
func Builtins() Library {
	return Library{
		"Input": func(p Params) (NewPartFn, error) {
			w := p.Int("width", 1)
			if w <= 0 {
				return nil, errors.Errorf("invalid width %d", w)
			}
			return Input(w), nil
		},
		"Clock": func(p Params) (NewPartFn, error) {
			high, low, phase := p.Int("high", 1), p.Int("low", 1), p.Int("phase", 0)
			switch {
			case high <= 0:
				return nil, errors.Errorf("invalid high %d", high)
			case low <= 0:
				return nil, errors.Errorf("invalid low %d", low)
			case phase < 0:
				return nil, errors.Errorf("invalid phase %d", phase)
			}
			return Clock(uint(high), uint(low), uint(phase)), nil
		},
		"Constant": func(p Params) (NewPartFn, error) {
			w := p.Int("width", 1)
			if w <= 0 || w > 64 {
				return nil, errors.Errorf("invalid width %d", w)
			}
			return Constant(SignalOf(w, uint64(p.Int("value", 0)))), nil
		},
	}
}

// A PartDef places a part in a chip definition.
//
type PartDef struct {
	Type   string // chip name from the same design or library type
	Name   string // instance name, optional
	Conns  string // see ParseConnections
	Params Params
	Delay  *uint // overrides the part's delay if not nil
}

// A ChipDef is the declarative definition of a chip.
//
type ChipDef struct {
	Name    string
	Inputs  string // see ParseIO
	Outputs string
	Parts   []PartDef
}

// A Design is a set of chip definitions that may reference each other.
//
type Design struct {
	Chips []ChipDef
}

// Build compiles all chips of the design against lib. Chips may use other
// chips of the design regardless of their order in d.Chips; a chip that
// (directly or not) instantiates itself is reported as a *StructuralError
// whose Chain lists the offending instantiation chain.
//
func (d *Design) Build(lib Library) (map[string]NewPartFn, error) {
	defs := make(map[string]*ChipDef, len(d.Chips))
	for i := range d.Chips {
		c := &d.Chips[i]
		if _, ok := defs[c.Name]; ok {
			return nil, &StructuralError{Chip: c.Name, Reason: "duplicate chip definition"}
		}
		if _, ok := lib[c.Name]; ok {
			return nil, &StructuralError{Chip: c.Name, Reason: "chip name shadows library part"}
		}
		defs[c.Name] = c
	}

	b := &builder{lib: lib, defs: defs, built: make(map[string]NewPartFn), visiting: make(map[string]bool)}
	names := make([]string, 0, len(defs))
	for k := range defs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, err := b.build(n); err != nil {
			return nil, err
		}
	}
	return b.built, nil
}

type builder struct {
	lib      Library
	defs     map[string]*ChipDef
	built    map[string]NewPartFn
	visiting map[string]bool
	chain    []string
}

func (b *builder) build(name string) (NewPartFn, error) {
	if fn, ok := b.built[name]; ok {
		return fn, nil
	}
	if b.visiting[name] {
		i := len(b.chain) - 1
		for i > 0 && b.chain[i] != name {
			i--
		}
		chain := append(append([]string(nil), b.chain[i:]...), name)
		return nil, &StructuralError{Chip: name, Chain: chain, Reason: "instantiation cycle"}
	}
	def := b.defs[name]
	b.visiting[name] = true
	b.chain = append(b.chain, name)
	defer func() {
		b.chain = b.chain[:len(b.chain)-1]
		delete(b.visiting, name)
	}()

	parts := make(Parts, 0, len(def.Parts))
	for i, pd := range def.Parts {
		var fn NewPartFn
		if _, ok := b.defs[pd.Type]; ok {
			var err error
			if fn, err = b.build(pd.Type); err != nil {
				return nil, err
			}
		} else if f, ok := b.lib[pd.Type]; ok {
			var err error
			if fn, err = f(pd.Params); err != nil {
				return nil, &StructuralError{Chip: name, Part: partName(pd, i), Reason: err.Error()}
			}
		} else {
			return nil, &StructuralError{Chip: name, Part: partName(pd, i), Reason: "unknown part type " + pd.Type}
		}
		p := fn(pd.Conns)
		if pd.Name != "" {
			p = p.As(pd.Name)
		}
		if pd.Delay != nil {
			p = p.WithDelay(*pd.Delay)
		}
		parts = append(parts, p)
	}
	fn, err := Chip(name, def.Inputs, def.Outputs, parts...)
	if err != nil {
		return nil, err
	}
	b.built[name] = fn
	return fn, nil
}

func partName(pd PartDef, i int) string {
	if pd.Name != "" {
		return pd.Name
	}
	return pd.Type + "#" + strconv.Itoa(i)
}
