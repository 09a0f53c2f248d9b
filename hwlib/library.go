// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/gatesim"
	"github.com/pkg/errors"
)

// checks that all params are > 0
func positive(p gatesim.Params, names ...string) error {
	for _, n := range names {
		if v, ok := p[n]; ok && v <= 0 {
			return errors.Errorf("invalid %s %d", n, v)
		}
	}
	return nil
}

// sized returns a factory for a part that has a 1 bit version and a bus
// version, selected by the width param.
//
func sized(one gatesim.NewPartFn, n func(bits int) gatesim.NewPartFn) gatesim.Factory {
	return func(p gatesim.Params) (gatesim.NewPartFn, error) {
		if err := positive(p, "width"); err != nil {
			return nil, err
		}
		if w := p.Int("width", 1); w != 1 || one == nil {
			return n(w), nil
		}
		return one, nil
	}
}

func fixed(fn gatesim.NewPartFn) gatesim.Factory {
	return func(gatesim.Params) (gatesim.NewPartFn, error) { return fn, nil }
}

func ff(kind FlipFlopKind) gatesim.Factory {
	return func(p gatesim.Params) (gatesim.NewPartFn, error) {
		t := p.Int("trigger", int(gatesim.Rising))
		if t < 0 || t > int(gatesim.Low) {
			return nil, errors.Errorf("invalid trigger %d", t)
		}
		return FlipFlop(kind, gatesim.Trigger(t)), nil
	}
}

// Library returns the parts of this package by type name, for use with
// gatesim.Design and the netfile package. Bus widths and other sizes are set
// with params; unless stated otherwise, the width param defaults to 1.
//
//	Not, And, Nand, Or, Nor, Xor, Xnor, Buffer, TriState, Mux, DMux: width
//	AndNWay, OrNWay: ways
//	MuxNWay: width, sel
//	HalfAdder, FullAdder, DFF
//	Adder, Inc, Comparator, Register, Counter, ShiftRegister: width
//	DFlipFlop, TFlipFlop, JKFlipFlop, SRFlipFlop: trigger (see gatesim.Trigger)
//	RAM: addr, width
//	Slice: width, lo, hi
//	Join: ways, width
//	Extend: from, to, mode (0: zero, 1: one, 2: sign)
//	PullUp, PullDown: width
//
func Library() gatesim.Library {
	return gatesim.Library{
		"Not":      sized(Not, NotN),
		"And":      sized(And, AndN),
		"Nand":     sized(Nand, NandN),
		"Or":       sized(Or, OrN),
		"Nor":      sized(Nor, NorN),
		"Xor":      sized(Xor, XorN),
		"Xnor":     sized(Xnor, XnorN),
		"Buffer":   sized(nil, Buffer),
		"TriState": sized(nil, TriState),
		"Mux":      sized(Mux, MuxN),
		"DMux":     sized(DMux, DMuxN),
		"AndNWay": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			if err := positive(p, "ways"); err != nil {
				return nil, err
			}
			return AndNWay(p.Int("ways", 2)), nil
		},
		"OrNWay": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			if err := positive(p, "ways"); err != nil {
				return nil, err
			}
			return OrNWay(p.Int("ways", 2)), nil
		},
		"MuxNWay": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			if err := positive(p, "width", "sel"); err != nil {
				return nil, err
			}
			return MuxNWay(p.Int("width", 1), p.Int("sel", 1)), nil
		},
		"HalfAdder":     fixed(HalfAdder),
		"FullAdder":     fixed(FullAdder),
		"Adder":         sized(nil, AdderN),
		"Inc":           sized(nil, IncN),
		"Comparator":    sized(nil, ComparatorN),
		"DFF":           fixed(DFF),
		"DFlipFlop":     ff(D),
		"TFlipFlop":     ff(T),
		"JKFlipFlop":    ff(JK),
		"SRFlipFlop":    ff(SR),
		"Register":      sized(nil, Register),
		"Counter":       sized(nil, Counter),
		"ShiftRegister": sized(nil, ShiftRegister),
		"RAM": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			if err := positive(p, "addr", "width"); err != nil {
				return nil, err
			}
			return RAM(p.Int("addr", 1), p.Int("width", 1)), nil
		},
		"Slice": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			w, lo := p.Int("width", 1), p.Int("lo", 0)
			hi := p.Int("hi", lo+1)
			if lo < 0 || hi > w || lo >= hi {
				return nil, errors.Errorf("invalid slice [%d:%d] of %d bits", lo, hi, w)
			}
			return Slice(w, lo, hi), nil
		},
		"Join": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			if err := positive(p, "ways", "width"); err != nil {
				return nil, err
			}
			ws := make([]int, p.Int("ways", 2))
			for i := range ws {
				ws[i] = p.Int("width", 1)
			}
			return Join(ws...), nil
		},
		"Extend": func(p gatesim.Params) (gatesim.NewPartFn, error) {
			if err := positive(p, "from", "to"); err != nil {
				return nil, err
			}
			m := p.Int("mode", ZeroExtend)
			if m < ZeroExtend || m > SignExtend {
				return nil, errors.Errorf("invalid extension mode %d", m)
			}
			return Extend(p.Int("from", 1), p.Int("to", 1), m), nil
		},
		"PullUp":   sized(nil, PullUp),
		"PullDown": sized(nil, PullDown),
	}
}
