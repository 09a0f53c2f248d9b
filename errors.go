// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Errors returned by Circuit methods.
//
var (
	ErrHalted       = errors.New("simulation halted")
	ErrUnknownNet   = errors.New("unknown net")
	ErrUnknownInput = errors.New("unknown input")
	ErrNoParts      = errors.New("empty part list")
)

// A StructuralError reports a malformed netlist. It is returned by Chip and
// Design.Build, never during simulation.
//
type StructuralError struct {
	Chip   string   // chip being built
	Part   string   // offending part instance, if any
	Pin    string   // offending pin of Part, if any
	Net    string   // offending net, if any
	Chain  []string // instantiation chain, for cycles
	Reason string
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	if e.Chip != "" {
		b.WriteString(e.Chip)
		b.WriteString(": ")
	}
	switch {
	case e.Part != "" && e.Pin != "":
		b.WriteString(e.Part + "." + e.Pin + ": ")
	case e.Part != "":
		b.WriteString(e.Part + ": ")
	}
	b.WriteString(e.Reason)
	if len(e.Chain) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Chain, " -> "))
		b.WriteString(")")
	}
	return b.String()
}

// An OscillationError reports a circuit whose propagation did not settle
// within the iteration budget. Nets lists the nets that kept toggling, nested
// nets being prefixed by the path of their sub-circuit instance ("u1/q").
//
type OscillationError struct {
	Tick uint64
	Nets []string
}

func (e *OscillationError) Error() string {
	return "oscillation detected at tick " + strconv.FormatUint(e.Tick, 10) + ": " + strings.Join(e.Nets, ", ")
}

// IsOscillation returns true if err is or wraps an *OscillationError.
//
func IsOscillation(err error) bool {
	var oe *OscillationError
	return errors.As(err, &oe)
}

func widthError(name string, want, got int) error {
	return errors.Errorf("%s: width mismatch: expected %d bits, got %d", name, want, got)
}
