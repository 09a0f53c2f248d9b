// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import "time"

// An Observer receives notifications from a Circuit. Notifications are
// delivered in order, after the circuit operation that caused them has
// released the circuit lock, so that observers may call Query.
//
type Observer interface {
	// Changed is called once per completed batch with the nets whose value
	// changed during that batch.
	Changed(tick uint64, changes []Change)
	// Conflict is called when nets take an Error value because of
	// conflicting drivers.
	Conflict(tick uint64, nets []string)
	// Halted is called when the circuit stops on an oscillation.
	Halted(err *OscillationError)
}

// Funcs adapts functions to the Observer interface. Nil fields are ignored.
//
type Funcs struct {
	OnChange   func(tick uint64, changes []Change)
	OnConflict func(tick uint64, nets []string)
	OnHalt     func(err *OscillationError)
}

// Changed implements Observer.
func (f Funcs) Changed(tick uint64, changes []Change) {
	if f.OnChange != nil {
		f.OnChange(tick, changes)
	}
}

// Conflict implements Observer.
func (f Funcs) Conflict(tick uint64, nets []string) {
	if f.OnConflict != nil {
		f.OnConflict(tick, nets)
	}
}

// Halted implements Observer.
func (f Funcs) Halted(err *OscillationError) {
	if f.OnHalt != nil {
		f.OnHalt(err)
	}
}

// A Recorder collects propagation statistics. See the metrics package for a
// Prometheus implementation.
//
type Recorder interface {
	Batch(events, changes int)
	Conflicts(n int)
	Oscillation()
	Drain(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) Batch(int, int)        {}
func (nopRecorder) Conflicts(int)         {}
func (nopRecorder) Oscillation()          {}
func (nopRecorder) Drain(d time.Duration) {}

type note struct {
	tick      uint64
	changes   []Change
	conflicts []string
	halt      *OscillationError
}
