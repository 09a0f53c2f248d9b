// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

// Trigger is the clock condition on which a sequential part commits its state.
//
type Trigger uint8

// Supported triggers. Edge triggers fire once on a defined transition;
// level triggers fire on every evaluation while the clock holds the level.
//
const (
	Rising Trigger = iota
	Falling
	Both
	High
	Low
)

func (t Trigger) String() string {
	switch t {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	case Both:
		return "both"
	case High:
		return "high"
	}
	return "low"
}

// An EdgeDetector tracks the clock input of a sequential part. Its zero value
// is a rising edge detector whose previous clock value is Unknown.
//
// Transitions from or to Unknown or Error never trigger.
//
type EdgeDetector struct {
	Trigger Trigger
	prev    Value
}

// Update records clk as the current clock value and returns true if the part
// must commit its state.
//
func (e *EdgeDetector) Update(clk Value) bool {
	prev := e.prev
	e.prev = clk
	switch e.Trigger {
	case Rising:
		return prev == Zero && clk == One
	case Falling:
		return prev == One && clk == Zero
	case Both:
		return prev.Defined() && clk.Defined() && prev != clk
	case High:
		return clk == One
	case Low:
		return clk == Zero
	}
	return false
}
