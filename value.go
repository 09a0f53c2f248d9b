// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

// A Value is the state of a single bit on a net.
//
// The zero value is Unknown, the state of a floating (undriven) wire.
//
type Value uint8

// Bit values.
//
const (
	Unknown Value = iota // floating
	Zero
	One
	Error // conflicting drivers, or propagated from an Error input
)

// Combine returns the value of a net driven by both a and b.
//
// Combine is commutative, associative and idempotent. Unknown is the identity
// element and Error is absorbing; two distinct defined values combine into
// Error.
//
func Combine(a, b Value) Value {
	switch {
	case a == b || b == Unknown:
		return a
	case a == Unknown:
		return b
	}
	return Error
}

// FromBool returns One if b is true, Zero otherwise.
//
func FromBool(b bool) Value {
	if b {
		return One
	}
	return Zero
}

// Defined returns true if v is Zero or One.
//
func (v Value) Defined() bool {
	return v == Zero || v == One
}

// Not returns the logical complement of v. Unknown and Error are preserved.
//
func (v Value) Not() Value {
	switch v {
	case Zero:
		return One
	case One:
		return Zero
	}
	return v
}

// And returns v AND w. A Zero operand dominates; otherwise Error wins over
// Unknown.
//
func (v Value) And(w Value) Value {
	if v == Zero || w == Zero {
		return Zero
	}
	return undefined(v, w, One)
}

// Or returns v OR w. A One operand dominates; otherwise Error wins over
// Unknown.
//
func (v Value) Or(w Value) Value {
	if v == One || w == One {
		return One
	}
	return undefined(v, w, Zero)
}

// Xor returns v XOR w. Any undefined operand makes the result undefined.
//
func (v Value) Xor(w Value) Value {
	if v.Defined() && w.Defined() {
		return FromBool(v != w)
	}
	return undefined(v, w, Unknown)
}

// undefined returns Error or Unknown if either v or w is, def otherwise.
func undefined(v, w, def Value) Value {
	switch {
	case v == Error || w == Error:
		return Error
	case v == Unknown || w == Unknown:
		return Unknown
	}
	return def
}

func (v Value) String() string {
	switch v {
	case Zero:
		return "0"
	case One:
		return "1"
	case Error:
		return "E"
	}
	return "x"
}
