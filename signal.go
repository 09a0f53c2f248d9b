// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Signal is the value of a bus: one Value per bit, bit 0 being the least
// significant bit. The width of a Signal is its length.
//
type Signal []Value

// NewSignal returns a Signal of the given width with all bits set to v.
//
func NewSignal(width int, v Value) Signal {
	s := make(Signal, width)
	if v != Unknown {
		for i := range s {
			s[i] = v
		}
	}
	return s
}

// SignalOf returns a Signal of the given width holding the low bits of u.
//
func SignalOf(width int, u uint64) Signal {
	s := make(Signal, width)
	for i := range s {
		s[i] = FromBool(i < 64 && u&(1<<uint(i)) != 0)
	}
	return s
}

// Bit returns a 1 bit Signal.
//
func Bit(v Value) Signal { return Signal{v} }

// Width returns the bus width of s.
//
func (s Signal) Width() int { return len(s) }

// Defined returns true if all bits of s are Zero or One.
//
func (s Signal) Defined() bool {
	for _, v := range s {
		if !v.Defined() {
			return false
		}
	}
	return true
}

// HasError returns true if any bit of s is Error.
//
func (s Signal) HasError() bool {
	for _, v := range s {
		if v == Error {
			return true
		}
	}
	return false
}

// Uint64 returns the value of s as an unsigned integer. ok is false if s is
// wider than 64 bits or not fully defined.
//
func (s Signal) Uint64() (u uint64, ok bool) {
	if len(s) > 64 || !s.Defined() {
		return 0, false
	}
	for i, v := range s {
		if v == One {
			u |= 1 << uint(i)
		}
	}
	return u, true
}

// Int64 is like Uint64 but sign extends s.
//
func (s Signal) Int64() (int64, bool) {
	u, ok := s.Uint64()
	if !ok || len(s) == 0 {
		return 0, ok
	}
	if w := uint(len(s)); w < 64 && s[w-1] == One {
		u |= ^uint64(0) << w
	}
	return int64(u), true
}

// Equal returns true if s and t have the same width and bit values.
//
func (s Signal) Equal(t Signal) bool {
	if len(s) != len(t) {
		return false
	}
	for i := range s {
		if s[i] != t[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s.
//
func (s Signal) Clone() Signal {
	return append(Signal(nil), s...)
}

// Combine returns the bitwise combination of s and t. It panics if the widths
// differ.
//
func (s Signal) Combine(t Signal) Signal {
	return s.bitwise(t, Combine)
}

// Not returns the bitwise complement of s.
//
func (s Signal) Not() Signal {
	r := make(Signal, len(s))
	for i, v := range s {
		r[i] = v.Not()
	}
	return r
}

// And returns the bitwise AND of s and t. It panics if the widths differ.
//
func (s Signal) And(t Signal) Signal { return s.bitwise(t, Value.And) }

// Or returns the bitwise OR of s and t. It panics if the widths differ.
//
func (s Signal) Or(t Signal) Signal { return s.bitwise(t, Value.Or) }

// Xor returns the bitwise XOR of s and t. It panics if the widths differ.
//
func (s Signal) Xor(t Signal) Signal { return s.bitwise(t, Value.Xor) }

func (s Signal) bitwise(t Signal, f func(a, b Value) Value) Signal {
	if len(s) != len(t) {
		panic(errors.Errorf("width mismatch: %d != %d", len(s), len(t)))
	}
	r := make(Signal, len(s))
	for i := range s {
		r[i] = f(s[i], t[i])
	}
	return r
}

// String returns the bits of s, most significant bit first.
//
func (s Signal) String() string {
	var b strings.Builder
	b.Grow(len(s))
	for i := len(s) - 1; i >= 0; i-- {
		b.WriteString(s[i].String())
	}
	return b.String()
}

// Hex returns s formatted as a hexadecimal literal. Nibbles containing
// undefined bits are printed as x, or E if any of their bits is Error.
//
func (s Signal) Hex() string {
	var b strings.Builder
	b.WriteString("0x")
	for n := (len(s)+3)/4 - 1; n >= 0; n-- {
		var d uint
		var x, e bool
		for i := 0; i < 4 && n*4+i < len(s); i++ {
			switch s[n*4+i] {
			case One:
				d |= 1 << uint(i)
			case Unknown:
				x = true
			case Error:
				e = true
			}
		}
		switch {
		case e:
			b.WriteByte('E')
		case x:
			b.WriteByte('x')
		default:
			b.WriteString(strconv.FormatUint(uint64(d), 16))
		}
	}
	return b.String()
}

// ParseSignal parses the literal s into a Signal of the given width.
//
// Supported forms are "true" and "false" (all bits set or cleared), a
// hexadecimal number prefixed with 0x, an octal number prefixed with 0o, a
// binary number prefixed with 0b, a string of exactly width binary digits, or
// a decimal number (with an optional minus sign for two's complement values).
// In hexadecimal, octal and binary forms, the digit x marks Unknown bits and,
// in binary form only, E marks Error bits.
//
// Use ParseInt for numbers that must never be read as binary digits.
//
func ParseSignal(width int, s string) (Signal, error) {
	if width <= 0 {
		return nil, errors.Errorf("invalid width %d", width)
	}
	switch s {
	case "true":
		return NewSignal(width, One), nil
	case "false":
		return NewSignal(width, Zero), nil
	case "":
		return nil, errors.New("empty literal")
	}
	switch {
	case strings.HasPrefix(s, "0x"):
		return parseRadix(width, s, s[2:], 4)
	case strings.HasPrefix(s, "0o"):
		return parseRadix(width, s, s[2:], 3)
	case strings.HasPrefix(s, "0b"):
		return parseRadix(width, s, s[2:], 1)
	case len(s) == width && strings.Trim(s, "01xE") == "":
		return parseRadix(width, s, s, 1)
	}
	return ParseInt(width, s)
}

// ParseInt parses the decimal literal s, with an optional minus sign for
// two's complement values, into a Signal of the given width.
//
func ParseInt(width int, s string) (Signal, error) {
	if width <= 0 {
		return nil, errors.Errorf("invalid width %d", width)
	}
	if s == "" {
		return nil, errors.New("empty literal")
	}
	if s[0] == '-' {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid literal %q", s)
		}
		if width < 64 && i < -(1<<uint(width-1)) {
			return nil, errors.Errorf("literal %q overflows %d bits", s, width)
		}
		r := SignalOf(width, uint64(i))
		for j := 64; j < width; j++ {
			r[j] = One
		}
		return r, nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid literal %q", s)
	}
	if width < 64 && u>>uint(width) != 0 {
		return nil, errors.Errorf("literal %q overflows %d bits", s, width)
	}
	return SignalOf(width, u), nil
}

func parseRadix(width int, lit, digits string, bits int) (Signal, error) {
	if digits == "" {
		return nil, errors.Errorf("invalid literal %q", lit)
	}
	r := make(Signal, width)
	pos := 0
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		var d uint
		fill := Value(0)
		switch {
		case c == 'x' || c == 'X':
			fill = Unknown
		case c == 'E' && bits == 1:
			fill = Error
		case '0' <= c && c <= '9':
			d = uint(c - '0')
		case 'a' <= c && c <= 'f':
			d = uint(c-'a') + 10
		case 'A' <= c && c <= 'F':
			d = uint(c-'A') + 10
		default:
			return nil, errors.Errorf("unexpected character %q in %q", c, lit)
		}
		if d>>uint(bits) != 0 {
			return nil, errors.Errorf("unexpected character %q in %q", c, lit)
		}
		undef := c == 'x' || c == 'X' || c == 'E'
		for b := 0; b < bits; b++ {
			v := FromBool(d&(1<<uint(b)) != 0)
			if undef {
				v = fill
			}
			if pos >= width {
				if v != Zero {
					return nil, errors.Errorf("literal %q overflows %d bits", lit, width)
				}
			} else {
				r[pos] = v
			}
			pos++
		}
	}
	for ; pos < width; pos++ {
		r[pos] = Zero
	}
	return r, nil
}
