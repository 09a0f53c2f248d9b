// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A PinDecl declares a part or chip pin and its bus width.
//
type PinDecl struct {
	Name  string
	Width int
}

func (p PinDecl) String() string {
	if p.Width == 1 {
		return p.Name
	}
	return p.Name + "[" + strconv.Itoa(p.Width) + "]"
}

// ParseIO parses a pin specification string like "a, b, sel[2]" where a
// bracketed number is the bus width of the pin (1 if omitted).
//
func ParseIO(spec string) ([]PinDecl, error) {
	var out []PinDecl
	seen := make(map[string]bool)
	for _, f := range strings.Split(spec, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			if len(strings.TrimSpace(spec)) == 0 {
				break
			}
			return nil, parseError(spec, "empty pin name")
		}
		d := PinDecl{Name: f, Width: 1}
		if i := strings.IndexByte(f, '['); i >= 0 {
			if !strings.HasSuffix(f, "]") {
				return nil, parseError(spec, "missing close bracket after "+f[:i])
			}
			w, err := strconv.Atoi(f[i+1 : len(f)-1])
			if err != nil || w <= 0 {
				return nil, parseError(spec, "invalid bus size for "+f[:i])
			}
			d.Name, d.Width = strings.TrimSpace(f[:i]), w
		}
		if !isIdent(d.Name) {
			return nil, parseError(spec, "invalid pin name "+strconv.Quote(d.Name))
		}
		if seen[d.Name] {
			return nil, parseError(spec, "duplicate pin name "+d.Name)
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out, nil
}

// IO is like ParseIO but panics on error. It is meant for static part
// declarations.
//
func IO(spec string) []PinDecl {
	p, err := ParseIO(spec)
	if err != nil {
		panic(err)
	}
	return p
}

// A Connection connects the pin of a part to a net in its host chip.
//
type Connection struct {
	Pin string
	Net string // net name or constant literal
}

// ParseConnections parses a connection string like "a=x, b=true, out=y, out=z"
// into a list of connections. An output pin may appear several times to
// connect it to several nets, which are then merged into a single net.
//
func ParseConnections(c string) ([]Connection, error) {
	var out []Connection
	if strings.TrimSpace(c) == "" {
		return nil, nil
	}
	for _, f := range strings.Split(c, ",") {
		i := strings.IndexAny(f, "=:")
		if i < 0 {
			return nil, parseError(c, "expected pin=net in "+strconv.Quote(strings.TrimSpace(f)))
		}
		k, v := strings.TrimSpace(f[:i]), strings.TrimSpace(f[i+1:])
		if !isIdent(k) {
			return nil, parseError(c, "invalid pin name "+strconv.Quote(k))
		}
		if !isIdent(v) && !isLiteral(v) {
			return nil, parseError(c, "invalid net name "+strconv.Quote(v))
		}
		out = append(out, Connection{k, v})
	}
	return out, nil
}

// isLiteral returns true if s is a constant value rather than a net name.
//
func isLiteral(s string) bool {
	if s == "true" || s == "false" {
		return true
	}
	return s != "" && (s[0] == '-' || '0' <= s[0] && s[0] <= '9')
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '.' && i > 0:
		case 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func parseError(in string, msg string) error {
	return errors.Errorf("in %q: %s", in, msg)
}
