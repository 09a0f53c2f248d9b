// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Updater is the interface that custom components built using reflection must implement.
// See MakePart.
//
type Updater interface {
	Update(*State)
}

var pinType = reflect.TypeOf(Pin(0))

type pinField struct {
	field int
	decl  PinDecl
}

// MakePart wraps an Updater into a custom component.
// Input/output pins are identified by field tags.
//
// The field tag must be `hw:"in"`, `hw:"out"` or `hw:"inout"` to identify
// input, output and bidirectional pins. By default, the pin name is the field
// name in lowercase. A specific pin name can be forced by adding it in the
// tag: `hw:"in,pin_name"`. A third tag element sets the bus width:
// `hw:"out,data,8"`.
//
// Pin fields must be of type Pin. Other fields hold the part's internal state;
// each mounted instance gets its own copy of the struct, initialized to t.
//
func MakePart(t Updater) *PartSpec {
	typ := reflect.TypeOf(t)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if k := typ.Kind(); k != reflect.Struct {
		panic(errors.Errorf("unsupported type %q for %q", k, typ.Name()))
	}
	init := reflect.Indirect(reflect.ValueOf(t))
	if !init.IsValid() {
		// typed nil pointer
		init = reflect.Zero(typ)
	}

	sp := &PartSpec{
		Name: typ.Name(),
	}

	var fields []pinField
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("hw")
		if !ok {
			continue
		}
		d := PinDecl{Name: strings.ToLower(f.Name), Width: 1}
		tv := strings.Split(tag, ",")
		if len(tv) > 1 && tv[1] != "" {
			d.Name = tv[1]
		}
		if len(tv) > 2 {
			w, err := strconv.Atoi(tv[2])
			if err != nil || w <= 0 {
				panic(errors.Errorf("invalid width in tag %q for field %q in %q", tag, f.Name, typ.Name()))
			}
			d.Width = w
		}
		if f.Type != pinType {
			panic(errors.Errorf("unsupported type %q for field %q in %q", f.Type, f.Name, typ.Name()))
		}
		switch tv[0] {
		case "in":
			sp.Inputs = append(sp.Inputs, d)
		case "out":
			sp.Outputs = append(sp.Outputs, d)
		case "inout":
			sp.Bidirs = append(sp.Bidirs, d)
		default:
			panic(errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name()))
		}
		fields = append(fields, pinField{i, d})
	}
	sp.Mount = func(s *Socket) Component {
		v := reflect.New(typ)
		e := v.Elem()
		e.Set(init)
		for _, f := range fields {
			e.Field(f.field).SetInt(int64(s.Pin(f.decl.Name)))
		}
		return v.Interface().(Updater).Update
	}
	return sp
}
