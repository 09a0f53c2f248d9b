// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package gatesim

import "strconv"

// A netlist is a compiled chip: its nets and the parts connected to them.
//
type netlist struct {
	name    string
	nets    []netDef
	index   map[string]int // net name or alias -> net
	parts   []placement
	comps   map[string]int // instance name -> part
	inputs  []int          // chip input nets, in declaration order
	outputs []int          // chip output nets, in declaration order
}

type netDef struct {
	name  string
	width int
	pull  Signal
	input bool // chip input, forced by the host
}

type placement struct {
	spec  *PartSpec
	name  string
	delay uint
	pins  []pinRef
}

type pinRef struct {
	name string
	dir  Dir
	net  int
}

// wiring accumulates nets while compiling a chip. Nets connected together by
// an output pin connected to several names are merged with a union-find.
//
type wiring struct {
	chip   string
	nets   []wnet
	parent []int
	index  map[string]int
}

type wnet struct {
	names    []string
	width    int
	pull     Signal
	input    bool
	output   bool
	drivers  int
	readers  int
	firstPin string // first reader, for error messages
}

func newWiring(chip string, ins, outs []PinDecl) (*wiring, error) {
	wr := &wiring{chip: chip, index: make(map[string]int)}
	for _, d := range ins {
		if _, err := wr.net(d.Name, d.Width); err != nil {
			return nil, err
		}
		wr.nets[len(wr.nets)-1].input = true
	}
	for _, d := range outs {
		if _, ok := wr.index[d.Name]; ok {
			return nil, &StructuralError{Chip: chip, Net: d.Name, Reason: "pin " + d.Name + " declared as both input and output"}
		}
		if _, err := wr.net(d.Name, d.Width); err != nil {
			return nil, err
		}
		wr.nets[len(wr.nets)-1].output = true
	}
	return wr, nil
}

// net returns the net with the given name, creating it if necessary.
//
func (wr *wiring) net(name string, width int) (int, error) {
	if i, ok := wr.index[name]; ok {
		i = wr.find(i)
		if w := wr.nets[i].width; w != width {
			return -1, &StructuralError{Chip: wr.chip, Net: name,
				Reason: "width mismatch on net " + name + ": " + strconv.Itoa(w) + " bits, pin has " + strconv.Itoa(width)}
		}
		return i, nil
	}
	i := len(wr.nets)
	wr.nets = append(wr.nets, wnet{names: []string{name}, width: width})
	wr.parent = append(wr.parent, i)
	wr.index[name] = i
	return i, nil
}

// constant allocates a hidden net pulled to v.
//
func (wr *wiring) constant(name string, v Signal) int {
	i := len(wr.nets)
	wr.nets = append(wr.nets, wnet{names: []string{name}, width: len(v), pull: v})
	wr.parent = append(wr.parent, i)
	return i
}

func (wr *wiring) find(i int) int {
	for wr.parent[i] != i {
		wr.parent[i] = wr.parent[wr.parent[i]]
		i = wr.parent[i]
	}
	return i
}

// union merges nets a and b. Chip I/O names always end up first in the
// name list so that they name the merged net.
//
func (wr *wiring) union(a, b int) int {
	a, b = wr.find(a), wr.find(b)
	if a == b {
		return a
	}
	na, nb := &wr.nets[a], &wr.nets[b]
	if !na.input && !na.output && (nb.input || nb.output) {
		a, b = b, a
		na, nb = nb, na
	}
	na.names = append(na.names, nb.names...)
	na.input = na.input || nb.input
	na.output = na.output || nb.output
	wr.parent[b] = a
	return a
}

// compile builds the netlist of a chip.
//
func compile(name string, ins, outs []PinDecl, parts Parts) (*netlist, error) {
	wr, err := newWiring(name, ins, outs)
	if err != nil {
		return nil, err
	}
	pls := make([]placement, len(parts))
	comps := make(map[string]int, len(parts))

	for pnum := range parts {
		p := &parts[pnum]
		if p.PartSpec == nil {
			return nil, &StructuralError{Chip: name, Part: strconv.Itoa(pnum), Reason: "nil part"}
		}
		sp := p.PartSpec
		inst := p.instanceName(pnum)
		if _, ok := comps[inst]; ok {
			return nil, &StructuralError{Chip: name, Part: inst, Reason: "duplicate instance name"}
		}
		comps[inst] = pnum
		pl := &pls[pnum]
		pl.spec, pl.name, pl.delay = sp, inst, p.effectiveDelay()

		conns, err := ParseConnections(p.Conns)
		if err != nil {
			return nil, &StructuralError{Chip: name, Part: inst, Reason: err.Error()}
		}
		byPin := make(map[string][]string)
		for _, c := range conns {
			if _, _, ok := sp.pin(c.Pin); !ok {
				return nil, &StructuralError{Chip: name, Part: inst, Pin: c.Pin, Reason: "invalid pin name " + c.Pin + " for part " + sp.Name}
			}
			byPin[c.Pin] = append(byPin[c.Pin], c.Net)
		}

		add := func(d PinDecl, dir Dir) error {
			serr := func(reason string) error {
				return &StructuralError{Chip: name, Part: inst, Pin: d.Name, Reason: reason}
			}
			nets := byPin[d.Name]
			switch {
			case len(nets) == 0 && dir == In:
				return serr("input pin " + d.Name + " not connected")
			case len(nets) == 0:
				// private net for unused outputs
				nets = []string{inst + "." + d.Name}
			case len(nets) > 1 && dir == In:
				return serr("input pin " + d.Name + " connected to more than one net")
			}
			root := -1
			for _, n := range nets {
				var id int
				if isLiteral(n) {
					if dir != In {
						return serr("output pin connected to constant " + n)
					}
					v, err := ParseSignal(d.Width, n)
					if err != nil {
						return serr(err.Error())
					}
					id = wr.constant(inst+"."+d.Name+"="+n, v)
				} else {
					var err error
					if id, err = wr.net(n, d.Width); err != nil {
						se := err.(*StructuralError)
						se.Part, se.Pin = inst, d.Name
						return se
					}
					if dir != In && wr.nets[id].input {
						return serr("chip input pin used as output")
					}
				}
				if root < 0 {
					root = id
				} else {
					root = wr.union(root, id)
				}
			}
			pl.pins = append(pl.pins, pinRef{name: d.Name, dir: dir, net: root})
			return nil
		}
		for _, d := range sp.Inputs {
			if err := add(d, In); err != nil {
				return nil, err
			}
		}
		for _, d := range sp.Outputs {
			if err := add(d, Out); err != nil {
				return nil, err
			}
		}
		for _, d := range sp.Bidirs {
			if err := add(d, InOut); err != nil {
				return nil, err
			}
		}
	}

	// resolve merged nets and count drivers
	for i := range pls {
		for j := range pls[i].pins {
			r := &pls[i].pins[j]
			r.net = wr.find(r.net)
			n := &wr.nets[r.net]
			if r.dir != In {
				n.drivers++
			}
			if r.dir != Out {
				if n.readers == 0 {
					n.firstPin = pls[i].name + "." + r.name
				}
				n.readers++
			}
		}
	}

	nl := &netlist{
		name:  name,
		index: make(map[string]int, len(wr.index)),
		parts: pls,
		comps: comps,
	}
	remap := make([]int, len(wr.nets))
	for i := range wr.nets {
		if wr.find(i) != i {
			continue
		}
		n := &wr.nets[i]
		if n.readers > 0 && n.drivers == 0 && !n.input && n.pull == nil {
			return nil, &StructuralError{Chip: name, Net: n.names[0], Pin: n.firstPin, Reason: "pin " + n.names[0] + " not connected to any output"}
		}
		remap[i] = len(nl.nets)
		nl.nets = append(nl.nets, netDef{name: n.names[0], width: n.width, pull: n.pull, input: n.input})
	}
	for i := range wr.nets {
		remap[i] = remap[wr.find(i)]
	}
	for k, i := range wr.index {
		nl.index[k] = remap[i]
	}
	for i := range nl.nets {
		nl.index[nl.nets[i].name] = i
	}
	for i := range pls {
		for j := range pls[i].pins {
			pls[i].pins[j].net = remap[pls[i].pins[j].net]
		}
	}
	for _, d := range ins {
		nl.inputs = append(nl.inputs, nl.index[d.Name])
	}
	for _, d := range outs {
		nl.outputs = append(nl.outputs, nl.index[d.Name])
	}
	return nl, nil
}
