// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/gatesim"
)

func connString(in, out []gatesim.PinDecl, prefix string) string {
	var b strings.Builder
	for _, d := range in {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(d.Name)
		b.WriteRune('=')
		b.WriteString(d.Name)
	}
	for _, d := range out {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(d.Name)
		b.WriteRune('=')
		b.WriteString(prefix + d.Name)
	}
	return b.String()
}

func sameIO(a, b []gatesim.PinDecl) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func randSignal(r *rand.Rand, width int) gatesim.Signal {
	s := make(gatesim.Signal, width)
	for i := range s {
		s[i] = gatesim.FromBool(r.Int63()&(1<<62) != 0)
	}
	return s
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface.
//
// Inputs are set to all Zero, all One, then to random values. The number of
// random rounds is 1<<n where n is the total input width, capped at 4096.
//
func ComparePart(t testing.TB, part1 gatesim.NewPartFn, part2 gatesim.NewPartFn) {
	t.Helper()

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	ps1, ps2 := part1(""), part2("")
	// compare specs
	if !sameIO(ps1.Inputs, ps2.Inputs) {
		t.Fatalf("input mismatch: %v != %v", ps1.Inputs, ps2.Inputs)
	}
	if !sameIO(ps1.Outputs, ps2.Outputs) {
		t.Fatalf("output mismatch: %v != %v", ps1.Outputs, ps2.Outputs)
	}

	var parts gatesim.Parts
	width := 0
	for _, d := range ps1.Inputs {
		parts = append(parts, gatesim.Input(d.Width)("out="+d.Name))
		width += d.Width
	}
	parts = append(parts,
		part1(connString(ps1.Inputs, ps1.Outputs, "p1_")).As("p1"),
		part2(connString(ps2.Inputs, ps2.Outputs, "p2_")).As("p2"))

	c, err := gatesim.NewCircuit(parts)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	ctx := context.Background()
	inputs := make([]gatesim.Signal, len(ps1.Inputs))

	check := func() {
		t.Helper()
		for i, d := range ps1.Inputs {
			if err := c.SetInput(d.Name, inputs[i]); err != nil {
				t.Fatal(err)
			}
		}
		if err := c.Run(ctx); err != nil {
			t.Fatal(err)
		}
		for _, d := range ps1.Outputs {
			v1, err := c.Query("p1_" + d.Name)
			if err != nil {
				t.Fatal(err)
			}
			v2, err := c.Query("p2_" + d.Name)
			if err != nil {
				t.Fatal(err)
			}
			if !v1.Equal(v2) {
				var b strings.Builder
				for i, d := range ps1.Inputs {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s=%s", d.Name, inputs[i])
				}
				t.Fatalf("\nExpected %s => %s=%s\nGot %s", b.String(), d.Name, v1, v2)
			}
		}
	}

	start := time.Now()

	// try all 0, then all 1
	for _, v := range []gatesim.Value{gatesim.Zero, gatesim.One} {
		for i, d := range ps1.Inputs {
			inputs[i] = gatesim.NewSignal(d.Width, v)
		}
		check()
	}

	iter := width
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)
	for k := 0; k < iter; k++ {
		for i, d := range ps1.Inputs {
			inputs[i] = randSignal(r, d.Width)
		}
		check()
	}

	t.Logf("%d components. %d rounds in %v, last tick %d", c.Size(), iter+2, time.Since(start), c.Now())
}
