package hwlib_test

import (
	"testing"
	"testing/quick"

	hw "github.com/db47h/gatesim"
	hl "github.com/db47h/gatesim/hwlib"
	"github.com/db47h/gatesim/hwtest"
)

func halfAdder(t *testing.T) hw.NewPartFn {
	h, err := hw.Chip("myHalfAdder", "a, b", "s, c",
		hl.Xor("a=a, b=b, out=s"),
		hl.And("a=a, b=b, out=c"),
	)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestHalfAdder(t *testing.T) {
	hwtest.ComparePart(t, hl.HalfAdder, halfAdder(t))
}

func TestFullAdder(t *testing.T) {
	h := halfAdder(t)
	adder, err := hw.Chip("myFullAdder", "a, b, cin", "s, cout",
		h("a=a, b=b, s=s0, c=c0"),
		h("a=s0, b=cin, s=s, c=c1"),
		hl.Or("a=c0, b=c1, out=cout"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.FullAdder, adder)
}

func TestAdderN(t *testing.T) {
	parts := append(split4("a", "a"), split4("b", "b")...)
	parts = append(parts,
		hl.HalfAdder("a=a0, b=b0, s=o0, c=c0"),
		hl.FullAdder("a=a1, b=b1, cin=c0, s=o1, cout=c1"),
		hl.FullAdder("a=a2, b=b2, cin=c1, s=o2, cout=c2"),
		hl.FullAdder("a=a3, b=b3, cin=c2, s=o3, cout=c"),
		join4("o", "out"),
	)
	add4, err := hw.Chip("Adder4", "a[4], b[4]", "out[4], c", parts...)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.AdderN(4), add4)
}

func TestIncN(t *testing.T) {
	c := newCircuit(t, hw.Input(8)("out=in"), hl.IncN(8)("in=in, out=out"))
	f := func(x uint8) bool {
		set(t, c, "in", uint64(x))
		run(t, c)
		v, _ := get(t, c, "out").Uint64()
		return uint8(v) == x+1
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestComparatorN(t *testing.T) {
	c := newCircuit(t,
		hw.Input(8)("out=a"),
		hw.Input(8)("out=b"),
		hl.ComparatorN(8)("a=a, b=b, lt=lt, eq=eq, gt=gt"),
	)
	f := func(x, y uint8) bool {
		set(t, c, "a", uint64(x))
		set(t, c, "b", uint64(y))
		run(t, c)
		return get(t, c, "lt")[0] == hw.FromBool(x < y) &&
			get(t, c, "eq")[0] == hw.FromBool(x == y) &&
			get(t, c, "gt")[0] == hw.FromBool(x > y)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestAdderUnknown(t *testing.T) {
	c := newCircuit(t,
		hw.Input(4)("out=a"),
		hl.TriState(4)("in=0, en=false, out=b"),
		hl.AdderN(4)("a=a, b=b, out=out, c=c"),
	)
	if got := get(t, c, "out").String(); got != "xxxx" {
		t.Fatalf("expected xxxx, got %s", got)
	}
	if got := get(t, c, "c")[0]; got != hw.Zero {
		t.Fatalf("expected carry 0 with a = 0, got %v", got)
	}
}
