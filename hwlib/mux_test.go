package hwlib_test

import (
	"testing"

	hw "github.com/db47h/gatesim"
	hl "github.com/db47h/gatesim/hwlib"
	"github.com/db47h/gatesim/hwtest"
)

// split4 and join4 convert between a 4 bits bus and its bits.
func split4(bus, prefix string) hw.Parts {
	var ps hw.Parts
	for i := 0; i < 4; i++ {
		ps = append(ps, hl.Slice(4, i, i+1)("in="+bus+", out="+prefix+string(rune('0'+i))))
	}
	return ps
}

func join4(prefix, bus string) hw.Part {
	return hl.Join(1, 1, 1, 1)("in0=" + prefix + "0, in1=" + prefix + "1, in2=" + prefix + "2, in3=" + prefix + "3, out=" + bus)
}

func TestMuxN(t *testing.T) {
	parts := append(split4("a", "a"), split4("b", "b")...)
	for i := 0; i < 4; i++ {
		n := string(rune('0' + i))
		parts = append(parts, hl.Mux("a=a"+n+", b=b"+n+", sel=sel, out=o"+n))
	}
	parts = append(parts, join4("o", "out"))
	m, err := hw.Chip("myMux4", "a[4], b[4], sel", "out[4]", parts...)
	if err != nil {
		t.Fatal(err)
	}

	hwtest.ComparePart(t, hl.MuxN(4), m)
}

func TestDMuxN(t *testing.T) {
	parts := split4("in", "i")
	for i := 0; i < 4; i++ {
		n := string(rune('0' + i))
		parts = append(parts, hl.DMux("in=i"+n+", sel=sel, a=a"+n+", b=b"+n))
	}
	parts = append(parts, join4("a", "a"), join4("b", "b"))
	dmux4, err := hw.Chip("myDMux4", "in[4], sel", "a[4], b[4]", parts...)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.DMuxN(4), dmux4)
}

func TestMuxNWay(t *testing.T) {
	mux4 := hl.MuxN(4)
	sel := hl.Slice(2, 0, 1)
	sel1 := hl.Slice(2, 1, 2)
	mux44, err := hw.Chip("myMux4Way4", "in0[4], in1[4], in2[4], in3[4], sel[2]", "out[4]",
		sel("in=sel, out=s0"),
		sel1("in=sel, out=s1"),
		mux4("a=in0, b=in1, sel=s0, out=m0"),
		mux4("a=in2, b=in3, sel=s0, out=m1"),
		mux4("a=m0, b=m1, sel=s1, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.MuxNWay(4, 2), mux44)
}

func TestMuxUndefinedSelect(t *testing.T) {
	c := newCircuit(t,
		hw.Input(4)("out=a"),
		hw.Input(4)("out=b"),
		hl.TriState(1)("in=true, en=false, out=sel"),
		hl.MuxN(4)("a=a, b=b, sel=sel, out=out"),
		hl.MuxNWay(4, 1)("in0=a, in1=b, sel=sel, out=out2"),
	)
	set(t, c, "a", 0x3)
	set(t, c, "b", 0x5)
	run(t, c)
	if got := get(t, c, "out").String(); got != "0xx1" {
		t.Fatalf("expected 0xx1, got %s", got)
	}
	if got := get(t, c, "out2").String(); got != "xxxx" {
		t.Fatalf("expected xxxx, got %s", got)
	}
}
