package hwtest_test

import (
	"context"
	"testing"

	hw "github.com/db47h/gatesim"
	hl "github.com/db47h/gatesim/hwlib"
	"github.com/db47h/gatesim/hwtest"
	"github.com/google/go-cmp/cmp"
)

func TestComparePart(t *testing.T) {
	or, err := hw.Chip("custom_or", "a,b", "out",
		hl.Nand("a=a, b=a, out=notA"),
		hl.Nand("a=b, b=b, out=notB"),
		hl.Nand("a=notA, b=notB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.Or, or)
}

func TestRecorder(t *testing.T) {
	var r hwtest.Recorder
	c, err := hw.NewCircuit(hw.Parts{
		hw.Input(1)("out=a"),
		hl.Not("in=a, out=na"),
	}, hw.WithObserver(&r))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	ctx := context.Background()
	if err = c.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err = c.SetInput("a", hw.Bit(hw.One)); err != nil {
		t.Fatal(err)
	}
	if err = c.Run(ctx); err != nil {
		t.Fatal(err)
	}
	want := []hwtest.Batch{
		{Tick: 0, Changes: map[string]string{"a": "0"}},
		{Tick: 1, Changes: map[string]string{"na": "1"}},
		{Tick: 1, Changes: map[string]string{"a": "1"}},
		{Tick: 2, Changes: map[string]string{"na": "0"}},
	}
	if diff := cmp.Diff(want, r.Batches()); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "0"}, r.History("na")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}
