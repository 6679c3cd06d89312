package libflow_test

import (
	"testing"

	"github.com/mbqc-systems/goflow/libflow"
)

func mustPattern(t *testing.T, expr string) *libflow.Pattern {
	t.Helper()
	p, err := libflow.NewPatternFromExpr(expr)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPatternSet(t *testing.T) {
	set := libflow.NewPatternSet()
	defer set.Close()

	p1 := mustPattern(t, "0-1; i 0; o 1")
	defer p1.Reclaim()
	p2 := mustPattern(t, "0-1-2; i 0; o 2")
	defer p2.Reclaim()

	if !set.TryAdd(p1) {
		t.Fatal("first add must succeed")
	}
	if set.TryAdd(p1) {
		t.Fatal("duplicate add must fail")
	}
	if !set.TryAdd(p2) {
		t.Fatal("distinct pattern must add")
	}

	// An equal pattern built separately is still a duplicate.
	p3 := mustPattern(t, "0-1; i 0; o 1")
	defer p3.Reclaim()
	if set.TryAdd(p3) {
		t.Fatal("equal pattern must be deduped")
	}

	// Close empties the set.
	set.Close()
	if !set.TryAdd(p1) {
		t.Fatal("add after Close must succeed")
	}
}

func TestDropDupes(t *testing.T) {
	dd := libflow.NewDropDupes(libflow.DropDupeOpts{})

	p1 := mustPattern(t, "0-1; i 0; o 1")
	defer p1.Reclaim()
	p2 := mustPattern(t, "0-1-2; i 0; o 2; 1:Y")
	defer p2.Reclaim()

	if !dd.TryAddPattern(p1) {
		t.Fatal("first add must succeed")
	}
	if dd.TryAddPattern(p1) {
		t.Fatal("duplicate add must fail")
	}
	if !dd.TryAddPattern(p2) {
		t.Fatal("distinct pattern must add")
	}
	if dd.TryAddPattern(p2) {
		t.Fatal("duplicate add must fail")
	}
}

func TestDropDupesSmallPool(t *testing.T) {
	// A tiny pool forces backing reallocation on nearly every add; the
	// retained key copies must survive it.
	dd := libflow.NewDropDupes(libflow.DropDupeOpts{PoolSz: 8})

	exprs := []string{
		"0-1; i 0; o 1",
		"0-1-2; i 0; o 2",
		"0-1-2-3; i 0; o 3",
		"0-1-2-3-4; i 0; o 4",
	}
	for _, expr := range exprs {
		p := mustPattern(t, expr)
		if !dd.TryAddPattern(p) {
			t.Fatalf("add failed for %q", expr)
		}
		p.Reclaim()
	}
	for _, expr := range exprs {
		p := mustPattern(t, expr)
		if dd.TryAddPattern(p) {
			t.Fatalf("dedupe failed for %q", expr)
		}
		p.Reclaim()
	}
}
