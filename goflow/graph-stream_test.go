package goflow_test

import (
	"strings"
	"testing"

	"github.com/mbqc-systems/goflow/goflow"
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

func TestStreamPattern(t *testing.T) {
	p := mustPattern(t, "0-1-2; i 0; o 2")
	defer p.Reclaim()

	if count := goflow.StreamPattern(p).Solve(goflow.FlowGeneralized).PullAll(); count != 1 {
		t.Fatalf("got %d patterns", count)
	}
}

func TestStreamAddToDropsDupes(t *testing.T) {
	stream := goflow.NewPatternStream()
	go func() {
		for _, expr := range []string{
			"0-1; i 0; o 1",
			"0-1-2; i 0; o 2",
			"0-1; i 0; o 1", // dupe
		} {
			p := mustPattern(t, expr)
			stream.PushPattern(p)
			p.Reclaim()
		}
		stream.Close()
	}()

	dd := libflow.NewDropDupes(libflow.DropDupeOpts{})
	count := stream.
		Solve(goflow.FlowGeneralized).
		AddTo(dd, goflow.AddPatternOpts{}).
		PullAll()
	if count != 2 {
		t.Fatalf("got %d patterns after dedupe", count)
	}
}

func TestStreamSelect(t *testing.T) {
	stream := goflow.NewPatternStream()
	go func() {
		for _, expr := range []string{
			"0-1-2; i 0; o 2",                  // has gflow
			"0-2; 0-3; 1-2; 1-3; i 0 1; o 2 3", // no gflow
		} {
			p := mustPattern(t, expr)
			stream.PushPattern(p)
			p.Reclaim()
		}
		stream.Close()
	}()

	sel := goflow.DefaultPatternSelector
	sel.RequireFlow = true
	count := stream.
		Solve(goflow.FlowGeneralized).
		SelectFromStream(sel).
		PullAll()
	if count != 1 {
		t.Fatalf("got %d patterns", count)
	}
}

type stringCloser struct {
	strings.Builder
}

func (sc *stringCloser) Close() error { return nil }

func TestStreamPrint(t *testing.T) {
	p := mustPattern(t, "0-1-2; i 0; o 2")
	defer p.Reclaim()

	out := &stringCloser{}
	count := goflow.StreamPattern(p).
		Solve(goflow.FlowGeneralized).
		Print(out, goflow.PrintOpts{Label: "probe", Graph: true, Flow: true}).
		PullAll()
	if count != 1 {
		t.Fatalf("got %d patterns", count)
	}

	str := out.String()
	if !strings.HasPrefix(str, "probe,000001,") {
		t.Fatalf("bad prefix: %q", str)
	}
	if !strings.Contains(str, ",gflow,layers") {
		t.Fatalf("missing flow section: %q", str)
	}
}
