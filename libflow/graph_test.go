package libflow_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow"
)

func TestNewOpenGraphErrors(t *testing.T) {
	if _, err := libflow.NewOpenGraph(0, nil, nil, nil); !errors.Is(err, goflow.ErrEmptyGraph) {
		t.Fatalf("got %v", err)
	}
	if _, err := libflow.NewOpenGraph(2, [][2]int{{0, 2}}, nil, nil); !errors.Is(err, goflow.ErrBadVtxID) {
		t.Fatalf("got %v", err)
	}
	if _, err := libflow.NewOpenGraph(2, [][2]int{{1, 1}}, nil, nil); !errors.Is(err, goflow.ErrSelfLoop) {
		t.Fatalf("got %v", err)
	}
	if _, err := libflow.NewOpenGraph(2, nil, []int{5}, nil); !errors.Is(err, goflow.ErrBadIOSet) {
		t.Fatalf("got %v", err)
	}
	if _, err := libflow.NewOpenGraph(2, nil, nil, []int{-1}); !errors.Is(err, goflow.ErrBadIOSet) {
		t.Fatalf("got %v", err)
	}
}

func TestOpenGraphDedupesEdges(t *testing.T) {
	X := mustGraph(t, 3, [][2]int{{0, 1}, {1, 0}, {0, 1}, {1, 2}}, nil, []int{2})
	if X.EdgeCount() != 2 {
		t.Fatalf("edge count: got %d, want 2", X.EdgeCount())
	}
	if !X.Adjacency(1).Equals(vset(3, 0, 2)) {
		t.Fatalf("adjacency: got %v", X.Adjacency(1))
	}
}

func TestOddNeighbors(t *testing.T) {
	X := mustGraph(t, 3, [][2]int{{0, 1}, {1, 2}}, nil, []int{2})

	if odd := X.OddNeighbors(vset(3, 1)); !odd.Equals(vset(3, 0, 2)) {
		t.Fatalf("Odd({1}): got %v", odd)
	}
	// The two endpoints cancel on the middle vertex.
	if odd := X.OddNeighbors(vset(3, 0, 2)); !odd.Equals(vset(3)) {
		t.Fatalf("Odd({0 2}): got %v", odd)
	}
	if odd := X.OddNeighbors(vset(3, 0, 1)); !odd.Equals(vset(3, 0, 1, 2)) {
		t.Fatalf("Odd({0 1}): got %v", odd)
	}
}

func TestOpenGraphExprRoundTrip(t *testing.T) {
	X := railsGraph(t)

	b := strings.Builder{}
	X.WriteAsString(&b)
	expr := b.String()

	Y, err := libflow.NewOpenGraphFromExpr(expr)
	if err != nil {
		t.Fatalf("%q: %v", expr, err)
	}
	if Y.VertexCount() != X.VertexCount() || Y.EdgeCount() != X.EdgeCount() {
		t.Fatalf("%q decoded to a different graph", expr)
	}
	for vi := 0; vi < X.VertexCount(); vi++ {
		if !Y.Adjacency(vi).Equals(X.Adjacency(vi)) {
			t.Fatalf("adjacency of %d differs", vi)
		}
	}
	if !Y.Inputs().Equals(X.Inputs()) || !Y.Outputs().Equals(X.Outputs()) {
		t.Fatal("IO sets differ")
	}
}

func TestOpenGraphExprIsolatedVertex(t *testing.T) {
	// A trailing lone vertex ID pins the vertex count.
	X, err := libflow.NewOpenGraphFromExpr("0-1; 3; i 0; o 1")
	if err != nil {
		t.Fatal(err)
	}
	if X.VertexCount() != 4 {
		t.Fatalf("vertex count: got %d, want 4", X.VertexCount())
	}

	b := strings.Builder{}
	X.WriteAsString(&b)
	Y, err := libflow.NewOpenGraphFromExpr(b.String())
	if err != nil {
		t.Fatal(err)
	}
	if Y.VertexCount() != 4 {
		t.Fatalf("round trip lost isolated vertices: %q", b.String())
	}
}

func TestOpenGraphMakeCopy(t *testing.T) {
	X := pathGraph(t)
	Y := X.MakeCopy()
	Y.Adjacency(0).Add(3)
	if X.Adjacency(0).Contains(3) {
		t.Fatal("copy shares adjacency storage")
	}
}
