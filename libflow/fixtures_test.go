package libflow_test

import (
	"testing"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow"
)

func mustGraph(t *testing.T, numVerts int, edges [][2]int, ins, outs []int) *libflow.OpenGraph {
	t.Helper()
	X, err := libflow.NewOpenGraph(numVerts, edges, ins, outs)
	if err != nil {
		t.Fatal(err)
	}
	return X
}

func vset(numVerts int, members ...int) goflow.VtxSet {
	set := goflow.NewVtxSet(numVerts)
	for _, vi := range members {
		set.Add(vi)
	}
	return set
}

// xyPlanes assigns the default XY plane to every non-output vertex.
func xyPlanes(X *libflow.OpenGraph) goflow.PlaneMap {
	planes := make(goflow.PlaneMap)
	X.NonOutputs().ForEach(func(vi int) bool {
		planes[vi] = goflow.PlaneXY
		return true
	})
	return planes
}

// A shared menu of small open graphs exercised across the flow searches.

// Two vertices that are both input and output, joined by an edge.
func pairGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 2, [][2]int{{0, 1}}, []int{0, 1}, []int{0, 1})
}

// A 5-vertex path from input 0 to output 4.
func pathGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 5,
		[][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}},
		[]int{0}, []int{4})
}

// Two disjoint 3-vertex paths: inputs {0 1}, outputs {4 5}.
func railsGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 6,
		[][2]int{{0, 2}, {1, 3}, {2, 4}, {3, 5}},
		[]int{0, 1}, []int{4, 5})
}

// A bipartite graph with gflow but no causal flow.
func bipartiteGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 6,
		[][2]int{{0, 3}, {0, 5}, {1, 3}, {1, 4}, {1, 5}, {2, 4}, {2, 5}},
		[]int{0, 1, 2}, []int{3, 4, 5})
}

// A graph whose gflow needs non-XY planes: 0:XY 1:XY 2:XZ 3:YZ.
func planarSpecGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 6,
		[][2]int{{0, 1}, {0, 2}, {0, 4}, {1, 5}, {2, 4}, {2, 5}, {3, 5}},
		[]int{0, 1}, []int{4, 5})
}

func planarSpec() goflow.PlaneMap {
	return goflow.PlaneMap{
		0: goflow.PlaneXY,
		1: goflow.PlaneXY,
		2: goflow.PlaneXZ,
		3: goflow.PlaneYZ,
	}
}

// K(2,2) between inputs and outputs: no flow of any kind under XY.
func crossedGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 4,
		[][2]int{{0, 2}, {0, 3}, {1, 2}, {1, 3}},
		[]int{0, 1}, []int{2, 3})
}

// A tree that only admits a flow once 1 and 3 are fixed to Pauli X.
func pauliXGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 5,
		[][2]int{{0, 1}, {1, 2}, {1, 4}, {2, 3}},
		[]int{0}, []int{4})
}

func pauliXSpec() goflow.PPlaneMap {
	return goflow.PPlaneMap{
		0: goflow.PPlaneXY,
		1: goflow.PPlaneX,
		2: goflow.PPlaneXY,
		3: goflow.PPlaneX,
	}
}

// A star plus a pendant leg, measured 0:Z 1:Z 2:Y 3:Y.
func pauliZStarGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 5,
		[][2]int{{0, 1}, {0, 2}, {0, 4}, {3, 4}},
		[]int{0}, []int{4})
}

func pauliZStarSpec() goflow.PPlaneMap {
	return goflow.PPlaneMap{
		0: goflow.PPlaneZ,
		1: goflow.PPlaneZ,
		2: goflow.PPlaneY,
		3: goflow.PPlaneY,
	}
}

// A denser 5-vertex graph measured 0:Z 1:XZ 2:Y with outputs {3 4}.
func pauliWheelGraph(t *testing.T) *libflow.OpenGraph {
	return mustGraph(t, 5,
		[][2]int{{0, 1}, {0, 4}, {1, 2}, {1, 3}, {2, 3}, {2, 4}, {3, 4}},
		[]int{0}, []int{3, 4})
}

func pauliWheelSpec() goflow.PPlaneMap {
	return goflow.PPlaneMap{
		0: goflow.PPlaneZ,
		1: goflow.PPlaneXZ,
		2: goflow.PPlaneY,
	}
}

// requireFlow checks the exact correction sets and layers of a result.
func requireFlow(t *testing.T, F *goflow.Flow, numVerts int, layers []int, corrections map[int][]int) {
	t.Helper()
	if F == nil {
		t.Fatal("expected a flow, got absence")
	}
	if len(F.Layers) != len(layers) {
		t.Fatalf("layers: got %v, want %v", F.Layers, layers)
	}
	for vi, l := range layers {
		if F.Layers[vi] != l {
			t.Fatalf("layers: got %v, want %v", F.Layers, layers)
		}
	}
	if len(F.Corrections) != len(corrections) {
		t.Fatalf("correction domain: got %d entries, want %d", len(F.Corrections), len(corrections))
	}
	for vi, members := range corrections {
		g, ok := F.Corrections[vi]
		if !ok {
			t.Fatalf("missing correction entry for %d", vi)
		}
		if want := vset(numVerts, members...); !g.Equals(want) {
			t.Fatalf("g(%d): got %v, want %v", vi, g, want)
		}
	}
}

func requireClean(t *testing.T, vlist []goflow.Violation) {
	t.Helper()
	if len(vlist) > 0 {
		for _, v := range vlist {
			t.Logf("violation: %v", v)
		}
		t.Fatal("expected a valid flow")
	}
}
