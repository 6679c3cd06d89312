package libflow_test

import (
	"testing"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow"
)

// pathFlow returns a fresh, valid gflow of pathGraph for corrupting.
func pathFlow() *goflow.Flow {
	return &goflow.Flow{
		Corrections: map[int]goflow.VtxSet{
			0: vset(5, 1),
			1: vset(5, 2),
			2: vset(5, 3),
			3: vset(5, 4),
		},
		Layers: []int{4, 3, 2, 1, 0},
	}
}

func requireViolations(t *testing.T, got []goflow.Violation, want []goflow.Violation) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Kind != w.Kind || g.Vtx != w.Vtx || g.Other != w.Other {
			t.Fatalf("violation %d: got %v, want %v", i, g, w)
		}
	}
}

func TestValidateCleanBaseline(t *testing.T) {
	X := pathGraph(t)
	requireClean(t, libflow.ValidateGFlow(X, xyPlanes(X), pathFlow()))
}

func TestValidateOutputLayer(t *testing.T) {
	X := pathGraph(t)
	F := pathFlow()
	F.Layers[4] = 5

	// The displaced output also breaks the ordering demand of the
	// vertex corrected through it.
	requireViolations(t, libflow.ValidateGFlow(X, xyPlanes(X), F), []goflow.Violation{
		{Kind: goflow.InconsistentFlowOrder, Vtx: 3, Other: 4},
		{Kind: goflow.ExcessiveNonZeroLayer, Vtx: 4, Other: -1},
	})
}

func TestValidateZeroLayer(t *testing.T) {
	X := pathGraph(t)
	F := pathFlow()
	F.Layers[3] = 0

	requireViolations(t, libflow.ValidateGFlow(X, xyPlanes(X), F), []goflow.Violation{
		{Kind: goflow.ExcessiveZeroLayer, Vtx: 3, Other: -1},
		{Kind: goflow.InconsistentFlowOrder, Vtx: 3, Other: 4},
	})
}

func TestValidateDomain(t *testing.T) {
	X := pathGraph(t)
	F := pathFlow()
	delete(F.Corrections, 0)
	F.Corrections[4] = vset(5, 3)

	requireViolations(t, libflow.ValidateGFlow(X, xyPlanes(X), F), []goflow.Violation{
		{Kind: goflow.InvalidFlowDomain, Vtx: 0, Other: -1},
		{Kind: goflow.InvalidFlowDomain, Vtx: 4, Other: -1},
	})
}

func TestValidateCodomain(t *testing.T) {
	X := pathGraph(t)
	F := pathFlow()
	F.Corrections[1] = vset(5, 0) // 0 is an input

	requireViolations(t, libflow.ValidateGFlow(X, xyPlanes(X), F), []goflow.Violation{
		{Kind: goflow.InvalidFlowCodomain, Vtx: 1, Other: 0},
		{Kind: goflow.InconsistentFlowOrder, Vtx: 1, Other: 0},
	})
}

func TestValidatePlaneCond(t *testing.T) {
	X := pathGraph(t)
	F := pathFlow()
	// Self-inclusion is algebraically wrong for an XY measurement.
	F.Corrections[2] = vset(5, 2, 3)

	requireViolations(t, libflow.ValidateGFlow(X, xyPlanes(X), F), []goflow.Violation{
		{Kind: goflow.InconsistentFlowOrder, Vtx: 2, Other: 1},
		{Kind: goflow.InconsistentFlowPlane, Vtx: 2, Other: -1},
	})
}

func TestValidateMeasurementSpec(t *testing.T) {
	X := pathGraph(t)

	planes := xyPlanes(X)
	delete(planes, 0)
	requireViolations(t, libflow.ValidateGFlow(X, planes, pathFlow()), []goflow.Violation{
		{Kind: goflow.InvalidMeasurementSpec, Vtx: 0, Other: -1},
	})

	planes = xyPlanes(X)
	planes[4] = goflow.PlaneXY
	requireViolations(t, libflow.ValidateGFlow(X, planes, pathFlow()), []goflow.Violation{
		{Kind: goflow.InvalidMeasurementSpec, Vtx: 4, Other: -1},
	})

	planes = xyPlanes(X)
	planes[1] = goflow.Plane(9)
	requireViolations(t, libflow.ValidateGFlow(X, planes, pathFlow()), []goflow.Violation{
		{Kind: goflow.InvalidMeasurementSpec, Vtx: 1, Other: -1},
		{Kind: goflow.InconsistentFlowPlane, Vtx: 1, Other: -1},
	})
}

func TestValidateNilFlow(t *testing.T) {
	X := pathGraph(t)
	vlist := libflow.ValidateGFlow(X, xyPlanes(X), nil)

	// Every non-output is both unlayered and uncorrected.
	want := []goflow.Violation{}
	for vi := 0; vi < 4; vi++ {
		want = append(want,
			goflow.Violation{Kind: goflow.ExcessiveZeroLayer, Vtx: vi, Other: -1},
			goflow.Violation{Kind: goflow.InvalidFlowDomain, Vtx: vi, Other: -1})
	}
	requireViolations(t, vlist, want)
}

func TestValidatePauliOrderExcuses(t *testing.T) {
	// 0-1-2 chain with output 2; both non-outputs at layer 1, so the
	// correction of 0 lands on 1 in the same layer.
	X := mustGraph(t, 3, [][2]int{{0, 1}, {1, 2}}, nil, []int{2})
	F := &goflow.Flow{
		Corrections: map[int]goflow.VtxSet{
			0: vset(3, 1),
			1: vset(3, 2),
		},
		Layers: []int{1, 1, 0},
	}

	// An X measurement on 1 commutes with the X correction landing on it.
	spec := goflow.PPlaneMap{0: goflow.PPlaneXY, 1: goflow.PPlaneX}
	requireClean(t, libflow.ValidatePFlow(X, spec, F))

	// A Y measurement commutes only with the full XZ product; receiving
	// the X side alone is a real ordering defect.
	spec[1] = goflow.PPlaneY
	requireViolations(t, libflow.ValidatePFlow(X, spec, F), []goflow.Violation{
		{Kind: goflow.InconsistentFlowOrder, Vtx: 0, Other: 1},
	})

	// Same for a Z measurement hit by the X side.
	spec[1] = goflow.PPlaneZ
	requireViolations(t, libflow.ValidatePFlow(X, spec, F), []goflow.Violation{
		{Kind: goflow.InconsistentFlowOrder, Vtx: 0, Other: 1},
	})
}

func TestValidatePPlaneCond(t *testing.T) {
	X := pauliZStarGraph(t)
	spec := pauliZStarSpec()
	F := &goflow.Flow{
		Corrections: map[int]goflow.VtxSet{
			0: vset(5),
			1: vset(5),
			2: vset(5), // should be {2}: a Y vertex cannot go uncorrected
			3: vset(5, 4),
		},
		Layers: []int{0, 0, 0, 1, 0},
	}
	requireViolations(t, libflow.ValidatePFlow(X, spec, F), []goflow.Violation{
		{Kind: goflow.InconsistentFlowPPlane, Vtx: 2, Other: -1},
	})
}
