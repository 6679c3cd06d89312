package libflow

import (
	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/mbqc-systems/goflow/goflow"
)

// flowChecker accumulates every violated clause of the flow definition
// rather than stopping at the first, so a corrupted flow reports all of
// its defects in one pass. Violations collect in a tree ordered by the
// canonical (vertex, kind, secondary) key, which also dedupes repeats.
type flowChecker struct {
	X       *OpenGraph
	F       *goflow.Flow
	planes  goflow.PlaneMap
	pplanes goflow.PPlaneMap
	pauli   bool
	out     *redblacktree.Tree
}

func compareViolations(a, b interface{}) int {
	va, vb := a.(goflow.Violation), b.(goflow.Violation)
	if va.Vtx != vb.Vtx {
		return va.Vtx - vb.Vtx
	}
	if va.Kind != vb.Kind {
		return int(va.Kind) - int(vb.Kind)
	}
	return va.Other - vb.Other
}

// ValidateGFlow checks F against the generalized flow definition for X
// under the given plane assignment and returns every violation found,
// in canonical order. An empty result means F is a valid gflow.
func ValidateGFlow(X *OpenGraph, planes goflow.PlaneMap, F *goflow.Flow) []goflow.Violation {
	chk := &flowChecker{
		X:      X,
		F:      F,
		planes: planes,
	}
	return chk.run()
}

// ValidatePFlow checks F against the Pauli flow definition for X under
// the given measurement assignment. Pauli-measured vertices are exempt
// from the usual ordering demands where their measurement commutes with
// the correction.
func ValidatePFlow(X *OpenGraph, pplanes goflow.PPlaneMap, F *goflow.Flow) []goflow.Violation {
	chk := &flowChecker{
		X:       X,
		F:       F,
		pplanes: pplanes,
		pauli:   true,
	}
	return chk.run()
}

// ValidateCausalFlow checks cf by lifting it to correction-set form
// with an all-XY plane assignment, which reproduces the causal flow
// conditions exactly.
func ValidateCausalFlow(X *OpenGraph, cf *goflow.CausalFlow) []goflow.Violation {
	n := X.VertexCount()
	planes := make(goflow.PlaneMap, n)
	X.NonOutputs().ForEach(func(vi int) bool {
		planes[vi] = goflow.PlaneXY
		return true
	})
	var F *goflow.Flow
	if cf != nil {
		F = cf.AsFlow(n)
	}
	return ValidateGFlow(X, planes, F)
}

func (chk *flowChecker) flag(v goflow.Violation) {
	chk.out.Put(v, nil)
}

func (chk *flowChecker) run() []goflow.Violation {
	if chk.F == nil {
		chk.F = &goflow.Flow{}
	}
	chk.out = redblacktree.NewWith(compareViolations)
	chk.checkLayers()
	chk.checkMeasurementSpec()
	chk.checkDomain()
	for _, v := range chk.corrected() {
		chk.checkCorrection(v)
	}
	if chk.out.Size() == 0 {
		return nil
	}
	vlist := make([]goflow.Violation, 0, chk.out.Size())
	for _, key := range chk.out.Keys() {
		vlist = append(vlist, key.(goflow.Violation))
	}
	return vlist
}

// corrected returns the in-range non-output correction domain, ascending.
func (chk *flowChecker) corrected() []int {
	n := chk.X.VertexCount()
	domain := goflow.NewVtxSet(n)
	for v := range chk.F.Corrections {
		if v >= 0 && v < n && !chk.X.Outputs().Contains(v) {
			domain.Add(v)
		}
	}
	return domain.AppendVtxIDs(nil)
}

func (chk *flowChecker) hasSpec(vi int) bool {
	if chk.pauli {
		_, ok := chk.pplanes[vi]
		return ok
	}
	_, ok := chk.planes[vi]
	return ok
}

func (chk *flowChecker) checkLayers() {
	n := chk.X.VertexCount()
	for vi := 0; vi < n; vi++ {
		l := chk.F.Layer(vi)
		if chk.X.Outputs().Contains(vi) {
			if l != 0 {
				chk.flag(goflow.Violation{
					Kind:  goflow.ExcessiveNonZeroLayer,
					Vtx:   vi,
					Other: -1,
					Layer: l,
				})
			}
		} else if l == 0 && !chk.pauli {
			// A Pauli-measured vertex may legitimately share layer 0
			// with the outputs; a plane-measured one may not.
			chk.flag(goflow.Violation{
				Kind:  goflow.ExcessiveZeroLayer,
				Vtx:   vi,
				Other: -1,
			})
		}
	}
}

func (chk *flowChecker) checkMeasurementSpec() {
	n := chk.X.VertexCount()
	for vi := 0; vi < n; vi++ {
		if chk.hasSpec(vi) == chk.X.Outputs().Contains(vi) {
			chk.flag(goflow.Violation{
				Kind:  goflow.InvalidMeasurementSpec,
				Vtx:   vi,
				Other: -1,
			})
		}
	}
	if chk.pauli {
		for vi, pp := range chk.pplanes {
			if vi < 0 || vi >= n || pp < goflow.PPlaneXY || pp > goflow.PPlaneZ {
				chk.flag(goflow.Violation{
					Kind:  goflow.InvalidMeasurementSpec,
					Vtx:   vi,
					Other: -1,
				})
			}
		}
	} else {
		for vi, p := range chk.planes {
			if vi < 0 || vi >= n || p < goflow.PlaneXY || p > goflow.PlaneXZ {
				chk.flag(goflow.Violation{
					Kind:  goflow.InvalidMeasurementSpec,
					Vtx:   vi,
					Other: -1,
				})
			}
		}
	}
}

func (chk *flowChecker) checkDomain() {
	n := chk.X.VertexCount()
	for v := range chk.F.Corrections {
		if v < 0 || v >= n || chk.X.Outputs().Contains(v) {
			chk.flag(goflow.Violation{
				Kind:  goflow.InvalidFlowDomain,
				Vtx:   v,
				Other: -1,
			})
		}
	}
	if chk.pauli {
		// A missing Pauli entry reads as an empty correction set.
		return
	}
	for vi := 0; vi < n; vi++ {
		if chk.X.Outputs().Contains(vi) {
			continue
		}
		if _, ok := chk.F.Corrections[vi]; !ok {
			chk.flag(goflow.Violation{
				Kind:  goflow.InvalidFlowDomain,
				Vtx:   vi,
				Other: -1,
			})
		}
	}
}

// checkCorrection verifies the codomain, the algebraic measurement
// condition, and the ordering demands of one correction set.
func (chk *flowChecker) checkCorrection(v int) {
	n := chk.X.VertexCount()
	g := chk.F.Corrections[v]

	g.ForEach(func(w int) bool {
		if w >= n || (chk.X.Inputs().Contains(w) && w != v) {
			chk.flag(goflow.Violation{
				Kind:  goflow.InvalidFlowCodomain,
				Vtx:   v,
				Other: w,
			})
		}
		return true
	})

	odd := chk.X.OddNeighbors(g)
	inG := g.Contains(v)
	inOdd := odd.Contains(v)

	if chk.pauli {
		chk.checkPPlaneCond(v, inG, inOdd)
	} else {
		chk.checkPlaneCond(v, inG, inOdd)
	}

	lv := chk.F.Layer(v)
	union := g.Clone()
	union.UnionWith(odd)
	union.Remove(v)
	union.ForEach(func(w int) bool {
		if w >= n {
			return true // already flagged through the codomain
		}
		if chk.F.Layer(w) < lv {
			return true
		}
		if chk.pauli && chk.orderExcused(w, g.Contains(w), odd.Contains(w)) {
			return true
		}
		chk.flag(goflow.Violation{
			Kind:  goflow.InconsistentFlowOrder,
			Vtx:   v,
			Other: w,
		})
		return true
	})
}

func (chk *flowChecker) checkPlaneCond(v int, inG, inOdd bool) {
	p, ok := chk.planes[v]
	if !ok {
		return // flagged as InvalidMeasurementSpec
	}
	good := false
	switch p {
	case goflow.PlaneXY:
		good = !inG && inOdd
	case goflow.PlaneYZ:
		good = inG && !inOdd
	case goflow.PlaneXZ:
		good = inG && inOdd
	}
	if !good {
		chk.flag(goflow.Violation{
			Kind:  goflow.InconsistentFlowPlane,
			Vtx:   v,
			Other: -1,
			Plane: p,
		})
	}
}

func (chk *flowChecker) checkPPlaneCond(v int, inG, inOdd bool) {
	pp, ok := chk.pplanes[v]
	if !ok {
		return
	}
	good := false
	switch pp {
	case goflow.PPlaneXY:
		good = !inG && inOdd
	case goflow.PPlaneYZ:
		good = inG && !inOdd
	case goflow.PPlaneXZ:
		good = inG && inOdd
	case goflow.PPlaneX:
		good = inOdd
	case goflow.PPlaneY:
		good = inG != inOdd
	case goflow.PPlaneZ:
		// A Z measurement never propagates a correction.
		good = true
	}
	if !good {
		chk.flag(goflow.Violation{
			Kind:   goflow.InconsistentFlowPPlane,
			Vtx:    v,
			Other:  -1,
			PPlane: pp,
		})
	}
}

// orderExcused reports whether a non-earlier vertex w in g(v) or
// Odd(g(v)) is tolerated because its Pauli measurement commutes with
// the correction operator landing on it.
func (chk *flowChecker) orderExcused(w int, inG, inOdd bool) bool {
	pp, ok := chk.pplanes[w]
	if !ok {
		return false
	}
	if inG && pp != goflow.PPlaneX && pp != goflow.PPlaneY {
		return false
	}
	if inOdd && pp != goflow.PPlaneY && pp != goflow.PPlaneZ {
		return false
	}
	// A Y measurement commutes only with the XZ product, so w must
	// receive both sides or neither.
	if pp == goflow.PPlaneY && inG != inOdd {
		return false
	}
	return true
}
