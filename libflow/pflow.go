package libflow

import (
	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow/gf2"
	"github.com/plan-systems/klog"
)

// FindPFlow searches for a maximally-delayed Pauli flow of X under the
// given measurement assignment, where Pauli-measured vertices relax the
// ordering demands of a generalized flow. Absence returns (nil, nil);
// errors are reserved for malformed input.
//
// Z-measured vertices need no correction at all: they promote directly
// with an empty correction set instead of going through the solver.
func FindPFlow(X *OpenGraph, pplanes goflow.PPlaneMap) (*goflow.Flow, error) {
	if X == nil {
		return nil, goflow.ErrNilGraph
	}
	err := checkPlaneSpec(X, len(pplanes), func(vi int) bool {
		_, ok := pplanes[vi]
		return ok
	})
	if err != nil {
		return nil, err
	}
	for _, pp := range pplanes {
		if pp < goflow.PPlaneXY || pp > goflow.PPlaneZ {
			return nil, goflow.ErrBadPlane
		}
	}

	n := X.VertexCount()
	yset := goflow.NewVtxSet(n)
	xyset := goflow.NewVtxSet(n)
	yzset := goflow.NewVtxSet(n)
	for vi, pp := range pplanes {
		switch pp {
		case goflow.PPlaneX:
			xyset.Add(vi)
		case goflow.PPlaneY:
			yset.Add(vi)
			xyset.Add(vi)
			yzset.Add(vi)
		case goflow.PPlaneZ:
			yzset.Add(vi)
		}
	}

	ocset := X.NonOutputs()

	// Upper rows demand the correction's odd neighborhood, lower rows the
	// Y-stabilizer parity. Columns are the correction candidates.
	upper := goflow.NewVtxSet(n)
	upper.Fill(n)
	upper.SubtractWith(yzset)
	lower := yset.Clone()
	colset := xyset.Clone()
	colset.SubtractWith(X.Inputs())

	cset := goflow.NewVtxSet(n)
	f := make(map[int]goflow.VtxSet, ocset.Count())
	layers := make([]int, n)

	rowOf := make([]int, n)
	colOf := make([]int, n)
	var pending, upv, lov, cov []int

	for l := 0; ; l++ {
		cset.Clear()
		pending = ocset.AppendVtxIDs(pending[:0])
		for _, u := range pending {
			ppu := pplanes[u]
			if ppu == goflow.PPlaneZ {
				f[u] = goflow.NewVtxSet(n)
				layers[u] = l
				cset.Add(u)
				klog.V(2).Infof("pflow: g(%d)={} layer=%d", u, l)
				continue
			}

			// u itself gets an upper row and never corrects itself
			// through a column. Restored below.
			wasUpper := upper.Contains(u)
			upper.Add(u)
			wasLower := lower.Contains(u)
			lower.Remove(u)
			wasCol := colset.Contains(u)
			colset.Remove(u)

			fu := solvePFlowVtx(X, u, ppu, upper, lower, colset,
				rowOf, colOf, &upv, &lov, &cov)
			if fu != nil {
				f[u] = fu
				layers[u] = l
				cset.Add(u)
				klog.V(2).Infof("pflow: g(%d)=%v layer=%d", u, fu, l)
			}

			if !wasUpper {
				upper.Remove(u)
			}
			if wasLower {
				lower.Add(u)
			}
			if wasCol {
				colset.Add(u)
			}
		}

		if l == 0 {
			// Outputs graduate from constraint rows to correction columns.
			upper.SubtractWith(X.Outputs())
			lower.SubtractWith(X.Outputs())
			omi := X.Outputs().Clone()
			omi.SubtractWith(X.Inputs())
			colset.UnionWith(omi)
		} else if cset.IsEmpty() {
			break
		}
		ocset.SubtractWith(cset)
		upper.SubtractWith(cset)
		lower.SubtractWith(cset)
		cset.SubtractWith(X.Inputs())
		colset.UnionWith(cset)
	}

	if !ocset.IsEmpty() {
		klog.V(2).Info("pflow not found")
		return nil, nil
	}
	return &goflow.Flow{
		Corrections: f,
		Layers:      layers,
	}, nil
}

// solvePFlowVtx tries each admissible branch of u's measurement in a
// fixed order and returns the first correction set found, or nil.
func solvePFlowVtx(
	X *OpenGraph,
	u int, ppu goflow.PPlane,
	upper, lower, colset goflow.VtxSet,
	rowOf, colOf []int,
	upv, lov, cov *[]int,
) goflow.VtxSet {

	*upv = upper.AppendVtxIDs((*upv)[:0])
	*lov = lower.AppendVtxIDs((*lov)[:0])
	*cov = colset.AppendVtxIDs((*cov)[:0])
	nrows := len(*upv) + len(*lov)
	ncols := len(*cov)
	if nrows == 0 || ncols == 0 {
		return nil
	}

	for vi := range rowOf {
		rowOf[vi] = -1
		colOf[vi] = -1
	}
	for r, v := range *upv {
		rowOf[v] = r
	}
	for i, v := range *lov {
		rowOf[v] = len(*upv) + i
	}
	for c, v := range *cov {
		colOf[v] = c
	}

	co := make([]goflow.VtxSet, nrows)
	for r, v := range *upv {
		row := goflow.NewVtxSet(ncols)
		X.Adjacency(v).ForEach(func(w int) bool {
			if c := colOf[w]; c >= 0 {
				row.Add(c)
			}
			return true
		})
		co[r] = row
	}
	for i, v := range *lov {
		row := goflow.NewVtxSet(ncols)
		X.Adjacency(v).ForEach(func(w int) bool {
			if c := colOf[w]; c >= 0 {
				row.Add(c)
			}
			return true
		})
		// The vertex's own column completes the Y stabilizer parity.
		if c := colOf[v]; c >= 0 {
			row.Toggle(c)
		}
		co[len(*upv)+i] = row
	}

	trySolve := func(branch goflow.Plane) goflow.VtxSet {
		rhs := goflow.NewVtxSet(nrows)
		if branch != goflow.PlaneYZ {
			rhs.Add(rowOf[u])
		}
		if branch != goflow.PlaneXY {
			// The self-inclusion of u shifts its neighbors' parity to the rhs.
			X.Adjacency(u).ForEach(func(w int) bool {
				if r := rowOf[w]; r >= 0 {
					rhs.Toggle(r)
				}
				return true
			})
		}
		out, err := gf2.SolveBatch(co, ncols, []goflow.VtxSet{rhs})
		if err != nil || out[0] == nil {
			return nil
		}
		fu := goflow.NewVtxSet(X.VertexCount())
		out[0].ForEach(func(c int) bool {
			fu.Add((*cov)[c])
			return true
		})
		if branch != goflow.PlaneXY {
			fu.Add(u)
		}
		return fu
	}

	if ppu == goflow.PPlaneXY || ppu == goflow.PPlaneX || ppu == goflow.PPlaneY {
		if fu := trySolve(goflow.PlaneXY); fu != nil {
			return fu
		}
	}
	if ppu == goflow.PPlaneYZ || ppu == goflow.PPlaneY {
		if fu := trySolve(goflow.PlaneYZ); fu != nil {
			return fu
		}
	}
	if ppu == goflow.PPlaneXZ || ppu == goflow.PPlaneX {
		if fu := trySolve(goflow.PlaneXZ); fu != nil {
			return fu
		}
	}
	return nil
}
