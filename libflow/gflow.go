package libflow

import (
	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow/gf2"
	"github.com/plan-systems/klog"
)

// checkPlaneSpec verifies that a measurement spec's domain is exactly
// the non-output vertex set. Anything else is a caller contract error.
func checkPlaneSpec(X *OpenGraph, numEntries int, hasEntry func(vi int) bool) error {
	n := X.VertexCount()
	nonOut := n - X.Outputs().Count()
	if numEntries != nonOut {
		return goflow.ErrBadMeasurement
	}
	for vi := 0; vi < n; vi++ {
		measured := hasEntry(vi)
		if measured == X.Outputs().Contains(vi) {
			return goflow.ErrBadMeasurement
		}
	}
	return nil
}

// FindGFlow searches for a maximally-delayed generalized flow of X under
// the given plane assignment. Absence of a flow is a normal outcome and
// returns (nil, nil); an error is returned only for malformed input.
func FindGFlow(X *OpenGraph, planes goflow.PlaneMap) (*goflow.Flow, error) {
	if X == nil {
		return nil, goflow.ErrNilGraph
	}
	err := checkPlaneSpec(X, len(planes), func(vi int) bool {
		_, ok := planes[vi]
		return ok
	})
	if err != nil {
		return nil, err
	}
	for _, p := range planes {
		if p < goflow.PlaneXY || p > goflow.PlaneXZ {
			return nil, goflow.ErrBadPlane
		}
	}

	n := X.VertexCount()
	ocset := X.NonOutputs()
	omiset := X.Outputs().Clone()
	omiset.SubtractWith(X.Inputs())
	cset := goflow.NewVtxSet(n)

	f := make(map[int]goflow.VtxSet, ocset.Count())
	layers := make([]int, n)

	// Vertex-to-row/column index tables, rebuilt each layer.
	rowOf := make([]int, n)
	colOf := make([]int, n)
	var ocv, omv []int

	for l := 1; ; l++ {
		cset.Clear()
		ocv = ocset.AppendVtxIDs(ocv[:0])
		omv = omiset.AppendVtxIDs(omv[:0])
		if len(ocv) == 0 || len(omv) == 0 {
			break
		}
		klog.V(2).Infof("gflow layer %d: pending=%v candidates=%v", l, ocv, omv)

		ncols := len(omv)
		for vi := range rowOf {
			rowOf[vi] = -1
			colOf[vi] = -1
		}
		for r, u := range ocv {
			rowOf[u] = r
		}
		for c, v := range omv {
			colOf[v] = c
		}

		// One equation row per pending vertex, one rhs column per
		// pending vertex's plane condition.
		work := gf2.NewWork(len(ocv), ncols, len(ocv))
		for i, u := range ocv {
			X.Adjacency(u).ForEach(func(v int) bool {
				if c := colOf[v]; c >= 0 {
					work[i].Add(c)
				}
				return true
			})
			rhs := ncols + i
			plane := planes[u]
			if plane == goflow.PlaneXY || plane == goflow.PlaneXZ {
				work[i].Add(rhs)
			}
			if plane == goflow.PlaneXY {
				continue
			}
			// The self-inclusion of u shifts its neighbors' parity to the rhs.
			X.Adjacency(u).ForEach(func(v int) bool {
				if r := rowOf[v]; r >= 0 {
					work[r].Toggle(rhs)
				}
				return true
			})
		}

		solver, err := gf2.Attach(work, ncols, len(ocv))
		if err != nil {
			return nil, err
		}
		x := goflow.NewVtxSet(ncols)
		for ieq, u := range ocv {
			if !solver.SolveInto(x, ieq) {
				continue
			}
			cset.Add(u)
			fu := goflow.NewVtxSet(n)
			x.ForEach(func(c int) bool {
				fu.Add(omv[c])
				return true
			})
			if plane := planes[u]; plane == goflow.PlaneYZ || plane == goflow.PlaneXZ {
				fu.Add(u)
			}
			f[u] = fu
			layers[u] = l
			klog.V(2).Infof("gflow: g(%d)=%v layer=%d", u, fu, l)
		}

		if cset.IsEmpty() {
			break
		}
		ocset.SubtractWith(cset)
		cset.SubtractWith(X.Inputs())
		omiset.UnionWith(cset)
	}

	if !ocset.IsEmpty() {
		klog.V(2).Info("gflow not found")
		return nil, nil
	}
	return &goflow.Flow{
		Corrections: f,
		Layers:      layers,
	}, nil
}
