package libflow

import (
	"github.com/mbqc-systems/goflow/goflow"
	"github.com/plan-systems/klog"
)

// FindCausalFlow searches for a maximally-delayed causal flow of X,
// where every non-output vertex u has a single successor f(u) through
// which its correction propagates. All measurements are implicitly in
// the XY plane. Absence returns (nil, nil).
func FindCausalFlow(X *OpenGraph) (*goflow.CausalFlow, error) {
	if X == nil {
		return nil, goflow.ErrNilGraph
	}
	n := X.VertexCount()

	oset := X.Outputs().Clone()
	cset := X.Outputs().Clone()
	cset.SubtractWith(X.Inputs())

	// check[v] counts down v's unmeasured neighbors; v can serve as a
	// correction successor once exactly one remains.
	check := make([]goflow.VtxSet, n)
	nonOut := X.NonOutputs()
	for vi := range check {
		check[vi] = X.Adjacency(vi).Clone()
		check[vi].IntersectWith(nonOut)
	}

	f := make(map[int]int, nonOut.Count())
	layers := make([]int, n)
	placed := goflow.NewVtxSet(n)
	used := goflow.NewVtxSet(n)
	var csv []int

	for l := 1; ; l++ {
		placed.Clear()
		used.Clear()
		csv = cset.AppendVtxIDs(csv[:0])
		for _, v := range csv {
			if check[v].Count() != 1 {
				continue
			}
			u := check[v].NextSet(0)
			if placed.Contains(u) {
				continue
			}
			f[u] = v
			layers[u] = l
			placed.Add(u)
			used.Add(v)
			klog.V(2).Infof("flow: f(%d)=%d layer=%d", u, v, l)
		}
		if placed.IsEmpty() {
			break
		}
		placed.ForEach(func(u int) bool {
			X.Adjacency(u).ForEach(func(w int) bool {
				check[w].Remove(u)
				return true
			})
			return true
		})
		oset.UnionWith(placed)
		cset.SubtractWith(used)
		placed.SubtractWith(X.Inputs())
		cset.UnionWith(placed)
	}

	full := goflow.NewVtxSet(n)
	full.Fill(n)
	if !oset.Equals(full) {
		klog.V(2).Info("flow not found")
		return nil, nil
	}
	return &goflow.CausalFlow{
		Successors: f,
		Layers:     layers,
	}, nil
}
