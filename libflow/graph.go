package libflow

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mbqc-systems/goflow/goflow"
)

// OpenGraph is a labelled open graph: a symmetric irreflexive adjacency
// relation over dense 0-based vertex IDs plus designated input and
// output subsets. Instances are immutable once constructed; the flow
// searches and validator only read them.
type OpenGraph struct {
	adj       []goflow.VtxSet
	ins       goflow.VtxSet
	outs      goflow.VtxSet
	edgeCount int
}

// NewOpenGraph validates and builds an open graph from an edge list.
// Malformed input (no vertices, endpoint out of range, self loop,
// input/output outside V) is a fatal construction error.
func NewOpenGraph(numVerts int, edges [][2]int, inputs, outputs []int) (*OpenGraph, error) {
	if numVerts <= 0 {
		return nil, goflow.ErrEmptyGraph
	}

	X := &OpenGraph{
		adj:  make([]goflow.VtxSet, numVerts),
		ins:  goflow.NewVtxSet(numVerts),
		outs: goflow.NewVtxSet(numVerts),
	}
	for vi := range X.adj {
		X.adj[vi] = goflow.NewVtxSet(numVerts)
	}

	for _, e := range edges {
		va, vb := e[0], e[1]
		if va < 0 || va >= numVerts || vb < 0 || vb >= numVerts {
			return nil, goflow.ErrBadVtxID
		}
		if va == vb {
			return nil, goflow.ErrSelfLoop
		}
		if !X.adj[va].Contains(vb) {
			X.adj[va].Add(vb)
			X.adj[vb].Add(va)
			X.edgeCount++
		}
	}

	for _, vi := range inputs {
		if vi < 0 || vi >= numVerts {
			return nil, goflow.ErrBadIOSet
		}
		X.ins.Add(vi)
	}
	for _, vi := range outputs {
		if vi < 0 || vi >= numVerts {
			return nil, goflow.ErrBadIOSet
		}
		X.outs.Add(vi)
	}

	return X, nil
}

func (X *OpenGraph) VertexCount() int {
	return len(X.adj)
}

func (X *OpenGraph) EdgeCount() int {
	return X.edgeCount
}

// Adjacency returns the neighbor set of vi. The returned set is borrowed
// and must not be mutated.
func (X *OpenGraph) Adjacency(vi int) goflow.VtxSet {
	return X.adj[vi]
}

// Inputs returns the input set (borrowed, read-only).
func (X *OpenGraph) Inputs() goflow.VtxSet {
	return X.ins
}

// Outputs returns the output set (borrowed, read-only).
func (X *OpenGraph) Outputs() goflow.VtxSet {
	return X.outs
}

// NonOutputs returns a new set holding V minus the outputs.
func (X *OpenGraph) NonOutputs() goflow.VtxSet {
	set := goflow.NewVtxSet(len(X.adj))
	set.Fill(len(X.adj))
	set.SubtractWith(X.outs)
	return set
}

// OddNeighbors returns Odd(K): the vertices adjacent to an odd number of
// members of K, computed as the XOR accumulation of adjacency rows.
func (X *OpenGraph) OddNeighbors(K goflow.VtxSet) goflow.VtxSet {
	odd := goflow.NewVtxSet(len(X.adj))
	K.ForEach(func(vi int) bool {
		if vi < len(X.adj) {
			odd.SymDiffWith(X.adj[vi])
		}
		return true
	})
	return odd
}

func (X *OpenGraph) MakeCopy() *OpenGraph {
	dupe := &OpenGraph{
		adj:       make([]goflow.VtxSet, len(X.adj)),
		ins:       X.ins.Clone(),
		outs:      X.outs.Clone(),
		edgeCount: X.edgeCount,
	}
	for vi := range X.adj {
		dupe.adj[vi] = X.adj[vi].Clone()
	}
	return dupe
}

// AppendGraphLSM appends the canonical binary encoding: vertex count,
// input and output sets, then the upper-triangular edge list, all as
// ascending uvarints. Leading with the vertex count keeps catalog keys
// ordered by graph size.
func (X *OpenGraph) AppendGraphLSM(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}

	putUvarint(uint64(len(X.adj)))

	putUvarint(uint64(X.ins.Count()))
	X.ins.ForEach(func(vi int) bool {
		putUvarint(uint64(vi))
		return true
	})

	putUvarint(uint64(X.outs.Count()))
	X.outs.ForEach(func(vi int) bool {
		putUvarint(uint64(vi))
		return true
	})

	putUvarint(uint64(X.edgeCount))
	for va := range X.adj {
		X.adj[va].ForEach(func(vb int) bool {
			if vb > va {
				putUvarint(uint64(va))
				putUvarint(uint64(vb))
			}
			return true
		})
	}
	return out
}

// WriteAsString emits the expression form accepted by the pattern
// grammar, e.g. "0-1-2; i 0; o 2".
func (X *OpenGraph) WriteAsString(out io.Writer) {
	wrote := false
	for va := range X.adj {
		X.adj[va].ForEach(func(vb int) bool {
			if vb > va {
				if wrote {
					fmt.Fprint(out, "; ")
				}
				fmt.Fprintf(out, "%d-%d", va, vb)
				wrote = true
			}
			return true
		})
	}
	// A lone top vertex ID pins the vertex count for isolated vertices.
	last := len(X.adj) - 1
	if X.adj[last].IsEmpty() {
		if wrote {
			fmt.Fprint(out, "; ")
		}
		fmt.Fprintf(out, "%d", last)
	}
	if !X.ins.IsEmpty() {
		fmt.Fprint(out, "; i")
		X.ins.ForEach(func(vi int) bool {
			fmt.Fprintf(out, " %d", vi)
			return true
		})
	}
	if !X.outs.IsEmpty() {
		fmt.Fprint(out, "; o")
		X.outs.ForEach(func(vi int) bool {
			fmt.Fprintf(out, " %d", vi)
			return true
		})
	}
}
