package goflow

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// FlowKind selects which flow family a search or catalog entry refers to.
type FlowKind int32

const (
	FlowCausal      FlowKind = 0
	FlowGeneralized FlowKind = 1
	FlowPauli       FlowKind = 2
)

func (kind FlowKind) String() string {
	switch kind {
	case FlowCausal:
		return "flow"
	case FlowGeneralized:
		return "gflow"
	case FlowPauli:
		return "pflow"
	}
	return "??"
}

// ParseFlowKind reads a flow kind label as used by the CLI and binding layer.
func ParseFlowKind(label string) (FlowKind, error) {
	switch label {
	case "flow", "causal":
		return FlowCausal, nil
	case "gflow":
		return FlowGeneralized, nil
	case "pflow":
		return FlowPauli, nil
	}
	return 0, ErrBadCatalogParam
}

// Flow is the (order, correction map) pair produced by a flow search.
//
// Layers is indexed by vertex ID; outputs sit at layer 0 and a larger
// layer means the vertex is measured earlier. Corrections maps each
// corrected vertex to its correction set; a Pauli-Z measured vertex
// needs no correction and carries no entry.
type Flow struct {
	Corrections map[int]VtxSet
	Layers      []int
}

// CausalFlow is the single-successor flow for all-XY measurement specs.
type CausalFlow struct {
	Successors map[int]int
	Layers     []int
}

func (F *Flow) Layer(vi int) int {
	if F == nil || vi < 0 || vi >= len(F.Layers) {
		return 0
	}
	return F.Layers[vi]
}

// MaxLayer returns the largest assigned layer.
func (F *Flow) MaxLayer() int {
	maxl := 0
	for _, l := range F.Layers {
		if l > maxl {
			maxl = l
		}
	}
	return maxl
}

// AsFlow lifts a causal flow to the correction-set form, so a single
// validator covers both.
func (cf *CausalFlow) AsFlow(numVerts int) *Flow {
	F := &Flow{
		Corrections: make(map[int]VtxSet, len(cf.Successors)),
		Layers:      append([]int{}, cf.Layers...),
	}
	for vi, fi := range cf.Successors {
		g := NewVtxSet(numVerts)
		g.Add(fi)
		F.Corrections[vi] = g
	}
	return F
}

// WriteAsString emits a one-line human form:
//
//	layers [2 1 0] g(0)={1} g(1)={2}
func (F *Flow) WriteAsString(out io.Writer) {
	fmt.Fprintf(out, "layers %v", F.Layers)
	domain := make([]int, 0, len(F.Corrections))
	for vi := range F.Corrections {
		domain = append(domain, vi)
	}
	sort.Ints(domain)
	for _, vi := range domain {
		fmt.Fprintf(out, " g(%d)=%v", vi, F.Corrections[vi])
	}
}

// AppendFlowLSM appends a canonical binary encoding of F: one varint
// layer per vertex, then the correction entries in ascending vertex
// order, each as (vertex, set size, ascending members).
func (F *Flow) AppendFlowLSM(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}

	putUvarint(uint64(len(F.Layers)))
	for _, l := range F.Layers {
		putUvarint(uint64(l))
	}

	domain := make([]int, 0, len(F.Corrections))
	for vi := range F.Corrections {
		domain = append(domain, vi)
	}
	sort.Ints(domain)

	putUvarint(uint64(len(domain)))
	for _, vi := range domain {
		g := F.Corrections[vi]
		putUvarint(uint64(vi))
		putUvarint(uint64(g.Count()))
		g.ForEach(func(wi int) bool {
			putUvarint(uint64(wi))
			return true
		})
	}
	return out
}

// InitFromFlowLSM assigns this Flow from an encoding made by AppendFlowLSM.
func (F *Flow) InitFromFlowLSM(in []byte) error {
	rdr := bytes.NewReader(in)

	numVerts, err := binary.ReadUvarint(rdr)
	if err != nil {
		return ErrUnmarshal
	}
	F.Layers = make([]int, numVerts)
	for vi := range F.Layers {
		l, err := binary.ReadUvarint(rdr)
		if err != nil {
			return ErrUnmarshal
		}
		F.Layers[vi] = int(l)
	}

	numEntries, err := binary.ReadUvarint(rdr)
	if err != nil {
		return ErrUnmarshal
	}
	F.Corrections = make(map[int]VtxSet, numEntries)
	for i := uint64(0); i < numEntries; i++ {
		vi, err := binary.ReadUvarint(rdr)
		if err != nil {
			return ErrUnmarshal
		}
		setSz, err := binary.ReadUvarint(rdr)
		if err != nil {
			return ErrUnmarshal
		}
		g := NewVtxSet(int(numVerts))
		for j := uint64(0); j < setSz; j++ {
			wi, err := binary.ReadUvarint(rdr)
			if err != nil || wi >= numVerts {
				return ErrUnmarshal
			}
			g.Add(int(wi))
		}
		F.Corrections[int(vi)] = g
	}
	return nil
}
