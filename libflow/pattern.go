package libflow

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mbqc-systems/goflow/goflow"
)

// Pattern is a labelled open graph plus its measurement spec and, once
// solved, the cached flow result. It implements goflow.PatternState.
//
// Vertices without a spec entry are non-outputs measured in the default
// XY plane; output vertices never carry an entry.
type Pattern struct {
	X      *OpenGraph
	spec   goflow.PPlaneMap
	kind   goflow.FlowKind
	solved bool
	flow   *goflow.Flow
	causal *goflow.CausalFlow
}

var patternPool = sync.Pool{
	New: func() interface{} {
		return new(Pattern)
	},
}

// NewPattern wraps an open graph and measurement spec, completing the
// spec with default XY entries for uncovered non-output vertices.
func NewPattern(X *OpenGraph, spec goflow.PPlaneMap) (*Pattern, error) {
	if X == nil {
		return nil, goflow.ErrNilGraph
	}
	full := make(goflow.PPlaneMap, X.VertexCount())
	for vi, pp := range spec {
		if vi < 0 || vi >= X.VertexCount() || X.Outputs().Contains(vi) {
			return nil, goflow.ErrBadMeasurement
		}
		if pp < goflow.PPlaneXY || pp > goflow.PPlaneZ {
			return nil, goflow.ErrBadPlane
		}
		full[vi] = pp
	}
	X.NonOutputs().ForEach(func(vi int) bool {
		if _, ok := full[vi]; !ok {
			full[vi] = goflow.PPlaneXY
		}
		return true
	})

	p := patternPool.Get().(*Pattern)
	*p = Pattern{
		X:    X,
		spec: full,
	}
	return p, nil
}

// NewPatternFromExpr builds a pattern from its expression form, e.g.
//
//	"0-1-2-3-4; i 0; o 4; 1:Y; 2:YZ"
func NewPatternFromExpr(expr string) (*Pattern, error) {
	X, spec, err := parsePatternExpr(expr)
	if err != nil {
		return nil, err
	}
	return NewPattern(X, spec)
}

// NewPatternFromLSM decodes a pattern from its canonical binary form.
func NewPatternFromLSM(in []byte) (*Pattern, error) {
	p := patternPool.Get().(*Pattern)
	if err := p.InitFromPatternLSM(in); err != nil {
		p.Reclaim()
		return nil, err
	}
	return p, nil
}

func (p *Pattern) VertexCount() int {
	return p.X.VertexCount()
}

// Graph returns the pattern's open graph (borrowed, read-only).
func (p *Pattern) Graph() *OpenGraph {
	return p.X
}

// Spec returns the pattern's measurement spec (borrowed, read-only).
func (p *Pattern) Spec() goflow.PPlaneMap {
	return p.spec
}

// NumPauli counts the fixed-basis entries of the measurement spec.
func (p *Pattern) NumPauli() int {
	n := 0
	for _, pp := range p.spec {
		if pp.IsPauli() {
			n++
		}
	}
	return n
}

// Solve runs the flow search of the given kind and caches the result.
// Repeat calls for the same kind are free. Absence is not an error: it
// returns (false, nil) and leaves Flow() nil.
func (p *Pattern) Solve(kind goflow.FlowKind) (bool, error) {
	if p.solved && p.kind == kind {
		return p.flow != nil, nil
	}
	p.solved = false
	p.flow = nil
	p.causal = nil

	switch kind {
	case goflow.FlowCausal:
		for _, pp := range p.spec {
			if pp != goflow.PPlaneXY {
				return false, goflow.ErrBadMeasurement
			}
		}
		cf, err := FindCausalFlow(p.X)
		if err != nil {
			return false, err
		}
		p.causal = cf
		if cf != nil {
			p.flow = cf.AsFlow(p.X.VertexCount())
		}
	case goflow.FlowGeneralized:
		planes, err := p.spec.Restrict()
		if err != nil {
			return false, err
		}
		F, err := FindGFlow(p.X, planes)
		if err != nil {
			return false, err
		}
		p.flow = F
	case goflow.FlowPauli:
		F, err := FindPFlow(p.X, p.spec)
		if err != nil {
			return false, err
		}
		p.flow = F
	default:
		return false, goflow.ErrBadCatalogParam
	}

	p.kind = kind
	p.solved = true
	return p.flow != nil, nil
}

// SetSolved installs a flow result loaded from storage, as if Solve had
// produced it.
func (p *Pattern) SetSolved(kind goflow.FlowKind, F *goflow.Flow) {
	p.kind = kind
	p.solved = true
	p.flow = F
	p.causal = nil
	if F != nil && kind == goflow.FlowCausal {
		cf := &goflow.CausalFlow{
			Successors: make(map[int]int, len(F.Corrections)),
			Layers:     F.Layers,
		}
		for vi, g := range F.Corrections {
			cf.Successors[vi] = g.NextSet(0)
		}
		p.causal = cf
	}
}

// Flow returns the result of the last successful Solve, or nil if the
// pattern is unsolved or admits no flow.
func (p *Pattern) Flow() *goflow.Flow {
	return p.flow
}

// Validate re-checks the cached flow against the formal definition and
// returns every violation found. A solved pattern with no cached flow
// has nothing to validate.
func (p *Pattern) Validate() []goflow.Violation {
	if !p.solved || p.flow == nil {
		return nil
	}
	switch p.kind {
	case goflow.FlowCausal:
		return ValidateCausalFlow(p.X, p.causal)
	case goflow.FlowGeneralized:
		planes, err := p.spec.Restrict()
		if err != nil {
			return nil
		}
		return ValidateGFlow(p.X, planes, p.flow)
	case goflow.FlowPauli:
		return ValidatePFlow(p.X, p.spec, p.flow)
	}
	return nil
}

func (p *Pattern) GetInfo() goflow.PatternInfo {
	return goflow.PatternInfo{
		NumVerts:   byte(p.X.VertexCount()),
		NumEdges:   byte(p.X.EdgeCount()),
		NumInputs:  byte(p.X.Inputs().Count()),
		NumOutputs: byte(p.X.Outputs().Count()),
		NumPauli:   byte(p.NumPauli()),
	}
}

func (p *Pattern) WriteAsString(out io.Writer, opts goflow.PrintOpts) {
	if opts.Graph {
		p.X.WriteAsString(out)
		p.forEachSpecEntry(func(vi int, pp goflow.PPlane) {
			if pp != goflow.PPlaneXY {
				fmt.Fprintf(out, "; %d:%v", vi, pp)
			}
		})
	}
	if opts.Flow && p.solved {
		fmt.Fprintf(out, ",%v,", p.kind)
		if p.flow != nil {
			p.flow.WriteAsString(out)
		} else {
			fmt.Fprint(out, "absent")
		}
	}
	if opts.Violations {
		if vlist := p.Validate(); len(vlist) > 0 {
			fmt.Fprint(out, ",violations")
			for _, v := range vlist {
				fmt.Fprintf(out, " %v", v)
			}
		}
	}
}

// forEachSpecEntry visits the measurement spec in ascending vertex order.
func (p *Pattern) forEachSpecEntry(fn func(vi int, pp goflow.PPlane)) {
	domain := make([]int, 0, len(p.spec))
	for vi := range p.spec {
		domain = append(domain, vi)
	}
	sort.Ints(domain)
	for _, vi := range domain {
		fn(vi, p.spec[vi])
	}
}

// AppendPatternLSM appends the canonical binary form: the graph encoding
// followed by the measurement spec as (vertex, basis) pairs ascending.
// Equal patterns produce equal encodings, so this doubles as a catalog key.
func (p *Pattern) AppendPatternLSM(out []byte) []byte {
	out = p.X.AppendGraphLSM(out)

	var scrap [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	putUvarint(uint64(len(p.spec)))
	p.forEachSpecEntry(func(vi int, pp goflow.PPlane) {
		putUvarint(uint64(vi))
		putUvarint(uint64(pp))
	})
	return out
}

// InitFromPatternLSM assigns this Pattern from an encoding made by
// AppendPatternLSM, discarding any cached flow.
func (p *Pattern) InitFromPatternLSM(in []byte) error {
	rdr := bytes.NewReader(in)
	readUvarint := func() (uint64, error) {
		return binary.ReadUvarint(rdr)
	}

	numVerts, err := readUvarint()
	if err != nil || numVerts == 0 {
		return goflow.ErrUnmarshal
	}
	n := int(numVerts)

	readVtxList := func() ([]int, error) {
		count, err := readUvarint()
		if err != nil || count > numVerts {
			return nil, goflow.ErrUnmarshal
		}
		list := make([]int, count)
		for i := range list {
			vi, err := readUvarint()
			if err != nil || vi >= numVerts {
				return nil, goflow.ErrUnmarshal
			}
			list[i] = int(vi)
		}
		return list, nil
	}

	ins, err := readVtxList()
	if err != nil {
		return err
	}
	outs, err := readVtxList()
	if err != nil {
		return err
	}

	edgeCount, err := readUvarint()
	if err != nil {
		return goflow.ErrUnmarshal
	}
	edges := make([][2]int, edgeCount)
	for i := range edges {
		va, err := readUvarint()
		if err != nil {
			return goflow.ErrUnmarshal
		}
		vb, err := readUvarint()
		if err != nil {
			return goflow.ErrUnmarshal
		}
		edges[i] = [2]int{int(va), int(vb)}
	}

	X, err := NewOpenGraph(n, edges, ins, outs)
	if err != nil {
		return err
	}

	numSpec, err := readUvarint()
	if err != nil || numSpec > numVerts {
		return goflow.ErrUnmarshal
	}
	spec := make(goflow.PPlaneMap, numSpec)
	for i := uint64(0); i < numSpec; i++ {
		vi, err := readUvarint()
		if err != nil || vi >= numVerts {
			return goflow.ErrUnmarshal
		}
		pp, err := readUvarint()
		if err != nil || pp > uint64(goflow.PPlaneZ) {
			return goflow.ErrUnmarshal
		}
		spec[int(vi)] = goflow.PPlane(pp)
	}

	*p = Pattern{
		X:    X,
		spec: spec,
	}
	return nil
}

// MakeCopy returns an independent copy. The cached flow is immutable
// once solved and is shared.
func (p *Pattern) MakeCopy() goflow.PatternState {
	dupe := patternPool.Get().(*Pattern)
	spec := make(goflow.PPlaneMap, len(p.spec))
	for vi, pp := range p.spec {
		spec[vi] = pp
	}
	*dupe = Pattern{
		X:      p.X.MakeCopy(),
		spec:   spec,
		kind:   p.kind,
		solved: p.solved,
		flow:   p.flow,
		causal: p.causal,
	}
	return dupe
}

func (p *Pattern) Reclaim() {
	if p != nil {
		*p = Pattern{}
		patternPool.Put(p)
	}
}
