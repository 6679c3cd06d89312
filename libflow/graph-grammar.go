package libflow

import (
	"github.com/alecthomas/participle/v2"
	"github.com/mbqc-systems/goflow/goflow"
	"github.com/pkg/errors"
)

// The pattern expression form is a ';' separated clause list:
//
//	0-1-2-3-4; i 0; o 4; 1:Y; 3:YZ
//
// An edge run chains vertices with '-'; a lone vertex ID declares an
// isolated vertex (pinning the vertex count). "i" and "o" clauses list
// the input and output sets. A ':' suffix assigns a measurement basis
// to the vertex it follows, in place of the default XY plane.
type PatternExpr struct {
	Clauses []*Clause `parser:"(@@ (';' @@)*)?"`
}

type Clause struct {
	Inputs  *VtxList `parser:"  'i' @@"`
	Outputs *VtxList `parser:"| 'o' @@"`
	Run     *EdgeRun `parser:"| @@"`
}

type VtxList struct {
	IDs []int64 `parser:"@Int+"`
}

type EdgeRun struct {
	StartVtx int64      `parser:"@Int"`
	Basis    string     `parser:"(':' @Ident)?"`
	Edges    []*EdgeDst `parser:"@@*"`
}

type EdgeDst struct {
	EndVtx int64  `parser:"'-' @Int"`
	Basis  string `parser:"(':' @Ident)?"`
}

var parsePatternGrammar = participle.MustBuild[PatternExpr]()

type patternBuilder struct {
	numVerts int
	edges    [][2]int
	inputs   []int
	outputs  []int
	spec     goflow.PPlaneMap
}

func (pb *patternBuilder) tallyVtx(id int64, basis string) (int, error) {
	if id < 0 || id >= int64(goflow.MaxSelectorVerts) {
		return 0, goflow.ErrBadVtxID
	}
	vi := int(id)
	if pb.numVerts <= vi {
		pb.numVerts = vi + 1
	}
	if basis != "" {
		pp, err := goflow.ParsePPlane(basis)
		if err != nil {
			return 0, errors.Wrapf(err, "vertex %d", vi)
		}
		pb.spec[vi] = pp
	}
	return vi, nil
}

func (pb *patternBuilder) applyRun(run *EdgeRun) error {
	onVtx, err := pb.tallyVtx(run.StartVtx, run.Basis)
	if err != nil {
		return err
	}
	for _, edge := range run.Edges {
		nextVtx, err := pb.tallyVtx(edge.EndVtx, edge.Basis)
		if err != nil {
			return err
		}
		pb.edges = append(pb.edges, [2]int{onVtx, nextVtx})
		onVtx = nextVtx
	}
	return nil
}

func (pb *patternBuilder) applyClause(clause *Clause) error {
	switch {
	case clause.Inputs != nil:
		for _, id := range clause.Inputs.IDs {
			vi, err := pb.tallyVtx(id, "")
			if err != nil {
				return err
			}
			pb.inputs = append(pb.inputs, vi)
		}
	case clause.Outputs != nil:
		for _, id := range clause.Outputs.IDs {
			vi, err := pb.tallyVtx(id, "")
			if err != nil {
				return err
			}
			pb.outputs = append(pb.outputs, vi)
		}
	case clause.Run != nil:
		return pb.applyRun(clause.Run)
	}
	return nil
}

// parsePatternExpr reads the expression form into an open graph and
// measurement spec.
func parsePatternExpr(expr string) (*OpenGraph, goflow.PPlaneMap, error) {
	ast, err := parsePatternGrammar.ParseString("", expr)
	if err != nil {
		return nil, nil, errors.Wrap(goflow.ErrBadEncoding, err.Error())
	}

	pb := patternBuilder{
		spec: make(goflow.PPlaneMap),
	}
	for _, clause := range ast.Clauses {
		if err := pb.applyClause(clause); err != nil {
			return nil, nil, err
		}
	}

	X, err := NewOpenGraph(pb.numVerts, pb.edges, pb.inputs, pb.outputs)
	if err != nil {
		return nil, nil, err
	}
	return X, pb.spec, nil
}

// NewOpenGraphFromExpr builds just the open graph of an expression,
// ignoring any measurement clauses.
func NewOpenGraphFromExpr(expr string) (*OpenGraph, error) {
	X, _, err := parsePatternExpr(expr)
	return X, err
}
