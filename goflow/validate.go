package goflow

import (
	"fmt"
	"sort"
)

// ViolationKind tags one clause of the flow definition.
type ViolationKind int32

const (
	// ExcessiveNonZeroLayer: an output vertex was assigned a layer > 0.
	ExcessiveNonZeroLayer ViolationKind = iota

	// ExcessiveZeroLayer: a plane-measured non-output vertex sits at layer 0.
	ExcessiveZeroLayer

	// InvalidFlowDomain: the correction map's domain disagrees with the
	// set of vertices that must carry a correction.
	InvalidFlowDomain

	// InvalidFlowCodomain: a correction set references a vertex outside V,
	// or an input vertex other than the corrected vertex itself.
	InvalidFlowCodomain

	// InvalidMeasurementSpec: a vertex's presence in the measurement spec
	// does not match its non-output status.
	InvalidMeasurementSpec

	// InconsistentFlowOrder: a vertex in g(v) or Odd(g(v)) is not measured
	// strictly after v.
	InconsistentFlowOrder

	// InconsistentFlowPlane: g(v) fails the algebraic condition of v's plane.
	InconsistentFlowPlane

	// InconsistentFlowPPlane: g(v) fails the algebraic condition of v's
	// Pauli plane.
	InconsistentFlowPPlane
)

func (kind ViolationKind) String() string {
	switch kind {
	case ExcessiveNonZeroLayer:
		return "ExcessiveNonZeroLayer"
	case ExcessiveZeroLayer:
		return "ExcessiveZeroLayer"
	case InvalidFlowDomain:
		return "InvalidFlowDomain"
	case InvalidFlowCodomain:
		return "InvalidFlowCodomain"
	case InvalidMeasurementSpec:
		return "InvalidMeasurementSpec"
	case InconsistentFlowOrder:
		return "InconsistentFlowOrder"
	case InconsistentFlowPlane:
		return "InconsistentFlowPlane"
	case InconsistentFlowPPlane:
		return "InconsistentFlowPPlane"
	}
	return "??"
}

// Violation reports exactly one violated flow invariant.
type Violation struct {
	Kind   ViolationKind
	Vtx    int    // offending vertex
	Other  int    // InconsistentFlowOrder: vertex required to be later; else -1
	Layer  int    // ExcessiveNonZeroLayer: the assigned layer
	Plane  Plane  // InconsistentFlowPlane payload
	PPlane PPlane // InconsistentFlowPPlane payload
}

func (v Violation) String() string {
	switch v.Kind {
	case ExcessiveNonZeroLayer:
		return fmt.Sprintf("%v(%d, layer=%d)", v.Kind, v.Vtx, v.Layer)
	case InconsistentFlowOrder:
		return fmt.Sprintf("%v((%d, %d))", v.Kind, v.Vtx, v.Other)
	case InconsistentFlowPlane:
		return fmt.Sprintf("%v(%d, %v)", v.Kind, v.Vtx, v.Plane)
	case InconsistentFlowPPlane:
		return fmt.Sprintf("%v(%d, %v)", v.Kind, v.Vtx, v.PPlane)
	}
	return fmt.Sprintf("%v(%d)", v.Kind, v.Vtx)
}

// SortViolations puts a violation list into its canonical order:
// vertex ID ascending, then kind, then secondary vertex.
func SortViolations(list []Violation) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Vtx != b.Vtx {
			return a.Vtx < b.Vtx
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Other < b.Other
	})
}
