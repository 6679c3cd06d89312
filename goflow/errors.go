package goflow

import "errors"

// Errors
var (
	ErrUnmarshal        = errors.New("unmarshal failed")
	ErrBadCatalogParam  = errors.New("bad catalog param")
	ErrBadEncoding      = errors.New("bad pattern encoding")
	ErrNilGraph         = errors.New("nil open graph")
	ErrEmptyGraph       = errors.New("open graph has no vertices")
	ErrBadVtxID         = errors.New("vertex ID out of range")
	ErrSelfLoop         = errors.New("edge connects a vertex to itself")
	ErrBadIOSet         = errors.New("input or output set not contained in the vertex set")
	ErrBadPlane         = errors.New("unknown measurement plane")
	ErrBadMeasurement   = errors.New("measurement spec domain must equal the non-output vertex set")
	ErrPauliMeasurement = errors.New("Pauli measurement not allowed in a plane-only spec")
	ErrBadDims          = errors.New("mismatched matrix dimensions")
	ErrNotSolved        = errors.New("pattern has no solved flow")
)
