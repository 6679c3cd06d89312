package goflow

import (
	"io"
)

// PatternState is a labelled open graph plus its measurement spec and,
// once solved, its flow result. Implemented by libflow.Pattern.
type PatternState interface {

	// VertexCount returns the number of vertices in the open graph.
	VertexCount() int

	// Solve runs the flow search of the given kind and caches the result.
	// Found reports whether a flow exists; absence is not an error.
	Solve(kind FlowKind) (found bool, err error)

	// Flow returns the cached result of the last successful Solve, or nil.
	Flow() *Flow

	// Validate re-checks the cached flow against the formal definition.
	Validate() []Violation

	WriteAsString(out io.Writer, opts PrintOpts)

	// AppendPatternLSM appends the canonical binary encoding of the open
	// graph and measurement spec (catalog key form).
	AppendPatternLSM(out []byte) []byte

	// Returns a new copy of this instance.
	MakeCopy() PatternState

	// Returns summary info about this pattern.
	GetInfo() PatternInfo

	// Recycles this PatternState instance into a pool for reuse.
	// Caller asserts that no more references to this instance will persist.
	Reclaim()
}

// OnPatternHit is a callback channel used to return patterns meeting a
// set of selection criteria. Ownership of a pattern travels with it.
type OnPatternHit chan<- PatternState

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs then closes this context.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed.
	Done() <-chan struct{}
}

// CatalogOpts specifies params for opening a flow Catalog.
type CatalogOpts struct {
	DbPathName  string   // omit for an in-memory db
	ReadOnly    bool     // open in read-only mode
	Kind        FlowKind // flow family solved when patterns are added
	CacheAbsent bool     // also record patterns that admit no flow
}

type FlowAdder interface {

	// Tries to add the given pattern (and its flow result) to this target.
	// If true is returned, the pattern did not exist and was added.
	TryAddPattern(p PatternState) bool
}

// Catalog wraps a database of solved flow patterns.
type Catalog interface {
	FlowAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// NumPatterns returns the number of stored patterns for a given vertex count.
	// An out of bounds vertex count returns 0.
	NumPatterns(forVtxCount byte) int64

	// NumFlows returns how many stored patterns of the given vertex count
	// admit a flow of the catalog's kind.
	NumFlows(forVtxCount byte) int64

	// Select fires the given callback with each stored pattern that meets
	// the selection criteria.
	Select(sel PatternSelector, onHit OnPatternHit)

	Close() error
}

// PatternInfo summarizes a pattern for range selection.
type PatternInfo struct {
	NumVerts   byte
	NumEdges   byte
	NumInputs  byte
	NumOutputs byte
	NumPauli   byte // count of fixed-basis measurements
}

// PatternSelector is an operator that either selects a given pattern or not.
type PatternSelector struct {
	RequireFlow   bool        // only select patterns whose flow search succeeded
	RequireAbsent bool        // only select patterns with no flow
	Min           PatternInfo // lower select bounds
	Max           PatternInfo // upper select bounds
}

// PrintOpts specifies what is printed when printing a pattern.
type PrintOpts struct {
	Label      string // prefix label
	Graph      bool   // if set, prints the pattern construction expr
	Flow       bool   // if set, prints the solved correction map and layers
	Violations bool   // if set, re-validates and prints any violations
}

// DefaultPrintOpts prints the expression and any solved flow.
var DefaultPrintOpts = PrintOpts{
	Graph: true,
	Flow:  true,
}
