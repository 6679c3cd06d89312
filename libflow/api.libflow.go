package libflow

import (
	"encoding/binary"

	"github.com/mbqc-systems/goflow/goflow"
)

// OpenCatalog is a forward declared entry point, allowing Catalog
// implementations to decouple from the libflow module.
var OpenCatalog func(ctx goflow.CatalogContext, opts goflow.CatalogOpts) (goflow.Catalog, error)

// Catalog entry UserMeta flags.
const (
	Flag_HasFlow byte = 0x01
)

const (
	CatalogMajorVers = 2026
	CatalogMinorVers = 1
)

// CatalogState is the persisted header of a pattern catalog: version,
// the flow kind it solves for, and per-vertex-count tallies.
type CatalogState struct {
	MajorVers   int32
	MinorVers   int32
	Kind        goflow.FlowKind
	CacheAbsent bool
	NumPatterns []uint64 // indexed by vertex count
	NumFlows    []uint64 // indexed by vertex count
}

func (st *CatalogState) Marshal(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte
	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scrap[:], v)
		out = append(out, scrap[:n]...)
	}
	putUvarint(uint64(st.MajorVers))
	putUvarint(uint64(st.MinorVers))
	putUvarint(uint64(st.Kind))
	if st.CacheAbsent {
		putUvarint(1)
	} else {
		putUvarint(0)
	}
	putUvarint(uint64(len(st.NumPatterns)))
	for _, n := range st.NumPatterns {
		putUvarint(n)
	}
	for _, n := range st.NumFlows {
		putUvarint(n)
	}
	return out
}

func (st *CatalogState) Unmarshal(in []byte) error {
	next := func() (uint64, bool) {
		v, n := binary.Uvarint(in)
		if n <= 0 {
			return 0, false
		}
		in = in[n:]
		return v, true
	}

	major, ok := next()
	if !ok {
		return goflow.ErrUnmarshal
	}
	minor, ok := next()
	if !ok {
		return goflow.ErrUnmarshal
	}
	kind, ok := next()
	if !ok {
		return goflow.ErrUnmarshal
	}
	cacheAbsent, ok := next()
	if !ok {
		return goflow.ErrUnmarshal
	}
	count, ok := next()
	if !ok || count > goflow.MaxSelectorVerts+1 {
		return goflow.ErrUnmarshal
	}

	st.MajorVers = int32(major)
	st.MinorVers = int32(minor)
	st.Kind = goflow.FlowKind(kind)
	st.CacheAbsent = cacheAbsent != 0
	st.NumPatterns = make([]uint64, count)
	st.NumFlows = make([]uint64, count)
	for i := range st.NumPatterns {
		v, ok := next()
		if !ok {
			return goflow.ErrUnmarshal
		}
		st.NumPatterns[i] = v
	}
	for i := range st.NumFlows {
		v, ok := next()
		if !ok {
			return goflow.ErrUnmarshal
		}
		st.NumFlows[i] = v
	}
	return nil
}
