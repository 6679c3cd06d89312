package catalog

import (
	"encoding/binary"
	"runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow"
)

/***

Catalog database format:

	gCatalogStateKey => CatalogState

	PatternLSM (UserMeta uses Flag_HasFlow)  => FlowLSM (empty when no flow)
	...

PatternLSM leads with the vertex count, so a key scan enumerates stored
patterns in vertex-count order and range selection reduces to a seek.
The value holds the solved flow of the catalog's kind; a pattern that
admits no flow is stored with an empty value so the absence itself is
a cached result (see CatalogOpts.CacheAbsent).

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

func init() {
	libflow.OpenCatalog = OpenCatalog
}

// catalog is a db wrapper for a solved flow pattern catalog.
type catalog struct {
	ctx        goflow.CatalogContext
	readOnly   bool
	stateDirty bool
	state      libflow.CatalogState
	opts       goflow.CatalogOpts
	db         *badger.DB
}

func OpenCatalog(ctx goflow.CatalogContext, opts goflow.CatalogOpts) (goflow.Catalog, error) {
	cat := &catalog{
		ctx:      ctx,
		opts:     opts,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(goflow.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, we consider the catalog ctx blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = libflow.CatalogMajorVers
		cat.state.MinorVers = libflow.CatalogMinorVers
		cat.state.Kind = opts.Kind
		cat.state.CacheAbsent = opts.CacheAbsent
		cat.state.NumPatterns = make([]uint64, goflow.MaxSelectorVerts+1)
		cat.state.NumFlows = make([]uint64, goflow.MaxSelectorVerts+1)
	}

	if err == nil {
		if cat.state.MajorVers != libflow.CatalogMajorVers || cat.state.MinorVers != libflow.CatalogMinorVers {
			err = errors.New("catalog version is incompatible")
		} else if cat.state.Kind != opts.Kind {
			err = errors.Wrapf(goflow.ErrBadCatalogParam, "catalog solves %v, not %v", cat.state.Kind, opts.Kind)
		} else if opts.CacheAbsent && !cat.state.CacheAbsent {
			err = errors.New("catalog was not created to cache flow absence")
		}
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			err = item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
}

func (cat *catalog) flushState() {
	if !cat.stateDirty || cat.readOnly {
		return
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(gCatalogStateKey, cat.state.Marshal(nil))
	})
	if err != nil {
		panic(err)
	}
	cat.stateDirty = false
}

func (cat *catalog) Close() error {
	cat.flushState()
	if cat.db != nil {
		cat.db.Close()
		cat.db = nil
		cat.ctx.DetachCatalog(cat)
		cat.ctx = nil
	}
	return nil
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumPatterns(forVtxCount byte) int64 {
	if forVtxCount == 0 || int(forVtxCount) >= len(cat.state.NumPatterns) {
		return 0
	}
	return int64(cat.state.NumPatterns[forVtxCount])
}

func (cat *catalog) NumFlows(forVtxCount byte) int64 {
	if forVtxCount == 0 || int(forVtxCount) >= len(cat.state.NumFlows) {
		return 0
	}
	return int64(cat.state.NumFlows[forVtxCount])
}

// TryAddPattern adds the given pattern if it doesn't already exist,
// solving it for the catalog's flow kind first if needed.
//
// If true is returned, p was not present and was added.
//
// If false is returned, p already exists in the catalog, or it admits
// no flow and the catalog does not cache absence.
func (cat *catalog) TryAddPattern(p goflow.PatternState) bool {
	if cat.readOnly {
		return false
	}

	found, err := p.Solve(cat.state.Kind)
	if err != nil {
		panic(err)
	}
	if !found && !cat.state.CacheAbsent {
		return false
	}

	var keyBuf [512]byte
	key := p.AppendPatternLSM(keyBuf[:0])

	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	_, err = txn.Get(key)
	if err == nil {
		return false
	}
	if err != badger.ErrKeyNotFound {
		panic(err)
	}

	flags := byte(0)
	var val []byte
	if found {
		flags |= libflow.Flag_HasFlow
		val = p.Flow().AppendFlowLSM(nil)
	}
	err = txn.SetEntry(badger.NewEntry(key, val).WithMeta(flags))
	if err == nil {
		err = txn.Commit()
	}
	if err != nil {
		panic(err)
	}

	nv := p.VertexCount()
	if nv < len(cat.state.NumPatterns) {
		cat.state.NumPatterns[nv]++
		if found {
			cat.state.NumFlows[nv]++
		}
		cat.stateDirty = true
	}
	return true
}

// Select pushes each stored pattern matching the selector bounds to
// onHit. Ownership of the pushed patterns travels with the channel.
func (cat *catalog) Select(sel goflow.PatternSelector, onHit goflow.OnPatternHit) {
	minVerts := sel.Min.NumVerts
	if minVerts == 0 {
		minVerts = 1
	}
	var minKey [binary.MaxVarintLen64]byte
	minLen := binary.PutUvarint(minKey[:], uint64(minVerts))

	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   300,
	})
	defer it.Close()

	for it.Seek(minKey[:minLen]); it.Valid(); it.Next() {
		curItem := it.Item()
		curKey := curItem.Key()

		// A pattern key leads with its uvarint vertex count.
		nv, n := binary.Uvarint(curKey)
		if n <= 0 || nv == 0 {
			continue // catalog state entry
		}
		if nv < uint64(minVerts) {
			continue
		}
		if nv > uint64(sel.Max.NumVerts) {
			break
		}

		hasFlow := curItem.UserMeta()&libflow.Flag_HasFlow != 0
		if (sel.RequireFlow && !hasFlow) || (sel.RequireAbsent && hasFlow) {
			continue
		}

		p, err := libflow.NewPatternFromLSM(curKey)
		if err != nil {
			panic(err)
		}
		var F *goflow.Flow
		if hasFlow {
			err = curItem.Value(func(val []byte) error {
				F = &goflow.Flow{}
				return F.InitFromFlowLSM(val)
			})
			if err != nil {
				panic(err)
			}
		}
		p.SetSolved(cat.state.Kind, F)
		onHit <- p
	}
}
