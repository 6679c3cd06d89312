package libflow

import "github.com/dgraph-io/badger/v4"

// PatternSet allows adding canonical pattern encodings and reports
// whether an equal pattern has already been added.
type PatternSet interface {

	// TryAdd adds the given pattern if it is not already present.
	//
	// If an equal pattern is already in this PatternSet, this call has no
	// effect and TryAdd() returns false.
	// If p isn't in this set, its encoding is added and TryAdd() returns true.
	//
	// After one or more calls to TryAdd(), call Close() for cleanup.
	TryAdd(p *Pattern) bool

	// Close removes all previously added items from this set.
	//
	// If you make subsequent calls to TryAdd(), be sure you call Close()
	// when you're done.
	Close()
}

func NewPatternSet() PatternSet {
	return &patternSet{}
}

type patternSet struct {
	lsmSet
}

func (set *patternSet) TryAdd(p *Pattern) bool {
	var buf [512]byte
	key := p.AppendPatternLSM(buf[:0])
	return set.tryAdd(key)
}

type lsmSet struct {
	db *badger.DB
}

func (set *lsmSet) autoOpen() {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			panic(err)
		}
	}
}

func (set *lsmSet) tryAdd(key []byte) bool {
	set.autoOpen()

	txn := set.db.NewTransaction(true)
	defer txn.Commit()

	added := false
	_, err := txn.Get(key)
	if err == nil {
		// no-op since the key is already in the db
	} else if err == badger.ErrKeyNotFound {
		err = txn.Set(key, nil)
		added = true
	}

	if err != nil {
		panic(err)
	}

	return added
}

func (set *lsmSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
}
