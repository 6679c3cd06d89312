package libflow

import (
	"bytes"
	"hash/maphash"

	"github.com/mbqc-systems/goflow/goflow"
)

// dropDupes is a lightweight in-memory FlowAdder that admits each
// distinct pattern encoding once. Collisions probe linearly upward.
type dropDupes struct {
	hashMap   map[uint64][]byte
	hasher    maphash.Hash
	bufPool   []byte
	bufPoolSz int
	opts      DropDupeOpts
}

const DefaultPoolSz = 32 * 1024

type DropDupeOpts struct {
	PoolSz int // 0 denotes DefaultPoolSz (32k)
}

func NewDropDupes(opts DropDupeOpts) goflow.FlowAdder {
	if opts.PoolSz <= 0 {
		opts.PoolSz = DefaultPoolSz
	}
	return &dropDupes{
		hashMap: make(map[uint64][]byte),
		opts:    opts,
	}
}

func (dd *dropDupes) Reset() {
	dd.bufPoolSz = 0
	for k := range dd.hashMap {
		delete(dd.hashMap, k)
	}
}

func (dd *dropDupes) Close() {
	dd.Reset()
	dd.hashMap = nil
}

func (dd *dropDupes) TryAddPattern(p goflow.PatternState) bool {
	var keyBuf [512]byte
	key := p.AppendPatternLSM(keyBuf[:0])

	dd.hasher.Reset()
	dd.hasher.Write(key)
	hash := dd.hasher.Sum64()

	existing, found := dd.hashMap[hash]
	for found {
		if bytes.Equal(existing, key) {
			return false
		}
		hash++
		existing, found = dd.hashMap[hash]
	}

	// If we've gotten here, it means this is a new entry.
	// Place a copy of the buf in our backing buf (in the heap).
	// If we run out of space in our pool, we start a new pool
	pos := dd.bufPoolSz
	itemLen := len(key)
	if pos+itemLen > cap(dd.bufPool) {
		allocSz := dd.opts.PoolSz
		if itemLen > allocSz {
			allocSz = itemLen
		}
		dd.bufPool = make([]byte, allocSz)
		dd.bufPoolSz = 0
		pos = 0
	}

	// Place the backed copy of the key at the open hash spot
	dd.hashMap[hash] = append(dd.bufPool[pos:pos], key...)
	dd.bufPoolSz += itemLen
	return true
}
