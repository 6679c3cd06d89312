package goflow

import (
	"math/bits"
	"strconv"
)

const vtxWordBits = 64

// VtxSet is a set of dense 0-based vertex IDs backed by 64-bit words.
// The width is fixed when the set is created; all binary set ops assume
// both operands were created for the same vertex count.
type VtxSet []uint64

func NewVtxSet(numVerts int) VtxSet {
	return make(VtxSet, (numVerts+vtxWordBits-1)/vtxWordBits)
}

func (set VtxSet) Contains(vi int) bool {
	wi := vi >> 6
	if wi < 0 || wi >= len(set) {
		return false
	}
	return set[wi]&(1<<uint(vi&63)) != 0
}

func (set VtxSet) Add(vi int) {
	set[vi>>6] |= 1 << uint(vi&63)
}

func (set VtxSet) Remove(vi int) {
	set[vi>>6] &^= 1 << uint(vi&63)
}

func (set VtxSet) Toggle(vi int) {
	set[vi>>6] ^= 1 << uint(vi&63)
}

// SwapBits exchanges the membership state of vi and vj.
func (set VtxSet) SwapBits(vi, vj int) {
	bi := set.Contains(vi)
	bj := set.Contains(vj)
	if bi != bj {
		set.Toggle(vi)
		set.Toggle(vj)
	}
}

func (set VtxSet) Count() int {
	N := 0
	for _, w := range set {
		N += bits.OnesCount64(w)
	}
	return N
}

func (set VtxSet) IsEmpty() bool {
	for _, w := range set {
		if w != 0 {
			return false
		}
	}
	return true
}

func (set VtxSet) Equals(other VtxSet) bool {
	N := len(set)
	if len(other) < N {
		N = len(other)
	}
	for i := 0; i < N; i++ {
		if set[i] != other[i] {
			return false
		}
	}
	for _, w := range set[N:] {
		if w != 0 {
			return false
		}
	}
	for _, w := range other[N:] {
		if w != 0 {
			return false
		}
	}
	return true
}

func (set VtxSet) Clone() VtxSet {
	dupe := make(VtxSet, len(set))
	copy(dupe, set)
	return dupe
}

func (set VtxSet) Clear() {
	for i := range set {
		set[i] = 0
	}
}

// Fill adds every vertex ID in [0, numVerts).
func (set VtxSet) Fill(numVerts int) {
	for vi := 0; vi < numVerts; vi += vtxWordBits {
		n := numVerts - vi
		if n >= vtxWordBits {
			set[vi>>6] = ^uint64(0)
		} else {
			set[vi>>6] = (1 << uint(n)) - 1
		}
	}
}

func (set VtxSet) CopyFrom(src VtxSet) {
	copy(set, src)
}

func (set VtxSet) UnionWith(other VtxSet) {
	for i, w := range other {
		set[i] |= w
	}
}

func (set VtxSet) IntersectWith(other VtxSet) {
	for i := range set {
		if i < len(other) {
			set[i] &= other[i]
		} else {
			set[i] = 0
		}
	}
}

func (set VtxSet) SubtractWith(other VtxSet) {
	for i, w := range other {
		if i >= len(set) {
			break
		}
		set[i] &^= w
	}
}

// SymDiffWith XORs other into this set (GF(2) addition).
func (set VtxSet) SymDiffWith(other VtxSet) {
	for i, w := range other {
		set[i] ^= w
	}
}

// NextSet returns the smallest member >= from, or -1 if there is none.
func (set VtxSet) NextSet(from int) int {
	if from < 0 {
		from = 0
	}
	wi := from >> 6
	if wi >= len(set) {
		return -1
	}
	w := set[wi] >> uint(from&63)
	if w != 0 {
		return from + bits.TrailingZeros64(w)
	}
	for wi++; wi < len(set); wi++ {
		if set[wi] != 0 {
			return wi<<6 + bits.TrailingZeros64(set[wi])
		}
	}
	return -1
}

// ForEach visits members in ascending order until fn returns false.
func (set VtxSet) ForEach(fn func(vi int) bool) {
	for wi, w := range set {
		for w != 0 {
			vi := wi<<6 + bits.TrailingZeros64(w)
			if !fn(vi) {
				return
			}
			w &= w - 1
		}
	}
}

// AppendVtxIDs appends the members in ascending order.
func (set VtxSet) AppendVtxIDs(dst []int) []int {
	set.ForEach(func(vi int) bool {
		dst = append(dst, vi)
		return true
	})
	return dst
}

func (set VtxSet) String() string {
	str := []byte{'{'}
	set.ForEach(func(vi int) bool {
		if len(str) > 1 {
			str = append(str, ' ')
		}
		str = strconv.AppendInt(str, int64(vi), 10)
		return true
	})
	return string(append(str, '}'))
}
