package gf2_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbqc-systems/goflow/goflow"
	"github.com/mbqc-systems/goflow/libflow/gf2"
)

// mat builds coefficient rows of the given column width from 0/1 literals.
func mat(cols int, rows ...[]int) []goflow.VtxSet {
	out := make([]goflow.VtxSet, len(rows))
	for r, row := range rows {
		if len(row) != cols {
			panic("bad row width")
		}
		set := goflow.NewVtxSet(cols)
		for c, bit := range row {
			if bit != 0 {
				set.Add(c)
			}
		}
		out[r] = set
	}
	return out
}

func bvec(rows int, members ...int) goflow.VtxSet {
	set := goflow.NewVtxSet(rows)
	for _, r := range members {
		set.Add(r)
	}
	return set
}

// mulGF2 checks co * x == rhs over GF(2), row by row.
func mulGF2(t *testing.T, co []goflow.VtxSet, x, rhs goflow.VtxSet) {
	for r, row := range co {
		parity := false
		row.ForEach(func(c int) bool {
			if x.Contains(c) {
				parity = !parity
			}
			return true
		})
		require.Equal(t, rhs.Contains(r), parity, "row %d", r)
	}
}

func TestAttachDims(t *testing.T) {
	_, err := gf2.Attach(nil, 2, 1)
	require.ErrorIs(t, err, goflow.ErrBadDims)

	_, err = gf2.Attach(gf2.NewWork(2, 2, 1), 0, 1)
	require.ErrorIs(t, err, goflow.ErrBadDims)

	_, err = gf2.Attach(gf2.NewWork(2, 2, 1), 2, 0)
	require.ErrorIs(t, err, goflow.ErrBadDims)

	// Rows narrower than cols+neqs bits are rejected.
	narrow := []goflow.VtxSet{goflow.NewVtxSet(64)}
	_, err = gf2.Attach(narrow, 64, 1)
	require.ErrorIs(t, err, goflow.ErrBadDims)
}

func TestSolveSimple(t *testing.T) {
	// x0 + x1 = 0
	//      x1 = 1
	work := gf2.NewWork(2, 2, 1)
	work[0].Add(0)
	work[0].Add(1)
	work[1].Add(1)
	work[1].Add(2) // rhs bit of eq 0

	s, err := gf2.Attach(work, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 2, s.Rank())

	x := goflow.NewVtxSet(2)
	require.True(t, s.SolveInto(x, 0))
	require.True(t, x.Contains(0))
	require.True(t, x.Contains(1))
}

func TestSolveUnsat(t *testing.T) {
	co := mat(2,
		[]int{1, 1},
		[]int{1, 1},
	)
	out, err := gf2.SolveBatch(co, 2, []goflow.VtxSet{bvec(2, 0)})
	require.NoError(t, err)
	require.Nil(t, out[0])

	// The homogeneous side of the same matrix is satisfiable.
	out, err = gf2.SolveBatch(co, 2, []goflow.VtxSet{bvec(2)})
	require.NoError(t, err)
	require.NotNil(t, out[0])
	require.True(t, out[0].IsEmpty())
}

func TestFreeColumnsStayZero(t *testing.T) {
	// One equation, three unknowns: the particular solution uses only
	// the pivot column.
	co := mat(3, []int{1, 1, 1})
	out, err := gf2.SolveBatch(co, 3, []goflow.VtxSet{bvec(1, 0)})
	require.NoError(t, err)
	require.NotNil(t, out[0])
	require.Equal(t, 1, out[0].Count())
	mulGF2(t, co, out[0], bvec(1, 0))
}

func TestRankDeficient(t *testing.T) {
	// Row 2 = row 0 + row 1.
	co := mat(3,
		[]int{1, 0, 1},
		[]int{0, 1, 1},
		[]int{1, 1, 0},
	)
	work := gf2.NewWork(3, 3, 1)
	for r, row := range co {
		work[r].CopyFrom(row)
	}
	s, err := gf2.Attach(work, 3, 1)
	require.NoError(t, err)
	require.Equal(t, 2, s.Rank())

	// Consistent rhs: b2 = b0 + b1.
	out, err := gf2.SolveBatch(co, 3, []goflow.VtxSet{bvec(3, 0, 2)})
	require.NoError(t, err)
	require.NotNil(t, out[0])
	mulGF2(t, co, out[0], bvec(3, 0, 2))

	// Inconsistent rhs breaks the dependent row.
	out, err = gf2.SolveBatch(co, 3, []goflow.VtxSet{bvec(3, 0)})
	require.NoError(t, err)
	require.Nil(t, out[0])
}

func TestSolveTallAndWide(t *testing.T) {
	// Tall: more rows than columns.
	tall := mat(2,
		[]int{1, 0},
		[]int{1, 1},
		[]int{0, 1},
	)
	rhs := bvec(3, 0, 1) // x = (1, 0)
	out, err := gf2.SolveBatch(tall, 2, []goflow.VtxSet{rhs})
	require.NoError(t, err)
	require.NotNil(t, out[0])
	mulGF2(t, tall, out[0], rhs)

	// Wide: more columns than rows.
	wide := mat(4,
		[]int{1, 1, 0, 1},
		[]int{0, 1, 1, 0},
	)
	rhs = bvec(2, 1)
	out, err = gf2.SolveBatch(wide, 4, []goflow.VtxSet{rhs})
	require.NoError(t, err)
	require.NotNil(t, out[0])
	mulGF2(t, wide, out[0], rhs)
}

func TestSolveBatchSharesElimination(t *testing.T) {
	co := mat(3,
		[]int{1, 1, 0},
		[]int{0, 1, 1},
		[]int{1, 0, 0},
	)
	rhs := []goflow.VtxSet{
		bvec(3),
		bvec(3, 0),
		bvec(3, 1, 2),
		bvec(3, 0, 1, 2),
	}
	batch, err := gf2.SolveBatch(co, 3, rhs)
	require.NoError(t, err)
	require.Len(t, batch, len(rhs))
	for ieq, x := range batch {
		require.NotNil(t, x, "eq %d", ieq)
		mulGF2(t, co, x, rhs[ieq])
	}

	// Each equation solved alone agrees with the batch.
	for ieq, b := range rhs {
		solo, err := gf2.SolveBatch(co, 3, []goflow.VtxSet{b})
		require.NoError(t, err)
		require.True(t, solo[0].Equals(batch[ieq]), "eq %d", ieq)
	}
}

func TestSolveBatchRejectsOversizedRHS(t *testing.T) {
	co := mat(2, []int{1, 0})
	_, err := gf2.SolveBatch(co, 2, []goflow.VtxSet{bvec(8, 5)})
	require.ErrorIs(t, err, goflow.ErrBadDims)
}

func TestEliminationIsIdempotent(t *testing.T) {
	work := gf2.NewWork(2, 2, 1)
	work[0].Add(0)
	work[1].Add(0)
	work[1].Add(1)
	work[1].Add(2)

	s, err := gf2.Attach(work, 2, 1)
	require.NoError(t, err)
	s.Eliminate()
	snapshot := make([]goflow.VtxSet, len(work))
	for r := range work {
		snapshot[r] = work[r].Clone()
	}
	s.Eliminate()
	for r := range work {
		require.True(t, work[r].Equals(snapshot[r]), "row %d", r)
	}
}
