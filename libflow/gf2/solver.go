// Package gf2 solves batched linear systems over the two-element field,
// where addition is XOR and any nonzero entry is a valid pivot.
package gf2

import (
	"github.com/mbqc-systems/goflow/goflow"
)

// Solver performs Gauss-Jordan elimination over GF(2) on caller-owned
// row storage. Each work row holds the coefficient columns in bits
// [0, cols) and one right-hand-side bit per equation set in bits
// [cols, cols+neqs). The elimination runs once and is shared by every
// equation set in the batch.
type Solver struct {
	rows int
	cols int
	neqs int
	rank int
	done bool
	perm []int
	work []goflow.VtxSet
}

// Attach wraps existing working storage. The storage is mutated in place;
// cols+neqs bits of each row are significant.
func Attach(work []goflow.VtxSet, cols, neqs int) (*Solver, error) {
	if neqs <= 0 || cols <= 0 || len(work) == 0 {
		return nil, goflow.ErrBadDims
	}
	wordsNeeded := len(goflow.NewVtxSet(cols + neqs))
	for _, row := range work {
		if len(row) < wordsNeeded {
			return nil, goflow.ErrBadDims
		}
	}
	s := &Solver{
		rows: len(work),
		cols: cols,
		neqs: neqs,
		perm: make([]int, cols),
		work: work,
	}
	for c := range s.perm {
		s.perm[c] = c
	}
	return s, nil
}

// Moves the pivot found at (r, c) to (i, i) and updates the permutation.
func (s *Solver) movePivot(i, r, c int) {
	s.work[i], s.work[r] = s.work[r], s.work[i]
	if i == c {
		return
	}
	for _, row := range s.work {
		row.SwapBits(i, c)
	}
	s.perm[i], s.perm[c] = s.perm[c], s.perm[i]
}

// Finds the first remaining 1 at or below (i, i), scanning columns first,
// and moves it to (i, i). Returns false if the residue is all zero.
func (s *Solver) findPivot(i int) bool {
	for c := i; c < s.cols; c++ {
		for r := i; r < s.rows; r++ {
			if s.work[r].Contains(c) {
				s.movePivot(i, r, c)
				return true
			}
		}
	}
	return false
}

func (s *Solver) eliminateLower() {
	rmax := s.rows
	if s.cols < rmax {
		rmax = s.cols
	}
	for i := 0; i < rmax; i++ {
		if !s.findPivot(i) {
			s.rank = i
			return
		}
		for r := i + 1; r < s.rows; r++ {
			if s.work[r].Contains(i) {
				s.work[r].SymDiffWith(s.work[i])
			}
		}
	}
	s.rank = rmax
}

func (s *Solver) eliminateUpper() {
	for i := s.rank - 1; i >= 0; i-- {
		for r := 0; r < i; r++ {
			if s.work[r].Contains(i) {
				s.work[r].SymDiffWith(s.work[i])
			}
		}
	}
}

// Eliminate reduces the work storage. No-op once done.
func (s *Solver) Eliminate() {
	if s.done {
		return
	}
	s.eliminateLower()
	s.eliminateUpper()
	s.done = true
}

// Rank returns the coefficient matrix rank, eliminating first if needed.
func (s *Solver) Rank() int {
	s.Eliminate()
	return s.rank
}

// SolveInto writes a particular solution of equation set ieq into out
// (width cols, cleared first; free columns stay zero) and reports whether
// the equation set is satisfiable.
func (s *Solver) SolveInto(out goflow.VtxSet, ieq int) bool {
	if ieq < 0 || ieq >= s.neqs {
		panic("gf2: equation index out of range")
	}
	s.Eliminate()

	c := s.cols + ieq

	// A zeroed coefficient row with the right-hand-side bit still set
	// means this equation set has no solution.
	for r := s.rank; r < s.rows; r++ {
		if s.work[r].Contains(c) {
			return false
		}
	}

	out.Clear()
	for i := 0; i < s.rank; i++ {
		if s.work[i].Contains(c) {
			out.Add(s.perm[i])
		}
	}
	return true
}

// NewWork allocates row storage for Attach: rows of width cols+neqs bits.
func NewWork(rows, cols, neqs int) []goflow.VtxSet {
	work := make([]goflow.VtxSet, rows)
	for r := range work {
		work[r] = goflow.NewVtxSet(cols + neqs)
	}
	return work
}

// SolveBatch solves co * x = rhs[i] for each right-hand side, sharing a
// single elimination. co rows are cols bits wide; each rhs is one bit per
// equation row. The result holds one solution per right-hand side in
// order, or nil where no solution exists.
func SolveBatch(co []goflow.VtxSet, cols int, rhs []goflow.VtxSet) ([]goflow.VtxSet, error) {
	rows := len(co)
	neqs := len(rhs)
	if rows == 0 || cols <= 0 || neqs == 0 {
		return nil, goflow.ErrBadDims
	}

	work := NewWork(rows, cols, neqs)
	for r, row := range co {
		for wi := range row {
			work[r][wi] = row[wi]
		}
	}
	for ieq, b := range rhs {
		b.ForEach(func(r int) bool {
			if r >= rows {
				return false
			}
			work[r].Add(cols + ieq)
			return true
		})
		if b.NextSet(rows) >= 0 {
			return nil, goflow.ErrBadDims
		}
	}

	s, err := Attach(work, cols, neqs)
	if err != nil {
		return nil, err
	}

	out := make([]goflow.VtxSet, neqs)
	for ieq := range out {
		x := goflow.NewVtxSet(cols)
		if s.SolveInto(x, ieq) {
			out[ieq] = x
		}
	}
	return out, nil
}
