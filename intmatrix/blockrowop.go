// Copyright (c) 2025 Colin McRae

package intmatrix

import (
	"fmt"
	"math/big"
)

// ApplyBlockRowTransform left-multiplies rows {lo,...,hi-1} of m by the
// (hi-lo) x (hi-lo) integer matrix u, given in row-major order:
//
//	newRow[lo+r] = sum over c of u[r][c] * oldRow[lo+c]
//
// Rows outside the range are untouched. This is how a segment worker's
// accumulated local transform is folded into the shared basis at the merge
// barrier.
func (m *Matrix) ApplyBlockRowTransform(lo, hi int, u []int64) error {
	s := hi - lo
	if lo < 0 || hi <= lo || m.numRows < hi {
		return fmt.Errorf(
			"Matrix.ApplyBlockRowTransform: invalid range {%d,...,%d} for %d rows",
			lo, hi-1, m.numRows,
		)
	}
	if len(u) != s*s {
		return fmt.Errorf(
			"Matrix.ApplyBlockRowTransform: len(u) = %d != %d * %d", len(u), s, s,
		)
	}
	oldRows := make([]*big.Int, s*m.numCols)
	copy(oldRows, m.values[lo*m.numCols:hi*m.numCols])
	term := new(big.Int)
	bigQ := new(big.Int)
	for r := 0; r < s; r++ {
		for k := 0; k < m.numCols; k++ {
			entry := new(big.Int)
			for c := 0; c < s; c++ {
				if u[r*s+c] == 0 {
					continue
				}
				bigQ.SetInt64(u[r*s+c])
				term.Mul(bigQ, oldRows[c*m.numCols+k])
				entry.Add(entry, term)
			}
			m.values[(lo+r)*m.numCols+k] = entry
		}
	}
	return nil
}

// ApplyBlockRowTransform left-multiplies rows {lo,...,hi-1} of t by the
// (hi-lo) x (hi-lo) integer matrix u, mirroring Matrix.ApplyBlockRowTransform.
// The int64 fast path escalates when any resulting entry exceeds the
// large-entry threshold.
func (t *Transform) ApplyBlockRowTransform(lo, hi int, u []int64) error {
	s := hi - lo
	if lo < 0 || hi <= lo || t.n < hi {
		return fmt.Errorf(
			"Transform.ApplyBlockRowTransform: invalid range {%d,...,%d} for %d rows",
			lo, hi-1, t.n,
		)
	}
	if len(u) != s*s {
		return fmt.Errorf(
			"Transform.ApplyBlockRowTransform: len(u) = %d != %d * %d", len(u), s, s,
		)
	}
	if t.useBig {
		return t.bigEntries.ApplyBlockRowTransform(lo, hi, u)
	}
	oldRows := make([]int64, s*t.n)
	copy(oldRows, t.int64Entries[lo*t.n:hi*t.n])
	hasLargeEntry := false
	for r := 0; r < s; r++ {
		for k := 0; k < t.n; k++ {
			var entry int64
			for c := 0; c < s; c++ {
				entry += u[r*s+c] * oldRows[c*t.n+k]
			}
			if (entry > t.largeEntryThresh) || (-entry > t.largeEntryThresh) {
				hasLargeEntry = true
			}
			t.int64Entries[(lo+r)*t.n+k] = entry
		}
	}
	if hasLargeEntry {
		t.escalate()
	}
	return nil
}
