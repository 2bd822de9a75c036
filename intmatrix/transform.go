// Copyright (c) 2025 Colin McRae

package intmatrix

import (
	"fmt"
	"math"
)

// Transform accumulates the unimodular row operations applied during a
// reduction run. It starts as the identity and mirrors every swap, rotation
// and integer row combination performed on a basis, so that at any moment
//
//	Transform x OriginalBasis == CurrentBasis
//
// holds exactly.
//
// Entries are kept in an int64 fast path until any entry exceeds
// math.MaxInt32 / n, at which point the whole matrix is escalated to
// arbitrary-precision integers. The threshold leaves enough headroom that
// one more row operation cannot overflow int64 before the escalation check
// runs.
type Transform struct {
	n                int
	int64Entries     []int64
	bigEntries       *Matrix
	useBig           bool
	largeEntryThresh int64
}

// NewTransform returns the identity transform on n rows. If n < 1, an error
// is returned.
func NewTransform(n int) (*Transform, error) {
	if n < 1 {
		return nil, fmt.Errorf("NewTransform: dimension %d < 1", n)
	}
	retVal := &Transform{
		n:                n,
		int64Entries:     make([]int64, n*n),
		largeEntryThresh: int64(math.MaxInt32 / n),
	}
	for i := 0; i < n; i++ {
		retVal.int64Entries[i*n+i] = 1
	}
	return retVal, nil
}

// Dim returns the number of rows (= columns) of t.
func (t *Transform) Dim() int {
	return t.n
}

// IsUsingBig returns whether t has escalated past the int64 fast path.
func (t *Transform) IsUsingBig() bool {
	return t.useBig
}

// SwapRows exchanges rows i and j of t.
func (t *Transform) SwapRows(i, j int) error {
	if err := t.checkRows(i, j, "SwapRows"); err != nil {
		return err
	}
	if t.useBig {
		return t.bigEntries.SwapRows(i, j)
	}
	for k := 0; k < t.n; k++ {
		t.int64Entries[i*t.n+k], t.int64Entries[j*t.n+k] =
			t.int64Entries[j*t.n+k], t.int64Entries[i*t.n+k]
	}
	return nil
}

// RotateRows moves row i to position k < i, shifting rows k,...,i-1 down by
// one, mirroring Matrix.RotateRows.
func (t *Transform) RotateRows(k, i int) error {
	if k < 0 || i < k || t.n <= i {
		return fmt.Errorf("Transform.RotateRows: rotation (%d, %d) invalid for %d rows", k, i, t.n)
	}
	if t.useBig {
		return t.bigEntries.RotateRows(k, i)
	}
	if k == i {
		return nil
	}
	moved := make([]int64, t.n)
	copy(moved, t.int64Entries[i*t.n:(i+1)*t.n])
	copy(t.int64Entries[(k+1)*t.n:(i+1)*t.n], t.int64Entries[k*t.n:i*t.n])
	copy(t.int64Entries[k*t.n:(k+1)*t.n], moved)
	return nil
}

// AddMultiple adds q times row src to row dst. If the result contains an
// entry larger than the large-entry threshold, t escalates to
// arbitrary-precision entries before returning.
func (t *Transform) AddMultiple(dst, src int, q int64) error {
	if err := t.checkRows(dst, src, "AddMultiple"); err != nil {
		return err
	}
	if dst == src {
		return fmt.Errorf("Transform.AddMultiple: source and destination row %d coincide", dst)
	}
	if q == 0 {
		return nil
	}
	if !t.useBig && (q > t.largeEntryThresh || -q > t.largeEntryThresh) {
		t.escalate()
	}
	if t.useBig {
		return t.bigEntries.AddInt64Multiple(dst, src, q)
	}
	hasLargeEntry := false
	for k := 0; k < t.n; k++ {
		entry := t.int64Entries[dst*t.n+k] + q*t.int64Entries[src*t.n+k]
		if (entry > t.largeEntryThresh) || (-entry > t.largeEntryThresh) {
			hasLargeEntry = true
		}
		t.int64Entries[dst*t.n+k] = entry
	}
	if hasLargeEntry {
		t.escalate()
	}
	return nil
}

// AccumulateRows adds sum over j in {start,...,end-1} of coeffs[j-start]
// times row j to row dst, as one aggregated operation.
func (t *Transform) AccumulateRows(dst, start, end int, coeffs []int64) error {
	if start < 0 || end <= start || t.n < end {
		return fmt.Errorf(
			"Transform.AccumulateRows: invalid range {%d,...,%d} for %d rows", start, end-1, t.n,
		)
	}
	if start <= dst && dst < end {
		return fmt.Errorf(
			"Transform.AccumulateRows: destination row %d lies in source range {%d,...,%d}",
			dst, start, end-1,
		)
	}
	if len(coeffs) != end-start {
		return fmt.Errorf(
			"Transform.AccumulateRows: %d coefficients for range {%d,...,%d}",
			len(coeffs), start, end-1,
		)
	}
	if t.useBig {
		return t.bigEntries.AccumulateRowCombination(dst, start, end, coeffs)
	}
	hasLargeEntry := false
	for j := start; j < end; j++ {
		q := coeffs[j-start]
		if q == 0 {
			continue
		}
		if q > t.largeEntryThresh || -q > t.largeEntryThresh {
			t.escalate()
			return t.bigEntries.AccumulateRowCombination(dst, j, end, coeffs[j-start:])
		}
		for k := 0; k < t.n; k++ {
			entry := t.int64Entries[dst*t.n+k] + q*t.int64Entries[j*t.n+k]
			if (entry > t.largeEntryThresh) || (-entry > t.largeEntryThresh) {
				hasLargeEntry = true
			}
			t.int64Entries[dst*t.n+k] = entry
		}
		if hasLargeEntry && j+1 < end {
			t.escalate()
			return t.bigEntries.AccumulateRowCombination(dst, j+1, end, coeffs[j+1-start:])
		}
	}
	if hasLargeEntry && !t.useBig {
		t.escalate()
	}
	return nil
}

// Matrix materializes t as an exact integer matrix. The result is a deep
// copy; later operations on t do not affect it.
func (t *Transform) Matrix() *Matrix {
	if t.useBig {
		return NewEmpty(t.n, t.n).Copy(t.bigEntries)
	}
	retVal, _ := NewFromInt64Array(t.int64Entries, t.n, t.n)
	return retVal
}

// escalate converts the int64 entries to arbitrary-precision entries. It is
// not an error to call escalate more than once.
func (t *Transform) escalate() {
	if t.useBig {
		return
	}
	t.bigEntries, _ = NewFromInt64Array(t.int64Entries, t.n, t.n)
	t.int64Entries = nil
	t.useBig = true
}

func (t *Transform) checkRows(i, j int, caller string) error {
	if i < 0 || t.n <= i || j < 0 || t.n <= j {
		return fmt.Errorf(
			"Transform.%s: row %d or %d outside range {0, ... %d}", caller, i, j, t.n-1,
		)
	}
	return nil
}
