// Copyright (c) 2025 Colin McRae

// Package reduceops implements the two interchangeable local reduction
// strategies of the engine: classical per-row size reduction and Seysen's
// recursive block reduction. Both drive every Gram-Schmidt coefficient into
// [-eta, eta], and both mirror each integer row operation into the basis,
// the transform and the floating point profile in lock-step.
package reduceops

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/cxzhong/BLASter/gramops"
	"github.com/cxzhong/BLASter/intmatrix"
)

// coefficientLimit bounds the rounded reduction coefficients computed from
// the float64 profile. Beyond this magnitude the double-precision mu values
// no longer identify the correct integer, so the reduction reports a
// numerical failure instead of applying a wrong combination.
const coefficientLimit = float64(1) * (1 << 62)

// SizeReduceRow subtracts nearest-integer multiples of rows j < i from row i
// until |mu[i][j]| <= eta for every j < i, updating basis, trans and prof
// together. Rows are processed from j = i-1 downward so that each update
// leaves the already-processed coefficients intact.
func SizeReduceRow(
	prof *gramops.Profile, basis *intmatrix.Matrix, trans *intmatrix.Transform, i int, eta float64,
) error {
	if i < 0 || prof.Dim() <= i {
		return fmt.Errorf("SizeReduceRow: row %d outside range {0, ... %d}", i, prof.Dim()-1)
	}
	for j := i - 1; 0 <= j; j-- {
		muIJ := prof.Mu(i, j)
		if math.Abs(muIJ) <= eta {
			continue
		}
		q := math.Round(muIJ)
		if math.Abs(q) > coefficientLimit {
			return fmt.Errorf(
				"SizeReduceRow: coefficient %g for rows (%d, %d) exceeds double precision: %w",
				q, i, j, gramops.ErrDegenerate,
			)
		}
		qInt := int64(q)
		if err := basis.AddInt64Multiple(i, j, -qInt); err != nil {
			return fmt.Errorf("SizeReduceRow: could not update basis: %q", err.Error())
		}
		if err := trans.AddMultiple(i, j, -qInt); err != nil {
			return fmt.Errorf("SizeReduceRow: could not update transform: %q", err.Error())
		}
		if err := prof.ApplyCombination(i, j, -q); err != nil {
			return fmt.Errorf("SizeReduceRow: could not update profile: %q", err.Error())
		}
	}
	return nil
}

// SizeReduce size-reduces every row of the basis, top to bottom. This is
// the classical strategy: a strict sequential dependency, one row at a
// time.
func SizeReduce(
	prof *gramops.Profile, basis *intmatrix.Matrix, trans *intmatrix.Transform, eta float64,
) error {
	for i := 1; i < prof.Dim(); i++ {
		if err := SizeReduceRow(prof, basis, trans, i, eta); err != nil {
			return fmt.Errorf("SizeReduce: %w", err)
		}
	}
	return nil
}

// SeysenReduce size-reduces rows {lo,...,hi-1} by recursive divide and
// conquer: each half is reduced, then the whole lower half is reduced
// against the upper half with one aggregated integer combination per row.
// The aggregated coefficients for distinct rows are independent, so they
// are computed in parallel by up to numWorkers goroutines; applications to
// the basis run in parallel as well, since destination rows are disjoint
// and source rows are only read.
//
// Recursion depth is log2(hi-lo), bounded by the word size, so no explicit
// stack is needed.
func SeysenReduce(
	prof *gramops.Profile, basis *intmatrix.Matrix, trans *intmatrix.Transform,
	lo, hi, numWorkers int,
) error {
	if lo < 0 || prof.Dim() < hi || hi < lo {
		return fmt.Errorf(
			"SeysenReduce: invalid range {%d,...,%d} for %d rows", lo, hi-1, prof.Dim(),
		)
	}
	if numWorkers < 1 {
		return fmt.Errorf("SeysenReduce: numWorkers = %d < 1", numWorkers)
	}
	if hi-lo <= 1 {
		return nil
	}
	mid := (lo + hi) / 2
	if err := SeysenReduce(prof, basis, trans, lo, mid, numWorkers); err != nil {
		return err
	}
	if err := SeysenReduce(prof, basis, trans, mid, hi, numWorkers); err != nil {
		return err
	}
	return seysenMerge(prof, basis, trans, lo, mid, hi, numWorkers)
}

// seysenMerge reduces rows {mid,...,hi-1} against rows {lo,...,mid-1}. Per
// row i, the integer coefficients come from rounded back-substitution over
// the unit-triangular mu block: processing columns from mid-1 downward,
//
//	u[j] = -round( mu[i][j] + sum over k in {j+1,...,mid-1} of u[k] mu[k][j] )
//
// so that after the single aggregated operation b[i] += sum u[j] b[j],
// every |mu[i][j]| with lo <= j < mid is at most 1/2.
func seysenMerge(
	prof *gramops.Profile, basis *intmatrix.Matrix, trans *intmatrix.Transform,
	lo, mid, hi, numWorkers int,
) error {
	blockCols := mid - lo
	coeffs := make([][]int64, hi-mid)
	active := make([]bool, hi-mid)

	var g errgroup.Group
	g.SetLimit(numWorkers)
	for i := mid; i < hi; i++ {
		i := i
		g.Go(func() error {
			u := make([]int64, blockCols)
			nonZero := false
			for j := mid - 1; lo <= j; j-- {
				v := prof.Mu(i, j)
				for k := j + 1; k < mid; k++ {
					if u[k-lo] != 0 {
						v += float64(u[k-lo]) * prof.Mu(k, j)
					}
				}
				if math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) > coefficientLimit {
					return fmt.Errorf(
						"seysenMerge: coefficient for rows (%d, %d) is %g: %w",
						i, j, v, gramops.ErrDegenerate,
					)
				}
				u[j-lo] = -int64(math.Round(v))
				if u[j-lo] != 0 {
					nonZero = true
				}
			}
			coeffs[i-mid] = u
			active[i-mid] = nonZero
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("seysenMerge: %w", err)
	}

	// Apply the aggregated combinations. Basis rows are disjoint and the
	// source rows {lo,...,mid-1} are read-only here, so rows fan out over
	// workers; the transform escalation is shared state, so the transform
	// is updated sequentially afterward.
	var apply errgroup.Group
	apply.SetLimit(numWorkers)
	for i := mid; i < hi; i++ {
		if !active[i-mid] {
			continue
		}
		i := i
		apply.Go(func() error {
			return basis.AccumulateRowCombination(i, lo, mid, coeffs[i-mid])
		})
	}
	if err := apply.Wait(); err != nil {
		return fmt.Errorf("seysenMerge: could not update basis: %q", err.Error())
	}
	for i := mid; i < hi; i++ {
		if !active[i-mid] {
			continue
		}
		if err := trans.AccumulateRows(i, lo, mid, coeffs[i-mid]); err != nil {
			return fmt.Errorf("seysenMerge: could not update transform: %q", err.Error())
		}
		if err := prof.ApplyAggregatedCombination(i, lo, mid, coeffs[i-mid]); err != nil {
			return fmt.Errorf("seysenMerge: could not update profile: %q", err.Error())
		}
	}
	return nil
}
