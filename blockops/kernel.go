// Copyright (c) 2025 Colin McRae

package blockops

import (
	"fmt"
	"math"

	"github.com/cxzhong/BLASter/gramops"
)

// lllKernel runs sequential LLL or deep-LLL on one segment's diagonal
// profile block, in isolation from every other segment. It mutates only its
// own float copies and accumulates the integer row operations it decides on
// in a local transform u, which the scheduler folds into the shared basis
// and transform at the merge barrier. This is what makes a sweep race-free:
// workers share nothing, and the shared state changes only between sweeps.
type lllKernel struct {
	s        int
	rsq      []float64
	mu       []float64 // strictly-lower triangular, local indices
	u        []int64   // s x s local transform, starts as the identity
	delta    float64
	eta      float64
	maxDepth int // 0 selects plain LLL; > 0 bounds deep insertion distance

	swaps      int
	insertions int
	changed    bool

	// uLimit guards the local transform's int64 entries; combined with the
	// shared Transform's own threshold it keeps the merge-barrier product
	// inside int64.
	uLimit int64
}

// newKernel wraps a diagonal profile block (local copies from
// Profile.Block) for in-place reduction. maxDepth 0 means plain LLL.
func newKernel(rsq, mu []float64, delta, eta float64, maxDepth int) *lllKernel {
	s := len(rsq)
	k := &lllKernel{
		s:        s,
		rsq:      rsq,
		mu:       mu,
		u:        make([]int64, s*s),
		delta:    delta,
		eta:      eta,
		maxDepth: maxDepth,
		uLimit:   int64(math.MaxInt32 / s),
	}
	for i := 0; i < s; i++ {
		k.u[i*s+i] = 1
	}
	return k
}

// reduce runs the state machine to convergence within the block: scanning
// left to right, size-reducing each row, then testing the Lovasz condition
// (plain mode) or searching a bounded window for a profitable deep
// insertion. Terminal when the scan reaches the end of the block without
// a swap or insertion.
func (k *lllKernel) reduce() error {
	i := 1
	for i < k.s {
		if err := k.sizeReduceRow(i); err != nil {
			return err
		}
		if k.maxDepth == 0 {
			muI := k.mu[i*k.s+i-1]
			if k.rsq[i] >= (k.delta-muI*muI)*k.rsq[i-1] {
				i++
				continue
			}
			if err := k.swap(i - 1); err != nil {
				return err
			}
			k.swaps++
			if i > 1 {
				i--
			}
			continue
		}

		// Deep mode: walk the projected norm of row i down from the full
		// norm, testing insertion positions inside the depth window. The
		// first (leftmost) passing position wins, which keeps the rule
		// deterministic for a fixed configuration.
		projected := k.rsq[i]
		for j := 0; j < i; j++ {
			projected += k.mu[i*k.s+j] * k.mu[i*k.s+j] * k.rsq[j]
		}
		inserted := false
		for j := 0; j < i; j++ {
			if j >= i-k.maxDepth && projected < k.delta*k.rsq[j] {
				if err := k.insert(j, i); err != nil {
					return err
				}
				k.insertions++
				if j > 1 {
					i = j
				} else {
					i = 1
				}
				inserted = true
				break
			}
			projected -= k.mu[i*k.s+j] * k.mu[i*k.s+j] * k.rsq[j]
		}
		if !inserted {
			i++
		}
	}
	return nil
}

// sizeReduceRow drives |mu[i][j]| <= eta for all j < i within the block,
// mirroring each combination into u.
func (k *lllKernel) sizeReduceRow(i int) error {
	for j := i - 1; 0 <= j; j-- {
		muIJ := k.mu[i*k.s+j]
		if math.Abs(muIJ) <= k.eta {
			continue
		}
		q := math.Round(muIJ)
		if math.Abs(q) > float64(k.uLimit) {
			return fmt.Errorf(
				"lllKernel.sizeReduceRow: coefficient %g for rows (%d, %d) overflows the local transform: %w",
				q, i, j, gramops.ErrDegenerate,
			)
		}
		qInt := int64(q)
		hasLargeEntry := false
		for c := 0; c < k.s; c++ {
			entry := k.u[i*k.s+c] - qInt*k.u[j*k.s+c]
			if (entry > k.uLimit) || (-entry > k.uLimit) {
				hasLargeEntry = true
			}
			k.u[i*k.s+c] = entry
		}
		if hasLargeEntry {
			return fmt.Errorf(
				"lllKernel.sizeReduceRow: local transform entry overflow at row %d: %w",
				i, gramops.ErrDegenerate,
			)
		}
		for c := 0; c < j; c++ {
			k.mu[i*k.s+c] -= q * k.mu[j*k.s+c]
		}
		k.mu[i*k.s+j] -= q
		k.changed = true
	}
	return nil
}

// swap exchanges block rows r and r+1, updating rsq and mu with the
// closed-form adjacent-swap formulas and mirroring the exchange into u.
func (k *lllKernel) swap(r int) error {
	muOld := k.mu[(r+1)*k.s+r]
	newRsqR := k.rsq[r+1] + muOld*muOld*k.rsq[r]
	if !(newRsqR > 0) || math.IsInf(newRsqR, 0) || math.IsNaN(newRsqR) {
		return fmt.Errorf(
			"lllKernel.swap: updated norm at row %d is %g: %w", r, newRsqR, gramops.ErrDegenerate,
		)
	}
	muNew := muOld * k.rsq[r] / newRsqR
	k.rsq[r+1] = k.rsq[r] * k.rsq[r+1] / newRsqR
	k.rsq[r] = newRsqR
	for j := 0; j < r; j++ {
		k.mu[r*k.s+j], k.mu[(r+1)*k.s+j] = k.mu[(r+1)*k.s+j], k.mu[r*k.s+j]
	}
	for i := r + 2; i < k.s; i++ {
		t := k.mu[i*k.s+r+1]
		k.mu[i*k.s+r+1] = k.mu[i*k.s+r] - muOld*t
		k.mu[i*k.s+r] = t + muNew*k.mu[i*k.s+r+1]
	}
	k.mu[(r+1)*k.s+r] = muNew
	for c := 0; c < k.s; c++ {
		k.u[r*k.s+c], k.u[(r+1)*k.s+c] = k.u[(r+1)*k.s+c], k.u[r*k.s+c]
	}
	k.changed = true
	return nil
}

// insert moves block row i to position j < i as a chain of adjacent swaps
// on the float profile and on u.
func (k *lllKernel) insert(j, i int) error {
	for r := i; r > j; r-- {
		if err := k.swap(r - 1); err != nil {
			return err
		}
	}
	return nil
}
