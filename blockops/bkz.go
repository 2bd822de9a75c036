// Copyright (c) 2025 Colin McRae

package blockops

import (
	"fmt"

	"github.com/cxzhong/BLASter/reduceops"
)

// enumerationSlack is the factor by which an enumerated vector must beat
// the current first window vector before it is worth an insertion. Without
// it, a vector shorter by a rounding error would trigger an insertion
// every tour and the tour loop would never settle.
const enumerationSlack = 0.99

// runBKZ slides an enumeration window of BlockSize rows across an
// LLL-maintained basis. Each window is searched exhaustively for a lattice
// vector shorter than the window's current first vector; a find is
// inserted by extending its coefficient vector to a unimodular transform
// acting on the window rows. Tours repeat until a full pass makes no
// insertion or MaxTours is exhausted.
func (r *Reduction) runBKZ() error {
	if err := r.runLLL(0); err != nil {
		return err
	}
	for tour := 0; tour < r.params.MaxTours; tour++ {
		r.tp.Tours++
		inserted := false
		for start := 0; start+1 < r.n; start++ {
			end := start + r.params.BlockSize
			if end > r.n {
				end = r.n
			}
			didInsert, err := r.bkzWindow(start, end)
			if err != nil {
				return err
			}
			inserted = inserted || didInsert
		}
		r.logger.Debug().Int("tour", tour).Bool("inserted", inserted).Msg("tour complete")
		if !inserted {
			return r.runLLL(0)
		}
	}

	// Tours ran out while insertions were still being found. The basis is
	// still valid and reduced, just short of a BKZ fixed point.
	r.tp.Converged = false
	return r.runLLL(0)
}

// bkzWindow enumerates the projected sublattice spanned by rows
// {start,...,end-1} and, on a find, folds the insertion into the shared
// basis and transform and re-reduces the window. Reports whether an
// insertion happened.
func (r *Reduction) bkzWindow(start, end int) (bool, error) {
	rsq, mu, err := r.prof.Block(start, end)
	if err != nil {
		return false, fmt.Errorf("Reduction.bkzWindow: %q", err.Error())
	}
	stopEnum := r.tp.phase(&r.tp.Enumeration)
	x, norm, found := shortestVector(rsq, mu, end-start, enumerationSlack*rsq[0])
	stopEnum()
	if !found {
		return false, nil
	}
	if w := unitCoefficient(x); w > 0 {
		// The winning vector is an existing window row up to sign, so the
		// insertion is a plain row rotation, mirrored incrementally on the
		// profile with no refresh needed.
		if err = r.basis.RotateRows(start, start+w); err != nil {
			return false, fmt.Errorf("Reduction.bkzWindow: could not rotate basis: %q", err.Error())
		}
		if err = r.trans.RotateRows(start, start+w); err != nil {
			return false, fmt.Errorf(
				"Reduction.bkzWindow: could not rotate transform: %q", err.Error(),
			)
		}
		if err = r.prof.ApplyRotation(start, start+w); err != nil {
			return false, fmt.Errorf("Reduction.bkzWindow: %q", err.Error())
		}
	} else {
		u, err := completeToUnimodular(x)
		if err != nil {
			return false, fmt.Errorf("Reduction.bkzWindow: %q", err.Error())
		}
		if err = r.basis.ApplyBlockRowTransform(start, end, u); err != nil {
			return false, fmt.Errorf("Reduction.bkzWindow: could not update basis: %q", err.Error())
		}
		if err = r.trans.ApplyBlockRowTransform(start, end, u); err != nil {
			return false, fmt.Errorf(
				"Reduction.bkzWindow: could not update transform: %q", err.Error(),
			)
		}
		if err = r.orthogonalize(); err != nil {
			return false, err
		}
	}
	r.tp.Insertions++
	r.logger.Debug().
		Int("start", start).
		Int("end", end).
		Float64("norm", norm).
		Float64("previous", rsq[0]).
		Msg("enumeration insertion")

	// The inserted row is short but the rows behind it are no longer
	// reduced; restore the window before the next one overlaps it.
	if err = r.reduceWindow(start, end); err != nil {
		return false, err
	}
	return true, nil
}

// unitCoefficient returns w when x is plus or minus the w-th unit vector
// and -1 otherwise.
func unitCoefficient(x []int64) int {
	retVal := -1
	for i, c := range x {
		switch {
		case c == 0:
		case (c == 1 || c == -1) && retVal < 0:
			retVal = i
		default:
			return -1
		}
	}
	return retVal
}

// reduceWindow LLL-reduces rows {lo,...,hi-1} directly on the shared
// basis, transform and profile. Unlike a sweep, this runs in a sequential
// context, so swaps are applied in place as incremental profile updates
// and an exact refresh happens only when the drift bound demands one.
func (r *Reduction) reduceWindow(lo, hi int) error {
	stop := r.tp.phase(&r.tp.LocalReduction)
	i := lo + 1
	for i < hi {
		if r.prof.NeedsRefresh() {
			stop()
			if err := r.orthogonalize(); err != nil {
				return err
			}
			stop = r.tp.phase(&r.tp.LocalReduction)
		}
		if err := reduceops.SizeReduceRow(r.prof, r.basis, r.trans, i, r.params.Eta); err != nil {
			stop()
			return fmt.Errorf("Reduction.reduceWindow: %w", err)
		}
		muI := r.prof.Mu(i, i-1)
		if r.prof.RSq(i) >= (r.params.Delta-muI*muI)*r.prof.RSq(i-1) {
			i++
			continue
		}
		if err := r.basis.SwapRows(i-1, i); err != nil {
			stop()
			return fmt.Errorf("Reduction.reduceWindow: could not swap basis rows: %q", err.Error())
		}
		if err := r.trans.SwapRows(i-1, i); err != nil {
			stop()
			return fmt.Errorf(
				"Reduction.reduceWindow: could not swap transform rows: %q", err.Error(),
			)
		}
		if err := r.prof.ApplySwap(i - 1); err != nil {
			stop()
			return fmt.Errorf("Reduction.reduceWindow: %w", err)
		}
		r.tp.Swaps++
		if i > lo+1 {
			i--
		}
	}
	stop()
	return r.localReduce()
}
