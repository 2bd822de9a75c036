// Copyright (c) 2025 Colin McRae

package blockops

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cxzhong/BLASter/gramops"
	"github.com/cxzhong/BLASter/intmatrix"
	"github.com/cxzhong/BLASter/reduceops"
)

// lovaszSlack relaxes the Lovasz condition in the global convergence test
// by a hair, so that a boundary pair sitting exactly on the condition after
// an exact recomputation cannot ping-pong the scheduler between sweeps.
const lovaszSlack = 1e-9

// Reduction is the state of one reduction call: a private working copy of
// the caller's basis, the accumulated unimodular transform, the floating
// point profile, and the per-phase time profile. A Reduction is exclusively
// owned by one call; nothing here is safe for concurrent use from outside,
// while internally each sweep fans segments out over a worker pool and
// joins them at an explicit merge barrier.
type Reduction struct {
	n        int
	original *intmatrix.Matrix
	basis    *intmatrix.Matrix
	trans    *intmatrix.Transform
	prof     *gramops.Profile
	params   Params
	tp       *TimeProfile
	logger   zerolog.Logger
}

// newReduction validates the input and parameters and sets up the working
// state. Validation failures leave the caller's basis untouched; the
// working copy is made only after every check passes.
func newReduction(basis *intmatrix.Matrix, params Params) (*Reduction, error) {
	if basis == nil || basis.NumRows() < 1 {
		return nil, fmt.Errorf("newReduction: basis is nil or empty: %w", ErrValidation)
	}
	n, numCols := basis.Dimensions()
	if n > numCols {
		return nil, fmt.Errorf(
			"newReduction: basis has %d rows but only %d columns and cannot be full rank: %w",
			n, numCols, ErrValidation,
		)
	}
	for i := 0; i < n; i++ {
		isZero, err := basis.IsZeroRow(i)
		if err != nil {
			return nil, fmt.Errorf("newReduction: could not inspect row %d: %q", i, err.Error())
		}
		if isZero {
			return nil, fmt.Errorf(
				"newReduction: row %d of the basis is zero, so the basis is not full rank: %w",
				i, ErrValidation,
			)
		}
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	trans, err := intmatrix.NewTransform(n)
	if err != nil {
		return nil, fmt.Errorf("newReduction: could not create transform: %q", err.Error())
	}
	return &Reduction{
		n:        n,
		original: basis,
		basis:    intmatrix.NewEmpty(0, 0).Copy(basis),
		trans:    trans,
		params:   params,
		tp:       &TimeProfile{Converged: true},
		logger:   params.logger(),
	}, nil
}

// orthogonalize recomputes the profile exactly from the working basis.
// Called at the start of a run and at every merge barrier; this is both
// the boundary repair and the drift control of the incremental updates.
func (r *Reduction) orthogonalize() error {
	defer r.tp.phase(&r.tp.Orthogonalization)()
	if r.prof == nil {
		prof, err := gramops.New(r.basis)
		if err != nil {
			return err
		}
		r.prof = prof
		return nil
	}
	return r.prof.Refresh(r.basis)
}

// localReduce runs the configured local reduction strategy over the whole
// basis, leaving every |mu[i][j]| within the size-reduction bound.
func (r *Reduction) localReduce() error {
	defer r.tp.phase(&r.tp.LocalReduction)()
	if r.params.UseSeysen {
		return reduceops.SeysenReduce(r.prof, r.basis, r.trans, 0, r.n, r.params.Cores)
	}
	return reduceops.SizeReduce(r.prof, r.basis, r.trans, r.params.Eta)
}

// runLLL drives segmented sweeps until a full sweep performs no swap or
// insertion and the profile satisfies both reduction invariants globally.
// maxDepth 0 runs plain LLL inside each segment; maxDepth > 0 runs
// deep-LLL with that insertion-distance bound.
//
// Termination rests on the usual LLL potential argument: every swap and
// insertion strictly decreases the basis potential, which is bounded below
// for a fixed input. The sweep cap below is a safety valve against
// floating-point pathologies, not part of the termination argument; it
// scales with both the dimension and the bit-size of the input so that
// large-entry bases are not cut off mid-descent.
func (r *Reduction) runLLL(maxDepth int) error {
	if err := r.orthogonalize(); err != nil {
		return err
	}
	if err := r.localReduce(); err != nil {
		return err
	}
	segSize := segmentSize(r.n, r.params.Cores)
	maxSweeps := sweepCap(r.n, r.prof)
	for sweep := 0; ; sweep++ {
		if sweep >= maxSweeps {
			return fmt.Errorf(
				"Reduction.runLLL: no convergence after %d sweeps: %w", sweep, gramops.ErrDegenerate,
			)
		}
		offset := 0
		if sweep%2 == 1 {
			offset = segSize / 2
		}
		segs := segments(r.n, segSize, offset)
		r.tp.Sweeps++
		changes, mutated, err := r.sweep(segs, maxDepth)
		if err != nil {
			return err
		}

		// Merge barrier: exact recomputation repairs the cross-boundary
		// profile entries the segment kernels could not see, then the
		// global local reduction restores the size bound everywhere. When
		// no kernel touched the basis the profile is still an exact mirror
		// of it, so the barrier is skipped unless the incremental update
		// count has hit its drift bound.
		if mutated || r.prof.NeedsRefresh() {
			if err = r.orthogonalize(); err != nil {
				return err
			}
			if err = r.localReduce(); err != nil {
				return err
			}
		}
		r.logger.Debug().
			Int("sweep", sweep).
			Int("segments", len(segs)).
			Int("changes", changes).
			Msg("sweep merged")
		if changes == 0 {
			// The size bound holds by construction after localReduce, so the
			// global test is the Lovasz condition alone.
			if ok, _, _ := r.prof.IsReduced(r.params.Delta-lovaszSlack, r.params.Eta, false); ok {
				return nil
			}
			// A boundary pair still violates the Lovasz condition; the
			// shifted boundaries of the next sweep place it inside a
			// segment.
		}
	}
}

// sweep runs one parallel pass: every segment is copied into a local
// kernel, reduced in isolation, and the resulting local transforms are
// folded into the shared basis and transform after all workers have
// finished. It returns the number of swaps plus insertions performed and
// whether any kernel changed its segment at all, size reductions included.
func (r *Reduction) sweep(segs [][2]int, maxDepth int) (int, bool, error) {
	kernels := make([]*lllKernel, len(segs))
	stopKernel := r.tp.phase(&r.tp.LocalReduction)
	var g errgroup.Group
	g.SetLimit(r.params.Cores)
	for idx, seg := range segs {
		idx, seg := idx, seg
		g.Go(func() error {
			rsq, mu, err := r.prof.Block(seg[0], seg[1])
			if err != nil {
				return err
			}
			k := newKernel(rsq, mu, r.params.Delta, r.params.Eta, maxDepth)
			if err = k.reduce(); err != nil {
				return err
			}
			kernels[idx] = k
			return nil
		})
	}
	err := g.Wait()
	stopKernel()
	if err != nil {
		return 0, false, fmt.Errorf("Reduction.sweep: segment worker failed: %w", err)
	}

	defer r.tp.phase(&r.tp.SwapInsertion)()
	changes := 0
	mutated := false
	for idx, seg := range segs {
		k := kernels[idx]
		if k == nil || !k.changed {
			continue
		}
		mutated = true
		changes += k.swaps + k.insertions
		r.tp.Swaps += k.swaps
		r.tp.Insertions += k.insertions
		if err = r.basis.ApplyBlockRowTransform(seg[0], seg[1], k.u); err != nil {
			return 0, false, fmt.Errorf("Reduction.sweep: could not update basis: %q", err.Error())
		}
		if err = r.trans.ApplyBlockRowTransform(seg[0], seg[1], k.u); err != nil {
			return 0, false, fmt.Errorf("Reduction.sweep: could not update transform: %q", err.Error())
		}
	}
	return changes, mutated, nil
}

// finish materializes the transform and recovers the reduced basis as the
// exact integer product Transform x OriginalBasis. The working basis was
// maintained with exact arithmetic throughout, so the product must agree
// with it; in debug mode a disagreement is loud, since it would mean a
// mirrored operation was dropped.
func (r *Reduction) finish() (*intmatrix.Matrix, *intmatrix.Matrix, *TimeProfile, error) {
	transform := r.trans.Matrix()
	reduced, err := intmatrix.MulParallel(transform, r.original, r.params.Cores)
	if err != nil {
		return nil, nil, nil, fmt.Errorf(
			"Reduction.finish: could not apply exact transform: %q", err.Error(),
		)
	}
	if r.params.Debug && !reduced.Equals(r.basis) {
		r.logger.Warn().Msg("exact transform product disagrees with working basis")
	}
	return reduced, transform, r.tp, nil
}

// segmentSize derives the per-sweep segment length from the basis size and
// the worker pool: one segment per core, with a floor of two rows so a
// segment always contains at least one Lovasz pair.
func segmentSize(n, cores int) int {
	size := (n + cores - 1) / cores
	if size < 2 {
		size = 2
	}
	return size
}

// sweepCap bounds the number of sweeps a run may take. The LLL potential
// argument bounds the total swap count by O(n^2 B) for inputs of bit-size
// B, and every non-final sweep performs at least one swap, so the cap is
// the dimension term plus the spread of the initial profile in bits.
func sweepCap(n int, prof *gramops.Profile) int {
	bits := 0.0
	for i := 0; i < n; i++ {
		bits += math.Abs(math.Log2(prof.RSq(i)))
	}
	return 64*n + 16 + int(bits)
}

// segments partitions {0,...,n-1} into consecutive half-open ranges of
// length segSize, the first one shortened to offset when offset > 0. The
// shifting offset moves segment boundaries between sweeps so local optima
// propagate across the whole basis.
func segments(n, segSize, offset int) [][2]int {
	var retVal [][2]int
	lo := 0
	if offset > 0 && offset < n {
		retVal = append(retVal, [2]int{0, offset})
		lo = offset
	}
	for lo < n {
		hi := lo + segSize
		if hi > n {
			hi = n
		}
		retVal = append(retVal, [2]int{lo, hi})
		lo = hi
	}
	return retVal
}
