// Copyright (c) 2025 Colin McRae

package blockops

import (
	"fmt"

	"github.com/cxzhong/BLASter/intmatrix"
)

// BlockLLL LLL-reduces the rows of basis with reduction quality delta,
// using segmented parallel sweeps. The input is never modified. It returns
// the reduced basis, the unimodular transform with
// reduced = transform x basis exactly, and the time profile of the run.
//
// The sweep loop carries a cap scaled with the dimension and the bit-size
// of the input as a guard against floating-point pathologies; a run that
// exhausts it fails with an error wrapping gramops.ErrDegenerate rather
// than looping. The same guard applies to BlockDeepLLL and BlockBKZ.
func BlockLLL(
	basis *intmatrix.Matrix, delta float64, params Params,
) (*intmatrix.Matrix, *intmatrix.Matrix, *TimeProfile, error) {
	params.Delta = delta
	r, err := newReduction(basis, params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("BlockLLL: %w", err)
	}
	if err = r.runLLL(0); err != nil {
		return nil, nil, nil, fmt.Errorf("BlockLLL: %w", err)
	}
	return r.finish()
}

// BlockDeepLLL is BlockLLL with bounded-depth deep insertions: inside each
// segment a row may be inserted up to maxDepth positions earlier when its
// projection is short enough to pay for the move. maxDepth must be at
// least 1; BlockLLL covers maxDepth 0.
func BlockDeepLLL(
	basis *intmatrix.Matrix, delta float64, maxDepth int, params Params,
) (*intmatrix.Matrix, *intmatrix.Matrix, *TimeProfile, error) {
	if maxDepth < 1 {
		return nil, nil, nil, fmt.Errorf(
			"BlockDeepLLL: maxDepth = %d < 1: %w", maxDepth, ErrValidation,
		)
	}
	params.Delta = delta
	params.MaxDepth = maxDepth
	r, err := newReduction(basis, params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("BlockDeepLLL: %w", err)
	}
	if err = r.runLLL(maxDepth); err != nil {
		return nil, nil, nil, fmt.Errorf("BlockDeepLLL: %w", err)
	}
	return r.finish()
}

// BlockBKZ BKZ-reduces the rows of basis with block size blockSize,
// sliding an enumeration window over an LLL-maintained basis for up to
// maxTours full passes. blockSize must satisfy 2 <= blockSize < n, where
// n is the number of rows; use BlockLLL for n <= 2. TimeProfile.Converged
// reports whether the tours ran out while insertions were still being
// found.
func BlockBKZ(
	basis *intmatrix.Matrix, delta float64, blockSize, maxTours int, params Params,
) (*intmatrix.Matrix, *intmatrix.Matrix, *TimeProfile, error) {
	if maxTours < 1 {
		return nil, nil, nil, fmt.Errorf(
			"BlockBKZ: maxTours = %d < 1: %w", maxTours, ErrValidation,
		)
	}
	params.Delta = delta
	params.BlockSize = blockSize
	params.MaxTours = maxTours
	r, err := newReduction(basis, params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("BlockBKZ: %w", err)
	}
	if blockSize < 2 || r.n <= blockSize {
		return nil, nil, nil, fmt.Errorf(
			"BlockBKZ: block size %d is outside {2,...,%d}: %w",
			blockSize, r.n-1, ErrValidation,
		)
	}
	if err = r.runBKZ(); err != nil {
		return nil, nil, nil, fmt.Errorf("BlockBKZ: %w", err)
	}
	return r.finish()
}

// SizeReduce size-reduces the rows of basis without reordering them: the
// returned basis spans the same lattice, has the same profile, and every
// |mu[i][j]| is at most params.Eta. The transform is unit lower
// triangular.
func SizeReduce(
	basis *intmatrix.Matrix, params Params,
) (*intmatrix.Matrix, *intmatrix.Matrix, *TimeProfile, error) {
	params.UseSeysen = false
	r, err := newReduction(basis, params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SizeReduce: %w", err)
	}
	if err = r.orthogonalize(); err != nil {
		return nil, nil, nil, fmt.Errorf("SizeReduce: %w", err)
	}
	if err = r.localReduce(); err != nil {
		return nil, nil, nil, fmt.Errorf("SizeReduce: %w", err)
	}
	return r.finish()
}

// SeysenReduce size-reduces the rows of basis by parallel divide and
// conquer. The result satisfies the same contract as SizeReduce with
// eta 1/2 rounding, reached in logarithmic recursion depth instead of a
// sequential row-by-row pass.
func SeysenReduce(
	basis *intmatrix.Matrix, params Params,
) (*intmatrix.Matrix, *intmatrix.Matrix, *TimeProfile, error) {
	params.UseSeysen = true
	r, err := newReduction(basis, params)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("SeysenReduce: %w", err)
	}
	if err = r.orthogonalize(); err != nil {
		return nil, nil, nil, fmt.Errorf("SeysenReduce: %w", err)
	}
	if err = r.localReduce(); err != nil {
		return nil, nil, nil, fmt.Errorf("SeysenReduce: %w", err)
	}
	return r.finish()
}

// ZZRightMatmul returns the exact integer product transform x basis,
// computed with cores parallel workers. This is the operation the engine
// itself uses to recover the reduced basis from the recorded transform.
func ZZRightMatmul(
	transform, basis *intmatrix.Matrix, cores int,
) (*intmatrix.Matrix, error) {
	if transform == nil || basis == nil {
		return nil, fmt.Errorf("ZZRightMatmul: nil operand: %w", ErrValidation)
	}
	if cores < 1 {
		return nil, fmt.Errorf("ZZRightMatmul: cores = %d < 1: %w", cores, ErrResource)
	}
	retVal, err := intmatrix.MulParallel(transform, basis, cores)
	if err != nil {
		return nil, fmt.Errorf("ZZRightMatmul: %q", err.Error())
	}
	return retVal, nil
}
