// Copyright (c) 2025 Colin McRae

package intmatrix

import (
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// Mul replaces the contents of m with the exact matrix product xy and
// returns m. If dimensions of x and y are invalid or do not match, an error
// is returned.
func (m *Matrix) Mul(x *Matrix, y *Matrix) (*Matrix, error) {
	err := checkProductInput(x, y, "Mul")
	if err != nil {
		return nil, err
	}
	retVal := NewEmpty(x.numRows, y.numCols)
	for i := 0; i < x.numRows; i++ {
		multiplyRow(x, y, retVal, i)
	}
	m.Copy(retVal)
	return m, nil
}

// MulParallel returns the exact matrix product xy, computed with up to
// numWorkers goroutines splitting the rows of the result. The product is
// exact integer arithmetic throughout; this is the correction step that
// recovers an exactly integral reduced basis from an accumulated unimodular
// transform, and it is exposed for standalone use as a general integer
// matrix multiply.
func MulParallel(x *Matrix, y *Matrix, numWorkers int) (*Matrix, error) {
	err := checkProductInput(x, y, "MulParallel")
	if err != nil {
		return nil, err
	}
	if numWorkers < 1 {
		return nil, fmt.Errorf("Matrix.MulParallel: numWorkers = %d < 1", numWorkers)
	}
	if numWorkers > x.numRows {
		numWorkers = x.numRows
	}
	retVal := NewEmpty(x.numRows, y.numCols)
	if numWorkers == 1 {
		for i := 0; i < x.numRows; i++ {
			multiplyRow(x, y, retVal, i)
		}
		return retVal, nil
	}

	// Workers own disjoint row ranges of the result, so no locking is needed.
	var g errgroup.Group
	rowsPerWorker := (x.numRows + numWorkers - 1) / numWorkers
	for w := 0; w < numWorkers; w++ {
		lo := w * rowsPerWorker
		hi := lo + rowsPerWorker
		if hi > x.numRows {
			hi = x.numRows
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				multiplyRow(x, y, retVal, i)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("Matrix.MulParallel: worker failure: %q", err.Error())
	}
	return retVal, nil
}

// multiplyRow computes row i of the product xy into dst. It writes only to
// row i of dst, which keeps concurrent calls on distinct rows race-free.
func multiplyRow(x, y, dst *Matrix, i int) {
	term := new(big.Int)
	for j := 0; j < y.numCols; j++ {
		entry := dst.values[i*dst.numCols+j]
		for k := 0; k < x.numCols; k++ {
			xik := x.values[i*x.numCols+k]
			if xik.Sign() == 0 {
				continue
			}
			term.Mul(xik, y.values[k*y.numCols+j])
			entry.Add(entry, term)
		}
	}
}
