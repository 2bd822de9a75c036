// Copyright (c) 2025 Colin McRae

// Package util holds flat int64 matrix arithmetic shared by the reduction
// kernels' tests, and generators for the random fixtures those tests run
// against.
package util

import (
	"fmt"
	"math"
	"math/big"
)

// MultiplyInt64 returns the matrix product, x * y, for flat row-major
// []int64 x and y. n must equal the number of columns in x and the number
// of rows in y. Entries large enough to risk overflow in a follow-on
// multiply are an error.
func MultiplyInt64(x []int64, y []int64, n int) ([]int64, error) {
	// x is mxn, y is nxp and xy is mxp.
	m, p, err := getDimensions(len(x), len(y), n)
	if err != nil {
		return []int64{}, err
	}
	largeEntryThresh := int64(math.MaxInt32 / m)
	xy := make([]int64, m*p)
	for i := 0; i < m; i++ {
		for j := 0; j < p; j++ {
			xyEntry := x[i*n] * y[j] // x[i][0] * y[0][j]
			for k := 1; k < n; k++ {
				xyEntry += x[i*n+k] * y[k*p+j] // x[i][k] * y[k][j]
			}
			if (xyEntry > largeEntryThresh) || (xyEntry < -largeEntryThresh) {
				return []int64{}, fmt.Errorf(
					"MultiplyInt64: entry (%d,%d) = %d is large enough to risk future overflow",
					i, j, xyEntry,
				)
			}
			xy[i*p+j] = xyEntry
		}
	}
	return xy, nil
}

// IsInversePair returns whether x and y are inverses of each other.
func IsInversePair(x, y []int64, dim int) (bool, error) {
	shouldBeIdentity, err := MultiplyInt64(x, y, dim)
	if err != nil {
		return false, fmt.Errorf(
			"IsInversePair: could not multiply x (%d-long) by y (%d-long): %q",
			len(x), len(y), err.Error(),
		)
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if (i == j) && (shouldBeIdentity[i*dim+j] != 1) {
				return false, nil
			} else if (i != j) && (shouldBeIdentity[i*dim+j] != 0) {
				return false, nil
			}
		}
	}
	return true, nil
}

// BigDet returns the determinant of a square matrix given as a flat
// row-major slice of *big.Int, by fraction-free Gaussian elimination
// (Bareiss). The input is not modified. Exact for any entry size, so it
// is the right tool for checking that a recovered transform has
// determinant 1 or -1.
func BigDet(entries []*big.Int, dim int) (*big.Int, error) {
	if len(entries) != dim*dim {
		return nil, fmt.Errorf("BigDet: %d entries for claimed dimension %d", len(entries), dim)
	}
	a := make([]*big.Int, dim*dim)
	for i := range entries {
		a[i] = new(big.Int).Set(entries[i])
	}
	sign := 1
	prevPivot := big.NewInt(1)
	tmp := new(big.Int)
	for k := 0; k < dim-1; k++ {
		if a[k*dim+k].Sign() == 0 {
			pivotRow := -1
			for i := k + 1; i < dim; i++ {
				if a[i*dim+k].Sign() != 0 {
					pivotRow = i
					break
				}
			}
			if pivotRow < 0 {
				return big.NewInt(0), nil
			}
			for j := k; j < dim; j++ {
				a[k*dim+j], a[pivotRow*dim+j] = a[pivotRow*dim+j], a[k*dim+j]
			}
			sign = -sign
		}
		for i := k + 1; i < dim; i++ {
			for j := k + 1; j < dim; j++ {
				tmp.Mul(a[i*dim+j], a[k*dim+k])
				tmp.Sub(tmp, new(big.Int).Mul(a[i*dim+k], a[k*dim+j]))
				a[i*dim+j], _ = new(big.Int).QuoRem(tmp, prevPivot, new(big.Int))
			}
			a[i*dim+k].SetInt64(0)
		}
		prevPivot = a[k*dim+k]
	}
	retVal := new(big.Int).Set(a[(dim-1)*dim+(dim-1)])
	if sign < 0 {
		retVal.Neg(retVal)
	}
	return retVal, nil
}

// getDimensions returns the dimensions m and p for a matrix multiply
// xy where x has mn entries, y has np entries, and the number of columns
// in x (= the number of rows in y) is n.
func getDimensions(mn, np, n int) (int, int, error) {
	if mn%n != 0 {
		return 0, 0, fmt.Errorf("getDimensions: non-integer number of rows %d / %d in x", mn, n)
	}
	if np%n != 0 {
		return 0, 0, fmt.Errorf("getDimensions: non-integer number of columns %d / %d in y", np, n)
	}
	return mn / n, np / n, nil
}
