package util

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/cxzhong/BLASter/intmatrix"
)

// RandomUnimodularPair creates a pair of mutually inverse dim x dim
// integer matrices with determinant 1, built from a short random sequence
// of row operations. The inverse operation to adding c times row i to row
// j is to add -c times row i to row j; the inverse product is accumulated
// in the opposite order.
func RandomUnimodularPair(rnd *rand.Rand, dim int) ([]int64, []int64, error) {
	const maxRowOpEntry = 10
	const maxRowOps = 10
	const maxMatrixEntry = 100
	retValA := make([]int64, dim*dim)
	retValB := make([]int64, dim*dim)
	for j := 0; j < dim; j++ {
		retValA[j*dim+j] = 1
		retValB[j*dim+j] = 1
	}
	for i := 0; i < maxRowOps; i++ {
		srcRow := rnd.Intn(dim)
		destRow := rnd.Intn(dim)
		multiple := int64(rnd.Intn(maxRowOpEntry) - (maxRowOpEntry / 2))
		if multiple == 0 {
			multiple = 1
		}
		if srcRow == destRow {
			if destRow < dim/2 {
				destRow += dim / 2
			} else {
				destRow -= dim / 2
			}
		}
		rowOpA := make([]int64, dim*dim)
		rowOpB := make([]int64, dim*dim)
		for j := 0; j < dim; j++ {
			rowOpA[j*dim+j] = 1
			rowOpB[j*dim+j] = 1
		}
		rowOpA[destRow*dim+srcRow] = multiple
		rowOpB[destRow*dim+srcRow] = -multiple
		tmpA, err := MultiplyInt64(rowOpA, retValA, dim)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"RandomUnimodularPair: could not fold row operation %d: %q", i, err.Error(),
			)
		}
		tmpB, err := MultiplyInt64(retValB, rowOpB, dim)
		if err != nil {
			return nil, nil, fmt.Errorf(
				"RandomUnimodularPair: could not fold inverse operation %d: %q", i, err.Error(),
			)
		}

		// An entry in tmpA or tmpB may exceed the maximum desired; stop at
		// the product accumulated so far, which is already unimodular.
		tooLarge := false
		for j := 0; j < dim*dim; j++ {
			if tmpA[j] > maxMatrixEntry || tmpA[j] < -maxMatrixEntry ||
				tmpB[j] > maxMatrixEntry || tmpB[j] < -maxMatrixEntry {
				tooLarge = true
				break
			}
		}
		if tooLarge {
			return retValA, retValB, nil
		}
		retValA = tmpA
		retValB = tmpB
	}
	return retValA, retValB, nil
}

// RandomBasis returns an n x m matrix with entries drawn uniformly from
// {-maxEntry,...,maxEntry}, resampling any zero row. For n <= m such a
// matrix has full rank outside a negligible set of draws.
func RandomBasis(rnd *rand.Rand, n, m, maxEntry int) (*intmatrix.Matrix, error) {
	entries := make([]int64, n*m)
	for i := 0; i < n; i++ {
		for {
			isZero := true
			for j := 0; j < m; j++ {
				entries[i*m+j] = int64(rnd.Intn(2*maxEntry+1) - maxEntry)
				if entries[i*m+j] != 0 {
					isZero = false
				}
			}
			if !isZero {
				break
			}
		}
	}
	retVal, err := intmatrix.NewFromInt64Array(entries, n, m)
	if err != nil {
		return nil, fmt.Errorf("RandomBasis: %q", err.Error())
	}
	return retVal, nil
}

// BruteForceShortestSq returns the minimum squared norm over all non-zero
// integer combinations of the rows of basis with coefficients in
// {-radius,...,radius}. Exponential in the number of rows. The search is
// confined to the coefficient box, so the result is an upper bound on the
// lattice minimum; a shortest vector whose coefficients fall outside the
// box is not seen.
func BruteForceShortestSq(basis *intmatrix.Matrix, radius int) (*big.Int, error) {
	n, m := basis.Dimensions()
	coeffs := make([]int64, n)
	var best *big.Int
	var walk func(i int) error
	walk = func(i int) error {
		if i == n {
			allZero := true
			for _, c := range coeffs {
				if c != 0 {
					allZero = false
					break
				}
			}
			if allZero {
				return nil
			}
			normSq := big.NewInt(0)
			tmp := new(big.Int)
			for j := 0; j < m; j++ {
				entry := big.NewInt(0)
				for k := 0; k < n; k++ {
					if coeffs[k] == 0 {
						continue
					}
					v, err := basis.Get(k, j)
					if err != nil {
						return err
					}
					entry.Add(entry, tmp.Mul(big.NewInt(coeffs[k]), v))
				}
				normSq.Add(normSq, tmp.Mul(entry, entry))
			}
			if best == nil || normSq.Cmp(best) < 0 {
				best = new(big.Int).Set(normSq)
			}
			return nil
		}
		for c := -radius; c <= radius; c++ {
			coeffs[i] = int64(c)
			if err := walk(i + 1); err != nil {
				return err
			}
		}
		coeffs[i] = 0
		return nil
	}
	if err := walk(0); err != nil {
		return nil, fmt.Errorf("BruteForceShortestSq: %q", err.Error())
	}
	return best, nil
}
