// Copyright (c) 2025 Colin McRae

package util

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cxzhong/BLASter/intmatrix"
)

func TestMultiplyInt64(t *testing.T) {
	// 2x3 times 3x2
	x := []int64{1, 2, 3, 4, 5, 6}
	y := []int64{7, 8, 9, 10, 11, 12}
	xy, err := MultiplyInt64(x, y, 3)
	assert.NoError(t, err)
	assert.Equal(t, []int64{58, 64, 139, 154}, xy)

	// Mismatched dimensions
	_, err = MultiplyInt64(x, y[:5], 3)
	assert.Error(t, err)

	// Entries past the overflow guard
	huge := []int64{1 << 31, 0, 0, 1 << 31}
	_, err = MultiplyInt64(huge, huge, 2)
	assert.Error(t, err)
}

func TestRandomUnimodularPair(t *testing.T) {
	const (
		numTests = 8
		dim      = 6
		minSeed  = 265440
	)
	for testNbr := 0; testNbr < numTests; testNbr++ {
		rnd := rand.New(rand.NewSource(int64(minSeed + testNbr)))
		a, b, err := RandomUnimodularPair(rnd, dim)
		assert.NoError(t, err)
		areInverses, err := IsInversePair(a, b, dim)
		assert.NoError(t, err)
		assert.True(t, areInverses)

		entries := make([]*big.Int, dim*dim)
		for i := range a {
			entries[i] = big.NewInt(a[i])
		}
		det, err := BigDet(entries, dim)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), det.Int64())
	}
}

func TestBigDet(t *testing.T) {
	toBig := func(x []int64) []*big.Int {
		retVal := make([]*big.Int, len(x))
		for i := range x {
			retVal[i] = big.NewInt(x[i])
		}
		return retVal
	}

	det, err := BigDet(toBig([]int64{3}), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), det.Int64())

	det, err = BigDet(toBig([]int64{1, 2, 3, 4}), 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(-2), det.Int64())

	// Upper triangular: product of the diagonal
	det, err = BigDet(toBig([]int64{2, 5, 7, 0, 3, 1, 0, 0, -4}), 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(-24), det.Int64())

	// A zero pivot forces a row exchange
	det, err = BigDet(toBig([]int64{0, 1, 1, 0}), 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(-1), det.Int64())

	// Singular
	det, err = BigDet(toBig([]int64{1, 2, 2, 4}), 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), det.Int64())

	_, err = BigDet(toBig([]int64{1, 2, 3}), 2)
	assert.Error(t, err)
}

func TestIsInversePair(t *testing.T) {
	identity := []int64{1, 0, 0, 1}
	areInverses, err := IsInversePair(identity, identity, 2)
	assert.NoError(t, err)
	assert.True(t, areInverses)

	a := []int64{1, 1, 0, 1}
	b := []int64{1, -1, 0, 1}
	areInverses, err = IsInversePair(a, b, 2)
	assert.NoError(t, err)
	assert.True(t, areInverses)
	areInverses, err = IsInversePair(a, a, 2)
	assert.NoError(t, err)
	assert.False(t, areInverses)
}

func TestRandomBasis(t *testing.T) {
	const seed = 699710
	rnd := rand.New(rand.NewSource(seed))
	basis, err := RandomBasis(rnd, 5, 7, 30)
	assert.NoError(t, err)
	numRows, numCols := basis.Dimensions()
	assert.Equal(t, 5, numRows)
	assert.Equal(t, 7, numCols)
	for i := 0; i < numRows; i++ {
		isZero, err := basis.IsZeroRow(i)
		assert.NoError(t, err)
		assert.False(t, isZero)
		for j := 0; j < numCols; j++ {
			entry, err := basis.Get(i, j)
			assert.NoError(t, err)
			assert.True(t, entry.CmpAbs(big.NewInt(30)) <= 0)
		}
	}
}

func TestBruteForceShortestSq(t *testing.T) {
	// Rows (3, 0) and (1, 2): shortest vector (1, 2), squared norm 5
	basis, err := intmatrix.NewFromInt64Array([]int64{3, 0, 1, 2}, 2, 2)
	assert.NoError(t, err)
	shortest, err := BruteForceShortestSq(basis, 4)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), shortest.Int64())

	// The integer lattice: shortest squared norm 1
	identity, err := intmatrix.NewFromInt64Array([]int64{1, 0, 0, 1}, 2, 2)
	assert.NoError(t, err)
	shortest, err = BruteForceShortestSq(identity, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), shortest.Int64())
}
