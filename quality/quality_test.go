// Copyright (c) 2025 Colin McRae

package quality

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cxzhong/BLASter/blockops"
	"github.com/cxzhong/BLASter/intmatrix"
	"github.com/cxzhong/BLASter/util"
)

const tolerance = 1.e-9

func TestGetProfile(t *testing.T) {
	// Rows (3, 0) and (1, 2) orthogonalize to (3, 0) and (0, 2)
	basis, err := intmatrix.NewFromInt64Array([]int64{3, 0, 1, 2}, 2, 2)
	assert.NoError(t, err)
	profile, err := GetProfile(basis)
	assert.NoError(t, err)
	assert.Len(t, profile, 2)
	assert.InDelta(t, math.Log(3.0), profile[0], tolerance)
	assert.InDelta(t, math.Log(2.0), profile[1], tolerance)

	// Rank-deficient input fails
	degenerate, err := intmatrix.NewFromInt64Array([]int64{1, 2, 1, 2}, 2, 2)
	assert.NoError(t, err)
	_, err = GetProfile(degenerate)
	assert.Error(t, err)
}

func TestRHF(t *testing.T) {
	// A flat profile has root Hermite factor exactly 1
	flat := []float64{2.5, 2.5, 2.5, 2.5}
	rhf, err := RHF(flat)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, rhf, tolerance)

	// profile (log 4, log 1): det = 4, ||b_1|| = 4, so
	// rhf = (4 / 2)^(1/2) = sqrt(2)
	rhf, err = RHF([]float64{math.Log(4.0), 0})
	assert.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2.0), rhf, tolerance)

	_, err = RHF(nil)
	assert.Error(t, err)
}

func TestSlope(t *testing.T) {
	// An exactly linear profile has its own slope
	linear := []float64{10, 9.5, 9, 8.5, 8}
	slope, err := Slope(linear)
	assert.NoError(t, err)
	assert.InDelta(t, -0.5, slope, tolerance)

	flat := []float64{3, 3, 3}
	slope, err = Slope(flat)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0, slope, tolerance)

	_, err = Slope([]float64{1})
	assert.Error(t, err)
}

func TestPotential(t *testing.T) {
	// n = 2: potential = 2 * 2 p[0] + 1 * 2 p[1]
	pot, err := Potential([]float64{1.5, 0.5})
	assert.NoError(t, err)
	assert.InDelta(t, 2*2*1.5+2*0.5, pot, tolerance)

	_, err = Potential(nil)
	assert.Error(t, err)
}

func TestPotential_DecreasesUnderReduction(t *testing.T) {
	const (
		numRows  = 10
		numCols  = 10
		maxEntry = 60
		seed     = 183327
	)
	rnd := rand.New(rand.NewSource(seed))
	basis, err := util.RandomBasis(rnd, numRows, numCols, maxEntry)
	assert.NoError(t, err)
	reduced, _, _, err := blockops.BlockLLL(basis, 0.99, blockops.DefaultParams())
	assert.NoError(t, err)
	before, err := GetProfile(basis)
	assert.NoError(t, err)
	after, err := GetProfile(reduced)
	assert.NoError(t, err)
	potBefore, err := Potential(before)
	assert.NoError(t, err)
	potAfter, err := Potential(after)
	assert.NoError(t, err)
	assert.LessOrEqual(t, potAfter, potBefore+tolerance)
}

func TestIsLLLReduced(t *testing.T) {
	reduced, err := intmatrix.NewFromInt64Array([]int64{1, 1, -1, 1}, 2, 2)
	assert.NoError(t, err)
	ok, err := IsLLLReduced(reduced, 0.99, 0.501)
	assert.NoError(t, err)
	assert.True(t, ok)

	// (10, 0), (9, 1): fails both the size bound and the Lovasz condition
	unreduced, err := intmatrix.NewFromInt64Array([]int64{10, 0, 9, 1}, 2, 2)
	assert.NoError(t, err)
	ok, err = IsLLLReduced(unreduced, 0.99, 0.501)
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = IsWeaklyLLLReduced(unreduced, 0.99)
	assert.NoError(t, err)
	assert.False(t, ok)

	// Size-unreduced but Lovasz-satisfying: (1, 0) and (5, 8) scaled so
	// the second orthogonalized norm dominates
	weak, err := intmatrix.NewFromInt64Array([]int64{1, 0, 5, 8}, 2, 2)
	assert.NoError(t, err)
	ok, err = IsLLLReduced(weak, 0.99, 0.501)
	assert.NoError(t, err)
	assert.False(t, ok)
	ok, err = IsWeaklyLLLReduced(weak, 0.99)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestGetDiagonalStats(t *testing.T) {
	stats, err := GetDiagonalStats([]float64{math.Log(2.0), math.Log(8.0), math.Log(4.0)})
	assert.NoError(t, err)
	assert.InDelta(t, math.Log(2.0), stats.MinLogNorm, tolerance)
	assert.InDelta(t, math.Log(8.0), stats.MaxLogNorm, tolerance)
	assert.InDelta(t, 4.0, stats.Ratio, tolerance)

	_, err = GetDiagonalStats(nil)
	assert.Error(t, err)
}

func TestFirstVectorNorm(t *testing.T) {
	basis, err := intmatrix.NewFromInt64Array([]int64{3, 4, 0, 1}, 2, 2)
	assert.NoError(t, err)
	profile, err := GetProfile(basis)
	assert.NoError(t, err)
	norm, err := FirstVectorNorm(profile)
	assert.NoError(t, err)
	assert.InDelta(t, 5.0, norm, tolerance)

	_, err = FirstVectorNorm(nil)
	assert.Error(t, err)
}

func TestRHF_MatchesReducedBasis(t *testing.T) {
	const (
		numRows  = 8
		numCols  = 8
		maxEntry = 50
		seed     = 521388
	)
	rnd := rand.New(rand.NewSource(seed))
	basis, err := util.RandomBasis(rnd, numRows, numCols, maxEntry)
	assert.NoError(t, err)
	reduced, _, _, err := blockops.BlockLLL(basis, 0.99, blockops.DefaultParams())
	assert.NoError(t, err)
	profile, err := GetProfile(reduced)
	assert.NoError(t, err)
	rhf, err := RHF(profile)
	assert.NoError(t, err)

	// LLL in low dimension lands comfortably inside (0.9, 1.1)
	assert.True(t, rhf > 0.9 && rhf < 1.1)
}
