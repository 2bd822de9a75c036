// Copyright (c) 2025 Colin McRae

package intmatrix

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFromInt64Array(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3}, 1, 2)
	assert.Error(t, err)
	assert.Nil(t, x)

	x, err = NewFromInt64Array([]int64{}, 0, 1)
	assert.Error(t, err)
	assert.Nil(t, x)

	x, err = NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.NoError(t, err)
	numRows, numCols := x.Dimensions()
	assert.Equal(t, 2, numRows)
	assert.Equal(t, 3, numCols)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			entry, err := x.Get(i, j)
			assert.NoError(t, err)
			assert.Equal(t, int64(i*3+j+1), entry.Int64())
		}
	}
}

func TestNewIdentity(t *testing.T) {
	identity, err := NewIdentity(3)
	assert.NoError(t, err)
	assert.NotNil(t, identity)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			entry, err := identity.Get(i, j)
			assert.NoError(t, err)
			if i == j {
				assert.Equal(t, int64(1), entry.Int64())
			} else {
				assert.Equal(t, int64(0), entry.Int64())
			}
		}
	}
	_, err = NewIdentity(0)
	assert.Error(t, err)
}

func TestMatrix_CopyAndEquals(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, -2, 3, 4}, 2, 2)
	assert.NoError(t, err)
	y := NewEmpty(0, 0).Copy(x)
	assert.True(t, x.Equals(y))

	// A deep copy does not alias the source
	err = y.Set(0, 0, big.NewInt(7))
	assert.NoError(t, err)
	entry, err := x.Get(0, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), entry.Int64())
	assert.False(t, x.Equals(y))
}

func TestMatrix_IsZeroRow(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 0, 0, 0, 0}, 3, 2)
	assert.NoError(t, err)
	for i, expected := range []bool{false, true, true} {
		isZero, err := x.IsZeroRow(i)
		assert.NoError(t, err)
		assert.Equal(t, expected, isZero)
	}
	_, err = x.IsZeroRow(3)
	assert.Error(t, err)
}

func TestMatrix_RowDot(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3, -4, 5, -6}, 2, 3)
	assert.NoError(t, err)
	dot, err := x.RowDot(0, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(1*(-4)+2*5+3*(-6)), dot.Int64())
	dot, err = x.RowDot(1, 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(16+25+36), dot.Int64())
}

func TestMatrix_SwapRows(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6}, 3, 2)
	assert.NoError(t, err)
	assert.NoError(t, x.SwapRows(0, 2))
	expected, err := NewFromInt64Array([]int64{5, 6, 3, 4, 1, 2}, 3, 2)
	assert.NoError(t, err)
	assert.True(t, x.Equals(expected))
	assert.Error(t, x.SwapRows(0, 3))
}

func TestMatrix_RotateRows(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3, 4, 5, 6, 7, 8}, 4, 2)
	assert.NoError(t, err)

	// Rotate row 3 into position 1, shifting rows 1 and 2 down
	assert.NoError(t, x.RotateRows(1, 3))
	expected, err := NewFromInt64Array([]int64{1, 2, 7, 8, 3, 4, 5, 6}, 4, 2)
	assert.NoError(t, err)
	assert.True(t, x.Equals(expected))

	// k == i is a no-op
	assert.NoError(t, x.RotateRows(2, 2))
	assert.True(t, x.Equals(expected))
	assert.Error(t, x.RotateRows(3, 1))
}

func TestMatrix_AddInt64Multiple(t *testing.T) {
	x, err := NewFromInt64Array([]int64{1, 2, 3, 4}, 2, 2)
	assert.NoError(t, err)
	assert.NoError(t, x.AddInt64Multiple(1, 0, -3))
	expected, err := NewFromInt64Array([]int64{1, 2, 0, -2}, 2, 2)
	assert.NoError(t, err)
	assert.True(t, x.Equals(expected))
}

func TestMatrix_AccumulateRowCombination(t *testing.T) {
	const (
		numRows  = 5
		numCols  = 4
		maxEntry = 20
		seed     = 414001
	)
	rnd := rand.New(rand.NewSource(seed))
	entries := make([]int64, numRows*numCols)
	for i := range entries {
		entries[i] = int64(rnd.Intn(2*maxEntry+1) - maxEntry)
	}
	x, err := NewFromInt64Array(entries, numRows, numCols)
	assert.NoError(t, err)
	coeffs := []int64{3, -2, 5}

	// Row 4 += 3 row 0 - 2 row 1 + 5 row 2, computed both ways
	expected := make([]int64, numCols)
	for j := 0; j < numCols; j++ {
		expected[j] = entries[4*numCols+j]
		for k := 0; k < 3; k++ {
			expected[j] += coeffs[k] * entries[k*numCols+j]
		}
	}
	assert.NoError(t, x.AccumulateRowCombination(4, 0, 3, coeffs))
	for j := 0; j < numCols; j++ {
		entry, err := x.Get(4, j)
		assert.NoError(t, err)
		assert.Equal(t, expected[j], entry.Int64())
	}

	// dst inside the source range is an error
	assert.Error(t, x.AccumulateRowCombination(1, 0, 3, coeffs))
}

func TestMulParallel(t *testing.T) {
	const (
		maxEntry = 50
		seed     = 293444
	)
	rnd := rand.New(rand.NewSource(seed))
	for _, dims := range [][3]int{{3, 3, 3}, {5, 7, 4}, {1, 6, 2}} {
		m, n, p := dims[0], dims[1], dims[2]
		xEntries := make([]int64, m*n)
		yEntries := make([]int64, n*p)
		for i := range xEntries {
			xEntries[i] = int64(rnd.Intn(2*maxEntry+1) - maxEntry)
		}
		for i := range yEntries {
			yEntries[i] = int64(rnd.Intn(2*maxEntry+1) - maxEntry)
		}
		x, err := NewFromInt64Array(xEntries, m, n)
		assert.NoError(t, err)
		y, err := NewFromInt64Array(yEntries, n, p)
		assert.NoError(t, err)
		sequential, err := NewEmpty(0, 0).Mul(x, y)
		assert.NoError(t, err)
		for _, numWorkers := range []int{1, 2, 8} {
			parallel, err := MulParallel(x, y, numWorkers)
			assert.NoError(t, err)
			assert.True(t, sequential.Equals(parallel))
		}
	}

	// Mismatched inner dimensions
	x, err := NewFromInt64Array([]int64{1, 2, 3, 4}, 2, 2)
	assert.NoError(t, err)
	y, err := NewFromInt64Array([]int64{1, 2, 3}, 3, 1)
	assert.NoError(t, err)
	_, err = MulParallel(x, y, 2)
	assert.Error(t, err)
}

func TestTransform_RowOperations(t *testing.T) {
	trans, err := NewTransform(4)
	assert.NoError(t, err)
	assert.False(t, trans.IsUsingBig())
	assert.NoError(t, trans.SwapRows(0, 2))
	assert.NoError(t, trans.AddMultiple(1, 3, -5))
	assert.NoError(t, trans.RotateRows(0, 3))

	// Mirror the same operations on an identity Matrix and compare
	expected, err := NewIdentity(4)
	assert.NoError(t, err)
	assert.NoError(t, expected.SwapRows(0, 2))
	assert.NoError(t, expected.AddInt64Multiple(1, 3, -5))
	assert.NoError(t, expected.RotateRows(0, 3))
	assert.True(t, expected.Equals(trans.Matrix()))
}

func TestTransform_EscalatesToBig(t *testing.T) {
	const dim = 4
	trans, err := NewTransform(dim)
	assert.NoError(t, err)
	threshold := int64(math.MaxInt32 / dim)

	// Entries double each iteration and must eventually cross the int64
	// guard threshold without losing exactness
	expected, err := NewIdentity(dim)
	assert.NoError(t, err)
	for i := 0; i < 40; i++ {
		assert.NoError(t, trans.AddMultiple(0, 1, 2))
		assert.NoError(t, trans.AddMultiple(1, 0, 2))
		assert.NoError(t, expected.AddInt64Multiple(0, 1, 2))
		assert.NoError(t, expected.AddInt64Multiple(1, 0, 2))
	}
	assert.True(t, trans.IsUsingBig())
	assert.True(t, expected.Equals(trans.Matrix()))
	entry, err := trans.Matrix().Get(0, 1)
	assert.NoError(t, err)
	assert.True(t, entry.CmpAbs(big.NewInt(threshold)) > 0)
}

func TestTransform_AccumulateRows(t *testing.T) {
	trans, err := NewTransform(5)
	assert.NoError(t, err)
	assert.NoError(t, trans.AddMultiple(2, 0, 3))
	assert.NoError(t, trans.AddMultiple(3, 1, -2))
	assert.NoError(t, trans.AccumulateRows(4, 0, 3, []int64{2, -1, 4}))

	expected, err := NewIdentity(5)
	assert.NoError(t, err)
	assert.NoError(t, expected.AddInt64Multiple(2, 0, 3))
	assert.NoError(t, expected.AddInt64Multiple(3, 1, -2))
	assert.NoError(t, expected.AccumulateRowCombination(4, 0, 3, []int64{2, -1, 4}))
	assert.True(t, expected.Equals(trans.Matrix()))
}
