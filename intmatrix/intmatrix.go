// Copyright (c) 2025 Colin McRae

// Package intmatrix represents dense matrices with exact integer entries.
// Rows of a Matrix are lattice vectors; every mutating operation below is
// exact, so a basis run through any sequence of these operations spans the
// same lattice it started with whenever the operations are unimodular.
package intmatrix

import (
	"fmt"
	"math/big"
	"strings"
)

type Matrix struct {
	values  []*big.Int
	numRows int
	numCols int
}

// NewFromInt64Array creates a matrix with integer entries from input with
// dimensions numRowsIn x numColsIn. If the number of rows and columns are
// not positive and/or do not match the length of the input, an error is
// returned.
func NewFromInt64Array(input []int64, numRowsIn int, numColsIn int) (*Matrix, error) {
	if len(input) != numRowsIn*numColsIn {
		return nil, fmt.Errorf("Matrix.NewFromInt64Array: length of input does not match dimensions")
	}
	if numRowsIn <= 0 || numColsIn <= 0 {
		return nil, fmt.Errorf(
			"Matrix.NewFromInt64Array: illegal number of rows %d or columns %d",
			numRowsIn, numColsIn,
		)
	}
	retVal := &Matrix{
		values:  make([]*big.Int, numRowsIn*numColsIn),
		numRows: numRowsIn,
		numCols: numColsIn,
	}
	for index, value := range input {
		retVal.values[index] = big.NewInt(value)
	}
	return retVal, nil
}

// NewEmpty returns a numRows x numCols matrix with 0s in each value. Negative
// numRows or numCols is interpreted as 0, and a 0 x n or n x 0 matrix is
// interpreted as 0 x 0.
func NewEmpty(numRows int, numCols int) *Matrix {
	if numRows < 0 {
		numRows = 0
	}
	if numCols < 0 {
		numCols = 0
	}
	if numRows == 0 || numCols == 0 {
		return &Matrix{values: nil, numRows: 0, numCols: 0}
	}
	retVal := &Matrix{
		values:  make([]*big.Int, numRows*numCols),
		numRows: numRows,
		numCols: numCols,
	}
	for i := 0; i < numRows*numCols; i++ {
		retVal.values[i] = big.NewInt(0)
	}
	return retVal
}

// NewIdentity returns a dim x dim identity matrix. If dim < 1, an error is
// returned.
func NewIdentity(dim int) (*Matrix, error) {
	if dim < 1 {
		return nil, fmt.Errorf("NewIdentity: dimension %d < 1", dim)
	}
	retVal := NewEmpty(dim, dim)
	for i := 0; i < dim; i++ {
		retVal.values[i*dim+i].SetInt64(1)
	}
	return retVal, nil
}

// Copy copies x to m and returns m. This is a deep copy.
func (m *Matrix) Copy(x *Matrix) *Matrix {
	if x.numRows <= 0 || x.numCols <= 0 {
		m.numRows = 0
		m.numCols = 0
		m.values = nil
		return m
	}
	m.numRows = x.numRows
	m.numCols = x.numCols
	m.values = make([]*big.Int, m.numRows*m.numCols)
	for i := 0; i < m.numRows*m.numCols; i++ {
		m.values[i] = new(big.Int).Set(x.values[i])
	}
	return m
}

// Set sets the value in row i, column j to x. This is a deep copy.
func (m *Matrix) Set(i int, j int, x *big.Int) error {
	if i < 0 || m.numRows <= i {
		return fmt.Errorf("Matrix.Set: index i = %d outside range {0, ... %d}", i, m.numRows-1)
	}
	if j < 0 || m.numCols <= j {
		return fmt.Errorf("Matrix.Set: index j = %d outside range {0, ... %d}", j, m.numCols-1)
	}
	m.values[i*m.numCols+j].Set(x)
	return nil
}

// Get returns the pointer to the value in row i, column j of m.
// This is not a deep copy.
func (m *Matrix) Get(i int, j int) (*big.Int, error) {
	if i < 0 || m.numRows <= i {
		return nil, fmt.Errorf("Matrix.Get: index i = %d outside range {0, ... %d}", i, m.numRows-1)
	}
	if j < 0 || m.numCols <= j {
		return nil, fmt.Errorf("Matrix.Get: index j = %d outside range {0, ... %d}", j, m.numCols-1)
	}
	return m.values[i*m.numCols+j], nil
}

// Equals returns whether m and x have equal dimensions and all corresponding
// entries are exactly equal.
func (m *Matrix) Equals(x *Matrix) bool {
	if (m.numRows != x.numRows) || (m.numCols != x.numCols) {
		return false
	}
	for i := 0; i < len(m.values); i++ {
		if m.values[i].Cmp(x.values[i]) != 0 {
			return false
		}
	}
	return true
}

// Dimensions returns the number of rows and columns in m, in that order.
func (m *Matrix) Dimensions() (int, int) {
	return m.numRows, m.numCols
}

// NumRows returns the number of rows in m
func (m *Matrix) NumRows() int {
	return m.numRows
}

// NumCols returns the number of columns in m
func (m *Matrix) NumCols() int {
	return m.numCols
}

// IsZeroRow returns whether every entry of row i is zero.
func (m *Matrix) IsZeroRow(i int) (bool, error) {
	if i < 0 || m.numRows <= i {
		return false, fmt.Errorf("Matrix.IsZeroRow: index i = %d outside range {0, ... %d}", i, m.numRows-1)
	}
	for j := 0; j < m.numCols; j++ {
		if m.values[i*m.numCols+j].Sign() != 0 {
			return false, nil
		}
	}
	return true, nil
}

// RowDot returns the exact inner product of rows i and j of m.
func (m *Matrix) RowDot(i, j int) (*big.Int, error) {
	if i < 0 || m.numRows <= i || j < 0 || m.numRows <= j {
		return nil, fmt.Errorf(
			"Matrix.RowDot: row %d or %d outside range {0, ... %d}", i, j, m.numRows-1,
		)
	}
	retVal := big.NewInt(0)
	term := new(big.Int)
	for k := 0; k < m.numCols; k++ {
		term.Mul(m.values[i*m.numCols+k], m.values[j*m.numCols+k])
		retVal.Add(retVal, term)
	}
	return retVal, nil
}

// SwapRows exchanges rows i and j of m in place.
func (m *Matrix) SwapRows(i, j int) error {
	if i < 0 || m.numRows <= i || j < 0 || m.numRows <= j {
		return fmt.Errorf(
			"Matrix.SwapRows: row %d or %d outside range {0, ... %d}", i, j, m.numRows-1,
		)
	}
	if i == j {
		return nil
	}
	for k := 0; k < m.numCols; k++ {
		m.values[i*m.numCols+k], m.values[j*m.numCols+k] =
			m.values[j*m.numCols+k], m.values[i*m.numCols+k]
	}
	return nil
}

// RotateRows moves row i to position k < i, shifting rows k,...,i-1 down by
// one. This is the deep-insertion row operation: one array rotation, with
// cost proportional to the insertion distance rather than to repeated
// adjacent swaps of entries.
func (m *Matrix) RotateRows(k, i int) error {
	if k < 0 || i < k || m.numRows <= i {
		return fmt.Errorf(
			"Matrix.RotateRows: rotation (%d, %d) invalid for %d rows", k, i, m.numRows,
		)
	}
	if k == i {
		return nil
	}
	moved := make([]*big.Int, m.numCols)
	copy(moved, m.values[i*m.numCols:(i+1)*m.numCols])
	copy(m.values[(k+1)*m.numCols:(i+1)*m.numCols], m.values[k*m.numCols:i*m.numCols])
	copy(m.values[k*m.numCols:(k+1)*m.numCols], moved)
	return nil
}

// AddInt64Multiple adds q times row src to row dst in place.
func (m *Matrix) AddInt64Multiple(dst, src int, q int64) error {
	if dst < 0 || m.numRows <= dst || src < 0 || m.numRows <= src {
		return fmt.Errorf(
			"Matrix.AddInt64Multiple: row %d or %d outside range {0, ... %d}",
			dst, src, m.numRows-1,
		)
	}
	if dst == src {
		return fmt.Errorf("Matrix.AddInt64Multiple: source and destination row %d coincide", dst)
	}
	if q == 0 {
		return nil
	}
	bigQ := big.NewInt(q)
	term := new(big.Int)
	for k := 0; k < m.numCols; k++ {
		term.Mul(bigQ, m.values[src*m.numCols+k])
		m.values[dst*m.numCols+k].Add(m.values[dst*m.numCols+k], term)
	}
	return nil
}

// AccumulateRowCombination adds sum over j in {start,...,end-1} of
// coeffs[j-start] times row j to row dst, as a single aggregated row
// operation. dst must lie outside {start,...,end-1}.
func (m *Matrix) AccumulateRowCombination(dst, start, end int, coeffs []int64) error {
	if start < 0 || end <= start || m.numRows < end {
		return fmt.Errorf(
			"Matrix.AccumulateRowCombination: invalid range {%d,...,%d} for %d rows",
			start, end-1, m.numRows,
		)
	}
	if start <= dst && dst < end {
		return fmt.Errorf(
			"Matrix.AccumulateRowCombination: destination row %d lies in source range {%d,...,%d}",
			dst, start, end-1,
		)
	}
	if len(coeffs) != end-start {
		return fmt.Errorf(
			"Matrix.AccumulateRowCombination: %d coefficients for range {%d,...,%d}",
			len(coeffs), start, end-1,
		)
	}
	bigQ := new(big.Int)
	term := new(big.Int)
	for j := start; j < end; j++ {
		if coeffs[j-start] == 0 {
			continue
		}
		bigQ.SetInt64(coeffs[j-start])
		for k := 0; k < m.numCols; k++ {
			term.Mul(bigQ, m.values[j*m.numCols+k])
			m.values[dst*m.numCols+k].Add(m.values[dst*m.numCols+k], term)
		}
	}
	return nil
}

// String returns a string representing m with rows separated by newlines.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.numRows; i++ {
		for j := 0; j < m.numCols; j++ {
			sb.WriteString(fmt.Sprintf("%s, ", m.values[i*m.numCols+j].String()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func checkProductInput(x, y *Matrix, caller string) error {
	if x == nil || y == nil {
		return fmt.Errorf("Matrix.%s: nil operand", caller)
	}
	if len(x.values) != x.numRows*x.numCols || x.numRows <= 0 || x.numCols <= 0 {
		return fmt.Errorf(
			"Matrix.%s: malformed input matrix x[%d][%d] with %d entries",
			caller, x.numRows, x.numCols, len(x.values),
		)
	}
	if len(y.values) != y.numRows*y.numCols || y.numRows <= 0 || y.numCols <= 0 {
		return fmt.Errorf(
			"Matrix.%s: malformed input matrix y[%d][%d] with %d entries",
			caller, y.numRows, y.numCols, len(y.values),
		)
	}
	if x.numCols != y.numRows {
		return fmt.Errorf(
			"Matrix.%s: mismatched dimensions for operands x (%d x %d) and y (%d x %d)",
			caller, x.numRows, x.numCols, y.numRows, y.numCols,
		)
	}
	return nil
}
