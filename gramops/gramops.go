// Copyright (c) 2025 Colin McRae

// Package gramops maintains the Gram-Schmidt profile of an integer lattice
// basis: the squared norms of the orthogonalized rows (the diagonal of the
// R factor) and the strictly-lower-triangular coefficient table mu. The
// profile is the floating point shadow the reduction engine makes decisions
// with; it can always be recomputed exactly from the integer basis, and the
// engine does so periodically to bound round-off drift.
package gramops

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/cxzhong/BLASter/intmatrix"
)

// ErrDegenerate is wrapped by every numerical failure: a non-positive or
// non-finite orthogonalized norm, which signals a rank-deficient or
// near-singular basis (or exhausted double precision). It is distinct from
// input-validation failures so a caller can retry with a recomputation or
// reject the input outright.
var ErrDegenerate = errors.New("degenerate or near-singular basis")

// maxIncrementalUpdates bounds the number of consecutive incremental profile
// updates before callers are told to force an exact recomputation. Not
// user-visible; chosen so that double-precision drift stays well below the
// eta - 0.5 slack of the size-reduction bound on bases that fit in practice.
const maxIncrementalUpdates = 512

// Profile holds the Gram-Schmidt data of an n-row basis: rsq[i] is the
// squared norm of the i-th orthogonalized row and mu[i*n+j], j < i, is the
// coefficient of row j in row i. Entries of mu with j >= i are unused.
type Profile struct {
	n       int
	rsq     []float64
	mu      []float64
	updates int
}

// New computes the profile of basis by full exact recomputation: exact
// integer inner products of the rows, converted to float64, then eliminated
// in place. A non-positive or non-finite squared norm is reported as a
// numerical failure wrapping ErrDegenerate.
func New(basis *intmatrix.Matrix) (*Profile, error) {
	n := basis.NumRows()
	if n < 1 {
		return nil, fmt.Errorf("gramops.New: basis has no rows")
	}
	p := &Profile{
		n:   n,
		rsq: make([]float64, n),
		mu:  make([]float64, n*n),
	}
	if err := p.Refresh(basis); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh recomputes the whole profile exactly from basis, resetting the
// incremental-update counter. This is the drift-control step.
func (p *Profile) Refresh(basis *intmatrix.Matrix) error {
	if basis.NumRows() != p.n {
		return fmt.Errorf(
			"Profile.Refresh: basis has %d rows, profile has %d", basis.NumRows(), p.n,
		)
	}

	// Exact Gram matrix, converted entry by entry. The conversion is the
	// only lossy step; an entry too large for float64 shows up as +/-Inf
	// and is reported as a numerical failure.
	gram := make([]float64, p.n*p.n)
	for i := 0; i < p.n; i++ {
		for j := 0; j <= i; j++ {
			dot, err := basis.RowDot(i, j)
			if err != nil {
				return fmt.Errorf("Profile.Refresh: could not compute <b[%d], b[%d]>: %q",
					i, j, err.Error(),
				)
			}
			entry := bigIntToFloat64(dot)
			if math.IsInf(entry, 0) || math.IsNaN(entry) {
				return fmt.Errorf(
					"Profile.Refresh: <b[%d], b[%d]> overflows double precision: %w",
					i, j, ErrDegenerate,
				)
			}
			gram[i*p.n+j] = entry
			gram[j*p.n+i] = entry
		}
	}

	// In-place elimination producing mu and rsq row by row.
	for i := 0; i < p.n; i++ {
		for j := 0; j < i; j++ {
			muIJ := gram[i*p.n+j]
			for k := 0; k < j; k++ {
				muIJ -= p.mu[i*p.n+k] * p.mu[j*p.n+k] * p.rsq[k]
			}
			p.mu[i*p.n+j] = muIJ / p.rsq[j]
		}
		rsqI := gram[i*p.n+i]
		for k := 0; k < i; k++ {
			rsqI -= p.mu[i*p.n+k] * p.mu[i*p.n+k] * p.rsq[k]
		}
		if !(rsqI > 0) || math.IsInf(rsqI, 0) || math.IsNaN(rsqI) {
			return fmt.Errorf(
				"Profile.Refresh: orthogonalized norm of row %d is %g: %w", i, rsqI, ErrDegenerate,
			)
		}
		p.rsq[i] = rsqI
	}
	p.updates = 0
	return nil
}

// Dim returns the number of rows covered by p.
func (p *Profile) Dim() int {
	return p.n
}

// RSq returns the squared norm of the i-th orthogonalized row.
func (p *Profile) RSq(i int) float64 {
	return p.rsq[i]
}

// Mu returns the Gram-Schmidt coefficient of row j in row i, for j < i.
func (p *Profile) Mu(i, j int) float64 {
	return p.mu[i*p.n+j]
}

// NeedsRefresh reports whether enough incremental updates have accumulated
// that an exact recomputation should be forced.
func (p *Profile) NeedsRefresh() bool {
	return p.updates >= maxIncrementalUpdates
}

// ApplyCombination updates the profile after the row operation
// b[i] += q * b[j] with j < i. Only row i of mu changes; rsq is unaffected,
// which is what makes size reduction and Seysen reduction cheap to mirror.
func (p *Profile) ApplyCombination(i, j int, q float64) error {
	if j < 0 || i <= j || p.n <= i {
		return fmt.Errorf("Profile.ApplyCombination: rows (%d, %d) invalid for %d rows", i, j, p.n)
	}
	if q == 0 {
		return nil
	}
	for k := 0; k < j; k++ {
		p.mu[i*p.n+k] += q * p.mu[j*p.n+k]
	}
	p.mu[i*p.n+j] += q
	p.updates++
	return nil
}

// ApplyAggregatedCombination updates the profile after the aggregated row
// operation b[i] += sum over j in {lo,...,mid-1} of coeffs[j-lo] * b[j],
// with mid <= i. This is the profile mirror of one Seysen merge step; it
// counts as a single incremental update no matter how many source rows the
// combination touches.
func (p *Profile) ApplyAggregatedCombination(i, lo, mid int, coeffs []int64) error {
	if lo < 0 || mid <= lo || i < mid || p.n <= i {
		return fmt.Errorf(
			"Profile.ApplyAggregatedCombination: range {%d,...,%d} invalid for row %d of %d",
			lo, mid-1, i, p.n,
		)
	}
	if len(coeffs) != mid-lo {
		return fmt.Errorf(
			"Profile.ApplyAggregatedCombination: %d coefficients for range {%d,...,%d}",
			len(coeffs), lo, mid-1,
		)
	}
	for jp := 0; jp < mid; jp++ {
		var delta float64
		start := lo
		if jp >= lo {
			// mu[j][jp] vanishes for j < jp and equals 1 at j == jp.
			delta = float64(coeffs[jp-lo])
			start = jp + 1
		}
		for j := start; j < mid; j++ {
			if coeffs[j-lo] != 0 {
				delta += float64(coeffs[j-lo]) * p.mu[j*p.n+jp]
			}
		}
		p.mu[i*p.n+jp] += delta
	}
	p.updates++
	return nil
}

// ApplySwap updates the profile after rows k and k+1 of the basis are
// exchanged, using the classical closed-form update. It fails with a
// numerical error if the updated norm at position k degenerates.
func (p *Profile) ApplySwap(k int) error {
	if k < 0 || p.n-1 <= k {
		return fmt.Errorf("Profile.ApplySwap: row %d invalid for %d rows", k, p.n)
	}
	muOld := p.mu[(k+1)*p.n+k]
	newRsqK := p.rsq[k+1] + muOld*muOld*p.rsq[k]
	if !(newRsqK > 0) || math.IsInf(newRsqK, 0) || math.IsNaN(newRsqK) {
		return fmt.Errorf(
			"Profile.ApplySwap: updated norm at row %d is %g: %w", k, newRsqK, ErrDegenerate,
		)
	}
	muNew := muOld * p.rsq[k] / newRsqK
	p.rsq[k+1] = p.rsq[k] * p.rsq[k+1] / newRsqK
	p.rsq[k] = newRsqK
	for j := 0; j < k; j++ {
		p.mu[k*p.n+j], p.mu[(k+1)*p.n+j] = p.mu[(k+1)*p.n+j], p.mu[k*p.n+j]
	}
	for i := k + 2; i < p.n; i++ {
		t := p.mu[i*p.n+k+1]
		p.mu[i*p.n+k+1] = p.mu[i*p.n+k] - muOld*t
		p.mu[i*p.n+k] = t + muNew*p.mu[i*p.n+k+1]
	}
	p.mu[(k+1)*p.n+k] = muNew
	p.updates++
	return nil
}

// ApplyRotation updates the profile after row i of the basis is moved to
// position k < i (a deep insertion). The float update runs as a chain of
// adjacent-swap updates; the expensive integer-row movement is a single
// rotation on the basis side, so overall cost stays proportional to the
// insertion distance.
func (p *Profile) ApplyRotation(k, i int) error {
	if k < 0 || i < k || p.n <= i {
		return fmt.Errorf("Profile.ApplyRotation: rotation (%d, %d) invalid for %d rows", k, i, p.n)
	}
	for r := i; r > k; r-- {
		if err := p.ApplySwap(r - 1); err != nil {
			return fmt.Errorf("Profile.ApplyRotation: %w", err)
		}
	}
	return nil
}

// Block copies the diagonal profile block for rows {lo,...,hi-1} into
// fresh slices: squared norms of the block rows and the mu sub-table
// restricted to columns within the block, indexed locally. Segment workers
// reduce such copies in isolation; nothing a worker does to its copy is
// visible to another worker.
func (p *Profile) Block(lo, hi int) ([]float64, []float64, error) {
	if lo < 0 || hi <= lo || p.n < hi {
		return nil, nil, fmt.Errorf(
			"Profile.Block: invalid range {%d,...,%d} for %d rows", lo, hi-1, p.n,
		)
	}
	s := hi - lo
	rsq := make([]float64, s)
	mu := make([]float64, s*s)
	copy(rsq, p.rsq[lo:hi])
	for i := lo; i < hi; i++ {
		for j := lo; j < i; j++ {
			mu[(i-lo)*s+(j-lo)] = p.mu[i*p.n+j]
		}
	}
	return rsq, mu, nil
}

// LogNorms returns the sequence log(rsq[i])/2, the log-norm profile the
// quality metrics are derived from.
func (p *Profile) LogNorms() []float64 {
	retVal := make([]float64, p.n)
	for i := 0; i < p.n; i++ {
		retVal[i] = math.Log(p.rsq[i]) / 2
	}
	return retVal
}

// IsReduced returns whether p satisfies the size-reduction bound eta and
// the Lovasz condition for delta at every index, and if not, the first
// offending row pair or coefficient position.
func (p *Profile) IsReduced(delta, eta float64, checkSize bool) (bool, int, int) {
	if checkSize {
		for i := 1; i < p.n; i++ {
			for j := 0; j < i; j++ {
				if math.Abs(p.mu[i*p.n+j]) > eta {
					return false, i, j
				}
			}
		}
	}
	for i := 0; i < p.n-1; i++ {
		muI := p.mu[(i+1)*p.n+i]
		if p.rsq[i+1] < (delta-muI*muI)*p.rsq[i] {
			return false, i, i + 1
		}
	}
	return true, -1, -1
}

// bigIntToFloat64 converts x through big.Float, preserving magnitude
// information: values beyond the float64 range come back as +/-Inf rather
// than a truncated mantissa.
func bigIntToFloat64(x *big.Int) float64 {
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
