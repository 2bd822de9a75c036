// Copyright (c) 2025 Colin McRae

// Package quality measures how well reduced a basis is. Everything here is
// derived from the profile, the natural logarithms of the Gram-Schmidt
// norms: a reduction run can be judged from the profile alone, without
// another pass over the integer basis.
package quality

import (
	"fmt"
	"math"

	"github.com/cxzhong/BLASter/gramops"
	"github.com/cxzhong/BLASter/intmatrix"
)

// GetProfile returns log ||b*_i|| for each row of basis, computed from the
// exact integer Gram matrix. Fails on rank-deficient input.
func GetProfile(basis *intmatrix.Matrix) ([]float64, error) {
	prof, err := gramops.New(basis)
	if err != nil {
		return nil, fmt.Errorf("GetProfile: %q", err.Error())
	}
	return prof.LogNorms(), nil
}

// RHF is the root Hermite factor, (||b_1|| / det^(1/n))^(1/n): the
// standard single-number summary of reduction strength. Values near 1.02
// are typical of LLL, smaller is stronger. The determinant is recovered
// from the profile itself, since det = prod ||b*_i||.
func RHF(profile []float64) (float64, error) {
	n := len(profile)
	if n == 0 {
		return 0, fmt.Errorf("RHF: empty profile")
	}
	mean := 0.0
	for _, p := range profile {
		mean += p
	}
	mean /= float64(n)
	return math.Exp((profile[0] - mean) / float64(n)), nil
}

// Slope is the least-squares slope of the profile against the row index.
// A reduced basis has a gently decreasing profile; steep negative slope
// means the early Gram-Schmidt vectors dwarf the late ones.
func Slope(profile []float64) (float64, error) {
	n := len(profile)
	if n < 2 {
		return 0, fmt.Errorf("Slope: need at least 2 profile entries, have %d", n)
	}
	meanX := float64(n-1) / 2.0
	meanY := 0.0
	for _, p := range profile {
		meanY += p
	}
	meanY /= float64(n)
	num, den := 0.0, 0.0
	for i, p := range profile {
		dx := float64(i) - meanX
		num += dx * (p - meanY)
		den += dx * dx
	}
	return num / den, nil
}

// Potential is the log-potential sum_i (n-i) * log ||b*_i||^2. Every swap
// an LLL run performs strictly decreases it, so it is the quantity to
// watch when checking progress across calls.
func Potential(profile []float64) (float64, error) {
	n := len(profile)
	if n == 0 {
		return 0, fmt.Errorf("Potential: empty profile")
	}
	retVal := 0.0
	for i, p := range profile {
		retVal += float64(n-i) * 2.0 * p
	}
	return retVal, nil
}

// IsLLLReduced reports whether basis satisfies both LLL conditions: every
// |mu[i][j]| at most eta, and every adjacent pair satisfying the Lovasz
// condition with parameter delta.
func IsLLLReduced(basis *intmatrix.Matrix, delta, eta float64) (bool, error) {
	prof, err := gramops.New(basis)
	if err != nil {
		return false, fmt.Errorf("IsLLLReduced: %q", err.Error())
	}
	ok, _, _ := prof.IsReduced(delta, eta, true)
	return ok, nil
}

// IsWeaklyLLLReduced checks the Lovasz condition only, ignoring the size
// bound. A Seysen-reduced basis can exceed eta on far-off-diagonal mu
// entries while still being, for every practical purpose, reduced; this
// is the check that matches that contract.
func IsWeaklyLLLReduced(basis *intmatrix.Matrix, delta float64) (bool, error) {
	prof, err := gramops.New(basis)
	if err != nil {
		return false, fmt.Errorf("IsWeaklyLLLReduced: %q", err.Error())
	}
	ok, _, _ := prof.IsReduced(delta, 0, false)
	return ok, nil
}

// DiagonalStats summarizes the spread of the Gram-Schmidt norms: the
// smallest and largest log-norm and the ratio max/min of the norms
// themselves. A large ratio is the signature of an unreduced basis.
type DiagonalStats struct {
	MinLogNorm float64
	MaxLogNorm float64
	Ratio      float64
}

// GetDiagonalStats computes DiagonalStats from a log-norm profile.
func GetDiagonalStats(profile []float64) (DiagonalStats, error) {
	if len(profile) == 0 {
		return DiagonalStats{}, fmt.Errorf("GetDiagonalStats: empty profile")
	}
	retVal := DiagonalStats{MinLogNorm: profile[0], MaxLogNorm: profile[0]}
	for _, p := range profile[1:] {
		if p < retVal.MinLogNorm {
			retVal.MinLogNorm = p
		}
		if p > retVal.MaxLogNorm {
			retVal.MaxLogNorm = p
		}
	}
	retVal.Ratio = math.Exp(retVal.MaxLogNorm - retVal.MinLogNorm)
	return retVal, nil
}

// FirstVectorNorm returns ||b_1||, read off the profile.
func FirstVectorNorm(profile []float64) (float64, error) {
	if len(profile) == 0 {
		return 0, fmt.Errorf("FirstVectorNorm: empty profile")
	}
	return math.Exp(profile[0]), nil
}
