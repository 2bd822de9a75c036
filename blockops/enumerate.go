// Copyright (c) 2025 Colin McRae

package blockops

import (
	"fmt"
	"math"

	"github.com/cxzhong/BLASter/gramops"
)

// shortestVector searches the rank-s lattice described by a local profile
// block (squared norms rsq, coefficients mu) for a nonzero integer
// coefficient vector x whose vector has squared norm below bound. The
// search is a depth-first Schnorr-Euchner enumeration: levels run from the
// last block row down to the first, candidates at each level zig-zag
// outward from the real-valued center, and a branch is cut as soon as its
// partial distance reaches the best distance found so far. The returned
// norm is the squared norm of the best vector; found is false when nothing
// beats bound.
func shortestVector(rsq, mu []float64, s int, bound float64) ([]int64, float64, bool) {
	best := bound
	bestX := make([]int64, s)
	found := false
	x := make([]int64, s)

	var descend func(j int, partDist float64)
	descend = func(j int, partDist float64) {
		if j < 0 {
			if partDist > 0 && partDist < best {
				best = partDist
				copy(bestX, x)
				found = true
			}
			return
		}
		center := 0.0
		for i := j + 1; i < s; i++ {
			if x[i] != 0 {
				center -= mu[i*s+j] * float64(x[i])
			}
		}
		base := math.Round(center)
		for d := 0.0; ; d++ {
			progressed := false
			cand := base + d
			diff := cand - center
			if term := rsq[j] * diff * diff; partDist+term < best {
				progressed = true
				x[j] = int64(cand)
				descend(j-1, partDist+term)
			}
			if d > 0 {
				cand = base - d
				diff = cand - center
				if term := rsq[j] * diff * diff; partDist+term < best {
					progressed = true
					x[j] = int64(cand)
					descend(j-1, partDist+term)
				}
			}
			if !progressed {
				break
			}
		}
		x[j] = 0
	}
	descend(s-1, 0)
	return bestX, best, found
}

// completeToUnimodular returns an s x s unimodular matrix, in row-major
// order, whose first row equals x. x must be primitive (gcd of its entries
// is 1), which is always the case for the coefficients of a shortest
// vector. The construction eliminates x down to a unit vector with 2x2
// extended-gcd column operations, mirroring each operation's inverse into
// the rows of the result.
func completeToUnimodular(x []int64) ([]int64, error) {
	s := len(x)
	if s < 1 {
		return nil, fmt.Errorf("completeToUnimodular: empty coefficient vector")
	}
	limit := int64(math.MaxInt32 / s)
	w := make([]int64, s)
	copy(w, x)
	v := make([]int64, s*s)
	for i := 0; i < s; i++ {
		v[i*s+i] = 1
	}
	for i := s - 1; 1 <= i; i-- {
		if w[i] == 0 {
			continue
		}
		g, sa, ta := xgcd(w[0], w[i])
		a := w[0] / g
		b := w[i] / g

		// The column operation sends (w[0], w[i]) to (g, 0); its inverse,
		// [[a, b], [-ta, sa]], acts on rows 0 and i of v.
		for c := 0; c < s; c++ {
			v0 := v[0*s+c]
			vi := v[i*s+c]
			newV0 := a*v0 + b*vi
			newVi := -ta*v0 + sa*vi
			if newV0 > limit || -newV0 > limit || newVi > limit || -newVi > limit {
				return nil, fmt.Errorf(
					"completeToUnimodular: entry overflow completing %v: %w", x, gramops.ErrDegenerate,
				)
			}
			v[0*s+c] = newV0
			v[i*s+c] = newVi
		}
		w[0] = g
		w[i] = 0
	}
	if w[0] == -1 {
		for c := 0; c < s; c++ {
			v[0*s+c] = -v[0*s+c]
		}
		w[0] = 1
	}
	if w[0] != 1 {
		return nil, fmt.Errorf(
			"completeToUnimodular: coefficient vector %v is not primitive (gcd %d)", x, w[0],
		)
	}
	return v, nil
}

// xgcd returns g = gcd(a, b) > 0 along with s, t such that s*a + t*b = g.
// At least one of a, b must be nonzero.
func xgcd(a, b int64) (int64, int64, int64) {
	if b == 0 {
		if a < 0 {
			return -a, -1, 0
		}
		return a, 1, 0
	}
	g, s1, t1 := xgcd(b, a%b)
	return g, t1, s1 - (a/b)*t1
}
