// Copyright (c) 2025 Colin McRae

package blockops

import (
	"fmt"
	"time"
)

// TimeProfile records where one reduction call spent its wall-clock time,
// plus the operation counters the quality of a run is judged by. It is
// produced once per call and is read-only to the caller.
type TimeProfile struct {
	Orthogonalization time.Duration
	LocalReduction    time.Duration
	SwapInsertion     time.Duration
	Enumeration       time.Duration

	Sweeps     int
	Swaps      int
	Insertions int
	Tours      int

	// Converged is false only when a BKZ run exhausted its tour cap while
	// still finding insertions. The returned basis is still valid, exactly
	// integral and size-reduced; it is just not known to be fully
	// BKZ-reduced.
	Converged bool
}

func (tp *TimeProfile) String() string {
	return fmt.Sprintf(
		"orthogonalization: %v; local reduction: %v; swaps/insertions: %v; enumeration: %v; "+
			"%d sweeps, %d swaps, %d insertions, %d tours; converged: %t",
		tp.Orthogonalization, tp.LocalReduction, tp.SwapInsertion, tp.Enumeration,
		tp.Sweeps, tp.Swaps, tp.Insertions, tp.Tours, tp.Converged,
	)
}

// phase returns a closure that adds the elapsed time since the call to
// *dst. Usage: defer tp.phase(&tp.Orthogonalization)().
func (tp *TimeProfile) phase(dst *time.Duration) func() {
	start := time.Now()
	return func() {
		*dst += time.Since(start)
	}
}
