// Copyright (c) 2025 Colin McRae

// Package blockops is the block reduction engine: the segmented parallel
// LLL / deep-LLL scheduler, the block-local enumeration used by BKZ, and
// the exact-transform recovery step. Callers hand in an exact integer basis
// and get back a reduced basis, the unimodular transform relating it to the
// input, and a per-phase time profile.
package blockops

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/rs/zerolog"
)

var (
	// ErrValidation wraps every input-validation failure: malformed bases,
	// out-of-range parameters. No computation is attempted and the caller's
	// basis is untouched.
	ErrValidation = errors.New("invalid input or parameters")

	// ErrResource wraps worker-pool and configuration failures. These are
	// fatal for the call; no partial result is returned.
	ErrResource = errors.New("worker pool configuration failure")
)

// Params is the immutable per-call configuration of a reduction run. A
// zero Params is not valid; start from DefaultParams. Core count and debug
// flag travel here rather than in process-wide state so that concurrent
// reduction calls compose without interfering.
type Params struct {
	// Delta is the Lovasz parameter, in (0.25, 1).
	Delta float64

	// Eta is the size-reduction bound, at least 0.5 and below sqrt(Delta).
	Eta float64

	// BlockSize is the BKZ window size beta, used by BlockBKZ only.
	BlockSize int

	// MaxDepth bounds deep-LLL insertion distance, used by BlockDeepLLL only.
	MaxDepth int

	// MaxTours caps BKZ tours. Exhausting it is not an error; the best basis
	// found is returned with TimeProfile.Converged == false.
	MaxTours int

	// Cores sizes the worker pool for segment sweeps, Seysen coefficient
	// rows and the exact integer product.
	Cores int

	// UseSeysen selects Seysen's divide-and-conquer reduction for the
	// global local-reduction phase; false selects classical size reduction.
	UseSeysen bool

	// Debug enables trace logging of sweeps and phase transitions.
	Debug bool
}

// DefaultParams returns the configuration used when a caller has no
// opinion: delta 0.99, eta 0.501, Seysen reduction, one worker per CPU.
func DefaultParams() Params {
	return Params{
		Delta:     0.99,
		Eta:       0.501,
		BlockSize: 20,
		MaxDepth:  8,
		MaxTours:  16,
		Cores:     runtime.NumCPU(),
		UseSeysen: true,
	}
}

// validate checks the parameter ranges shared by every entry point.
// Operation-specific ranges (BlockSize, MaxDepth, MaxTours) are checked by
// the operations that consume them.
func (p Params) validate() error {
	if !(0.25 < p.Delta && p.Delta < 1.0) {
		return fmt.Errorf("Params.validate: delta = %f outside (0.25, 1): %w", p.Delta, ErrValidation)
	}
	if !(0.5 <= p.Eta && p.Eta < math.Sqrt(p.Delta)) {
		return fmt.Errorf(
			"Params.validate: eta = %f outside [0.5, sqrt(delta) = %f): %w",
			p.Eta, math.Sqrt(p.Delta), ErrValidation,
		)
	}
	if p.Cores < 1 {
		return fmt.Errorf("Params.validate: core count %d < 1: %w", p.Cores, ErrResource)
	}
	return nil
}

// logger returns the logger for one reduction run: a console writer when
// Debug is set, a no-op logger otherwise.
func (p Params) logger() zerolog.Logger {
	if !p.Debug {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
