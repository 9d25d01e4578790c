// Package tech holds the technology parameters a fabric is generated for.
package tech

import (
	"fmt"
	"strings"
)

// UnusedSelect decides what a multiplexer drives for select codes that do
// not correspond to a candidate.
type UnusedSelect int

const (
	// UnusedZero drives constant zero for codes at or past the candidate
	// count.
	UnusedZero UnusedSelect = iota

	// UnusedFirst routes candidate 0 for codes at or past the candidate
	// count.
	UnusedFirst
)

func (u UnusedSelect) String() string {
	switch u {
	case UnusedZero:
		return "zero"
	case UnusedFirst:
		return "first"
	default:
		panic("invalid unused select policy")
	}
}

// ParseUnusedSelect converts "zero" or "first" into a policy.
func ParseUnusedSelect(s string) (UnusedSelect, error) {
	switch strings.ToLower(s) {
	case "", "zero":
		return UnusedZero, nil
	case "first":
		return UnusedFirst, nil
	}
	return UnusedZero, fmt.Errorf("unknown unused select policy %q", s)
}

// Spec holds immutable technology parameters.
type Spec struct {
	LUTInputs      int          // Inputs per logic cell LUT
	Tracks         int          // Routing tracks per tile side and direction
	ConfigBusWidth int          // Bits shifted into the configuration chain per cycle
	UnusedSelect   UnusedSelect // Output of unused mux select codes
	Clock          string       // Name of the global clock signal
}

// Validate checks that the parameters describe a buildable fabric.
func (s Spec) Validate() error {
	if s.LUTInputs < 1 || s.LUTInputs > 8 {
		return fmt.Errorf("lut inputs must be in [1, 8], got %d", s.LUTInputs)
	}
	if s.Tracks < 0 {
		return fmt.Errorf("tracks must be >= 0, got %d", s.Tracks)
	}
	if s.ConfigBusWidth <= 0 {
		return fmt.Errorf("config bus width must be > 0, got %d", s.ConfigBusWidth)
	}
	if s.Clock == "" {
		return fmt.Errorf("clock name must be provided")
	}
	return nil
}

// Defaults returns the base technology: 4-input LUTs, two tracks per side,
// an 8-bit configuration bus and zero-driving unused select codes.
func Defaults() Spec {
	return Spec{
		LUTInputs:      4,
		Tracks:         2,
		ConfigBusWidth: 8,
		UnusedSelect:   UnusedZero,
		Clock:          "clk",
	}
}
