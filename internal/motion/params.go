// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput marks operator input that cannot become TestParameters.
var ErrInvalidInput = errors.New("invalid input")

// Mode selects which axis a test drives.
type Mode int

const (
	Linear Mode = iota + 1
	Angular
)

func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Angular:
		return "angular"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Unit returns the velocity unit shown to the operator.
func (m Mode) Unit() string {
	if m == Angular {
		return "rad/s"
	}
	return "m/s"
}

// TestParameters describe one velocity test.
type TestParameters struct {
	Mode      Mode
	Magnitude float64
	Duration  time.Duration
}

// Validate rejects parameters that must never start a session.
func (p TestParameters) Validate() error {
	if p.Mode != Linear && p.Mode != Angular {
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidInput, p.Mode)
	}
	if math.IsNaN(p.Magnitude) || math.IsInf(p.Magnitude, 0) {
		return fmt.Errorf("%w: magnitude must be finite", ErrInvalidInput)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidInput, p.Duration)
	}
	return nil
}

// Command maps the parameters to the command sent every tick.
// Only the axis selected by Mode is non-zero.
func (p TestParameters) Command() Command {
	if p.Mode == Angular {
		return Command{Angular: p.Magnitude}
	}
	return Command{Linear: p.Magnitude}
}

// ParseMagnitude parses a signed, finite velocity.
func ParseMagnitude(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidInput, s)
	}
	return v, nil
}

const maxDurationSeconds = float64(math.MaxInt64) / float64(time.Second)

// ParseDuration parses a positive number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	v, err := ParseMagnitude(s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidInput, v)
	}
	if v >= maxDurationSeconds {
		return 0, fmt.Errorf("%w: duration %v is too long", ErrInvalidInput, v)
	}
	d := time.Duration(v * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("%w: duration %v is too short", ErrInvalidInput, v)
	}
	return d, nil
}
