// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package operator

import (
	"context"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// parseResult is either a valid value or the reason it was rejected.
type parseResult[T any] struct {
	value T
	err   error
}

func validate[T any](line string, parse func(string) (T, error)) parseResult[T] {
	v, err := parse(line)
	return parseResult[T]{value: v, err: err}
}

// readValue prompts until parse accepts a line. Only an interrupt ends it
// without a value.
func readValue[T any](ctx context.Context, o *Interface, text, retry string, parse func(string) (T, error)) (T, error) {
	for {
		line, err := o.prompt(ctx, text)
		if err != nil {
			var zero T
			return zero, err
		}
		r := validate(line, parse)
		if r.err == nil {
			return r.value, nil
		}
		o.out.Println(retry)
	}
}

// CollectParameters asks for magnitude and duration. Each is re-prompted on
// its own until valid.
func (o *Interface) CollectParameters(ctx context.Context, mode motion.Mode) (motion.TestParameters, error) {
	title := "Linear"
	if mode == motion.Angular {
		title = "Angular"
	}
	o.out.Printf("\n--- %s Velocity Test ---\n", title)

	magnitude, err := readValue(ctx, o,
		"Enter "+mode.String()+" velocity ("+mode.Unit()+"): ",
		"Please enter a valid number!",
		motion.ParseMagnitude)
	if err != nil {
		return motion.TestParameters{}, err
	}

	duration, err := readValue(ctx, o,
		"Enter duration (seconds): ",
		"Duration must be a positive number!",
		motion.ParseDuration)
	if err != nil {
		return motion.TestParameters{}, err
	}

	return motion.TestParameters{Mode: mode, Magnitude: magnitude, Duration: duration}, nil
}
