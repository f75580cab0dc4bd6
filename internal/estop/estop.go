// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package estop watches a normally-open push button wired between a GPIO
// and ground. Pressing it cancels the running test.
package estop

import (
	"context"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// pollTimeout bounds each edge wait so ctx is checked regularly.
const pollTimeout = 100 * time.Millisecond

// debounce ignores contact bounce after a press.
const debounce = 250 * time.Millisecond

// Button is an active-low input.
type Button struct {
	pin gpio.PinIn
}

// Open initialises periph and configures pin with pull-up and falling-edge
// detection.
func Open(pinName string) (*Button, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("e-stop pin %q not found", pinName)
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("e-stop pin %s: %w", pinName, err)
	}
	log.Printf("estop: watching %s", pin)

	return NewButton(pin), nil
}

// NewButton wraps an already configured input.
func NewButton(pin gpio.PinIn) *Button {
	return &Button{pin: pin}
}

// Watch calls onPress for every press until ctx is done.
func (b *Button) Watch(ctx context.Context, onPress func()) {
	var last time.Time
	for ctx.Err() == nil {
		if !b.pin.WaitForEdge(pollTimeout) {
			continue
		}
		if b.pin.Read() != gpio.Low {
			continue
		}
		if now := time.Now(); now.Sub(last) >= debounce {
			last = now
			log.Printf("estop: button pressed")
			onPress()
		}
	}
}
