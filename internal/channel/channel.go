// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package channel carries motion commands to the robot.
//
// Every backend is fire-and-forget: a nil error from Send means the command
// left this process, not that the robot received it.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// ErrUnavailable means the channel cannot accept writes at all.
var ErrUnavailable = errors.New("command channel unavailable")

// CommandChannel accepts motion commands at any rate.
type CommandChannel interface {
	Send(cmd motion.Command) error
}

// Servicer is implemented by channels whose transport needs a foreground
// loop (connection watchdog, inbound traffic).
type Servicer interface {
	Service(ctx context.Context) error
}

// ServiceInterval is how often the foreground loop services the transport.
const ServiceInterval = 100 * time.Millisecond

// Service runs ch's foreground loop until ctx is done. Channels without one
// just wait.
func Service(ctx context.Context, ch CommandChannel) error {
	if s, ok := ch.(Servicer); ok {
		return s.Service(ctx)
	}
	<-ctx.Done()
	return nil
}
