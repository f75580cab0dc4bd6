// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channel

import (
	"context"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// CommandObserver is told about every command handed to the primary channel.
// err is the primary's result. Observers must not block.
type CommandObserver interface {
	CommandSent(cmd motion.Command, err error)
}

// Tee forwards to a primary channel and then notifies observers.
type Tee struct {
	primary   CommandChannel
	observers []CommandObserver
}

func NewTee(primary CommandChannel, observers ...CommandObserver) *Tee {
	return &Tee{primary: primary, observers: observers}
}

func (t *Tee) Send(cmd motion.Command) error {
	err := t.primary.Send(cmd)
	for _, o := range t.observers {
		o.CommandSent(cmd, err)
	}
	return err
}

// Service delegates to the primary's foreground loop.
func (t *Tee) Service(ctx context.Context) error {
	return Service(ctx, t.primary)
}
