// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"fmt"
	"time"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// State is the lifecycle of the single test session.
type State int

const (
	Idle State = iota
	Running
	StoppingGuard
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case StoppingGuard:
		return "stopping"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText lets events carry the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event describes a state transition. Report and Err are only set once the
// session is Completed.
type Event struct {
	State   State                 `json:"state"`
	Params  motion.TestParameters `json:"-"`
	Command motion.Command        `json:"command"`
	Report  Report                `json:"report"`
	Err     error                 `json:"-"`
	At      time.Time             `json:"at"`
}

// Observer is notified of every transition, in order. It runs with the
// controller locked and must neither block nor call back into it.
type Observer interface {
	SessionChanged(ev Event)
}
