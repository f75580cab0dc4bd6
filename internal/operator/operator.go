// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package operator is the interactive front end: it asks for a mode and test
// parameters, runs one session at a time and always leaves the robot at rest.
package operator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/relabs-tech/velocity_tester/internal/channel"
	"github.com/relabs-tech/velocity_tester/internal/console"
	"github.com/relabs-tech/velocity_tester/internal/motion"
	"github.com/relabs-tech/velocity_tester/internal/session"
)

// ErrInterrupted means the operator cancelled or input ended.
var ErrInterrupted = errors.New("operator interrupted")

// State is a step of the interactive loop.
type State int

const (
	SelectMode State = iota
	CollectParameters
	RunSession
	AskContinue
	Exit
)

func (s State) String() string {
	switch s {
	case SelectMode:
		return "select-mode"
	case CollectParameters:
		return "collect-parameters"
	case RunSession:
		return "run-session"
	case AskContinue:
		return "ask-continue"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionRunner runs one session synchronously.
type SessionRunner interface {
	Run(ctx context.Context, p motion.TestParameters) (session.Result, error)
	Reset()
}

// Stopper sends the stop sequence.
type Stopper interface {
	SendStop() error
}

// Interface drives the prompt loop.
type Interface struct {
	out      *console.Console
	in       *console.LineReader
	sessions SessionRunner
	stopper  Stopper

	state  State
	mode   motion.Mode
	params motion.TestParameters
	ran    bool
}

func New(out *console.Console, in *console.LineReader, sessions SessionRunner, stopper Stopper) *Interface {
	return &Interface{out: out, in: in, sessions: sessions, stopper: stopper}
}

// Run loops until the operator exits, input ends, ctx is cancelled or the
// command channel fails. The stop sequence is sent on every way out. Only a
// channel failure is returned as an error.
func (o *Interface) Run(ctx context.Context) (err error) {
	defer func() {
		o.out.Println("Shutting down velocity test node...")
		if stopErr := o.stopper.SendStop(); stopErr != nil {
			log.Printf("operator: final stop sequence: %v", stopErr)
		}
	}()

	o.state = SelectMode
	for o.state != Exit {
		next, err := o.step(ctx)
		if errors.Is(err, ErrInterrupted) {
			log.Printf("operator: interrupted in %s", o.state)
			return nil
		}
		if err != nil {
			return err
		}
		o.state = next
	}
	return nil
}

func (o *Interface) step(ctx context.Context) (State, error) {
	switch o.state {
	case SelectMode:
		return o.selectMode(ctx)
	case CollectParameters:
		p, err := o.CollectParameters(ctx, o.mode)
		if err != nil {
			return Exit, err
		}
		o.params = p
		return RunSession, nil
	case RunSession:
		return o.runSession(ctx)
	case AskContinue:
		return o.askContinue(ctx)
	default:
		return Exit, nil
	}
}

func (o *Interface) selectMode(ctx context.Context) (State, error) {
	for {
		o.out.Block(
			"",
			strings.Repeat("=", 50),
			"Velocity Test",
			strings.Repeat("=", 50),
			"Choose test mode:",
			"1. Linear velocity test",
			"2. Angular velocity test",
			"3. Exit",
		)
		line, err := o.prompt(ctx, "Enter your choice (1/2/3): ")
		if err != nil {
			return Exit, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "1", "l", "linear":
			o.mode = motion.Linear
			return CollectParameters, nil
		case "2", "a", "angular":
			o.mode = motion.Angular
			return CollectParameters, nil
		case "3", "q", "quit", "exit":
			return Exit, nil
		default:
			o.out.Println("Invalid choice. Please enter 1, 2, or 3.")
		}
	}
}

func (o *Interface) runSession(ctx context.Context) (State, error) {
	o.sessions.Reset()
	o.ran = false

	res, err := o.sessions.Run(ctx, o.params)
	switch {
	case errors.Is(err, channel.ErrUnavailable):
		log.Printf("operator: command channel failed: %v", err)
		o.out.Printf("► Command channel failed: %v\n", err)
		return Exit, err
	case err != nil:
		o.out.Printf("► Test not started: %v\n", err)
		return AskContinue, nil
	}

	o.ran = true
	if res.Report.Cancelled {
		o.out.Printf("► Test cancelled after %.2f seconds\n", res.Report.Elapsed.Seconds())
	} else {
		o.out.Printf("► Test completed! Published for %.2f seconds\n", res.Report.Elapsed.Seconds())
	}

	if ctx.Err() != nil {
		return Exit, ErrInterrupted
	}
	return AskContinue, nil
}

func (o *Interface) askContinue(ctx context.Context) (State, error) {
	o.sessions.Reset()
	if o.ran {
		o.out.Println("\nTest completed!")
	}
	line, err := o.prompt(ctx, "Continue testing? (y/n): ")
	if err != nil {
		return Exit, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return CollectParameters, nil
	default:
		return Exit, nil
	}
}

func (o *Interface) prompt(ctx context.Context, text string) (string, error) {
	line, err := o.out.Prompt(ctx, o.in, text)
	if err != nil {
		o.out.Println()
		return "", fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	return line, nil
}
