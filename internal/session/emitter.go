// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session runs velocity tests: a fixed-rate publish loop followed by
// a redundant stop sequence, one session at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/velocity_tester/internal/channel"
	"github.com/relabs-tech/velocity_tester/internal/console"
	"github.com/relabs-tech/velocity_tester/internal/motion"
)

const (
	// TickRate is the publish frequency in Hz.
	TickRate = 10

	// TickInterval is the spacing between two commands of a session.
	TickInterval = time.Second / TickRate

	// StopRepeats is how many zero commands the stop sequence sends. The
	// channel never acknowledges, so one stop may be lost.
	StopRepeats = 5

	// StopSpacing separates the zero commands.
	StopSpacing = 100 * time.Millisecond
)

// EmitterOptions override the timing constants. Zero fields keep defaults.
type EmitterOptions struct {
	TickInterval time.Duration
	StopRepeats  int
	StopSpacing  time.Duration
}

func (o EmitterOptions) withDefaults() EmitterOptions {
	if o.TickInterval <= 0 {
		o.TickInterval = TickInterval
	}
	if o.StopRepeats <= 0 {
		o.StopRepeats = StopRepeats
	}
	if o.StopSpacing <= 0 {
		o.StopSpacing = StopSpacing
	}
	return o
}

// Report summarises one publish loop.
type Report struct {
	Elapsed   time.Duration `json:"elapsed"`
	Ticks     int           `json:"ticks"`
	Cancelled bool          `json:"cancelled"`
}

// Emitter writes commands to a channel at a fixed rate.
type Emitter struct {
	ch   channel.CommandChannel
	out  *console.Console
	opts EmitterOptions
}

// NewEmitter returns an emitter on ch. Progress lines go to out when it is
// not nil.
func NewEmitter(ch channel.CommandChannel, out *console.Console, opts EmitterOptions) *Emitter {
	return &Emitter{ch: ch, out: out, opts: opts.withDefaults()}
}

// Run publishes cmd every tick until duration has elapsed or ctx is done,
// then always runs the stop sequence. onStopping, if set, is called once
// the loop has exited and before the first stop command.
//
// Sends are scheduled on start+k*interval, so an uncancelled run sends
// ceil(duration/interval) commands however late individual ticks are.
func (e *Emitter) Run(ctx context.Context, cmd motion.Command, duration time.Duration, onStopping func()) (Report, error) {
	e.printf("► Starting test - Linear: %v m/s, Angular: %v rad/s for %v seconds\n",
		cmd.Linear, cmd.Angular, duration.Seconds())
	e.printf("► Test in progress...\n")

	var (
		report  Report
		sendErr error
	)

	start := time.Now()
	deadline := start.Add(duration)

	for {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if err := e.ch.Send(cmd); err != nil {
			sendErr = err
			break
		}
		report.Ticks++

		next := start.Add(time.Duration(report.Ticks) * e.opts.TickInterval)
		if !next.Before(deadline) {
			if !sleepUntil(ctx, deadline) {
				report.Cancelled = true
			}
			break
		}
		if !sleepUntil(ctx, next) {
			report.Cancelled = true
			break
		}
	}
	report.Elapsed = time.Since(start)

	if onStopping != nil {
		onStopping()
	}
	e.stopSequence()

	if sendErr != nil {
		log.Printf("session: publish failed after %d ticks: %v", report.Ticks, sendErr)
		if !errors.Is(sendErr, channel.ErrUnavailable) {
			sendErr = fmt.Errorf("%w: %v", channel.ErrUnavailable, sendErr)
		}
		return report, fmt.Errorf("emit %v: %w", cmd, sendErr)
	}
	return report, nil
}

// SendStop runs the stop sequence on its own. Safe to call at rest.
func (e *Emitter) SendStop() error {
	return e.stopSequence()
}

// stopSequence sends every zero command even if earlier ones fail; the
// last failure is returned.
func (e *Emitter) stopSequence() error {
	var last error
	for i := 0; i < e.opts.StopRepeats; i++ {
		if err := e.ch.Send(motion.Stop); err != nil {
			log.Printf("session: stop command %d/%d failed: %v", i+1, e.opts.StopRepeats, err)
			last = err
		}
		time.Sleep(e.opts.StopSpacing)
	}
	return last
}

func (e *Emitter) printf(format string, args ...any) {
	if e.out != nil {
		e.out.Printf(format, args...)
	}
}

// sleepUntil waits for t and reports false if ctx ended first.
func sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
