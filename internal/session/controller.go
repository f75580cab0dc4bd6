// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// ErrAlreadyRunning is returned by Start unless the controller is Idle.
var ErrAlreadyRunning = errors.New("a test session is already active")

// Result is what a finished session reports.
type Result struct {
	Params  motion.TestParameters
	Command motion.Command
	Report  Report
}

// Task is the handle of a started session.
type Task struct {
	done   chan struct{}
	result Result
	err    error
}

// Wait blocks until the session, stop sequence included, has finished.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}

// Done is closed when Wait would no longer block.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Controller owns the single session of the process.
type Controller struct {
	emitter *Emitter

	mu        sync.Mutex
	state     State
	current   motion.TestParameters
	cancel    context.CancelFunc
	observers []Observer
}

func NewController(emitter *Emitter, observers ...Observer) *Controller {
	return &Controller{emitter: emitter, observers: observers}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start launches a session on its own goroutine. It fails with
// ErrAlreadyRunning, sending nothing, unless the controller is Idle.
func (c *Controller) Start(ctx context.Context, p motion.TestParameters) (*Task, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state != Idle {
		st := c.state
		c.mu.Unlock()
		return nil, fmt.Errorf("%w (state %s)", ErrAlreadyRunning, st)
	}
	sctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.current = p
	c.setStateLocked(Running, Report{}, nil)
	c.mu.Unlock()

	log.Printf("session: started %s test, magnitude=%v duration=%v", p.Mode, p.Magnitude, p.Duration)

	task := &Task{done: make(chan struct{})}
	go c.run(sctx, cancel, p, task)
	return task, nil
}

// Run starts a session and waits for it.
func (c *Controller) Run(ctx context.Context, p motion.TestParameters) (Result, error) {
	task, err := c.Start(ctx, p)
	if err != nil {
		return Result{Params: p}, err
	}
	return task.Wait()
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, p motion.TestParameters, task *Task) {
	defer close(task.done)
	defer cancel()

	cmd := p.Command()
	report, err := c.emitter.Run(ctx, cmd, p.Duration, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == Running {
			c.setStateLocked(StoppingGuard, Report{}, nil)
		}
	})
	task.result = Result{Params: p, Command: cmd, Report: report}
	task.err = err

	c.mu.Lock()
	c.cancel = nil
	c.setStateLocked(Completed, report, err)
	c.mu.Unlock()

	log.Printf("session: completed after %d ticks in %v (cancelled=%v, err=%v)",
		report.Ticks, report.Elapsed, report.Cancelled, err)
}

// Cancel interrupts the running session. The stop sequence still runs to
// completion before the task finishes. It reports whether a session was
// running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running {
		return false
	}
	c.setStateLocked(StoppingGuard, Report{}, nil)
	c.cancel()
	log.Printf("session: cancel requested")
	return true
}

// Reset returns a completed session to Idle. Other states are left alone.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Completed {
		c.setStateLocked(Idle, Report{}, nil)
	}
}

func (c *Controller) setStateLocked(s State, report Report, err error) {
	c.state = s
	ev := Event{
		State:   s,
		Params:  c.current,
		Command: c.current.Command(),
		Report:  report,
		Err:     err,
		At:      time.Now(),
	}
	for _, o := range c.observers {
		o.SessionChanged(ev)
	}
}
