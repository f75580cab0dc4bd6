// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channel

import (
	"fmt"
	"sync"
	"time"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// Sent is one command captured by a Recorder.
type Sent struct {
	Command motion.Command
	At      time.Time
}

// Recorder keeps every command in memory. Setting FailAfter >= 0 makes every
// Send after that many successful ones fail with ErrUnavailable.
type Recorder struct {
	mu        sync.Mutex
	sent      []Sent
	failAfter int
	failed    int
}

func NewRecorder() *Recorder {
	return &Recorder{failAfter: -1}
}

// FailAfter makes the recorder reject sends once n commands were accepted.
func (r *Recorder) FailAfter(n int) {
	r.mu.Lock()
	r.failAfter = n
	r.mu.Unlock()
}

func (r *Recorder) Send(cmd motion.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAfter >= 0 && len(r.sent) >= r.failAfter {
		r.failed++
		return fmt.Errorf("recorder: %w", ErrUnavailable)
	}
	r.sent = append(r.sent, Sent{Command: cmd, At: time.Now()})
	return nil
}

// Sent returns a copy of everything accepted so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// Commands returns the accepted commands in order.
func (r *Recorder) Commands() []motion.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]motion.Command, len(r.sent))
	for i, s := range r.sent {
		out[i] = s.Command
	}
	return out
}

// Failed returns how many sends were rejected.
func (r *Recorder) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Reset drops the recorded history.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.failed = 0
	r.mu.Unlock()
}
