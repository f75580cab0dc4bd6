// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package console serialises terminal output shared between the operator
// loop and a running session.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Console guards every write to the operator's terminal with one mutex.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func New(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Println(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, args...)
}

// Block writes several lines without another writer getting in between.
func (c *Console) Block(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range lines {
		fmt.Fprintln(c.out, l)
	}
}

// LineSource yields one operator reply at a time.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// Prompt writes text and reads the reply with the console held, so no other
// output lands between the question and the answer.
func (c *Console) Prompt(ctx context.Context, in LineSource, text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, text)
	return in.ReadLine(ctx)
}
