// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
)

// ErrClosed is returned once the input stream has ended.
var ErrClosed = errors.New("console input closed")

// LineReader reads lines on its own goroutine so a waiting prompt can be
// abandoned when the context is cancelled.
type LineReader struct {
	lines chan string
}

func NewLineReader(r io.Reader) *LineReader {
	l := &LineReader{lines: make(chan string)}
	go func() {
		defer close(l.lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			l.lines <- strings.TrimRight(scanner.Text(), "\r")
		}
	}()
	return l
}

// ReadLine blocks for the next line, ctx cancellation or end of input.
func (l *LineReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	}
}
