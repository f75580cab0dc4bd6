// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logging points the standard logger at a rotating file so log
// lines stay off the interactive console.
package logging

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options mirror the LOG_* configuration keys.
type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup redirects the standard logger. With no file configured it leaves
// the logger on stderr and returns a no-op closer.
func Setup(o Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if o.File == "" {
		return nopCloser{}
	}

	w := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    o.MaxSizeMB,
		MaxBackups: o.MaxBackups,
		MaxAge:     o.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(w)
	return w
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
