// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channel

import (
	"encoding/json"
	"log"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// DryRun logs commands instead of transmitting them.
type DryRun struct {
	logger *log.Logger
}

// NewDryRun logs through logger, or the standard logger when nil.
func NewDryRun(logger *log.Logger) *DryRun {
	if logger == nil {
		logger = log.Default()
	}
	return &DryRun{logger: logger}
}

func (d *DryRun) Send(cmd motion.Command) error {
	payload, err := json.Marshal(cmd.Twist())
	if err != nil {
		return err
	}
	d.logger.Printf("dryrun: cmd_vel %s", payload)
	return nil
}
