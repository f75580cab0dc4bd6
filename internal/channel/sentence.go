// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channel

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

const (
	// talkerID is the NMEA talker used on the serial link to the drive base.
	talkerID = "RB"

	// TypeVEL is the velocity sentence type: $RBVEL,<linear>,<angular>*hh
	TypeVEL = "VEL"
)

// VEL is a velocity sentence, sent to the base and echoed back by it.
type VEL struct {
	nmea.BaseSentence
	Linear  float64
	Angular float64
}

func init() {
	nmea.MustRegisterParser(TypeVEL, func(s nmea.BaseSentence) (nmea.Sentence, error) {
		p := nmea.NewParser(s)
		p.AssertType(TypeVEL)
		m := VEL{
			BaseSentence: s,
			Linear:       p.Float64(0, "linear"),
			Angular:      p.Float64(1, "angular"),
		}
		return m, p.Err()
	})
}

// EncodeVEL frames cmd as a checksummed NMEA sentence, CRLF terminated.
func EncodeVEL(cmd motion.Command) string {
	body := fmt.Sprintf("%s%s,%.3f,%.3f", talkerID, TypeVEL, cmd.Linear, cmd.Angular)
	return fmt.Sprintf("$%s*%s\r\n", body, nmea.Checksum(body))
}
