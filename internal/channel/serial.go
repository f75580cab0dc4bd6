// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// SerialOptions configures the serial backend.
type SerialOptions struct {
	PortName string
	BaudRate uint
}

// SerialChannel writes VEL sentences to a drive base over a UART.
type SerialChannel struct {
	name string

	mu   sync.Mutex
	port io.ReadWriteCloser
}

// OpenSerial opens the port 8N1.
func OpenSerial(o SerialOptions) (*SerialChannel, error) {
	serialOpts := serial.OpenOptions{
		PortName:              o.PortName,
		BaudRate:              o.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w: %v", o.PortName, ErrUnavailable, err)
	}
	log.Printf("serial: port opened on %s at %d baud", o.PortName, o.BaudRate)

	return newSerialChannel(o.PortName, port), nil
}

func newSerialChannel(name string, port io.ReadWriteCloser) *SerialChannel {
	return &SerialChannel{name: name, port: port}
}

func (c *SerialChannel) Send(cmd motion.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.port, EncodeVEL(cmd)); err != nil {
		return fmt.Errorf("serial write %s: %w: %v", c.name, ErrUnavailable, err)
	}
	return nil
}

// Service reads sentences coming back from the base and logs them. It
// returns when ctx is done or the port fails.
func (c *SerialChannel) Service(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(c.port)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("serial read %s: %w: %v", c.name, ErrUnavailable, err)
		case line := <-lines:
			c.handleInbound(line)
		}
	}
}

func (c *SerialChannel) handleInbound(line string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// line noise on the UART
		return
	}

	switch m := sentence.(type) {
	case VEL:
		log.Printf("serial: base reports linear=%.3f angular=%.3f", m.Linear, m.Angular)
	default:
		log.Printf("serial: ignoring %s sentence from base", sentence.DataType())
	}
}

func (c *SerialChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}
