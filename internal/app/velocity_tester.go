// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/velocity_tester/internal/channel"
	"github.com/relabs-tech/velocity_tester/internal/config"
	"github.com/relabs-tech/velocity_tester/internal/console"
	"github.com/relabs-tech/velocity_tester/internal/display"
	"github.com/relabs-tech/velocity_tester/internal/estop"
	"github.com/relabs-tech/velocity_tester/internal/monitor"
	"github.com/relabs-tech/velocity_tester/internal/operator"
	"github.com/relabs-tech/velocity_tester/internal/session"
)

// RunVelocityTest runs the interactive test tool against the configured
// command channel until the operator exits.
func RunVelocityTest() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runVelocityTest(ctx, config.Get(), os.Stdin, os.Stdout)
}

func runVelocityTest(ctx context.Context, cfg *config.Config, in io.Reader, stdout io.Writer) error {
	ch, closer, err := openChannel(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Until the operator loop owns the final stop, any return halts the robot.
	operatorStarted := false
	defer func() {
		if operatorStarted {
			return
		}
		if serr := session.NewEmitter(ch, nil, session.EmitterOptions{}).SendStop(); serr != nil {
			log.Printf("velocity test: stop before exit: %v", serr)
		}
	}()

	var (
		commandObservers []channel.CommandObserver
		sessionObservers []session.Observer
	)

	if cfg.WebServerPort > 0 {
		hub := monitor.NewHub()
		commandObservers = append(commandObservers, hub)
		sessionObservers = append(sessionObservers, hub)
		go func() {
			if err := hub.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.WebServerPort)); err != nil {
				log.Printf("monitor: %v", err)
			}
		}()
	}

	if cfg.DisplayEnabled {
		status, bus, err := display.Open(cfg.DisplayI2CBus)
		if err != nil {
			log.Printf("display: disabled: %v", err)
		} else {
			defer bus.Close()
			defer status.Close()
			sessionObservers = append(sessionObservers, status)
		}
	}

	out := console.New(stdout)
	tee := channel.NewTee(ch, commandObservers...)
	emitter := session.NewEmitter(tee, out, session.EmitterOptions{})
	ctrl := session.NewController(emitter, sessionObservers...)

	if cfg.EStopGPIOPin != "" {
		button, err := estop.Open(cfg.EStopGPIOPin)
		if err != nil {
			return fmt.Errorf("e-stop: %w", err)
		}
		go button.Watch(ctx, func() {
			if ctrl.Cancel() {
				out.Println("\n► E-stop pressed, stopping robot")
			}
		})
	}

	ui := operator.New(out, console.NewLineReader(in), ctrl, emitter)
	operatorStarted = true
	return runLoops(ctx, ui, tee)
}

// operatorLoop is the blocking interactive side of the tool.
type operatorLoop interface {
	Run(ctx context.Context) error
}

// runLoops runs the operator on its own goroutine while this one services
// the transport. A transport failure ends the operator loop, which still
// sends its final stop sequence.
func runLoops(ctx context.Context, ui operatorLoop, ch channel.CommandChannel) error {
	uiCtx, uiCancel := context.WithCancel(ctx)
	defer uiCancel()
	svcCtx, svcCancel := context.WithCancel(ctx)
	defer svcCancel()

	uiDone := make(chan error, 1)
	go func() {
		uiDone <- ui.Run(uiCtx)
		svcCancel()
	}()

	if err := channel.Service(svcCtx, ch); err != nil {
		log.Printf("velocity test: command channel failed: %v", err)
		uiCancel()
		<-uiDone
		return err
	}
	return <-uiDone
}

func openChannel(cfg *config.Config) (channel.CommandChannel, io.Closer, error) {
	switch cfg.ChannelBackend {
	case config.BackendSerial:
		sc, err := channel.OpenSerial(channel.SerialOptions{
			PortName: cfg.SerialPort,
			BaudRate: cfg.SerialBaudRate,
		})
		if err != nil {
			return nil, nil, err
		}
		return sc, sc, nil

	case config.BackendDryRun:
		log.Println("velocity test: dry run, commands are only logged")
		return channel.NewDryRun(nil), nopCloser{}, nil

	default:
		mc, err := channel.DialMQTT(channel.MQTTOptions{
			Broker:         cfg.MQTTBroker,
			ClientID:       cfg.MQTTClientID,
			Topic:          cfg.TopicCmdVel,
			PublishTimeout: time.Duration(cfg.MQTTPublishTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		return mc, mc, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
