// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// MQTTOptions configures the MQTT backend.
type MQTTOptions struct {
	Broker         string
	ClientID       string
	Topic          string
	PublishTimeout time.Duration
}

// MQTTChannel publishes Twist JSON on a cmd_vel topic.
type MQTTChannel struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// DialMQTT connects to the broker. The stop Twist is registered as the
// client's last will so the broker halts the robot if this process dies
// without disconnecting.
func DialMQTT(o MQTTOptions) (*MQTTChannel, error) {
	stop, err := json.Marshal(motion.Stop.Twist())
	if err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetBinaryWill(o.Topic, stop, 0, false).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("mqtt: connection to %s lost: %v", o.Broker, err)
		})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w: %v", o.Broker, ErrUnavailable, token.Error())
	}
	log.Printf("mqtt: connected to broker at %s, publishing on %s", o.Broker, o.Topic)

	return newMQTTChannel(client, o.Topic, o.PublishTimeout), nil
}

func newMQTTChannel(client mqtt.Client, topic string, timeout time.Duration) *MQTTChannel {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &MQTTChannel{client: client, topic: topic, timeout: timeout}
}

func (c *MQTTChannel) Send(cmd motion.Command) error {
	if !c.client.IsConnectionOpen() {
		return fmt.Errorf("mqtt publish %s: %w: not connected", c.topic, ErrUnavailable)
	}

	payload, err := json.Marshal(cmd.Twist())
	if err != nil {
		return err
	}

	token := c.client.Publish(c.topic, 0, false, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("mqtt publish %s: %w: timed out after %v", c.topic, ErrUnavailable, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w: %v", c.topic, ErrUnavailable, err)
	}
	return nil
}

// Service watches the connection and logs state changes. Paho handles
// reconnects on its own goroutines.
func (c *MQTTChannel) Service(ctx context.Context) error {
	ticker := time.NewTicker(ServiceInterval)
	defer ticker.Stop()

	connected := c.client.IsConnectionOpen()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := c.client.IsConnectionOpen()
			if now != connected {
				if now {
					log.Printf("mqtt: connection to broker restored")
				} else {
					log.Printf("mqtt: connection to broker down, commands will fail")
				}
				connected = now
			}
		}
	}
}

// Close disconnects, giving in-flight publishes 250ms.
func (c *MQTTChannel) Close() error {
	c.client.Disconnect(250)
	return nil
}
