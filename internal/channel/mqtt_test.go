package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

type fakeToken struct {
	done    chan struct{}
	err     error
	pending bool
}

func newFakeToken(err error, pending bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err, pending: pending}
	if !pending {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return !t.pending }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type publish struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the parts of mqtt.Client the channel uses.
type fakeClient struct {
	mqtt.Client

	mu         sync.Mutex
	connected  bool
	publishErr error
	stall      bool
	published  []publish
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, publish{topic, qos, retained, payload.([]byte)})
	return newFakeToken(c.publishErr, c.stall)
}

func TestMQTTChannelPublishesTwist(t *testing.T) {
	client := &fakeClient{connected: true}
	ch := newMQTTChannel(client, "robot/cmd_vel", 0)

	require.NoError(t, ch.Send(motion.Command{Linear: 0.5}))

	require.Len(t, client.published, 1)
	p := client.published[0]
	assert.Equal(t, "robot/cmd_vel", p.topic)
	assert.Equal(t, byte(0), p.qos)
	assert.False(t, p.retained)

	var tw motion.Twist
	require.NoError(t, json.Unmarshal(p.payload, &tw))
	assert.Equal(t, motion.Command{Linear: 0.5}, tw.Command())
}

func TestMQTTChannelUnavailable(t *testing.T) {
	t.Run("disconnected", func(t *testing.T) {
		client := &fakeClient{}
		err := newMQTTChannel(client, "cmd_vel", 0).Send(motion.Stop)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.Empty(t, client.published)
	})

	t.Run("publish error", func(t *testing.T) {
		client := &fakeClient{connected: true, publishErr: errors.New("broken pipe")}
		err := newMQTTChannel(client, "cmd_vel", 0).Send(motion.Stop)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		client := &fakeClient{connected: true, stall: true}
		err := newMQTTChannel(client, "cmd_vel", 10*time.Millisecond).Send(motion.Stop)
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestMQTTServiceStopsOnCancel(t *testing.T) {
	client := &fakeClient{connected: true}
	ch := newMQTTChannel(client, "cmd_vel", 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Service(ctx) }()

	client.setConnected(false)
	time.Sleep(2 * ServiceInterval)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Service did not return")
	}
}
