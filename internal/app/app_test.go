package app

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/velocity_tester/internal/channel"
	"github.com/relabs-tech/velocity_tester/internal/config"
	"github.com/relabs-tech/velocity_tester/internal/motion"
)

type fakeOperator struct {
	run func(ctx context.Context) error
}

func (f fakeOperator) Run(ctx context.Context) error { return f.run(ctx) }

type failingService struct {
	*channel.Recorder
}

func (failingService) Service(ctx context.Context) error {
	return channel.ErrUnavailable
}

func TestRunLoopsReturnsOperatorResult(t *testing.T) {
	want := errors.New("operator done")
	err := runLoops(context.Background(), fakeOperator{func(context.Context) error { return want }}, channel.NewRecorder())
	assert.ErrorIs(t, err, want)
}

func TestRunLoopsStopsOperatorOnChannelFailure(t *testing.T) {
	stopped := make(chan struct{})
	ui := fakeOperator{func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	}}

	err := runLoops(context.Background(), ui, failingService{channel.NewRecorder()})
	assert.ErrorIs(t, err, channel.ErrUnavailable)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("operator was not cancelled")
	}
}

func TestOpenDryRunChannel(t *testing.T) {
	cfg := config.Default()
	cfg.ChannelBackend = config.BackendDryRun

	ch, closer, err := openChannel(cfg)
	require.NoError(t, err)
	assert.NoError(t, ch.Send(motion.Stop))
	assert.NoError(t, closer.Close())
}

type fakeMessage struct {
	mqtt.Message
	payload []byte
}

func (m fakeMessage) Payload() []byte { return m.payload }

func TestCmdVelHandlerPrintsTwists(t *testing.T) {
	var out bytes.Buffer
	h := cmdVelHandler(&out)

	h(nil, fakeMessage{payload: []byte(`{"linear":{"x":0.5},"angular":{"z":0}}`)})
	h(nil, fakeMessage{payload: []byte(`not json`)})
	h(nil, fakeMessage{payload: []byte(`{"linear":{"x":0},"angular":{"z":0}}`)})

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "[MOVE] #00001")
	assert.Contains(t, string(lines[0]), "linear.x=  0.500")
	assert.Contains(t, string(lines[1]), "[STOP] #00002")
}

func TestEStopFailureStillStopsRobot(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	cfg := config.Default()
	cfg.ChannelBackend = config.BackendDryRun
	cfg.EStopGPIOPin = "NO_SUCH_PIN"

	var out bytes.Buffer
	err := runVelocityTest(context.Background(), cfg, strings.NewReader(""), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e-stop")

	assert.Equal(t, 5, strings.Count(logs.String(), `dryrun: cmd_vel {"linear":{"x":0,"y":0,"z":0},"angular":{"x":0,"y":0,"z":0}}`))
}
