package channel

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// pipePort reads from a pipe the test writes to and records writes.
type pipePort struct {
	*io.PipeReader
	mu  sync.Mutex
	out bytes.Buffer
}

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *pipePort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestEncodeVELRoundTrip(t *testing.T) {
	line := EncodeVEL(motion.Command{Linear: 0.5, Angular: -1})
	require.True(t, strings.HasSuffix(line, "\r\n"))
	assert.True(t, strings.HasPrefix(line, "$RBVEL,0.500,-1.000*"))

	s, err := nmea.Parse(strings.TrimSpace(line))
	require.NoError(t, err)
	vel, ok := s.(VEL)
	require.True(t, ok, "parsed %T", s)
	assert.Equal(t, 0.5, vel.Linear)
	assert.Equal(t, -1.0, vel.Angular)
}

func TestSerialChannelSendAndService(t *testing.T) {
	r, w := io.Pipe()
	port := &pipePort{PipeReader: r}
	ch := newSerialChannel("/dev/null", port)

	require.NoError(t, ch.Send(motion.Command{Angular: 0.25}))
	assert.Equal(t, EncodeVEL(motion.Command{Angular: 0.25}), port.written())

	logs := &syncBuffer{}
	log.SetOutput(logs)
	defer log.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ch.Service(ctx) }()

	_, err := io.WriteString(w, "garbage\r\n"+EncodeVEL(motion.Command{Angular: 0.25}))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "base reports linear=0.000 angular=0.250")
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Service did not return")
	}
}

func TestSerialServiceReportsClosedPort(t *testing.T) {
	r, w := io.Pipe()
	ch := newSerialChannel("/dev/null", &pipePort{PipeReader: r})
	require.NoError(t, w.Close())

	err := ch.Service(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
