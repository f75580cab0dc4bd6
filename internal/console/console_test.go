package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleBlockIsNotInterleaved(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); c.Block("a1", "a2", "a3") }()
		go func() { defer wg.Done(); c.Printf("b\n") }()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	for i, l := range lines {
		if l == "a1" {
			require.Less(t, i+2, len(lines))
			assert.Equal(t, "a2", lines[i+1])
			assert.Equal(t, "a3", lines[i+2])
		}
	}
}

func TestLineReader(t *testing.T) {
	l := NewLineReader(strings.NewReader("one\r\ntwo\n"))
	ctx := context.Background()

	line, err := l.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	line, err = l.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = l.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLineReaderCancel(t *testing.T) {
	r, _ := io.Pipe()
	l := NewLineReader(r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.ReadLine(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type gatedSource struct {
	release chan struct{}
}

func (g gatedSource) ReadLine(ctx context.Context) (string, error) {
	<-g.release
	return "y", nil
}

func TestPromptHoldsConsoleUntilReply(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)
	src := gatedSource{release: make(chan struct{})}

	replied := make(chan string, 1)
	go func() {
		line, err := c.Prompt(context.Background(), src, "Continue? ")
		assert.NoError(t, err)
		replied <- line
	}()

	// Give the prompt time to take the console before a second writer arrives.
	time.Sleep(20 * time.Millisecond)
	printed := make(chan struct{})
	go func() {
		c.Println("interrupting")
		close(printed)
	}()

	select {
	case <-printed:
		t.Fatal("write landed while a prompt was waiting for its reply")
	case <-time.After(20 * time.Millisecond):
	}

	close(src.release)
	assert.Equal(t, "y", <-replied)
	<-printed
	assert.Equal(t, "Continue? interrupting\n", buf.String())
}
