package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ipvgo_bridge/internal/errors"
)

// fakeGTPEngine answers each command line using answer; received commands are recorded.
type fakeGTPEngine struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter
	seen    chan string
}

func newFakeGTPEngine(t *testing.T, answer func(cmd string) string) *fakeGTPEngine {
	f := &fakeGTPEngine{seen: make(chan string, 32)}
	f.stdinR, f.stdinW = io.Pipe()
	f.stdoutR, f.stdoutW = io.Pipe()
	f.stderrR, f.stderrW = io.Pipe()

	go func() {
		scanner := bufio.NewScanner(f.stdinR)
		for scanner.Scan() {
			cmd := scanner.Text()
			f.seen <- cmd
			if _, err := io.WriteString(f.stdoutW, answer(cmd)); err != nil {
				return
			}
		}
		f.stdoutW.Close()
	}()

	t.Cleanup(func() {
		f.stdinW.Close()
		f.stdoutW.Close()
		f.stderrW.Close()
	})
	return f
}

func (f *fakeGTPEngine) client(t *testing.T) *GTPClient {
	return NewGTPClient(zaptest.NewLogger(t).Sugar(), f.stdinW, f.stdoutR, f.stderrR)
}

func TestGTPClientExec(t *testing.T) {
	engine := newFakeGTPEngine(t, func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, "genmove"):
			return "= D4\n\n"
		case strings.HasPrefix(cmd, "play"):
			return "? illegal move\n\n"
		default:
			return "=\n\n"
		}
	})
	client := engine.client(t)
	ctx := context.Background()

	reply, err := client.Exec(ctx, "clear_board")
	require.NoError(t, err)
	assert.Equal(t, "", reply)
	assert.Equal(t, "clear_board", <-engine.seen)

	reply, err = client.Exec(ctx, "genmove black")
	require.NoError(t, err)
	assert.Equal(t, "D4", reply)

	_, err = client.Exec(ctx, "play white A1")
	require.ErrorIs(t, err, errors.ErrGTPCommand)
	assert.Contains(t, err.Error(), "illegal move")
}

func TestGTPClientReadyFromStderr(t *testing.T) {
	engine := newFakeGTPEngine(t, func(string) string { return "=\n\n" })
	client := engine.client(t)
	assert.False(t, client.Ready())

	_, err := io.WriteString(engine.stderrW, "loading model\nGTP ready, beginning main protocol loop\n")
	require.NoError(t, err)

	assert.Eventually(t, client.Ready, time.Second, 5*time.Millisecond)
}

func TestGTPClientReadyAfterFirstReply(t *testing.T) {
	engine := newFakeGTPEngine(t, func(string) string { return "= 2\n\n" })
	client := engine.client(t)

	reply, err := client.Exec(context.Background(), "protocol_version")
	require.NoError(t, err)
	assert.Equal(t, "2", reply)
	assert.True(t, client.Ready())
}

func TestGTPClientClosed(t *testing.T) {
	engine := newFakeGTPEngine(t, func(string) string { return "=\n\n" })
	client := engine.client(t)

	engine.stdoutW.Close()
	select {
	case <-client.Closed():
	case <-time.After(time.Second):
		t.Fatal("client did not notice closed stdout")
	}

	_, err := client.Exec(context.Background(), "clear_board")
	assert.ErrorIs(t, err, errors.ErrGTPClosed)
}

func TestGTPClientContextCancel(t *testing.T) {
	engine := newFakeGTPEngine(t, func(string) string { return "" })
	client := engine.client(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Exec(ctx, "genmove black")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGTPClientLateReplyAfterCancel(t *testing.T) {
	engine := newFakeGTPEngine(t, func(cmd string) string {
		if strings.HasPrefix(cmd, "genmove") {
			time.Sleep(50 * time.Millisecond)
			return "= D4\n\n"
		}
		return "=\n\n"
	})
	client := engine.client(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := client.Exec(ctx, "genmove black")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	reply, err := client.Exec(context.Background(), "play white C3")
	require.NoError(t, err)
	assert.Equal(t, "", reply)

	reply, err = client.Exec(context.Background(), "genmove black")
	require.NoError(t, err)
	assert.Equal(t, "D4", reply)
}

func TestParseGTPReply(t *testing.T) {
	tests := []struct {
		lines []string
		text  string
		fails bool
	}{
		{lines: []string{"= D4"}, text: "D4"},
		{lines: []string{"=12 pass"}, text: "pass"},
		{lines: []string{"="}, text: ""},
		{lines: []string{"= 19"}, text: "19"},
		{lines: []string{"= A B", "C D"}, text: "A B\nC D"},
		{lines: []string{"? unknown command"}, text: "unknown command", fails: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.lines), func(t *testing.T) {
			reply := parseGTPReply(tt.lines)
			if tt.fails {
				require.ErrorIs(t, reply.err, errors.ErrGTPCommand)
				assert.Contains(t, reply.err.Error(), tt.text)
				return
			}
			require.NoError(t, reply.err)
			assert.Equal(t, tt.text, reply.text)
		})
	}
}
