package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"ipvgo_bridge/internal/bootstrap"
	"ipvgo_bridge/internal/errors"
)

const gtpReadyMarker = "GTP ready"

type gtpReply struct {
	text string
	err  error
}

// GTPClient drives a GTP engine: one command in flight, replies read from stdout.
type GTPClient struct {
	log     *zap.SugaredLogger
	stdin   io.WriteCloser
	mu      sync.Mutex
	replies chan gtpReply
	done    chan struct{}
	ready   atomic.Bool
	errDone chan struct{}
	// commands whose caller gave up before the reply came; guarded by mu
	pending int
}

// StartGTPProcess runs KATAGO_PATH with KATAGO_ARGS and attaches a client to it.
func StartGTPProcess(cfg *bootstrap.Config, log *zap.SugaredLogger) (*GTPClient, error) {
	cmd := exec.Command(cfg.KatagoPath, cfg.KatagoArgs...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	client := NewGTPClient(log, stdin, stdout, stderr)

	go func() {
		<-client.done
		<-client.errDone
		if err := cmd.Wait(); err != nil {
			log.Errorw("gtp process exited", "error", err)
		}
	}()

	return client, nil
}

// NewGTPClient attaches to already running engine streams. stderr may be nil.
func NewGTPClient(log *zap.SugaredLogger, stdin io.WriteCloser, stdout, stderr io.Reader) *GTPClient {
	c := &GTPClient{
		log:     log,
		stdin:   stdin,
		replies: make(chan gtpReply, 1),
		done:    make(chan struct{}),
		errDone: make(chan struct{}),
	}
	go c.listenForReplies(stdout)
	if stderr != nil {
		go c.watchStderr(stderr)
	} else {
		close(c.errDone)
	}
	return c
}

func (c *GTPClient) Ready() bool {
	return c.ready.Load()
}

// Closed is closed once the engine's stdout ends.
func (c *GTPClient) Closed() <-chan struct{} {
	return c.done
}

// Exec sends one command and returns the reply text without the "= " prefix.
func (c *GTPClient) Exec(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return "", errors.ErrGTPClosed
	default:
	}

	// replies owed to abandoned commands must not answer this one
	for c.pending > 0 {
		select {
		case stale := <-c.replies:
			c.pending--
			c.log.Warnw("discarding stale gtp reply", "text", stale.text, "error", stale.err)
		case <-c.done:
			return "", errors.ErrGTPClosed
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	select {
	case stray := <-c.replies:
		c.log.Warnw("discarding unsolicited gtp reply", "text", stray.text, "error", stray.err)
	default:
	}

	c.log.Debugw("gtp stdin", "command", command)
	if _, err := io.WriteString(c.stdin, command+"\n"); err != nil {
		return "", fmt.Errorf("error writing to stdin: %w", err)
	}

	select {
	case reply := <-c.replies:
		if reply.err != nil {
			return "", reply.err
		}
		c.ready.Store(true)
		return reply.text, nil
	case <-c.done:
		return "", errors.ErrGTPClosed
	case <-ctx.Done():
		c.pending++
		return "", ctx.Err()
	}
}

func (c *GTPClient) Close() error {
	return c.stdin.Close()
}

func (c *GTPClient) listenForReplies(stdout io.Reader) {
	defer close(c.done)

	scanner := bufio.NewScanner(stdout)
	var block []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.Contains(line, gtpReadyMarker) {
			c.markReady(line)
			continue
		}
		if strings.TrimSpace(line) == "" {
			if len(block) > 0 {
				c.deliver(parseGTPReply(block))
				block = nil
			}
			continue
		}
		if len(block) == 0 && !strings.HasPrefix(line, "=") && !strings.HasPrefix(line, "?") {
			// engine chatter outside a reply
			c.log.Debugw("gtp stdout", "line", line)
			continue
		}
		block = append(block, line)
	}
	if len(block) > 0 {
		c.deliver(parseGTPReply(block))
	}
	if err := scanner.Err(); err != nil {
		c.log.Errorw("error reading gtp output", "error", err)
	}
}

func (c *GTPClient) watchStderr(stderr io.Reader) {
	defer close(c.errDone)
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, gtpReadyMarker) {
			c.markReady(line)
		}
	}
}

func (c *GTPClient) markReady(line string) {
	if !c.ready.Swap(true) {
		c.log.Infow("gtp engine ready", "line", line)
	}
}

func (c *GTPClient) deliver(reply gtpReply) {
	select {
	case c.replies <- reply:
	default:
		c.log.Warnw("dropping unsolicited gtp reply", "text", reply.text, "error", reply.err)
	}
}

// parseGTPReply turns "= D4" / "? illegal move" blocks into a reply.
// A command id glued to the status character ("=12 D4") is dropped.
func parseGTPReply(lines []string) gtpReply {
	first := lines[0]
	status := first[0]
	rest := first[1:]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	rest = strings.TrimSpace(rest[i:])

	text := strings.Join(append([]string{rest}, lines[1:]...), "\n")
	text = strings.TrimSpace(text)

	if status == '?' {
		return gtpReply{err: fmt.Errorf("%w: %s", errors.ErrGTPCommand, text)}
	}
	return gtpReply{text: text}
}
