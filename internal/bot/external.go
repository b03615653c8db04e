package bot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/openforest/pkg/wire"
)

// ExternalAgent seats a bot subprocess speaking the stdio transport:
// one JSON frame per line on stdin, one frame per line on stdout.
// Anything the process prints to stderr passes through untouched.
type ExternalAgent struct {
	id   int
	name string

	cmd   *exec.Cmd
	stdin io.WriteCloser

	// lines carries stdout frames from the reader goroutine and is
	// closed when the process closes its stdout.
	lines chan string

	mu     sync.Mutex
	closed bool

	// exited is closed when the process exits.
	exited chan struct{}
}

// NewExternalAgent launches argv as the bot process for player id and
// wires its pipes. The returned agent must be Closed when the match ends.
func NewExternalAgent(id int, name string, argv []string) (*ExternalAgent, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("external agent %d: empty command", id)
	}

	a := &ExternalAgent{
		id:     id,
		name:   name,
		lines:  make(chan string, 16),
		exited: make(chan struct{}),
	}
	a.cmd = exec.Command(argv[0], argv[1:]...)
	a.cmd.Stderr = os.Stderr

	var err error
	a.stdin, err = a.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("external agent %d: stdin pipe: %w", id, err)
	}
	stdout, err := a.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("external agent %d: stdout pipe: %w", id, err)
	}

	if err := a.cmd.Start(); err != nil {
		return nil, fmt.Errorf("external agent %d: start %s: %w", id, argv[0], err)
	}

	go a.readLines(stdout)

	// Track process exit in background so Close can wait without polling.
	go func() {
		a.cmd.Wait()
		close(a.exited)
	}()

	return a, nil
}

func (a *ExternalAgent) PlayerID() int { return a.id }

// Name returns the seat label.
func (a *ExternalAgent) Name() string { return a.name }

// Commit forwards the observation to the process and waits for its
// commit frame for this tick.
func (a *ExternalAgent) Commit(ctx context.Context, tick int, observation json.RawMessage) (string, error) {
	req := wire.PhaseRequest{Type: wire.PhaseCommit, Tick: tick, Observation: observation}
	if err := a.send(req); err != nil {
		return "", err
	}

	frame, err := a.await(ctx, wire.PhaseCommit, tick)
	if err != nil {
		return "", err
	}
	if frame.Commit == "" {
		return "", fmt.Errorf("external agent %d: empty commit for tick %d", a.id, tick)
	}
	return frame.Commit, nil
}

// Reveal asks the process for the actions behind its commit for tick.
func (a *ExternalAgent) Reveal(ctx context.Context, tick int) (json.RawMessage, string, error) {
	req := wire.PhaseRequest{Type: wire.PhaseReveal, Tick: tick}
	if err := a.send(req); err != nil {
		return nil, "", err
	}

	frame, err := a.await(ctx, wire.PhaseReveal, tick)
	if err != nil {
		return nil, "", err
	}
	return frame.Actions, frame.Nonce, nil
}

// Close shuts the process's stdin, which tells a conforming bot to exit.
// If the process has not exited within 3 seconds it is killed.
func (a *ExternalAgent) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	if a.stdin != nil {
		a.stdin.Close()
	}

	select {
	case <-a.exited:
		// Process already exited.
	case <-time.After(3 * time.Second):
		log.Warn().Int("playerId", a.id).Str("bot", a.name).Msg("Bot process did not exit within 3s, killing")
		if a.cmd.Process != nil {
			a.cmd.Process.Kill()
		}
		<-a.exited
	}
	return nil
}

// send writes one request line to the process's stdin.
func (a *ExternalAgent) send(req wire.PhaseRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("external agent %d: marshal request: %w", a.id, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("external agent %d: agent closed", a.id)
	}
	if _, err := fmt.Fprintf(a.stdin, "%s\n", payload); err != nil {
		return fmt.Errorf("external agent %d: write request: %w", a.id, err)
	}
	return nil
}

// await reads stdout frames until one matches the requested phase and
// tick. Unparseable lines and frames for other ticks are skipped; a bot
// that answered after its deadline leaves stale frames behind.
func (a *ExternalAgent) await(ctx context.Context, phase string, tick int) (*wire.AgentFrame, error) {
	for {
		select {
		case line, ok := <-a.lines:
			if !ok {
				return nil, fmt.Errorf("external agent %d: process closed stdout", a.id)
			}
			var frame wire.AgentFrame
			if err := json.Unmarshal([]byte(line), &frame); err != nil {
				log.Debug().Int("playerId", a.id).Err(err).Msg("Skipping non-frame bot output")
				continue
			}
			if frame.Type != phase || frame.Tick != tick {
				continue
			}
			return &frame, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// readLines pumps stdout lines into the frame channel until EOF.
func (a *ExternalAgent) readLines(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		a.lines <- scanner.Text()
	}
	close(a.lines)
}
