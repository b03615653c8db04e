package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/freeeve/openforest/pkg/wire"
)

// Observations for large worlds run well past bufio's default line cap.
const maxFrameBytes = 4 << 20

// RunStdio serves bot over stdin and stdout, one JSON frame per line.
// It returns when stdin closes.
func RunStdio(bot BotFunc) error {
	return serveStream(os.Stdin, os.Stdout, bot)
}

func serveStream(r io.Reader, w io.Writer, bot BotFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	out := bufio.NewWriter(w)
	pending := make(map[int]pendingReveal)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var req wire.PhaseRequest
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		var frame any
		switch req.Type {
		case wire.PhaseCommit:
			p, hash := commitActions(bot(decodeObservation(req.Observation)))
			pending[req.Tick] = p
			frame = wire.CommitFrame{Type: wire.PhaseCommit, Tick: req.Tick, Commit: hash}
		case wire.PhaseReveal:
			p, ok := pending[req.Tick]
			if !ok {
				p = pendingReveal{actions: emptyActions}
			}
			delete(pending, req.Tick)
			frame = wire.RevealFrame{Type: wire.PhaseReveal, Tick: req.Tick, Actions: p.actions, Nonce: p.nonce}
		default:
			continue
		}

		raw, err := json.Marshal(frame)
		if err != nil {
			return fmt.Errorf("encoding %s frame: %w", req.Type, err)
		}
		raw = append(raw, '\n')
		if _, err := out.Write(raw); err != nil {
			return fmt.Errorf("writing %s frame: %w", req.Type, err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flushing %s frame: %w", req.Type, err)
		}
	}
	return scanner.Err()
}
