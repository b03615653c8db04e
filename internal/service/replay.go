package service

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// maxReplayLine bounds a single replay record. Snapshots grow with
// planet count but stay far below this even for huge maps.
const maxReplayLine = 16 << 20

// ReplayRecord is one line of a match replay: the post-tick snapshot,
// the per-player observations derived from it, and the verified raw
// action lists that were applied during the tick.
type ReplayRecord struct {
	Tick         int                     `json:"tick"`
	State        json.RawMessage         `json:"state"`
	Observations map[int]json.RawMessage `json:"observations"`
	Actions      map[int]json.RawMessage `json:"actions"`
}

// ReplayWriter appends newline-delimited JSON records to a file.
// Paths ending in .lz4 write an lz4-framed stream instead of plain
// text; everything else about the format is identical.
type ReplayWriter struct {
	path string
	f    *os.File
	zw   *lz4.Writer
	w    *bufio.Writer
}

// NewReplayWriter creates (or truncates) the replay file at path.
func NewReplayWriter(path string) (*ReplayWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create replay file: %w", err)
	}
	rw := &ReplayWriter{path: path, f: f}
	if strings.HasSuffix(path, ".lz4") {
		rw.zw = lz4.NewWriter(f)
		rw.w = bufio.NewWriter(rw.zw)
	} else {
		rw.w = bufio.NewWriter(f)
	}
	return rw, nil
}

// Path returns the file path the writer was opened with.
func (rw *ReplayWriter) Path() string { return rw.path }

// WriteRecord marshals one record and flushes it, so a crash
// mid-match loses at most the line being written.
func (rw *ReplayWriter) WriteRecord(rec *ReplayRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal replay record: %w", err)
	}
	if _, err := rw.w.Write(data); err != nil {
		return fmt.Errorf("write replay record: %w", err)
	}
	if err := rw.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write replay record: %w", err)
	}
	if err := rw.w.Flush(); err != nil {
		return fmt.Errorf("flush replay record: %w", err)
	}
	if rw.zw != nil {
		if err := rw.zw.Flush(); err != nil {
			return fmt.Errorf("flush lz4 frame: %w", err)
		}
	}
	return nil
}

// Close flushes buffered data and closes the underlying file.
func (rw *ReplayWriter) Close() error {
	if err := rw.w.Flush(); err != nil {
		return err
	}
	if rw.zw != nil {
		if err := rw.zw.Close(); err != nil {
			return err
		}
	}
	return rw.f.Close()
}

// ReplayReader iterates the records of a replay file, transparently
// decompressing .lz4 streams.
type ReplayReader struct {
	f       *os.File
	scanner *bufio.Scanner
}

// NewReplayReader opens the replay file at path for reading.
func NewReplayReader(path string) (*ReplayReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	var r io.Reader = f
	if strings.HasSuffix(path, ".lz4") {
		r = lz4.NewReader(f)
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)
	return &ReplayReader{f: f, scanner: scanner}, nil
}

// Next returns the next record, or (nil, nil) at end of stream.
// Blank lines are skipped; a malformed line is an error.
func (rr *ReplayReader) Next() (*ReplayRecord, error) {
	for rr.scanner.Scan() {
		line := bytes.TrimSpace(rr.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec ReplayRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parse replay record: %w", err)
		}
		return &rec, nil
	}
	if err := rr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return nil, nil
}

// Close closes the underlying file.
func (rr *ReplayReader) Close() error {
	return rr.f.Close()
}
