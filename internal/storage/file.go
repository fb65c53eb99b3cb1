package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// maxLineSize bounds one JSONL record.
const maxLineSize = 10 << 20

// FileRecorder appends events as JSON lines to a file it keeps open until Close.
type FileRecorder struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenFileRecorder creates path and its directory if needed.
func OpenFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open interaction log: %w", err)
	}
	return &FileRecorder{f: f, enc: json.NewEncoder(f)}, nil
}

func (r *FileRecorder) AppendInteraction(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return os.ErrClosed
	}
	if err := r.enc.Encode(event); err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f, r.enc = nil, nil
	return err
}

// Log is the decoded content of an interaction log.
type Log struct {
	Events []Event
	// Skipped counts non-empty lines that did not decode.
	Skipped int
}

// ReadLog reads a JSONL interaction log without creating or modifying it.
// Lines that do not decode are counted in Log.Skipped instead of failing the read.
func ReadLog(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interaction log: %w", err)
	}
	defer f.Close()

	out := &Log{}
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			out.Skipped++
			continue
		}
		out.Events = append(out.Events, ev)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read interaction log: %w", err)
	}
	return out, nil
}
