package session

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// FileSink appends transcript lines to a file that it truncates on open.
// Each outcome is written with a single unbuffered write, so nothing waits in
// memory between events.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

func OpenFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return &FileSink{file: f, path: path}, nil
}

func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) HandleOutcome(elapsed time.Duration, o Outcome) error {
	var buf []byte
	for _, line := range transcriptLines(elapsed, o) {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("write %s: %w", s.path, os.ErrClosed)
	}
	if _, err := s.file.Write(buf); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}
