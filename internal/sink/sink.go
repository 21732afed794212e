package sink

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Sink is an append-only destination for text lines
type Sink interface {
	Append(lines ...string) error
}

// FileSink appends lines to a file, opening it for each write.
// The file is never truncated, so its content is cumulative across runs.
type FileSink struct {
	mu       sync.Mutex
	filePath string
}

// NewFileSink creates a sink backed by filePath
func NewFileSink(filePath string) *FileSink {
	return &FileSink{filePath: filePath}
}

// Append writes each line followed by a newline
func (s *FileSink) Append(lines ...string) error {
	if len(lines) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.filePath, err)
	}
	defer f.Close()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.filePath, err)
	}
	return nil
}

// Memory keeps lines in memory. Used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	lines []string
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(lines ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, lines...)
	return nil
}

// Lines returns a copy of everything appended so far
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}
