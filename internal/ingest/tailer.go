package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/nxadm/tail"
)

// LogLine represents a raw line from a log source
type LogLine struct {
	Source  string
	Number  int
	Content string
}

// FileReader reads a log file once, from start to end of file
type FileReader struct {
	path string
}

// NewFileReader creates a new reader for a path
func NewFileReader(path string) *FileReader {
	return &FileReader{
		path: path,
	}
}

// Lines calls fn for every line of the file in order. It stops at end of
// file, at the first error returned by fn, or when ctx is done.
func (f *FileReader) Lines(ctx context.Context, fn func(LogLine) error) error {
	config := tail.Config{
		Follow:    false,
		ReOpen:    false,
		MustExist: true,
		Poll:      true, // no inotify watcher for a one-shot read
		Logger:    tail.DiscardingLogger,
	}

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", f.path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Wait(); err != nil {
					return fmt.Errorf("failed to read %s: %w", f.path, err)
				}
				return nil
			}
			if line.Err != nil {
				log.Printf("[INGEST] %s: %v", f.path, line.Err)
				continue
			}
			n++
			if err := fn(LogLine{Source: f.path, Number: n, Content: line.Text}); err != nil {
				return err
			}
		}
	}
}
