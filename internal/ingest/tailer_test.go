package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileReader_Lines(t *testing.T) {
	path := writeLog(t, "first\nsecond\n\nlast without newline")

	var got []LogLine
	err := NewFileReader(path).Lines(context.Background(), func(l LogLine) error {
		got = append(got, l)
		return nil
	})
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}

	want := []string{"first", "second", "", "last without newline"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Content != w {
			t.Errorf("line %d = %q, want %q", i, got[i].Content, w)
		}
		if got[i].Number != i+1 {
			t.Errorf("line %d number = %d", i, got[i].Number)
		}
		if got[i].Source != path {
			t.Errorf("line %d source = %q", i, got[i].Source)
		}
	}
}

func TestFileReader_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.log")
	err := NewFileReader(path).Lines(context.Background(), func(LogLine) error { return nil })
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestFileReader_StopsOnCallbackError(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")
	stop := errors.New("stop")

	calls := 0
	err := NewFileReader(path).Lines(context.Background(), func(LogLine) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Expected stop error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}
