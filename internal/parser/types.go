package parser

import "log-analyzer/internal/types"

// Parser defines the interface for log line parsers.
// A nil event with a nil error means the line was malformed and skipped.
type Parser interface {
	Parse(line string) (*types.LogEvent, error)
}
