package parser

import (
	"fmt"
	"strings"
	"time"

	"log-analyzer/internal/sink"
	"log-analyzer/internal/types"
)

// KeyValueParser parses lines of the form
//
//	2024-01-01 12:00:00 user=alice ip=10.0.0.1 action=login_failed
//
// Parsed lines are echoed to the analyzed sink, malformed lines go to the
// malformed sink stamped with the time they were seen.
type KeyValueParser struct {
	analyzed  sink.Sink
	malformed sink.Sink
	loc       *time.Location
	now       func() time.Time
}

// Option configures a KeyValueParser
type Option func(*KeyValueParser)

// WithLocation sets the time zone log timestamps are interpreted in.
// The default is UTC, which keeps window arithmetic on the wall-clock text
// of the log and free of DST gaps.
func WithLocation(loc *time.Location) Option {
	return func(p *KeyValueParser) {
		p.loc = loc
	}
}

// WithClock overrides the clock used to stamp malformed lines
func WithClock(now func() time.Time) Option {
	return func(p *KeyValueParser) {
		p.now = now
	}
}

// NewKeyValueParser creates a parser writing to the given sinks
func NewKeyValueParser(analyzed, malformed sink.Sink, opts ...Option) *KeyValueParser {
	p := &KeyValueParser{
		analyzed:  analyzed,
		malformed: malformed,
		loc:       time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse implements the Parser interface
func (p *KeyValueParser) Parse(line string) (*types.LogEvent, error) {
	line = strings.TrimSpace(line)

	evt, ok := ParseLine(line, p.loc)
	if !ok {
		rec := types.MalformedLine{ReceivedAt: p.now(), Raw: line}
		if err := p.malformed.Append(formatMalformed(rec)); err != nil {
			return nil, fmt.Errorf("failed to record malformed line: %w", err)
		}
		return nil, nil
	}

	if err := p.analyzed.Append(formatAnalyzed(evt)); err != nil {
		return nil, fmt.Errorf("failed to record analyzed line: %w", err)
	}
	return &evt, nil
}

// ParseLine is the side-effect free part of Parse
func ParseLine(line string, loc *time.Location) (types.LogEvent, bool) {
	parts := strings.Fields(line)
	if len(parts) < 5 {
		return types.LogEvent{}, false
	}

	user, ok := value(parts[2])
	if !ok {
		return types.LogEvent{}, false
	}
	ip, ok := value(parts[3])
	if !ok {
		return types.LogEvent{}, false
	}
	action, ok := value(parts[4])
	if !ok {
		return types.LogEvent{}, false
	}

	ts, err := time.ParseInLocation(types.TimestampLayout, parts[0]+" "+parts[1], loc)
	if err != nil {
		return types.LogEvent{}, false
	}

	return types.LogEvent{
		Timestamp: ts,
		User:      user,
		IP:        ip,
		Action:    action,
	}, true
}

// value returns the text between the first '=' and the next one.
// The key name is not checked.
func value(token string) (string, bool) {
	fields := strings.SplitN(token, "=", 3)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}

func formatAnalyzed(evt types.LogEvent) string {
	return fmt.Sprintf("[%s] User=%s IP=%s Action=%s",
		evt.Timestamp.Format(types.TimestampLayout), evt.User, evt.IP, evt.Action)
}

func formatMalformed(rec types.MalformedLine) string {
	return fmt.Sprintf("[%s] %s", rec.ReceivedAt.Format(types.TimestampLayout), rec.Raw)
}
