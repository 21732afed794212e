package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"log-analyzer/internal/types"
)

// Logger handles appending alerts to the audit log as JSON lines
type Logger struct {
	mu       sync.Mutex
	filePath string
}

// NewLogger creates a new audit logger
func NewLogger(filePath string) *Logger {
	return &Logger{
		filePath: filePath,
	}
}

// LogAlerts writes each alert as one JSON object per line
func (l *Logger) LogAlerts(alerts []types.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, a := range alerts {
		if err := encoder.Encode(a); err != nil {
			return fmt.Errorf("failed to encode alert: %w", err)
		}
	}

	return nil
}
