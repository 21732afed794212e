package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"log-analyzer/internal/feature"
	"log-analyzer/internal/types"
)

// CSVHeader is the first row of every CSV report
var CSVHeader = []string{"User", "IP Address", "Failed Attempts", "Timestamps"}

// Row is one key whose total suspicious count reached the threshold
type Row struct {
	Key        types.ActivityKey
	Timestamps []time.Time
}

// Count returns the number of suspicious actions in the row
func (r Row) Count() int {
	return len(r.Timestamps)
}

// Rows selects the keys at or above threshold, in first-seen order
func Rows(log *feature.AttemptLog, threshold int) []Row {
	var rows []Row
	for _, key := range log.Keys() {
		ts := log.Timestamps(key)
		if len(ts) >= threshold {
			rows = append(rows, Row{Key: key, Timestamps: ts})
		}
	}
	return rows
}

// WriteText prints the human-readable report
func WriteText(w io.Writer, rows []Row, threshold int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nSuspicious Activity Report (threshold = %d failed attempts):\n", threshold)
	for _, r := range rows {
		fmt.Fprintf(&b, "User '%s' from IP %s has %d failed login attempts\n", r.Key.User, r.Key.IP, r.Count())
		b.WriteString("  Timestamps:\n")
		for _, ts := range r.Timestamps {
			fmt.Fprintf(&b, "    - %s\n", ts.Format(types.TimestampLayout))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV writes the rows as CSV, timestamps joined with '|'
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		stamps := make([]string, len(r.Timestamps))
		for i, ts := range r.Timestamps {
			stamps[i] = ts.Format(types.TimestampLayout)
		}
		record := []string{r.Key.User, r.Key.IP, strconv.Itoa(r.Count()), strings.Join(stamps, "|")}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile replaces path with a fresh CSV report
func WriteCSVFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
