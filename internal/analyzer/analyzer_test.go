package analyzer

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"log-analyzer/internal/audit"
	"log-analyzer/internal/metrics"
	"log-analyzer/internal/state"
	"log-analyzer/internal/types"
)

var runNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	dir string
	cfg *types.Config
	out *bytes.Buffer
}

func newFixture(t *testing.T, logContent string, threshold int) *fixture {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "auth.log")
	if err := os.WriteFile(logPath, []byte(logContent), 0o644); err != nil {
		t.Fatal(err)
	}

	window := 10
	cfg := &types.Config{
		Threshold:         &threshold,
		TimeWindowMinutes: &window,
		LogFile:           logPath,
		ReportFile:        filepath.Join(dir, "report.csv"),
		AnalyzedLogFile:   filepath.Join(dir, "analyzed.txt"),
		AlertLogFile:      filepath.Join(dir, "alerts.txt"),
		MalformedLogFile:  filepath.Join(dir, "malformed.txt"),
		SuspiciousActions: []string{"login_failed"},
	}
	return &fixture{dir: dir, cfg: cfg, out: &bytes.Buffer{}}
}

func (f *fixture) run(t *testing.T, opts ...Option) *Result {
	t.Helper()
	opts = append([]Option{
		WithOutput(f.out),
		WithClock(func() time.Time { return runNow }),
		WithLocation(time.UTC),
	}, opts...)
	res, err := New(f.cfg, opts...).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

const aliceLog = `2024-05-01 10:00:00 user=alice ip=10.0.0.1 action=login_failed
2024-05-01 10:01:00 user=alice ip=10.0.0.1 action=login_failed
2024-05-01 10:02:00 user=alice ip=10.0.0.1 action=login_failed
`

func TestRun_AliceScenario(t *testing.T) {
	f := newFixture(t, aliceLog, 3)
	res := f.run(t)

	rf, err := os.Open(f.cfg.ReportFile)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	records, err := csv.NewReader(rf).ReadAll()
	if err != nil {
		t.Fatalf("report is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected header and 1 row, got %v", records)
	}
	want := []string{"alice", "10.0.0.1", "3", "2024-05-01 10:00:00|2024-05-01 10:01:00|2024-05-01 10:02:00"}
	for i := range want {
		if records[1][i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, records[1][i], want[i])
		}
	}

	alerts := readLines(t, f.cfg.AlertLogFile)
	if len(alerts) != 1 {
		t.Fatalf("Expected exactly 1 alert line, got %v", alerts)
	}
	wantAlert := "[2024-06-01 12:00:00] ALERT: User 'alice' from IP 10.0.0.1 had 3 failed attempts within 10 minutes."
	if alerts[0] != wantAlert {
		t.Errorf("alert = %q, want %q", alerts[0], wantAlert)
	}

	if len(res.Alerts) != 1 || res.Run.LinesParsed != 3 || res.Run.ReportRows != 1 {
		t.Errorf("Unexpected result %+v", res.Run)
	}
	if !strings.Contains(f.out.String(), "ALERTS GENERATED:") {
		t.Errorf("Expected alerts on stdout, got:\n%s", f.out.String())
	}
	if got := readLines(t, f.cfg.AnalyzedLogFile); len(got) != 3 {
		t.Errorf("Expected 3 analyzed lines, got %v", got)
	}
}

func TestRun_SinksAreCumulative(t *testing.T) {
	f := newFixture(t, aliceLog+"garbage line\n", 3)
	f.run(t)
	f.run(t)

	if got := readLines(t, f.cfg.AlertLogFile); len(got) != 2 {
		t.Errorf("Expected 2 alert lines after two runs, got %d", len(got))
	}
	if got := readLines(t, f.cfg.MalformedLogFile); len(got) != 2 || got[0] != "[2024-06-01 12:00:00] garbage line" {
		t.Errorf("Unexpected malformed sink %v", got)
	}
	if got := readLines(t, f.cfg.AnalyzedLogFile); len(got) != 6 {
		t.Errorf("Expected 6 analyzed lines after two runs, got %d", len(got))
	}
	// The CSV report is rewritten, not appended
	if got := readLines(t, f.cfg.ReportFile); len(got) != 2 {
		t.Errorf("Expected report with 2 lines, got %d", len(got))
	}
}

func TestRun_NonSuspiciousActionsNeverCount(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("2024-05-01 10:00:00 user=alice ip=10.0.0.1 action=login_success\n")
	}
	b.WriteString("2024-05-01 10:00:30 user=alice ip=10.0.0.1 action=login_failed\n")

	f := newFixture(t, b.String(), 2)
	res := f.run(t)

	if len(res.Rows) != 0 || len(res.Alerts) != 0 {
		t.Errorf("Expected no rows or alerts, got %d rows, %d alerts", len(res.Rows), len(res.Alerts))
	}
	if res.Run.LinesParsed != 21 || res.Run.SuspiciousCount != 1 {
		t.Errorf("Unexpected counters %+v", res.Run)
	}
	if got := readLines(t, f.cfg.AlertLogFile); got != nil {
		t.Errorf("Expected no alert sink file, got %v", got)
	}
}

func TestRun_SustainedBurstAndSeparateKeys(t *testing.T) {
	log := aliceLog +
		"2024-05-01 10:03:00 user=alice ip=10.0.0.1 action=login_failed\n" +
		"2024-05-01 10:00:00 user=alice ip=10.0.0.2 action=login_failed\n" +
		"2024-05-01 10:00:00 user=bob ip=10.0.0.1 action=login_failed\n"

	f := newFixture(t, log, 3)
	res := f.run(t)

	if len(res.Alerts) != 2 {
		t.Fatalf("Expected 2 overlapping alerts for alice, got %d", len(res.Alerts))
	}
	if res.Alerts[0].WindowCount != 3 || res.Alerts[1].WindowCount != 4 {
		t.Errorf("Unexpected counts %d, %d", res.Alerts[0].WindowCount, res.Alerts[1].WindowCount)
	}
	if res.Attempts.Len() != 3 {
		t.Errorf("Expected 3 keys, got %d", res.Attempts.Len())
	}
}

func TestRun_OptionalComponents(t *testing.T) {
	f := newFixture(t, aliceLog, 3)
	f.cfg.MetricsFile = filepath.Join(f.dir, "log_analyzer.prom")

	store, err := state.NewStore(filepath.Join(f.dir, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	auditPath := filepath.Join(f.dir, "audit.jsonl")
	res := f.run(t,
		WithStore(store),
		WithAuditLogger(audit.NewLogger(auditPath)),
		WithMetrics(metrics.New()),
	)

	if res.Run.ID == "" {
		t.Error("Expected run to be stored")
	}
	stored, err := store.Alerts(res.Run.ID)
	if err != nil || len(stored) != 1 {
		t.Fatalf("Expected 1 stored alert, got %v (%v)", stored, err)
	}
	if stored[0].Explanation == "" {
		t.Error("Expected explanation from template explainer")
	}
	if got := readLines(t, auditPath); len(got) != 1 {
		t.Errorf("Expected 1 audit line, got %v", got)
	}
	content, err := os.ReadFile(f.cfg.MetricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(content), `log_analyzer_lines_total{result="parsed"} 3`) {
		t.Errorf("Unexpected metrics:\n%s", content)
	}
}

// withHostZone makes time.Local a DST zone for the duration of the test
func withHostZone(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error = %v", name, err)
	}
	saved := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = saved })
}

func TestRun_DefaultZoneIgnoresHostDST(t *testing.T) {
	withHostZone(t, "America/New_York")

	// 69 minutes apart as written, 9 minutes apart as New York instants
	log := "2024-03-10 01:55:00 user=alice ip=10.0.0.1 action=login_failed\n" +
		"2024-03-10 03:00:00 user=alice ip=10.0.0.1 action=login_failed\n" +
		"2024-03-10 03:04:00 user=alice ip=10.0.0.1 action=login_failed\n" +
		"2024-03-10 02:30:00 user=bob ip=10.0.0.2 action=login_failed\n"

	f := newFixture(t, log, 3)
	res, err := New(f.cfg, WithOutput(f.out), WithClock(func() time.Time { return runNow })).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Alerts) != 0 {
		t.Errorf("Expected no alerts across the DST gap, got %+v", res.Alerts)
	}

	f.cfg.Threshold = new(int)
	*f.cfg.Threshold = 1
	if _, err := New(f.cfg, WithOutput(f.out), WithClock(func() time.Time { return runNow })).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	report := readLines(t, f.cfg.ReportFile)
	if len(report) != 3 || report[2] != "bob,10.0.0.2,1,2024-03-10 02:30:00" {
		t.Errorf("Expected bob's 02:30 timestamp unchanged, got %v", report)
	}
}

func TestRun_MissingLogFile(t *testing.T) {
	f := newFixture(t, "", 3)
	f.cfg.LogFile = filepath.Join(f.dir, "missing.log")

	if _, err := New(f.cfg, WithOutput(f.out)).Run(context.Background()); err == nil {
		t.Fatal("Expected error for missing log file")
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("ok\x1b[31m\ttab\n"); got != "ok[31m\ttab\n" {
		t.Errorf("sanitize() = %q", got)
	}
}
