package analyzer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"log-analyzer/internal/audit"
	"log-analyzer/internal/detect"
	"log-analyzer/internal/explain"
	"log-analyzer/internal/feature"
	"log-analyzer/internal/ingest"
	"log-analyzer/internal/metrics"
	"log-analyzer/internal/notify"
	"log-analyzer/internal/parser"
	"log-analyzer/internal/report"
	"log-analyzer/internal/sink"
	"log-analyzer/internal/state"
	"log-analyzer/internal/types"
)

// Analyzer runs one pass over a log file: parse, aggregate, report, detect
type Analyzer struct {
	cfg *types.Config

	analyzed  sink.Sink
	malformed sink.Sink
	alerts    sink.Sink

	explainer explain.Explainer
	audit     *audit.Logger
	notifier  notify.Notifier
	store     *state.Store
	metrics   *metrics.Metrics

	out io.Writer
	now func() time.Time
	loc *time.Location
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithSinks replaces the file-backed analyzed, malformed and alert sinks
func WithSinks(analyzed, malformed, alerts sink.Sink) Option {
	return func(a *Analyzer) {
		a.analyzed = analyzed
		a.malformed = malformed
		a.alerts = alerts
	}
}

func WithExplainer(e explain.Explainer) Option {
	return func(a *Analyzer) { a.explainer = e }
}

func WithAuditLogger(l *audit.Logger) Option {
	return func(a *Analyzer) { a.audit = l }
}

func WithNotifier(n notify.Notifier) Option {
	return func(a *Analyzer) { a.notifier = n }
}

func WithStore(s *state.Store) Option {
	return func(a *Analyzer) { a.store = s }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithOutput sets where the human-readable report is printed
func WithOutput(w io.Writer) Option {
	return func(a *Analyzer) { a.out = w }
}

// WithClock overrides the clock used for malformed-line and alert stamps
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// WithLocation sets the time zone of log timestamps, UTC by default
func WithLocation(loc *time.Location) Option {
	return func(a *Analyzer) { a.loc = loc }
}

// New creates an analyzer for cfg. Without options it writes to the sink
// files named in cfg and prints to stdout.
func New(cfg *types.Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:       cfg,
		analyzed:  sink.NewFileSink(cfg.AnalyzedLogFile),
		malformed: sink.NewFileSink(cfg.MalformedLogFile),
		alerts:    sink.NewFileSink(cfg.AlertLogFile),
		explainer: explain.NewTemplateExplainer(),
		metrics:   metrics.New(),
		out:       os.Stdout,
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is everything one run produced
type Result struct {
	Attempts *feature.AttemptLog
	Rows     []report.Row
	Alerts   []types.Alert
	Run      state.Run
}

// Run analyzes cfg.LogFile from the start. Sink, report and store failures
// abort the run; explainer, notifier and metrics failures are only logged.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	run := state.Run{StartedAt: a.now(), LogFile: a.cfg.LogFile}

	attempts, err := a.aggregate(ctx, &run)
	if err != nil {
		return nil, err
	}

	threshold := a.cfg.ThresholdValue()
	rows := report.Rows(attempts, threshold)
	if err := report.WriteText(a.out, rows, threshold); err != nil {
		return nil, fmt.Errorf("failed to print report: %w", err)
	}
	if err := report.WriteCSVFile(a.cfg.ReportFile, rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		fmt.Fprintf(a.out, "CSV report entry: User '%s', IP %s, Attempts %d\n", r.Key.User, r.Key.IP, r.Count())
	}
	run.ReportRows = len(rows)
	a.metrics.ReportRows.Add(float64(len(rows)))

	engine := detect.NewEngine(threshold, a.cfg.WindowMinutes(), a.alerts, detect.WithClock(a.now))
	alerts, err := engine.Run(attempts)
	if err != nil {
		return nil, err
	}
	run.AlertCount = len(alerts)
	a.metrics.Alerts.Add(float64(len(alerts)))

	a.dispatch(ctx, alerts)

	run.FinishedAt = a.now()
	if a.store != nil {
		id, err := a.store.SaveRun(run, alerts)
		if err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
		run.ID = id
		log.Printf("[STATE] Saved run %s with %d alerts", id, len(alerts))
	}

	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			log.Printf("[METRICS] Failed to write %s: %v", a.cfg.MetricsFile, err)
		}
	}

	return &Result{Attempts: attempts, Rows: rows, Alerts: alerts, Run: run}, nil
}

func (a *Analyzer) aggregate(ctx context.Context, run *state.Run) (*feature.AttemptLog, error) {
	p := parser.NewKeyValueParser(a.analyzed, a.malformed,
		parser.WithLocation(a.loc),
		parser.WithClock(a.now),
	)
	acc := feature.NewAccumulator(a.cfg.SuspiciousActions)

	err := ingest.NewFileReader(a.cfg.LogFile).Lines(ctx, func(line ingest.LogLine) error {
		evt, err := p.Parse(line.Content)
		if err != nil {
			return fmt.Errorf("line %d: %w", line.Number, err)
		}
		if evt == nil {
			run.LinesMalformed++
			a.metrics.LineMalformed()
			return nil
		}
		run.LinesParsed++
		a.metrics.LineParsed()
		if acc.AddEvent(*evt) {
			run.SuspiciousCount++
			a.metrics.SuspiciousEvents.Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[INGEST] %s: %d parsed, %d malformed, %d suspicious", a.cfg.LogFile, run.LinesParsed, run.LinesMalformed, run.SuspiciousCount)
	return acc.Result(), nil
}

// dispatch explains, audits, notifies and prints the alerts of a run
func (a *Analyzer) dispatch(ctx context.Context, alerts []types.Alert) {
	if len(alerts) == 0 {
		return
	}

	for i := range alerts {
		if err := a.explainer.Explain(ctx, &alerts[i]); err != nil {
			log.Printf("[ALERT] Explainer failed, using template: %v", err)
		}
	}

	if a.audit != nil {
		if err := a.audit.LogAlerts(alerts); err != nil {
			log.Printf("Failed to write to audit log: %v", err)
		}
	}

	if a.notifier != nil {
		if err := a.notifier.Notify(ctx, alerts); err != nil {
			log.Printf("[NOTIFY] %v", err)
		}
	}

	fmt.Fprintln(a.out, "\nALERTS GENERATED:")
	for _, alert := range alerts {
		fmt.Fprintln(a.out, sanitize(alert.Line()))
	}
}
