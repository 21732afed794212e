package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters of one analyzer run
type Metrics struct {
	Registry         *prometheus.Registry
	Lines            *prometheus.CounterVec
	SuspiciousEvents prometheus.Counter
	Alerts           prometheus.Counter
	ReportRows       prometheus.Counter
}

// New creates the counters on a private registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "log_analyzer_lines_total",
			Help: "Log lines read, by parse result.",
		}, []string{"result"}),
		SuspiciousEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "log_analyzer_suspicious_events_total",
			Help: "Parsed events whose action is in the suspicious set.",
		}),
		Alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "log_analyzer_alerts_total",
			Help: "Sliding-window alerts generated.",
		}),
		ReportRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "log_analyzer_report_rows_total",
			Help: "Rows written to the CSV report.",
		}),
	}
	m.Registry.MustRegister(m.Lines, m.SuspiciousEvents, m.Alerts, m.ReportRows)
	return m
}

func (m *Metrics) LineParsed() {
	m.Lines.WithLabelValues("parsed").Inc()
}

func (m *Metrics) LineMalformed() {
	m.Lines.WithLabelValues("malformed").Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
