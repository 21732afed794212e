package types

import "time"

// TimestampLayout is the timestamp format used in log lines, reports and sinks
const TimestampLayout = "2006-01-02 15:04:05"

// LogEvent is one successfully parsed log line
type LogEvent struct {
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	IP        string    `json:"ip"`
	Action    string    `json:"action"`
}

// Key returns the aggregation key of the event
func (e LogEvent) Key() ActivityKey {
	return ActivityKey{User: e.User, IP: e.IP}
}

// MalformedLine records a line the parser could not understand
type MalformedLine struct {
	ReceivedAt time.Time
	Raw        string
}

// ActivityKey identifies one aggregation bucket
type ActivityKey struct {
	User string `json:"user"`
	IP   string `json:"ip"`
}

// Alert is raised when a trailing window holds at least threshold suspicious events
type Alert struct {
	Key           ActivityKey `json:"key"`
	WindowCount   int         `json:"window_count"`
	WindowMinutes int         `json:"window_minutes"`
	GeneratedAt   time.Time   `json:"generated_at"`
	Summary       string      `json:"summary"`
	Explanation   string      `json:"explanation,omitempty"`
}

// Line renders the alert as written to the alert sink
func (a Alert) Line() string {
	return "[" + a.GeneratedAt.Format(TimestampLayout) + "] ALERT: " + a.Summary
}

// Config represents the application configuration.
// Required keys are pointers or slices so a missing key can be told apart from a zero value.
type Config struct {
	Threshold         *int     `json:"threshold" yaml:"threshold"`
	TimeWindowMinutes *int     `json:"time_window_minutes" yaml:"time_window_minutes"`
	LogFile           string   `json:"log_file" yaml:"log_file"`
	ReportFile        string   `json:"report_file" yaml:"report_file"`
	AnalyzedLogFile   string   `json:"analyzed_log_file" yaml:"analyzed_log_file"`
	SuspiciousActions []string `json:"suspicious_actions" yaml:"suspicious_actions"`

	AlertLogFile     string `json:"alert_log_file" yaml:"alert_log_file"`
	MalformedLogFile string `json:"malformed_log_file" yaml:"malformed_log_file"`
	AuditLogFile     string `json:"audit_log_file" yaml:"audit_log_file"`
	StateDB          string `json:"state_db" yaml:"state_db"`
	MetricsFile      string `json:"metrics_file" yaml:"metrics_file"`

	Notification struct {
		DiscordWebhook string `json:"discord_webhook" yaml:"discord_webhook"`
	} `json:"notification" yaml:"notification"`

	Explain struct {
		EnableLocalLLM bool   `json:"enable_local_llm" yaml:"enable_local_llm"`
		LocalLLMUrl    string `json:"local_llm_url" yaml:"local_llm_url"`     // e.g. http://localhost:11434/api/generate
		LocalLLMModel  string `json:"local_llm_model" yaml:"local_llm_model"` // e.g. tinyllama
	} `json:"explain" yaml:"explain"`
}

// ThresholdValue returns the configured threshold, zero if unset
func (c *Config) ThresholdValue() int {
	if c.Threshold == nil {
		return 0
	}
	return *c.Threshold
}

// WindowMinutes returns the configured window length, zero if unset
func (c *Config) WindowMinutes() int {
	if c.TimeWindowMinutes == nil {
		return 0
	}
	return *c.TimeWindowMinutes
}

// Window returns the detection window as a duration
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowMinutes()) * time.Minute
}
