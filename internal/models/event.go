package models

// Severity is the classification outcome for a single log line.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// MaxMessageLength caps the stored message text for a classified event.
const MaxMessageLength = 500

// ClassifiedEvent is one error-worthy log line after normalization and
// classification. Kernel events carry no level (flat I/O error events), so
// Level is omitted from JSON when empty.
type ClassifiedEvent struct {
	Level     Severity `json:"level,omitempty"`
	Msg       string   `json:"msg"`
	Timestamp string   `json:"timestamp"`
}

// ScanResult is the outcome of one classification pass over an entity's log
// window. Events preserve original log order; TotalMatches equals len(Events)
// for a real scan but is kept explicit so synthetic results stay well-formed.
type ScanResult struct {
	EntityID     string
	Events       []ClassifiedEvent
	TotalMatches int
}
