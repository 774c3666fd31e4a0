package diagnostics

import "fmt"

// Severity constants for entry classification.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
	SeverityTrace   = "trace"
)

// Entry is a single diagnostic event recorded during an encoding session.
//
// Entries are append-only: once created, their core fields (severity,
// phase, message, location) are immutable. The optional fields (snippet,
// hint) can be set via the With* chaining methods before the entry is
// considered complete.
type Entry struct {
	severity string
	phase    string
	message  string
	location Location
	snippet  string
	hint     string
}

func (e *Entry) Severity() string   { return e.severity }
func (e *Entry) Phase() string      { return e.phase }
func (e *Entry) Message() string    { return e.message }
func (e *Entry) Location() Location { return e.location }
func (e *Entry) Snippet() string    { return e.snippet }
func (e *Entry) Hint() string       { return e.hint }

// WithSnippet sets an associated source/byte snippet and returns the same
// *Entry for chaining.
func (e *Entry) WithSnippet(text string) *Entry {
	e.snippet = text
	return e
}

// WithHint sets a fix suggestion and returns the same *Entry for chaining.
func (e *Entry) WithHint(text string) *Entry {
	e.hint = text
	return e
}

// String returns a single-line representation: "severity [phase] location: message".
func (e *Entry) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", e.severity, e.phase, e.location.String(), e.message)
}
