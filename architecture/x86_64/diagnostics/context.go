// Package diagnostics provides a passive, append-only recorder for
// observations made during an encoding session: trace points, warnings, and
// errors tagged with the phase of the pipeline that produced them. It
// performs no I/O and no formatting decisions beyond Entry.String; a
// separate renderer (the CLI, or a test) consumes the entries.
package diagnostics

import "sync"

// Diagnostics accumulates Entry values as an encoding session progresses.
// It is safe for concurrent writes. Encoding outcomes never depend on it:
// a Session that never touches its Diagnostics field behaves identically
// to one that logs every step.
//
// Create a Diagnostics only through New. Pass it by reference; every
// pipeline stage that wants to record something writes into the same
// instance.
type Diagnostics struct {
	unit    string
	phase   string
	entries []*Entry
	mu      sync.Mutex
}

// New returns a *Diagnostics tagged with unit (typically a source file path
// or a synthetic identifier for the current assembly unit).
func New(unit string) *Diagnostics {
	return &Diagnostics{unit: unit, entries: make([]*Entry, 0)}
}

// SetPhase sets the current pipeline phase. Subsequent entries are tagged
// with this phase until it changes again.
func (d *Diagnostics) SetPhase(name string) {
	d.mu.Lock()
	d.phase = name
	d.mu.Unlock()
}

// Phase returns the current pipeline phase name.
func (d *Diagnostics) Phase() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

func (d *Diagnostics) record(severity string, location Location, message string) *Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := &Entry{severity: severity, phase: d.phase, message: message, location: location}
	d.entries = append(d.entries, entry)
	return entry
}

// Error records an entry with severity "error" and returns the *Entry for
// optional chaining (WithSnippet, WithHint).
func (d *Diagnostics) Error(location Location, message string) *Entry {
	return d.record(SeverityError, location, message)
}

// Warning records an entry with severity "warning".
func (d *Diagnostics) Warning(location Location, message string) *Entry {
	return d.record(SeverityWarning, location, message)
}

// Info records an entry with severity "info".
func (d *Diagnostics) Info(location Location, message string) *Entry {
	return d.record(SeverityInfo, location, message)
}

// Trace records an entry with severity "trace".
func (d *Diagnostics) Trace(location Location, message string) *Entry {
	return d.record(SeverityTrace, location, message)
}

// Entries returns all recorded entries in insertion order.
func (d *Diagnostics) Entries() []*Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]*Entry, len(d.entries))
	copy(result, d.entries)
	return result
}

// Errors returns only entries with severity "error".
func (d *Diagnostics) Errors() []*Entry {
	return d.filter(SeverityError)
}

// Warnings returns only entries with severity "warning".
func (d *Diagnostics) Warnings() []*Entry {
	return d.filter(SeverityWarning)
}

// HasErrors reports whether at least one "error" entry has been recorded.
func (d *Diagnostics) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, e := range d.entries {
		if e.severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the total number of entries.
func (d *Diagnostics) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Unit returns the identifier this diagnostics instance was created for.
func (d *Diagnostics) Unit() string {
	return d.unit
}

func (d *Diagnostics) filter(severity string) []*Entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result []*Entry
	for _, e := range d.entries {
		if e.severity == severity {
			result = append(result, e)
		}
	}
	return result
}
