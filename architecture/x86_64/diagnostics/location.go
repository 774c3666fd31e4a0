package diagnostics

import "fmt"

// Location identifies a position an Entry refers to: a source line when the
// diagnostics concern preprocessing, or an instruction index and byte
// offset when they concern encoding. It is a value type, safe to copy and
// compare.
type Location struct {
	unit   string
	line   int
	column int
}

// Loc creates a Location. line/column follow source-position convention
// (1-based); pass 0 for column when referring to an entire instruction
// rather than a sub-position within it.
func Loc(unit string, line, column int) Location {
	return Location{unit: unit, line: line, column: column}
}

func (l Location) Unit() string { return l.unit }
func (l Location) Line() int    { return l.line }
func (l Location) Column() int  { return l.column }

// String returns "unit:line:column" or "unit:line" if column is 0.
func (l Location) String() string {
	if l.column == 0 {
		return fmt.Sprintf("%s:%d", l.unit, l.line)
	}
	return fmt.Sprintf("%s:%d:%d", l.unit, l.line, l.column)
}
