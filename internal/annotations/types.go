package annotations

import (
	"fmt"
	"strings"
)

// LiteralKind represents the kind of value an annotation argument carries
type LiteralKind int

const (
	PathLiteral LiteralKind = iota
	StringLiteral
	BoolLiteral
	NumberLiteral
)

// String returns the string representation of the literal kind
func (k LiteralKind) String() string {
	switch k {
	case PathLiteral:
		return "path"
	case StringLiteral:
		return "string"
	case BoolLiteral:
		return "bool"
	case NumberLiteral:
		return "number"
	default:
		return "unknown"
	}
}

// SourceLocation represents the location of an annotation in source code.
// Annotations compiled by reflection have no line; File then names the
// type or field the tag belongs to and Column is relative to the tag value.
type SourceLocation struct {
	File   string // File path, or Type.Field for reflected tags
	Line   int    // Line number (1-based), 0 when unknown
	Column int    // Column number (1-based)
}

// String renders the location the way compilers do
func (l SourceLocation) String() string {
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:col %d", l.File, l.Column)
	}
	return l.File
}

// At returns the location shifted by a byte offset into the annotation text
func (l SourceLocation) At(offset int) SourceLocation {
	shifted := l
	if shifted.Column == 0 {
		shifted.Column = 1
	}
	shifted.Column += offset
	return shifted
}

// Argument is a single entry of an annotation argument list.
// Positional arguments have an empty Name.
type Argument struct {
	Name     string         // name for `name = value` arguments
	Kind     LiteralKind    // kind of the value
	Path     []string       // segments for PathLiteral values
	Text     string         // unquoted string, or the number text
	Bool     bool           // value of BoolLiteral
	Position int            // declared position in the argument list (0-based)
	Raw      string         // source text of the whole argument
	Location SourceLocation // where the argument starts
}

// Named reports whether the argument was written as `name = value`
func (a Argument) Named() bool {
	return a.Name != ""
}

// IsIdent reports whether the argument is the bare identifier name
func (a Argument) IsIdent(name string) bool {
	return !a.Named() && a.Kind == PathLiteral && len(a.Path) == 1 && a.Path[0] == name
}

// PathString joins the path segments with dots
func (a Argument) PathString() string {
	return strings.Join(a.Path, ".")
}

// String returns the source text of the argument
func (a Argument) String() string {
	if a.Raw != "" {
		return a.Raw
	}
	switch a.Kind {
	case StringLiteral:
		return withName(a.Name, fmt.Sprintf("%q", a.Text))
	case BoolLiteral:
		return withName(a.Name, fmt.Sprintf("%t", a.Bool))
	case NumberLiteral:
		return withName(a.Name, a.Text)
	default:
		return withName(a.Name, a.PathString())
	}
}

func withName(name, value string) string {
	if name == "" {
		return value
	}
	return name + " = " + value
}
