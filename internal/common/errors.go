package common

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/limec/limec/internal/token"
)

// MessageID represents the severity of a diagnostic.
type MessageID int

// The message IDs.
const (
	ErrorMsg MessageID = iota
	WarningMsg
)

func (id MessageID) String() string {
	switch id {
	case ErrorMsg:
		return "error"
	case WarningMsg:
		return "warning"
	}
	return ""
}

// Kind identifies which pipeline stage raised an error, mirroring the
// four error kinds the language's diagnostics distinguish: a bad
// token, a malformed program shape, a type mismatch, or a lowering
// failure. It is only meaningful for ID == ErrorMsg; a warning is
// always an implicit-conversion notice, and its Kind is ignored when
// it is rendered.
type Kind int

// The error kinds a compilation can fail with.
const (
	LexError Kind = iota
	ParseError
	TypeError
	CompileError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case TypeError:
		return "type error"
	case CompileError:
		return "compile error"
	default:
		return "error"
	}
}

// Error is a single structured diagnostic: severity, kind, source
// line, message.
type Error struct {
	Pos     token.Position
	EndPos  token.Position
	ID      MessageID
	Kind    Kind
	Msg     string
	Context []string
}

// ErrorList accumulates diagnostics over one compilation. Warnings never
// block compilation; a non-empty Errors list does.
type ErrorList struct {
	Warnings []*Error
	Errors   []*Error
}

func NewError(pos, endPos token.Position, id MessageID, msg string) *Error {
	return &Error{Pos: pos, EndPos: endPos, ID: id, Kind: CompileError, Msg: msg}
}

func newKindError(pos token.Position, kind Kind, msg string) *Error {
	return &Error{Pos: pos, EndPos: pos, ID: ErrorMsg, Kind: kind, Msg: msg}
}

func (e Error) Error() string {
	id := ""
	if e.ID == ErrorMsg {
		id = BoldRed(e.Kind.String())
	} else {
		id = BoldYellow(e.ID.String())
	}

	var msg string
	switch {
	case e.Pos.IsValid():
		msg = fmt.Sprintf("%s: %s: %s", e.Pos, id, e.Msg)
	case len(e.Pos.Filename) > 0:
		msg = fmt.Sprintf("%s: %s: %s", e.Pos.Filename, id, e.Msg)
	default:
		msg = fmt.Sprintf("%s: %s", id, e.Msg)
	}

	var buf bytes.Buffer
	buf.WriteString(msg)
	for _, l := range e.Context {
		buf.WriteString("\n")
		buf.WriteString(l)
	}
	return buf.String()
}

// Add records an error at pos with the generic CompileError kind that
// NewError assigns. Prefer
// AddLexError/AddParseError/AddTypeError/AddCompileError at any call
// site that knows which stage is failing; Add remains for internal
// consistency checks that aren't really any one of the four.
func (e *ErrorList) Add(pos token.Position, format string, args ...interface{}) {
	e.Errors = append(e.Errors, NewError(pos, pos, ErrorMsg, fmt.Sprintf(format, args...)))
}

// AddLexError records a bad-token diagnostic.
func (e *ErrorList) AddLexError(pos token.Position, format string, args ...interface{}) {
	e.Errors = append(e.Errors, newKindError(pos, LexError, fmt.Sprintf(format, args...)))
}

// AddParseError records a malformed-program diagnostic: unexpected
// token, undefined identifier, duplicate definition, and the like.
func (e *ErrorList) AddParseError(pos token.Position, format string, args ...interface{}) {
	e.Errors = append(e.Errors, newKindError(pos, ParseError, fmt.Sprintf(format, args...)))
}

// AddTypeError records a type-mismatch diagnostic: no implicit
// conversion exists between the operand and target types.
func (e *ErrorList) AddTypeError(pos token.Position, format string, args ...interface{}) {
	e.Errors = append(e.Errors, newKindError(pos, TypeError, fmt.Sprintf(format, args...)))
}

// AddCompileError records a lowering-stage diagnostic: a construct
// the generator cannot turn into IR, or a verifier rejection.
func (e *ErrorList) AddCompileError(pos token.Position, format string, args ...interface{}) {
	e.Errors = append(e.Errors, newKindError(pos, CompileError, fmt.Sprintf(format, args...)))
}

// AddWarning records a warning at pos; warnings never fail compilation.
func (e *ErrorList) AddWarning(pos token.Position, format string, args ...interface{}) {
	e.Warnings = append(e.Warnings, NewError(pos, pos, WarningMsg, fmt.Sprintf(format, args...)))
}

// AddContext records a compile error carrying extra display lines (the
// offending source line plus a caret/underline).
func (e *ErrorList) AddContext(pos token.Position, context []string, format string, args ...interface{}) {
	err := NewError(pos, pos, ErrorMsg, fmt.Sprintf(format, args...))
	err.Context = context
	e.Errors = append(e.Errors, err)
}

// IsError reports whether any compile error (as opposed to warning) was
// recorded.
func (e *ErrorList) IsError() bool {
	return len(e.Errors) > 0
}

// Sort orders diagnostics by file, then line, then column.
func (e *ErrorList) Sort() {
	sort.Stable(byLineAndColumn(e.Warnings))
	sort.Stable(byLineAndColumn(e.Errors))
}

type byLineAndColumn []*Error

func (e byLineAndColumn) Len() int      { return len(e) }
func (e byLineAndColumn) Swap(i, j int) { e[i], e[j] = e[j], e[i] }
func (e byLineAndColumn) Less(i, j int) bool {
	if e[i].Pos.Filename != e[j].Pos.Filename {
		return e[i].Pos.Filename < e[j].Pos.Filename
	}
	if e[i].Pos.Line != e[j].Pos.Line {
		return e[i].Pos.Line < e[j].Pos.Line
	}
	return e[i].Pos.Column < e[j].Pos.Column
}

func (e ErrorList) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
	}
}
