package common

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/limec/limec/internal/token"
)

// BuildContext carries the state of a single compilation: its source file
// and the diagnostics accumulated against it. One BuildContext per
// compilation; nothing inside it survives across compilations.
type BuildContext struct {
	File   *token.File
	Errors *ErrorList
}

// NewBuildContext creates a context scoped to a single source file.
func NewBuildContext(file *token.File) *BuildContext {
	return &BuildContext{File: file, Errors: &ErrorList{}}
}

// IsError reports whether any compile error was recorded.
func (ctx *BuildContext) IsError() bool {
	return ctx.Errors.IsError()
}

// FormatErrors sorts diagnostics and attaches a source-line caret to each,
// mirroring how the teacher's driver renders compiler output.
func (ctx *BuildContext) FormatErrors() {
	ctx.Errors.Sort()
	ctx.attachContext(ctx.Errors.Warnings)
	ctx.attachContext(ctx.Errors.Errors)
}

var notWSRegex = regexp.MustCompile(`\S`)

func (ctx *BuildContext) sourceLines() []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(ctx.File.Src))
	scanner.Split(bufio.ScanLines)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

func (ctx *BuildContext) attachContext(errs []*Error) {
	var lines []string
	for _, e := range errs {
		if len(e.Context) > 0 || !e.Pos.IsValid() {
			continue
		}
		if lines == nil {
			lines = ctx.sourceLines()
		}
		linePos := e.Pos.Line - 1
		if linePos < 0 || linePos >= len(lines) {
			continue
		}
		line := lines[linePos]
		columnPos := e.Pos.Column - 1
		if columnPos < 0 || columnPos > len(line) {
			continue
		}
		mark := notWSRegex.ReplaceAllString(line[:columnPos], " ")
		markLen := e.EndPos.Column - e.Pos.Column
		if e.EndPos.Line == e.Pos.Line && markLen > 1 && columnPos+markLen <= len(line) {
			mark += BoldGreen(strings.Repeat("~", markLen))
		} else {
			mark += BoldGreen("^")
		}
		e.Context = append(e.Context, line, mark)
	}
}
