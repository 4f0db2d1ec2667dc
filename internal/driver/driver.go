// Package driver orchestrates one compilation end to end: Lexer ->
// Parser -> Generator, strictly sequential and synchronous, with no
// state surviving across calls to Compile.
package driver

import (
	"path/filepath"
	"strings"

	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/gen"
	"github.com/limec/limec/internal/lex"
	"github.com/limec/limec/internal/parser"
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
)

// Result is the outcome of one compilation. IR is only meaningful
// when Succeeded is true; Errors carries every diagnostic recorded
// across every stage, success or failure, with source-line context
// already attached.
type Result struct {
	IR        string
	Succeeded bool
	Errors    *common.ErrorList
}

// Compile runs one compilation. Every piece of stage-scoped state —
// the type registry, the parser's scope stack, the generator's
// module/builder handles — is constructed fresh inside this call and
// discarded when it returns, so repeated calls never leak state
// between compilations.
func Compile(filename string, src []byte) *Result {
	ctx := common.NewBuildContext(&token.File{Filename: filename, Src: src})

	reg := types.NewRegistry()
	lx := lex.New(ctx.File, ctx.Errors)
	p := parser.New(lx, ctx.Errors, reg)

	decls, ok := p.Parse()
	if !ok {
		ctx.FormatErrors()
		return &Result{Errors: ctx.Errors}
	}

	g := gen.New(moduleName(filename), reg, ctx.Errors)
	defer g.Dispose()

	ir, ok := g.Generate(decls)
	ctx.FormatErrors()
	if !ok {
		return &Result{Errors: ctx.Errors}
	}

	return &Result{IR: ir, Succeeded: true, Errors: ctx.Errors}
}

func moduleName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
