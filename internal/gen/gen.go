// Package gen lowers a parsed AST into textual LLVM IR. The Generator
// owns the module-scoped state the teacher's own backend keeps
// (current insertion block, current function, a named-value table,
// the type registry's lowering backings) but threads it through an
// explicit receiver instead of the package-level globals an earlier
// design would have reached for.
//
// Integer equality and ordering comparisons always lower to LLVM's
// unsigned predicates, and floating comparisons always lower to the
// unordered (U*) predicates, regardless of which comparison operator
// was written. A comparison against NaN therefore behaves the way
// LLVM's unordered predicates define it, not the way a signed/ordered
// reading would suggest.
package gen

import (
	"fmt"

	"github.com/limec/limec/internal/ast"
	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
	"llvm.org/llvm/bindings/go/llvm"
)

// namedValue is one entry of the named-value table: a storage slot,
// the type it was declared with, and the modifiers that govern
// whether a Store may target it.
type namedValue struct {
	slot llvm.Value
	typ  *types.Type
	mods ast.Modifiers
}

// Generator lowers one compilation's AST into one llvm.Module. It is
// not safe for concurrent or repeated use; the pipeline driver
// constructs a fresh Generator per compilation.
type Generator struct {
	mod llvm.Module
	b   llvm.Builder
	ctx llvm.Context

	reg    *types.Registry
	casts  *types.CastTable
	errors *common.ErrorList

	globals map[string]namedValue
	locals  map[string]namedValue
	funcs   map[*ast.FuncDef]llvm.Value

	fn    llvm.Value
	fnDef *ast.FuncDef
}

// New returns a Generator that lowers into a fresh module named
// moduleName, reporting diagnostics into errors and resolving type
// backings against reg. The cast table is seeded with reg's default
// int32<->int64 conversions.
func New(moduleName string, reg *types.Registry, errors *common.ErrorList) *Generator {
	mod := llvm.NewModule(moduleName)
	return &Generator{
		mod:     mod,
		b:       llvm.NewBuilder(),
		ctx:     mod.Context(),
		reg:     reg,
		casts:   types.NewCastTable(reg),
		errors:  errors,
		globals: make(map[string]namedValue),
		funcs:   make(map[*ast.FuncDef]llvm.Value),
	}
}

// Dispose releases the underlying LLVM builder. Callers done with a
// Generator's result (Generate already returned the IR text) should
// call this before dropping the Generator.
func (g *Generator) Dispose() {
	g.b.Dispose()
}

// Generate lowers decls into the module and returns its textual IR.
// It runs in two passes, mirroring the teacher's own signature/body
// split: the first pass resolves every type backing and declares
// every global/function/prototype signature, so a forward reference
// to a function or global defined later in the file still resolves;
// the second pass fills in bodies and initializers. Generate reports
// ok=false, with diagnostics already recorded on errors, if either
// pass or the final verification fails.
func (g *Generator) Generate(decls []ast.Stmt) (ir string, ok bool) {
	for _, d := range decls {
		g.declareSignature(d)
	}
	if g.errors.IsError() {
		return "", false
	}

	for _, d := range decls {
		g.defineDecl(d)
	}
	if g.errors.IsError() {
		return "", false
	}

	if err := llvm.VerifyModule(g.mod, llvm.ReturnStatusAction); err != nil {
		g.errors.AddCompileError(token.NoPosition, "module failed verification: %v", err)
		return "", false
	}

	return g.mod.String(), true
}

func (g *Generator) declareSignature(d ast.Stmt) {
	switch d := d.(type) {
	case *ast.Import:
		g.declareFunc(d.Inner)
	case *ast.FuncDef:
		g.declareFunc(d)
	case *ast.VarDef:
		g.declareGlobal(d)
	case *ast.StructDef:
		g.bindStructBacking(d)
	default:
		panic(fmt.Sprintf("gen: unhandled top-level declaration %T", d))
	}
}

func (g *Generator) defineDecl(d ast.Stmt) {
	switch d := d.(type) {
	case *ast.Import:
		// A prototype never carries a body; its signature was already
		// declared in the first pass.
	case *ast.FuncDef:
		if d.Body != nil {
			g.defineFunc(d)
		}
	case *ast.VarDef:
		g.defineGlobal(d)
	case *ast.StructDef:
		// No code: the effect of a struct definition is entirely the
		// type backing bound during the signature pass.
	}
}

func (g *Generator) declareFunc(fd *ast.FuncDef) {
	if _, exists := g.funcs[fd]; exists {
		return
	}
	paramTypes := make([]llvm.Type, len(fd.Params))
	for i, p := range fd.Params {
		paramTypes[i] = g.llvmTypeOf(p.Type)
	}
	retType := g.llvmTypeOf(fd.ReturnType)
	fnType := llvm.FunctionType(retType, paramTypes, fd.Variadic)
	fn := llvm.AddFunction(g.mod, fd.Name, fnType)
	fn.SetLinkage(llvm.ExternalLinkage)
	for i, p := range fd.Params {
		fn.Param(i).SetName(p.Name)
	}
	g.funcs[fd] = fn
}

func (g *Generator) declareGlobal(vd *ast.VarDef) {
	t := vd.DeclaredType
	loc := llvm.AddGlobal(g.mod, g.llvmTypeOf(t), vd.Name)
	loc.SetLinkage(llvm.CommonLinkage)
	loc.SetInitializer(llvm.ConstNull(g.llvmTypeOf(t)))
	g.globals[vd.Name] = namedValue{slot: loc, typ: t, mods: vd.Mods}
}

func (g *Generator) bindStructBacking(sd *ast.StructDef) {
	t, err := g.reg.Get(sd.Name)
	if err != nil {
		g.errors.AddCompileError(sd.Pos(), "%v", err)
		return
	}
	g.llvmTypeOf(t)
}

// defineGlobal evaluates vd's initializer, which must be a constant
// expression, and binds it as the global's initializer, overriding
// the zero value declareGlobal bound as a placeholder.
func (g *Generator) defineGlobal(vd *ast.VarDef) {
	if vd.Init == nil {
		return
	}
	nv := g.globals[vd.Name]
	val := g.lowerConstExpr(vd.Init)
	val = g.constCoerce(vd.Pos(), val, vd.Init.Type(), vd.DeclaredType)
	nv.slot.SetInitializer(val)
}

// defineFunc lowers fd's body. The named-value table's locals half is
// reset on entry (this function's parameters, nothing from any prior
// function) and dropped again on exit, so a function never observes
// another function's stack slots.
func (g *Generator) defineFunc(fd *ast.FuncDef) {
	fn := g.funcs[fd]
	entry := llvm.AddBasicBlock(fn, "entry")
	g.b.SetInsertPointAtEnd(entry)

	g.locals = make(map[string]namedValue)
	g.fn = fn
	g.fnDef = fd

	for i, p := range fd.Params {
		pt := g.llvmTypeOf(p.Type)
		slot := g.b.CreateAlloca(pt, p.Name)
		g.b.CreateStore(fn.Param(i), slot)
		g.locals[p.Name] = namedValue{slot: slot, typ: p.Type}
	}

	terminated := g.lowerCompound(fd.Body)
	if !terminated {
		if fd.ReturnType.IsVoid() {
			g.b.CreateRetVoid()
		} else {
			g.errors.AddCompileError(fd.Body.Pos(), "missing return in function %q", fd.Name)
		}
	}

	g.locals = nil
	g.fn = llvm.Value{}
	g.fnDef = nil

	if g.errors.IsError() {
		return
	}

	if err := llvm.VerifyFunction(fn, llvm.ReturnStatusAction); err != nil {
		g.errors.AddCompileError(fd.Pos(), "function %q failed verification: %v", fd.Name, err)
		fn.EraseFromParent()
		delete(g.funcs, fd)
	}
}
