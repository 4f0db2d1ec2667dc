package parser

import (
	"testing"

	"github.com/limec/limec/internal/ast"
	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/lex"
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
)

func parse(t *testing.T, src string) ([]ast.Stmt, bool, *common.ErrorList) {
	t.Helper()
	errs := &common.ErrorList{}
	lx := lex.New(&token.File{Filename: "test.lm", Src: []byte(src)}, errs)
	reg := types.NewRegistry()
	p := New(lx, errs, reg)
	decls, ok := p.Parse()
	return decls, ok, errs
}

func TestParseGlobalVarDef(t *testing.T) {
	decls, ok, errs := parse(t, "a := 3; b := a + 4;")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	if len(decls) != 2 {
		t.Fatalf("got %d decls, want 2", len(decls))
	}
	b, isVarDef := decls[1].(*ast.VarDef)
	if !isVarDef {
		t.Fatalf("decls[1] = %T, want *ast.VarDef", decls[1])
	}
	if b.DeclaredType.Name != types.Int32 {
		t.Fatalf("b has type %q, want int32", b.DeclaredType.Name)
	}
	bin, isBinary := b.Init.(*ast.Binary)
	if !isBinary {
		t.Fatalf("b.Init = %T, want *ast.Binary", b.Init)
	}
	if bin.Op != ast.Add {
		t.Fatalf("bin.Op = %v, want Add", bin.Op)
	}
}

// The parser does not reject assignment to a const binding — it only
// records the modifier. Rejection is a lowering-time concern (the
// generator refuses to emit a Store to a const slot); see gen's tests.
func TestParseRecordsConstModifierWithoutRejecting(t *testing.T) {
	decls, ok, errs := parse(t, "a : const int32 = 1; f :: () { a = 2; }")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	def := decls[0].(*ast.VarDef)
	if !def.Mods.IsConst {
		t.Fatalf("expected a to be marked const")
	}
}

func TestParseFuncDefWithImplicitCastReturn(t *testing.T) {
	decls, ok, errs := parse(t, "f :: (x: int32) -> int64 { return x; }")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	fn, isFunc := decls[0].(*ast.FuncDef)
	if !isFunc {
		t.Fatalf("decls[0] = %T, want *ast.FuncDef", decls[0])
	}
	if fn.ReturnType.Name != types.Int64 {
		t.Fatalf("return type = %q, want int64", fn.ReturnType.Name)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("got %d body statements, want 1", len(fn.Body.Stmts))
	}
	ret, isReturn := fn.Body.Stmts[0].(*ast.Return)
	if !isReturn {
		t.Fatalf("body[0] = %T, want *ast.Return", fn.Body.Stmts[0])
	}
	load, isLoad := ret.Value.(*ast.Load)
	if !isLoad || load.Name != "x" {
		t.Fatalf("return value = %#v, want Load{x}", ret.Value)
	}
}

func TestParseBranch(t *testing.T) {
	decls, ok, errs := parse(t,
		"x := 1; y := 1; f :: () { if x < 10 { y = 1; } else { y = 2; } }")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	fn, isFunc := decls[2].(*ast.FuncDef)
	if !isFunc {
		t.Fatalf("decls[2] = %T, want *ast.FuncDef", decls[2])
	}
	branch, isBranch := fn.Body.Stmts[0].(*ast.Branch)
	if !isBranch {
		t.Fatalf("body[0] = %T, want *ast.Branch", fn.Body.Stmts[0])
	}
	if branch.Else == nil {
		t.Fatalf("expected an else arm")
	}
	cond, isBinary := branch.Cond.(*ast.Binary)
	if !isBinary || cond.Op != ast.Lt {
		t.Fatalf("cond = %#v, want Binary{Lt}", branch.Cond)
	}
}

func TestParseImportPrototypeAndCall(t *testing.T) {
	decls, ok, errs := parse(t, `import printf :: (*int8, ...);
main :: () { printf("hi", 1); }`)
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	imp, isImport := decls[0].(*ast.Import)
	if !isImport {
		t.Fatalf("decls[0] = %T, want *ast.Import", decls[0])
	}
	if !imp.Inner.Variadic {
		t.Fatalf("expected printf prototype to be variadic")
	}
	fn, isFunc := decls[1].(*ast.FuncDef)
	if !isFunc {
		t.Fatalf("decls[1] = %T, want *ast.FuncDef", decls[1])
	}
	stmt, isExprStmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	if !isExprStmt {
		t.Fatalf("body[0] = %T, want *ast.ExprStmt", fn.Body.Stmts[0])
	}
	call, isCall := stmt.X.(*ast.Call)
	if !isCall {
		t.Fatalf("stmt.X = %T, want *ast.Call", stmt.X)
	}
	if call.Target == nil {
		t.Fatalf("call.Target was not back-patched")
	}
	if call.Target.Name != "printf" {
		t.Fatalf("call.Target.Name = %q, want printf", call.Target.Name)
	}
}

func TestParseDerefAssign(t *testing.T) {
	decls, ok, errs := parse(t, "p : *int32; f :: () { *p = 5; }")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	fn, isFunc := decls[1].(*ast.FuncDef)
	if !isFunc {
		t.Fatalf("decls[1] = %T, want *ast.FuncDef", decls[1])
	}
	store, isStore := fn.Body.Stmts[0].(*ast.Store)
	if !isStore {
		t.Fatalf("body[0] = %T, want *ast.Store", fn.Body.Stmts[0])
	}
	if !store.StoreIntoLoad {
		t.Fatalf("expected StoreIntoLoad=true for *p = 5")
	}
	if store.Name != "p" {
		t.Fatalf("store.Name = %q, want p", store.Name)
	}
}

func TestParsePostIncSuppressesLoad(t *testing.T) {
	decls, ok, errs := parse(t, "a := 1; b := a++;")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	b := decls[1].(*ast.VarDef)
	unary, isUnary := b.Init.(*ast.Unary)
	if !isUnary || unary.Op != ast.PostInc {
		t.Fatalf("b.Init = %#v, want Unary{PostInc}", b.Init)
	}
	load, isLoad := unary.Operand.(*ast.Load)
	if !isLoad {
		t.Fatalf("operand = %T, want *ast.Load", unary.Operand)
	}
	if load.EmitLoad {
		t.Fatalf("expected EmitLoad=false on the pre/post-inc operand")
	}
}

func TestParseUndefinedVariableFails(t *testing.T) {
	_, ok, errs := parse(t, "a := b + 1;")
	if ok {
		t.Fatalf("expected failure referencing undefined variable b")
	}
	if !errs.IsError() {
		t.Fatalf("expected at least one recorded error")
	}
}

func TestParseCallArityMismatchFails(t *testing.T) {
	_, ok, errs := parse(t, `f :: (x: int32) { return; }
g :: () { f(1, 2); }`)
	if ok {
		t.Fatalf("expected an arity mismatch failure")
	}
	_ = errs
}

func TestParseFuncRedefinitionFails(t *testing.T) {
	_, ok, errs := parse(t, `f :: (x: int32) { return; }
f :: (y: int32) { return; }`)
	if ok {
		t.Fatalf("expected failure: f is defined twice")
	}
	if !errs.IsError() {
		t.Fatalf("expected at least one recorded error")
	}
}

func TestParseImportRedefinedByFuncDefFails(t *testing.T) {
	_, ok, errs := parse(t, `import printf :: (*int8, ...);
printf :: (x: int32) { return; }`)
	if ok {
		t.Fatalf("expected failure: printf redefines an imported prototype")
	}
	if !errs.IsError() {
		t.Fatalf("expected at least one recorded error")
	}
}

func TestParseDuplicateImportFails(t *testing.T) {
	_, ok, errs := parse(t, `import printf :: (*int8, ...);
import printf :: (*int8, ...);`)
	if ok {
		t.Fatalf("expected failure: printf is imported twice")
	}
	if !errs.IsError() {
		t.Fatalf("expected at least one recorded error")
	}
}

func TestParseDuplicateParamNameFails(t *testing.T) {
	_, ok, errs := parse(t, "f :: (x: int32, x: int32) -> int32 { return x; }")
	if ok {
		t.Fatalf("expected failure: duplicate parameter name x")
	}
	if !errs.IsError() {
		t.Fatalf("expected at least one recorded error")
	}
}

func TestParseStructDef(t *testing.T) {
	decls, ok, errs := parse(t, "Point :: struct { x: int32; y: int32; }")
	if !ok {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	sd, isStruct := decls[0].(*ast.StructDef)
	if !isStruct {
		t.Fatalf("decls[0] = %T, want *ast.StructDef", decls[0])
	}
	if len(sd.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(sd.Members))
	}
}
