package gen

import (
	"strings"
	"testing"

	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/lex"
	"github.com/limec/limec/internal/parser"
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
)

// compile runs the full lex/parse/lower pipeline and returns the
// rendered IR text plus whether every stage succeeded.
func compile(t *testing.T, src string) (string, bool, *common.ErrorList) {
	t.Helper()
	errs := &common.ErrorList{}
	reg := types.NewRegistry()
	lx := lex.New(&token.File{Filename: "test.lm", Src: []byte(src)}, errs)
	p := parser.New(lx, errs, reg)
	decls, ok := p.Parse()
	if !ok {
		return "", false, errs
	}
	g := New("test", reg, errs)
	defer g.Dispose()
	out, ok := g.Generate(decls)
	return out, ok, errs
}

func TestGenerateSimpleFunction(t *testing.T) {
	ir, ok, errs := compile(t, `f :: (x: int32) -> int32 { return x + 1; }`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "define i32 @f(i32 %x)") {
		t.Fatalf("ir missing expected function signature:\n%s", ir)
	}
}

func TestGenerateGlobalVarDef(t *testing.T) {
	ir, ok, errs := compile(t, "a := 3;")
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "@a") {
		t.Fatalf("ir missing global @a:\n%s", ir)
	}
}

func TestGenerateBranchBothArmsReturn(t *testing.T) {
	ir, ok, errs := compile(t, `f :: (x: int32) -> int32 {
if x < 0 {
	return 0;
} else {
	return x;
}
}`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "icmp ult i32") {
		t.Fatalf("ir missing unsigned comparison for Lt:\n%s", ir)
	}
}

func TestGenerateMissingReturnFails(t *testing.T) {
	_, ok, errs := compile(t, `f :: (x: int32) -> int32 { y := 1; }`)
	if ok {
		t.Fatalf("expected failure: non-void function falls through without a return")
	}
	if !errs.IsError() {
		t.Fatalf("expected a recorded error")
	}
}

func TestGenerateStoreToConstFails(t *testing.T) {
	_, ok, errs := compile(t, `f :: () { a : const int32 = 1; a = 2; return; }`)
	if ok {
		t.Fatalf("expected failure: store to const variable")
	}
	if !errs.IsError() {
		t.Fatalf("expected a recorded error")
	}
}

func TestGenerateImplicitCastWarns(t *testing.T) {
	ir, ok, errs := compile(t, `f :: (x: int64) -> int64 { y : int32 = 1; return y; }`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if len(errs.Warnings) == 0 {
		t.Fatalf("expected an implicit-cast warning when returning int32 from an int64 function")
	}
	if !strings.Contains(ir, "sext i32") {
		t.Fatalf("ir missing sext for the int32->int64 implicit cast:\n%s", ir)
	}
}

func TestGeneratePointerDerefStore(t *testing.T) {
	ir, ok, errs := compile(t, `f :: (p: *int32) {
*p = 5;
return;
}`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "store i32 5") {
		t.Fatalf("ir missing store through the dereferenced pointer:\n%s", ir)
	}
}

func TestGenerateCallArgumentCast(t *testing.T) {
	ir, ok, errs := compile(t, `g :: (x: int64) { return; }
f :: (y: int32) {
g(y);
return;
}`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "call void @g") {
		t.Fatalf("ir missing call to g:\n%s", ir)
	}
}

func TestGenerateStructBacking(t *testing.T) {
	ir, ok, errs := compile(t, `Point :: struct { x: int32; y: int32; }
f :: (p: *Point) -> int32 { return 0; }`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "%Point = type { i32, i32 }") {
		t.Fatalf("ir missing Point's struct backing:\n%s", ir)
	}
}

func TestGenerateImportPrototypeHasNoBody(t *testing.T) {
	ir, ok, errs := compile(t, `import printf :: (*int8, ...);`)
	if !ok {
		t.Fatalf("generate failed: %v", errs.Errors)
	}
	if !strings.Contains(ir, "declare") {
		t.Fatalf("ir missing a bare declaration for the imported prototype:\n%s", ir)
	}
}
