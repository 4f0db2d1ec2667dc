package gen

import (
	"fmt"

	"github.com/limec/limec/internal/types"
	"llvm.org/llvm/bindings/go/llvm"
)

// llvmTypeOf resolves t's lowering handle, caching it on t.Backing so
// repeated references to the same interned Type reuse one llvm.Type.
// Primitive backings bind to the toolchain's equivalents; pointer
// primitives bind to the toolchain's pointer-to-primitive; record
// types bind to aggregates whose element order matches Fields.
func (g *Generator) llvmTypeOf(t *types.Type) llvm.Type {
	if t.Backing != nil {
		return t.Backing.(llvm.Type)
	}
	var lt llvm.Type
	switch t.Kind {
	case types.Primitive:
		lt = g.llvmPrimitive(t)
	case types.Pointer:
		elem := g.llvmTypeOf(t.Elem)
		if t.Elem.IsVoid() {
			lt = llvm.PointerType(llvm.Int8Type(), 0)
		} else {
			lt = llvm.PointerType(elem, 0)
		}
	case types.Record:
		// Bind an opaque placeholder first so a field that refers
		// back to this record (through a pointer) does not recurse.
		named := g.ctx.StructCreateNamed(t.Name)
		t.Backing = named
		fields := make([]llvm.Type, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = g.llvmTypeOf(f.Type)
		}
		named.StructSetBody(fields, false)
		return named
	default:
		panic(fmt.Sprintf("gen: unhandled type kind %v for %q", t.Kind, t.Name))
	}
	t.Backing = lt
	return lt
}

func (g *Generator) llvmPrimitive(t *types.Type) llvm.Type {
	switch t.Name {
	case types.Int8:
		return llvm.Int8Type()
	case types.Int32:
		return llvm.Int32Type()
	case types.Int64:
		return llvm.Int64Type()
	case types.Float:
		return llvm.FloatType()
	case types.Bool:
		return llvm.Int1Type()
	case types.String:
		return llvm.PointerType(llvm.Int8Type(), 0)
	case types.Void:
		return llvm.VoidType()
	default:
		panic(fmt.Sprintf("gen: unknown primitive %q", t.Name))
	}
}
