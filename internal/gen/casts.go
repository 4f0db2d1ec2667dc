package gen

import (
	"github.com/limec/limec/internal/types"
	"llvm.org/llvm/bindings/go/llvm"
)

// Generator implements types.Builder so the cast table can emit a
// conversion without the types package depending on the LLVM
// bindings. Every method assumes v is an llvm.Value produced by this
// same Generator's current insertion point.

func (g *Generator) SignExtend(v interface{}, to *types.Type) interface{} {
	return g.b.CreateSExt(v.(llvm.Value), g.llvmTypeOf(to), "")
}

func (g *Generator) Truncate(v interface{}, to *types.Type) interface{} {
	return g.b.CreateTrunc(v.(llvm.Value), g.llvmTypeOf(to), "")
}

func (g *Generator) FloatToInt(v interface{}, to *types.Type) interface{} {
	return g.b.CreateFPToSI(v.(llvm.Value), g.llvmTypeOf(to), "")
}

func (g *Generator) IntToFloat(v interface{}, to *types.Type) interface{} {
	return g.b.CreateSIToFP(v.(llvm.Value), g.llvmTypeOf(to), "")
}
