package gen

import (
	"fmt"

	"github.com/limec/limec/internal/ast"
	"llvm.org/llvm/bindings/go/llvm"
)

// lookupVar resolves name against the locals table first, falling
// back to globals — the same innermost-first-then-global shape the
// scope stack uses at parse time, collapsed to two tables because a
// function body never nests its own separate frame of slots.
func (g *Generator) lookupVar(name string) (namedValue, bool) {
	if nv, ok := g.locals[name]; ok {
		return nv, true
	}
	if nv, ok := g.globals[name]; ok {
		return nv, true
	}
	return namedValue{}, false
}

// lowerCompound lowers every statement in c in order, stopping early
// if one of them terminates the block (a Return, or a Branch whose
// both arms terminate). It reports whether the block was left
// terminated.
func (g *Generator) lowerCompound(c *ast.Compound) (terminated bool) {
	for _, s := range c.Stmts {
		if g.lowerStmt(s) {
			return true
		}
	}
	return false
}

func (g *Generator) lowerStmt(s ast.Stmt) (terminated bool) {
	switch s := s.(type) {
	case *ast.VarDef:
		g.lowerLocalVarDef(s)
	case *ast.Store:
		g.lowerStore(s)
	case *ast.ExprStmt:
		g.lowerExprVal(s.X)
	case *ast.Return:
		g.lowerReturn(s)
		return true
	case *ast.Branch:
		return g.lowerBranch(s)
	case *ast.Compound:
		return g.lowerCompound(s)
	default:
		panic(fmt.Sprintf("gen: unhandled statement %T", s))
	}
	return false
}

func (g *Generator) lowerLocalVarDef(vd *ast.VarDef) {
	t := vd.DeclaredType
	slot := g.b.CreateAlloca(g.llvmTypeOf(t), vd.Name)
	g.locals[vd.Name] = namedValue{slot: slot, typ: t, mods: vd.Mods}

	if vd.Init != nil {
		val := g.lowerExprVal(vd.Init)
		val = g.coerce(vd.Init.Pos(), val, vd.Init.Type(), t)
		g.b.CreateStore(val, slot)
	}
}

// lowerStore lowers a Store{name, value, store_into_load}. A plain or
// compound assignment rejects a const target outright; the
// store-into-load form (the lowering of "*p = v") loads the pointer
// held in p's own slot and stores through that, after coercing value
// to p's pointee type rather than to p's own type.
func (g *Generator) lowerStore(s *ast.Store) {
	nv, ok := g.lookupVar(s.Name)
	if !ok {
		g.errors.AddCompileError(s.Pos(), "internal error: undefined variable %q in store", s.Name)
		return
	}
	if nv.mods.IsConst {
		g.errors.AddCompileError(s.Pos(), "cannot assign to const variable %q", s.Name)
		return
	}

	val := g.lowerExprVal(s.Value)

	if s.StoreIntoLoad {
		pointee := nv.typ.Elem
		val = g.coerce(s.Pos(), val, s.Value.Type(), pointee)
		ptr := g.b.CreateLoad(nv.slot, "")
		g.b.CreateStore(val, ptr)
		return
	}

	val = g.coerce(s.Pos(), val, s.Value.Type(), nv.typ)
	g.b.CreateStore(val, nv.slot)
}

func (g *Generator) lowerReturn(r *ast.Return) {
	if r.Value == nil {
		g.b.CreateRetVoid()
		return
	}
	val := g.lowerExprVal(r.Value)
	val = g.coerce(r.Pos(), val, r.Value.Type(), g.fnDef.ReturnType)
	g.b.CreateRet(val)
}

// lowerBranch always emits three blocks — then, else, end — even when
// the source has no else arm, so an else-less if still lowers the
// same shape the lowering contract names. An arm that does not
// terminate with a return falls through to end with an unconditional
// branch; the compound statement is terminated only when both arms
// terminate on their own, in which case nothing reaches end and it is
// closed with an unreachable terminator.
func (g *Generator) lowerBranch(br *ast.Branch) bool {
	thenBlock := llvm.AddBasicBlock(g.fn, "if.then")
	elseBlock := llvm.AddBasicBlock(g.fn, "if.else")
	endBlock := llvm.AddBasicBlock(g.fn, "if.end")

	cond := g.lowerExprVal(br.Cond)
	g.b.CreateCondBr(cond, thenBlock, elseBlock)

	g.b.SetInsertPointAtEnd(thenBlock)
	thenTerminated := g.lowerCompound(br.Then)
	if !thenTerminated {
		g.b.CreateBr(endBlock)
	}

	g.b.SetInsertPointAtEnd(elseBlock)
	elseTerminated := false
	if br.Else != nil {
		elseTerminated = g.lowerCompound(br.Else)
	}
	if !elseTerminated {
		g.b.CreateBr(endBlock)
	}

	g.b.SetInsertPointAtEnd(endBlock)
	if thenTerminated && elseTerminated {
		g.b.CreateUnreachable()
	}
	return thenTerminated && elseTerminated
}
