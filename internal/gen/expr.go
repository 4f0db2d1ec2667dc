package gen

import (
	"fmt"

	"github.com/limec/limec/internal/ast"
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
	"llvm.org/llvm/bindings/go/llvm"
)

// lowerExprVal lowers e to a value. Every Expr variant but Load
// carries its own fixed value-vs-address behavior; Load alone
// switches on its EmitLoad flag, set once at parse time and never
// touched again except by the unary parser tightening it for
// address-of and pre/post inc-dec.
func (g *Generator) lowerExprVal(e ast.Expr) llvm.Value {
	switch e := e.(type) {
	case *ast.IntLit:
		return llvm.ConstInt(g.llvmTypeOf(e.Type()), uint64(e.Value), true)
	case *ast.FloatLit:
		return llvm.ConstFloat(g.llvmTypeOf(e.Type()), e.Value)
	case *ast.BoolLit:
		v := uint64(0)
		if e.Value {
			v = 1
		}
		return llvm.ConstInt(g.llvmTypeOf(e.Type()), v, false)
	case *ast.NullLit:
		return llvm.ConstPointerNull(g.llvmTypeOf(e.Type()))
	case *ast.StringLit:
		return g.b.CreateGlobalStringPtr(e.Value, ".str")
	case *ast.Load:
		return g.lowerLoad(e)
	case *ast.Unary:
		return g.lowerUnary(e)
	case *ast.Binary:
		return g.lowerBinary(e)
	case *ast.Call:
		return g.lowerCall(e)
	default:
		panic(fmt.Sprintf("gen: unhandled expression %T", e))
	}
}

func (g *Generator) lowerLoad(l *ast.Load) llvm.Value {
	nv, ok := g.lookupVar(l.Name)
	if !ok {
		g.errors.AddCompileError(l.Pos(), "internal error: undefined variable %q", l.Name)
		return llvm.Undef(g.llvmTypeOf(l.Type()))
	}
	if l.EmitLoad {
		return g.b.CreateLoad(nv.slot, l.Name)
	}
	return nv.slot
}

func (g *Generator) lowerUnary(u *ast.Unary) llvm.Value {
	switch u.Op {
	case ast.Not:
		val := g.lowerExprVal(u.Operand)
		return g.b.CreateNot(val, "")
	case ast.Neg:
		val := g.lowerExprVal(u.Operand)
		if u.Type().IsFloat() {
			return g.b.CreateFNeg(val, "")
		}
		return g.b.CreateNeg(val, "")
	case ast.PreInc, ast.PreDec:
		slot := g.lowerExprVal(u.Operand)
		cur := g.b.CreateLoad(slot, "")
		next := g.stepOne(cur, u.Type(), u.Op == ast.PreInc)
		g.b.CreateStore(next, slot)
		return next
	case ast.PostInc, ast.PostDec:
		slot := g.lowerExprVal(u.Operand)
		cur := g.b.CreateLoad(slot, "")
		tmp := g.b.CreateAlloca(g.llvmTypeOf(u.Type()), ".tmp")
		g.b.CreateStore(cur, tmp)
		next := g.stepOne(cur, u.Type(), u.Op == ast.PostInc)
		g.b.CreateStore(next, slot)
		return g.b.CreateLoad(tmp, "")
	case ast.AddressOf:
		return g.lowerExprVal(u.Operand)
	case ast.Deref:
		ptr := g.lowerExprVal(u.Operand)
		return g.b.CreateLoad(ptr, "")
	default:
		panic(fmt.Sprintf("gen: unhandled unary operator %s", u.Op))
	}
}

func (g *Generator) stepOne(cur llvm.Value, t *types.Type, inc bool) llvm.Value {
	if t.IsFloat() {
		one := llvm.ConstFloat(g.llvmTypeOf(t), 1.0)
		if inc {
			return g.b.CreateFAdd(cur, one, "")
		}
		return g.b.CreateFSub(cur, one, "")
	}
	one := llvm.ConstInt(g.llvmTypeOf(t), 1, false)
	if inc {
		return g.b.CreateAdd(cur, one, "")
	}
	return g.b.CreateSub(cur, one, "")
}

// lowerBinary lowers a non-assignment binary expression: pick the
// integer or floating variant by operand type, rejecting integer
// division outright. Comparisons always use the unsigned integer
// predicates or the unordered float predicates — see the package doc
// comment for what that means for NaN.
func (g *Generator) lowerBinary(b *ast.Binary) llvm.Value {
	left := g.lowerExprVal(b.Lhs)
	right := g.lowerExprVal(b.Rhs)

	lt, rt := b.Lhs.Type(), b.Rhs.Type()
	if lt != rt {
		right = g.coerce(b.Pos(), right, rt, lt)
	}

	if b.Op.IsCompare() {
		if lt.IsFloat() {
			return g.b.CreateFCmp(floatPredicate(b.Op), left, right, "")
		}
		return g.b.CreateICmp(intPredicate(b.Op), left, right, "")
	}

	if lt.IsFloat() {
		switch b.Op {
		case ast.Add:
			return g.b.CreateFAdd(left, right, "")
		case ast.Sub:
			return g.b.CreateFSub(left, right, "")
		case ast.Mul:
			return g.b.CreateFMul(left, right, "")
		case ast.Div:
			return g.b.CreateFDiv(left, right, "")
		}
	}

	switch b.Op {
	case ast.Add:
		return g.b.CreateAdd(left, right, "")
	case ast.Sub:
		return g.b.CreateSub(left, right, "")
	case ast.Mul:
		return g.b.CreateMul(left, right, "")
	case ast.Div:
		g.errors.AddCompileError(b.Pos(), "integer division is not supported")
		return left
	}

	panic(fmt.Sprintf("gen: unhandled binary operator %s", b.Op))
}

func floatPredicate(op ast.BinaryOp) llvm.FloatPredicate {
	switch op {
	case ast.Eq:
		return llvm.FloatUEQ
	case ast.Neq:
		return llvm.FloatUNE
	case ast.Lt:
		return llvm.FloatULT
	case ast.LtEq:
		return llvm.FloatULE
	case ast.Gt:
		return llvm.FloatUGT
	case ast.GtEq:
		return llvm.FloatUGE
	default:
		panic(fmt.Sprintf("gen: %s is not a comparison operator", op))
	}
}

func intPredicate(op ast.BinaryOp) llvm.IntPredicate {
	switch op {
	case ast.Eq:
		return llvm.IntEQ
	case ast.Neq:
		return llvm.IntNE
	case ast.Lt:
		return llvm.IntULT
	case ast.LtEq:
		return llvm.IntULE
	case ast.Gt:
		return llvm.IntUGT
	case ast.GtEq:
		return llvm.IntUGE
	default:
		panic(fmt.Sprintf("gen: %s is not a comparison operator", op))
	}
}

// lowerCall does not check arity itself (the parser already checked
// it against the prototype table at resolveCalls time); it coerces
// each fixed argument to its parameter type and emits the call.
func (g *Generator) lowerCall(c *ast.Call) llvm.Value {
	fn, ok := g.funcs[c.Target]
	if !ok {
		g.errors.AddCompileError(c.Pos(), "internal error: no function bound for call to %q", c.Callee)
		return llvm.Undef(g.llvmTypeOf(c.Type()))
	}

	args := make([]llvm.Value, 0, len(c.Args))
	for i, a := range c.Args {
		val := g.lowerExprVal(a)
		if i < len(c.Target.Params) {
			val = g.coerce(a.Pos(), val, a.Type(), c.Target.Params[i].Type)
		}
		args = append(args, val)
	}
	return g.b.CreateCall(fn, args, "")
}

// coerce applies the implicit-cast table when from and to disagree,
// warning on a successful conversion and failing compilation
// otherwise. Callers pass an already-lowered value in the insertion
// point's current function.
func (g *Generator) coerce(pos token.Position, val llvm.Value, from, to *types.Type) llvm.Value {
	if from == to {
		return val
	}
	res, converted, ok := g.casts.TryImplicit(g, from, to, val)
	if !ok {
		g.errors.AddTypeError(pos, "cannot implicitly convert %s to %s", from, to)
		return val
	}
	if converted {
		g.errors.AddWarning(pos, "implicit conversion from %s to %s", from, to)
	}
	return res.(llvm.Value)
}

// lowerConstExpr lowers a global initializer, which the lowering
// contract requires to be a constant expression — no load, call, or
// other instruction-producing node is legal here, since there is no
// current function for such an instruction to live in.
func (g *Generator) lowerConstExpr(e ast.Expr) llvm.Value {
	switch e := e.(type) {
	case *ast.IntLit:
		return llvm.ConstInt(g.llvmTypeOf(e.Type()), uint64(e.Value), true)
	case *ast.FloatLit:
		return llvm.ConstFloat(g.llvmTypeOf(e.Type()), e.Value)
	case *ast.BoolLit:
		v := uint64(0)
		if e.Value {
			v = 1
		}
		return llvm.ConstInt(g.llvmTypeOf(e.Type()), v, false)
	case *ast.NullLit:
		return llvm.ConstPointerNull(g.llvmTypeOf(e.Type()))
	case *ast.StringLit:
		strType := llvm.ArrayType(llvm.Int8Type(), len(e.Value)+1)
		arr := llvm.AddGlobal(g.mod, strType, ".str")
		arr.SetLinkage(llvm.PrivateLinkage)
		arr.SetGlobalConstant(true)
		arr.SetInitializer(llvm.ConstString(e.Value, true))
		return llvm.ConstBitCast(arr, llvm.PointerType(llvm.Int8Type(), 0))
	default:
		g.errors.AddCompileError(e.Pos(), "global initializer must be a constant expression")
		return llvm.ConstNull(g.llvmTypeOf(e.Type()))
	}
}

// constCoerce is coerce's constant-only counterpart, used for global
// initializers where there is no insertion point to attach a
// sign-extend/truncate instruction to. It handles exactly the
// int32<->int64 conversions the default cast table seeds.
func (g *Generator) constCoerce(pos token.Position, val llvm.Value, from, to *types.Type) llvm.Value {
	if from == to {
		return val
	}
	switch {
	case from.Name == types.Int32 && to.Name == types.Int64:
		g.errors.AddWarning(pos, "implicit conversion from %s to %s", from, to)
		return llvm.ConstSExt(val, g.llvmTypeOf(to))
	case from.Name == types.Int64 && to.Name == types.Int32:
		g.errors.AddWarning(pos, "implicit conversion from %s to %s", from, to)
		return llvm.ConstTrunc(val, g.llvmTypeOf(to))
	default:
		g.errors.AddTypeError(pos, "cannot implicitly convert %s to %s", from, to)
		return val
	}
}
