// Package ast defines the tagged-union AST: one interface per
// grammatical class (Stmt, Expr) implemented by a closed set of
// node structs. Every node records its source position; every Expr
// additionally carries its resolved Type once the parser returns.
package ast

import (
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
}

type baseNode struct {
	pos token.Position
}

func (n *baseNode) Pos() token.Position { return n.pos }

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes. Every Expr carries a
// resolved Type by the time the parser returns a node to its caller;
// Type is nil only transiently, while the node's own subtree is
// still being built.
type Expr interface {
	Node
	exprNode()
	Type() *types.Type
	SetType(*types.Type)
}

type baseExpr struct {
	baseNode
	t *types.Type
}

func (e *baseExpr) exprNode()             {}
func (e *baseExpr) Type() *types.Type     { return e.t }
func (e *baseExpr) SetType(t *types.Type) { e.t = t }

// ---- Literals ----

type IntLit struct {
	baseExpr
	Value int64
}

type FloatLit struct {
	baseExpr
	Value float64
}

type BoolLit struct {
	baseExpr
	Value bool
}

type NullLit struct {
	baseExpr
}

type StringLit struct {
	baseExpr
	Value string
}

func NewIntLit(pos token.Position, v int64, t *types.Type) *IntLit {
	n := &IntLit{Value: v}
	n.pos, n.t = pos, t
	return n
}

func NewFloatLit(pos token.Position, v float64, t *types.Type) *FloatLit {
	n := &FloatLit{Value: v}
	n.pos, n.t = pos, t
	return n
}

func NewBoolLit(pos token.Position, v bool, t *types.Type) *BoolLit {
	n := &BoolLit{Value: v}
	n.pos, n.t = pos, t
	return n
}

func NewNullLit(pos token.Position, t *types.Type) *NullLit {
	n := &NullLit{}
	n.pos, n.t = pos, t
	return n
}

func NewStringLit(pos token.Position, v string, t *types.Type) *StringLit {
	n := &StringLit{Value: v}
	n.pos, n.t = pos, t
	return n
}

// ---- Load / Unary / Binary / Call ----

// Load reads a variable. EmitLoad controls whether the lowering
// materializes an actual load (the common case) or yields the
// storage slot itself — used for address-of and for pre/post
// inc/dec, which need the slot, not its current value.
type Load struct {
	baseExpr
	Name     string
	EmitLoad bool
}

func NewLoad(pos token.Position, name string, t *types.Type) *Load {
	n := &Load{Name: name, EmitLoad: true}
	n.pos, n.t = pos, t
	return n
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	Not UnaryOp = iota
	Neg
	PreInc
	PreDec
	PostInc
	PostDec
	AddressOf
	Deref
)

func (op UnaryOp) String() string {
	switch op {
	case Not:
		return "!"
	case Neg:
		return "-"
	case PreInc:
		return "++(pre)"
	case PreDec:
		return "--(pre)"
	case PostInc:
		return "(post)++"
	case PostDec:
		return "(post)--"
	case AddressOf:
		return "&"
	case Deref:
		return "*"
	default:
		return "unaryop(?)"
	}
}

type Unary struct {
	baseExpr
	Op      UnaryOp
	Operand Expr
}

func NewUnary(pos token.Position, op UnaryOp, operand Expr, t *types.Type) *Unary {
	n := &Unary{Op: op, Operand: operand}
	n.pos, n.t = pos, t
	return n
}

// BinaryOp identifies a non-assignment binary operator. Assignment
// (plain and compound) never produces a Binary node directly — the
// parser always desugars it into a Store (see Store below); Binary
// only ever carries an arithmetic or comparison operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Eq
	Neq
	Lt
	LtEq
	Gt
	GtEq
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	default:
		return "binop(?)"
	}
}

// IsCompare reports whether op is one of the relational/equality ops.
func (op BinaryOp) IsCompare() bool {
	switch op {
	case Eq, Neq, Lt, LtEq, Gt, GtEq:
		return true
	}
	return false
}

// Binary is a non-assignment binary expression. OpTok is the source
// operator token (e.g. "+=" for a compound assignment whose Op has
// been normalized to Add); the generator's diagnostics do not read it.
type Binary struct {
	baseExpr
	Op    BinaryOp
	Lhs   Expr
	Rhs   Expr
	OpTok token.Token
}

func NewBinary(pos token.Position, op BinaryOp, lhs, rhs Expr, opTok token.Token) *Binary {
	n := &Binary{Op: op, Lhs: lhs, Rhs: rhs, OpTok: opTok}
	n.pos = pos
	return n
}

// Call invokes a function by name. Target is back-patched once the
// whole module has been parsed and every prototype is known.
type Call struct {
	baseExpr
	Callee string
	Args   []Expr
	Target *FuncDef
}

func NewCall(pos token.Position, callee string, args []Expr) *Call {
	n := &Call{Callee: callee, Args: args}
	n.pos = pos
	return n
}

// ---- Statements ----

type baseStmt struct {
	baseNode
}

func (s *baseStmt) stmtNode() {}

// Store assigns to a variable. Name is always a plain identifier —
// it never carries a general lvalue expression; the special case of
// assigning through a pointer (*p = v) is represented by
// StoreIntoLoad, not by a different Name shape. StoreIntoLoad tells
// the lowering to first load the slot named Name (yielding the
// pointer value held there) and then store Value through that
// pointer, instead of storing Value directly into the slot.
type Store struct {
	baseStmt
	Name          string
	Value         Expr
	StoreIntoLoad bool
}

func NewStore(pos token.Position, name string, value Expr, storeIntoLoad bool) *Store {
	n := &Store{Name: name, Value: value, StoreIntoLoad: storeIntoLoad}
	n.pos = pos
	return n
}

// ExprStmt wraps an expression used in statement position — in this
// language, only a bare call (the grammar's "call-as-statement").
type ExprStmt struct {
	baseStmt
	X Expr
}

func NewExprStmt(pos token.Position, x Expr) *ExprStmt {
	n := &ExprStmt{X: x}
	n.pos = pos
	return n
}

// Return returns from the enclosing function. Value is nil for a
// bare "return;" in a void function.
type Return struct {
	baseStmt
	Value Expr
}

func NewReturn(pos token.Position, value Expr) *Return {
	n := &Return{Value: value}
	n.pos = pos
	return n
}

// Compound is a `{ ... }` block of statements.
type Compound struct {
	baseStmt
	Stmts []Stmt
}

func NewCompound(pos token.Position, stmts []Stmt) *Compound {
	n := &Compound{Stmts: stmts}
	n.pos = pos
	return n
}

// Branch is an if/else. Else is nil when the source has no else arm.
type Branch struct {
	baseStmt
	Cond Expr
	Then *Compound
	Else *Compound
}

func NewBranch(pos token.Position, cond Expr, then, els *Compound) *Branch {
	n := &Branch{Cond: cond, Then: then, Else: els}
	n.pos = pos
	return n
}

// Modifiers records the const/global-ness of a binding, mirroring
// scope.Modifiers without importing the scope package (parser-only
// concern kept out of ast's dependency surface).
type Modifiers struct {
	IsConst  bool
	IsGlobal bool
}

// VarDef declares a variable: "name : T [= expr];" or "name := expr;".
// DeclaredType is always set: for := inference it is the initializer's
// type. Init is nil when the declaration has no initializer.
type VarDef struct {
	baseStmt
	Name         string
	DeclaredType *types.Type
	Init         Expr
	Mods         Modifiers
	ScopeDepth   int
}

func NewVarDef(pos token.Position, name string, declared *types.Type, init Expr, mods Modifiers, scopeDepth int) *VarDef {
	n := &VarDef{Name: name, DeclaredType: declared, Init: init, Mods: mods, ScopeDepth: scopeDepth}
	n.pos = pos
	return n
}

// Param is one function parameter.
type Param struct {
	Name string
	Type *types.Type
}

// FuncDef declares a function. Body is nil for a bare prototype,
// which only import produces; a forward reference to a function
// defined later resolves to that definition itself.
type FuncDef struct {
	baseStmt
	Name       string
	Params     []Param
	Variadic   bool
	ReturnType *types.Type
	Body       *Compound
}

func NewFuncDef(pos token.Position, name string, params []Param, variadic bool, ret *types.Type, body *Compound) *FuncDef {
	n := &FuncDef{Name: name, Params: params, Variadic: variadic, ReturnType: ret, Body: body}
	n.pos = pos
	return n
}

// StructDef declares a record type: "name :: struct { members }".
type StructDef struct {
	baseStmt
	Name    string
	Members []*VarDef
}

func NewStructDef(pos token.Position, name string, members []*VarDef) *StructDef {
	n := &StructDef{Name: name, Members: members}
	n.pos = pos
	return n
}

// Import wraps a bare FuncDef prototype declared with the `import`
// keyword, so the parser/generator can tell a user-written prototype
// apart from an import at a glance without a separate flag.
type Import struct {
	baseStmt
	Inner *FuncDef
}

func NewImport(pos token.Position, inner *FuncDef) *Import {
	n := &Import{Inner: inner}
	n.pos = pos
	return n
}
