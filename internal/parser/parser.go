// Package parser turns a token stream into an AST while resolving
// identifier types and registering definitions on the fly: a Pratt
// precedence climber for expressions, recursive descent for
// declarations, statements, struct and function definitions, with
// panic/recover-based synchronization on error.
package parser

import (
	"strconv"
	"strings"

	"github.com/limec/limec/internal/ast"
	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/lex"
	"github.com/limec/limec/internal/scope"
	"github.com/limec/limec/internal/token"
	"github.com/limec/limec/internal/types"
)

// parseError is the panic sentinel that unwinds to the nearest
// recover point (parseStmt or parseTopLevel), which then calls sync.
type parseError int

// Parser consumes a lexer's token stream and builds the list of
// top-level declarations.
type Parser struct {
	lex    *lex.Lexer
	errors *common.ErrorList
	reg    *types.Registry
	scope  *scope.Stack

	prototypes map[string]*ast.FuncDef
	pending    []*ast.Call
}

// New creates a parser reading from lx, reporting into errors and
// registering types into reg.
func New(lx *lex.Lexer, errors *common.ErrorList, reg *types.Registry) *Parser {
	return &Parser{
		lex:        lx,
		errors:     errors,
		reg:        reg,
		scope:      scope.New(),
		prototypes: make(map[string]*ast.FuncDef),
	}
}

// Parse runs the parser to completion and returns the collected
// top-level declarations plus whether parsing succeeded (no error of
// any kind, lex errors included, was recorded on the error list). No
// AST is returned on full failure, per the
// error-recovery contract: callers must check ok before using decls.
func (p *Parser) Parse() (decls []ast.Stmt, ok bool) {
	for p.cur().Kind != token.EOF {
		d, _ := p.parseTopLevel()
		if d != nil {
			decls = append(decls, d)
		}
	}
	p.resolveCalls()
	if p.scope.Depth() != 0 {
		p.errors.Add(p.cur().Pos, "internal error: scope stack left at depth %d after parsing", p.scope.Depth())
	}
	if p.errors.IsError() {
		return nil, false
	}
	return decls, true
}

func (p *Parser) cur() lex.Tok  { return p.lex.Current() }
func (p *Parser) peek() lex.Tok { return p.lex.Peek() }
func (p *Parser) next() lex.Tok { return p.lex.Next() }

func (p *Parser) at(k token.Token) bool { return p.cur().Kind == k }

func (p *Parser) error(pos token.Position, format string, args ...interface{}) {
	p.errors.AddParseError(pos, format, args...)
}

// errorSync reports an error and unwinds to the nearest recover point.
func (p *Parser) errorSync(pos token.Position, format string, args ...interface{}) {
	p.error(pos, format, args...)
	panic(parseError(0))
}

// expect consumes the current token if it matches k, otherwise raises
// a synchronizing ParseError.
func (p *Parser) expect(k token.Token) lex.Tok {
	tok := p.cur()
	if tok.Kind != k {
		p.errorSync(tok.Pos, "expected '%s', got '%s'", k, tok.Kind)
	}
	p.next()
	return tok
}

func (p *Parser) expectIdent() (string, token.Position) {
	tok := p.cur()
	if tok.Kind != token.Ident {
		p.errorSync(tok.Pos, "expected identifier, got '%s'", tok.Kind)
	}
	p.next()
	return tok.Literal, tok.Pos
}

// sync advances at least one token (past whatever triggered the
// error), then continues to the next ';' or '}' at the same nesting
// depth it started from — the synchronization points named in the
// error-recovery contract. A '}' is left unconsumed so the enclosing
// block's own loop sees it and terminates normally.
func (p *Parser) sync() {
	p.next()
	depth := 0
	for {
		switch p.cur().Kind {
		case token.EOF:
			return
		case token.Rbrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Lbrace:
			depth++
		case token.Semicolon:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// recoverStmt is installed via defer around every call site that can
// raise parseError: it calls sync and reports that recovery happened.
func (p *Parser) recoverStmt(synced *bool) {
	if r := recover(); r != nil {
		if _, ok := r.(parseError); ok {
			p.sync()
			*synced = true
			return
		}
		panic(r)
	}
}

// ---- top level ----

func (p *Parser) parseTopLevel() (decl ast.Stmt, synced bool) {
	defer p.recoverStmt(&synced)

	switch {
	case p.at(token.Import):
		return p.parseImport(), synced
	case p.at(token.Ident) && p.peek().Kind == token.ColonColon:
		return p.parseFuncOrStructDef(), synced
	case p.at(token.Ident) && p.peek().Kind == token.Colon:
		return p.parseTypedVarDef(), synced
	case p.at(token.Ident) && p.peek().Kind == token.Define:
		return p.parseInferredVarDef(), synced
	default:
		p.errorSync(p.cur().Pos, "expected a declaration, got '%s'", p.cur().Kind)
		return nil, synced
	}
}

func (p *Parser) parseImport() ast.Stmt {
	pos := p.cur().Pos
	p.expect(token.Import)
	fn := p.parsePrototype()
	p.expect(token.Semicolon)
	p.defineProto(fn)
	return ast.NewImport(pos, fn)
}

func (p *Parser) parseFuncOrStructDef() ast.Stmt {
	name, pos := p.expectIdent()
	p.expect(token.ColonColon)
	if p.at(token.Struct) {
		return p.parseStructDef(name, pos)
	}
	return p.parseFuncDef(name, pos)
}

func (p *Parser) parseStructDef(name string, pos token.Position) *ast.StructDef {
	p.expect(token.Struct)
	p.expect(token.Lbrace)
	var members []*ast.VarDef
	for !p.at(token.Rbrace) && !p.at(token.EOF) {
		mpos := p.cur().Pos
		mname, _ := p.expectIdent()
		p.expect(token.Colon)
		mtype := p.parseTypeName()
		p.expect(token.Semicolon)
		members = append(members, ast.NewVarDef(mpos, mname, mtype, nil, ast.Modifiers{}, p.scope.Depth()))
	}
	p.expect(token.Rbrace)

	fields := make([]types.Field, len(members))
	for i, m := range members {
		fields[i] = types.Field{Name: m.Name, Type: m.DeclaredType}
	}
	p.reg.DefineRecord(name, fields)
	return ast.NewStructDef(pos, name, members)
}

// parsePrototype parses "name :: ( params ) [-> T]" into a bodyless
// FuncDef, the shape an import prototype declares. The caller is
// responsible for registering the result with defineProto.
func (p *Parser) parsePrototype() *ast.FuncDef {
	name, pos := p.expectIdent()
	p.expect(token.ColonColon)
	params, _, variadic := p.parseParamList()
	ret := p.reg.GetOrCreate(types.Void)
	if p.at(token.Arrow) {
		p.next()
		ret = p.parseTypeName()
	}
	return ast.NewFuncDef(pos, name, params, variadic, ret, nil)
}

// defineProto registers fn under its name in the prototype table,
// reporting a redefinition error at fn's own position instead of
// silently overwriting an existing entry — whether that entry came
// from an earlier import, an earlier prototype, or an earlier
// function definition sharing the same name.
func (p *Parser) defineProto(fn *ast.FuncDef) {
	if _, exists := p.prototypes[fn.Name]; exists {
		p.error(fn.Pos(), "%q is already defined", fn.Name)
		return
	}
	p.prototypes[fn.Name] = fn
}

// parseParamList also returns each parameter's identifier position,
// parallel to the returned params, so a caller that pushes parameters
// into a scope frame can report a duplicate at the right location.
// A parameter is either "name : T" or a bare type T (as in an import
// prototype such as "(*int8, ...)"); a bare type yields an empty Name.
func (p *Parser) parseParamList() ([]ast.Param, []token.Position, bool) {
	p.expect(token.Lparen)
	var params []ast.Param
	var positions []token.Position
	variadic := false
	for !p.at(token.Rparen) {
		if p.at(token.Ellipsis) {
			p.next()
			variadic = true
			break
		}
		pname, ppos := "", p.cur().Pos
		if p.at(token.Ident) && p.peek().Kind == token.Colon {
			pname, ppos = p.expectIdent()
			p.expect(token.Colon)
		}
		ptype := p.parseTypeName()
		params = append(params, ast.Param{Name: pname, Type: ptype})
		positions = append(positions, ppos)
		if p.at(token.Comma) {
			p.next()
			continue
		}
		break
	}
	p.expect(token.Rparen)
	return params, positions, variadic
}

func (p *Parser) parseFuncDef(name string, pos token.Position) *ast.FuncDef {
	params, paramPos, variadic := p.parseParamList()
	ret := p.reg.GetOrCreate(types.Void)
	if p.at(token.Arrow) {
		p.next()
		ret = p.parseTypeName()
	}

	p.scope.Enter()
	defer p.scope.Leave()
	for i, param := range params {
		if existing := p.scope.Define(param.Name, param.Type, scope.Modifiers{}); existing != nil {
			p.error(paramPos[i], "%q is already defined in this scope", param.Name)
		}
	}

	body := p.parseCompoundInline()

	fn := ast.NewFuncDef(pos, name, params, variadic, ret, body)
	p.defineProto(fn)
	return fn
}

// ---- type names ----

// parseTypeName parses an optional run of '*' sigils followed by an
// identifier, synthesizing the pointer type lazily through the
// registry, e.g. "**int32" -> registry lookup "*" + "*int32".
func (p *Parser) parseTypeName() *types.Type {
	stars := 0
	for p.at(token.Mul) {
		stars++
		p.next()
	}
	name, pos := p.expectIdent()
	t, err := p.reg.Get(name)
	if err != nil {
		t = p.reg.GetOrCreate(name)
	}
	_ = pos
	for i := 0; i < stars; i++ {
		t = p.reg.PointerTo(t)
	}
	return t
}

// ---- statements ----

func (p *Parser) parseStmt() (stmt ast.Stmt, synced bool) {
	defer p.recoverStmt(&synced)

	switch {
	case p.at(token.Lbrace):
		p.scope.Enter()
		defer p.scope.Leave()
		stmt = p.parseCompoundInline()
	case p.at(token.If):
		stmt = p.parseIf()
	case p.at(token.Return):
		stmt = p.parseReturn()
	case p.at(token.Mul):
		stmt = p.parseDerefAssign()
	case p.at(token.Ident) && p.peek().Kind == token.Colon:
		stmt = p.parseTypedVarDef()
	case p.at(token.Ident) && p.peek().Kind == token.Define:
		stmt = p.parseInferredVarDef()
	case p.at(token.Ident) && p.peek().Kind.IsAssignOp():
		stmt = p.parseAssign()
	case p.at(token.Ident) && p.peek().Kind == token.Lparen:
		stmt = p.parseCallStmt()
	default:
		p.errorSync(p.cur().Pos, "expected a statement, got '%s'", p.cur().Kind)
	}
	return stmt, synced
}

// parseCompoundInline parses "{ stmts }" without managing scope; the
// caller enters/leaves the frame the block's statements live in (a
// function body's frame holds its parameters too, so FuncDef manages
// that frame itself rather than nesting another one here).
func (p *Parser) parseCompoundInline() *ast.Compound {
	pos := p.cur().Pos
	p.expect(token.Lbrace)
	var stmts []ast.Stmt
	for !p.at(token.Rbrace) && !p.at(token.EOF) {
		s, _ := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(token.Rbrace)
	return ast.NewCompound(pos, stmts)
}

func (p *Parser) parseBlockScoped() *ast.Compound {
	p.scope.Enter()
	defer p.scope.Leave()
	return p.parseCompoundInline()
}

func (p *Parser) parseIf() *ast.Branch {
	pos := p.cur().Pos
	p.expect(token.If)
	cond := p.parseExpr()
	then := p.parseBlockScoped()
	var els *ast.Compound
	if p.at(token.Else) {
		p.next()
		els = p.parseBlockScoped()
	}
	return ast.NewBranch(pos, cond, then, els)
}

func (p *Parser) parseReturn() *ast.Return {
	pos := p.cur().Pos
	p.expect(token.Return)
	var value ast.Expr
	if !p.at(token.Semicolon) {
		value = p.parseExpr()
	}
	p.expect(token.Semicolon)
	return ast.NewReturn(pos, value)
}

// parseDerefAssign handles "*name = expr;", the only statement-level
// use of a leading '*'. A dereference used for reading (e.g. on the
// right of :=) goes through the expression-level unary parser
// instead.
func (p *Parser) parseDerefAssign() *ast.Store {
	pos := p.cur().Pos
	p.expect(token.Mul)
	name, namePos := p.expectIdent()
	entry := p.scope.Lookup(name)
	if entry == nil {
		p.errorSync(namePos, "undefined variable %q", name)
	}
	if !entry.Type.IsPointer() {
		p.error(namePos, "cannot dereference non-pointer variable %q", name)
	}
	p.expect(token.Assign)
	value := p.parseExpr()
	p.expect(token.Semicolon)
	return ast.NewStore(pos, name, value, true)
}

func (p *Parser) parseTypedVarDef() *ast.VarDef {
	pos := p.cur().Pos
	name, _ := p.expectIdent()
	p.expect(token.Colon)
	mods := ast.Modifiers{}
	if p.at(token.Const) {
		mods.IsConst = true
		p.next()
	}
	declType := p.parseTypeName()
	var init ast.Expr
	if p.at(token.Assign) {
		p.next()
		init = p.parseExpr()
	}
	p.expect(token.Semicolon)
	mods.IsGlobal = p.scope.AtGlobal()
	p.defineVar(pos, name, declType, mods)
	return ast.NewVarDef(pos, name, declType, init, mods, p.scope.Depth())
}

func (p *Parser) parseInferredVarDef() *ast.VarDef {
	pos := p.cur().Pos
	name, _ := p.expectIdent()
	p.expect(token.Define)
	init := p.parseExpr()
	p.expect(token.Semicolon)
	declType := init.Type()
	mods := ast.Modifiers{IsGlobal: p.scope.AtGlobal()}
	p.defineVar(pos, name, declType, mods)
	return ast.NewVarDef(pos, name, declType, init, mods, p.scope.Depth())
}

func (p *Parser) defineVar(pos token.Position, name string, t *types.Type, mods ast.Modifiers) {
	if existing := p.scope.Define(name, t, scope.Modifiers{IsConst: mods.IsConst}); existing != nil {
		p.error(pos, "%q is already defined in this scope", name)
	}
}

// parseAssign handles "name op= expr;" for op in {=, +=, -=, *=, /=},
// desugaring the compound forms into Store{name, Binary(op, Load, rhs)}
// in the parser, per the language's assignment contract.
func (p *Parser) parseAssign() *ast.Store {
	pos := p.cur().Pos
	name, namePos := p.expectIdent()
	entry := p.scope.Lookup(name)
	if entry == nil {
		p.errorSync(namePos, "undefined variable %q", name)
	}
	opTok := p.cur().Kind
	p.next()
	rhs := p.parseExpr()
	p.expect(token.Semicolon)

	if opTok == token.Assign {
		return ast.NewStore(pos, name, rhs, false)
	}
	binOp := compoundToBinaryOp(opTok)
	lhs := ast.NewLoad(namePos, name, entry.Type)
	value := ast.NewBinary(pos, binOp, lhs, rhs, opTok)
	value.SetType(entry.Type)
	return ast.NewStore(pos, name, value, false)
}

func compoundToBinaryOp(t token.Token) ast.BinaryOp {
	switch t {
	case token.AddAssign:
		return ast.Add
	case token.SubAssign:
		return ast.Sub
	case token.MulAssign:
		return ast.Mul
	case token.DivAssign:
		return ast.Div
	default:
		return ast.Add
	}
}

func (p *Parser) parseCallStmt() *ast.ExprStmt {
	pos := p.cur().Pos
	call := p.parseCall()
	p.expect(token.Semicolon)
	return ast.NewExprStmt(pos, call)
}

// ---- calls and back-patching ----

func (p *Parser) parseCall() *ast.Call {
	pos := p.cur().Pos
	name, _ := p.expectIdent()
	p.expect(token.Lparen)
	var args []ast.Expr
	for !p.at(token.Rparen) {
		args = append(args, p.parseExpr())
		if p.at(token.Comma) {
			p.next()
			continue
		}
		break
	}
	p.expect(token.Rparen)
	call := ast.NewCall(pos, name, args)
	p.pending = append(p.pending, call)
	return call
}

func (p *Parser) resolveCalls() {
	for _, call := range p.pending {
		target, ok := p.prototypes[call.Callee]
		if !ok {
			p.error(call.Pos(), "call to undefined function %q", call.Callee)
			continue
		}
		if !target.Variadic && len(call.Args) != len(target.Params) {
			p.error(call.Pos(), "call to %q has %d argument(s), want %d", call.Callee, len(call.Args), len(target.Params))
		} else if target.Variadic && len(call.Args) < len(target.Params) {
			p.error(call.Pos(), "call to %q has %d argument(s), want at least %d", call.Callee, len(call.Args), len(target.Params))
		}
		call.Target = target
		call.SetType(target.ReturnType)
	}
}

// ---- expressions ----

// binaryPrec maps a binary operator token to its precedence level.
// Higher binds tighter. Assignment operators never reach this table:
// "=" and its compound forms are consumed exclusively by statement
// parsing (parseAssign/parseDerefAssign), never by the expression
// Pratt loop.
func binaryPrec(t token.Token) (int, ast.BinaryOp, bool) {
	switch t {
	case token.Eq:
		return 19, ast.Eq, true
	case token.Neq:
		return 19, ast.Neq, true
	case token.Lt:
		return 20, ast.Lt, true
	case token.LtEq:
		return 20, ast.LtEq, true
	case token.Gt:
		return 20, ast.Gt, true
	case token.GtEq:
		return 20, ast.GtEq, true
	case token.Add:
		return 24, ast.Add, true
	case token.Sub:
		return 24, ast.Sub, true
	case token.Mul:
		return 30, ast.Mul, true
	case token.Div:
		return 30, ast.Div, true
	default:
		return 0, 0, false
	}
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

// parseBinary implements the Pratt/precedence-climbing loop:
// parse a unary expression, then repeatedly consume a binary
// operator whose priority exceeds minPrio, recursing on the right
// operand with the operator's own priority as the new floor.
func (p *Parser) parseBinary(minPrio int) ast.Expr {
	left := p.parseUnary()
	for {
		prio, op, ok := binaryPrec(p.cur().Kind)
		if !ok || prio <= minPrio {
			break
		}
		opTok := p.cur().Kind
		pos := p.cur().Pos
		p.next()
		right := p.parseBinary(prio)
		bin := ast.NewBinary(pos, op, left, right, opTok)
		bin.SetType(left.Type())
		left = bin
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	pos := p.cur().Pos
	switch p.cur().Kind {
	case token.Not:
		p.next()
		operand := p.parseUnary()
		return ast.NewUnary(pos, ast.Not, operand, operand.Type())
	case token.Sub:
		p.next()
		operand := p.parseUnary()
		return ast.NewUnary(pos, ast.Neg, operand, operand.Type())
	case token.Inc:
		p.next()
		operand := p.parseUnary()
		suppressLoad(operand)
		return ast.NewUnary(pos, ast.PreInc, operand, operand.Type())
	case token.Dec:
		p.next()
		operand := p.parseUnary()
		suppressLoad(operand)
		return ast.NewUnary(pos, ast.PreDec, operand, operand.Type())
	case token.And:
		p.next()
		operand := p.parseUnary()
		suppressLoad(operand)
		return ast.NewUnary(pos, ast.AddressOf, operand, p.reg.PointerTo(operand.Type()))
	case token.Mul:
		p.next()
		operand := p.parseUnary()
		ot := operand.Type()
		if !ot.IsPointer() {
			p.error(pos, "cannot dereference non-pointer type %q", ot)
			return ast.NewUnary(pos, ast.Deref, operand, ot)
		}
		return ast.NewUnary(pos, ast.Deref, operand, ot.Elem)
	default:
		return p.parsePostfix()
	}
}

// suppressLoad tightens a just-parsed Load node's EmitLoad flag in
// place when its enclosing unary needs the slot, not the value
// (address-of, pre-inc/dec). This is the one sanctioned post-parse
// mutation: tightening emit_load from a parent unary.
func suppressLoad(e ast.Expr) {
	if load, ok := e.(*ast.Load); ok {
		load.EmitLoad = false
	}
}

func (p *Parser) parsePostfix() ast.Expr {
	operand := p.parsePrimary()
	switch p.cur().Kind {
	case token.Inc:
		pos := p.cur().Pos
		p.next()
		suppressLoad(operand)
		return ast.NewUnary(pos, ast.PostInc, operand, operand.Type())
	case token.Dec:
		pos := p.cur().Pos
		p.next()
		suppressLoad(operand)
		return ast.NewUnary(pos, ast.PostDec, operand, operand.Type())
	default:
		return operand
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.Lparen:
		p.next()
		e := p.parseExpr()
		p.expect(token.Rparen)
		return e
	case token.Number:
		return p.parseNumberLit()
	case token.String:
		p.next()
		return ast.NewStringLit(tok.Pos, tok.Literal, p.reg.GetOrCreate(types.String))
	case token.True:
		p.next()
		return ast.NewBoolLit(tok.Pos, true, p.reg.GetOrCreate(types.Bool))
	case token.False:
		p.next()
		return ast.NewBoolLit(tok.Pos, false, p.reg.GetOrCreate(types.Bool))
	case token.Null:
		p.next()
		return ast.NewNullLit(tok.Pos, p.reg.PointerTo(p.reg.GetOrCreate(types.Int64)))
	case token.Ident:
		if p.peek().Kind == token.Lparen {
			return p.parseCall()
		}
		name, pos := p.expectIdent()
		entry := p.scope.Lookup(name)
		if entry == nil {
			p.errorSync(pos, "undefined variable %q", name)
		}
		return ast.NewLoad(pos, name, entry.Type)
	default:
		p.errorSync(tok.Pos, "unexpected token '%s' in expression", tok.Kind)
		return nil
	}
}

func (p *Parser) parseNumberLit() ast.Expr {
	tok := p.cur()
	p.next()
	if strings.ContainsRune(tok.Literal, '.') {
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.error(tok.Pos, "invalid float literal %q", tok.Literal)
		}
		return ast.NewFloatLit(tok.Pos, v, p.reg.GetOrCreate(types.Float))
	}
	lit := strings.TrimSuffix(tok.Literal, "f")
	if lit != tok.Literal {
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			p.error(tok.Pos, "invalid float literal %q", tok.Literal)
		}
		return ast.NewFloatLit(tok.Pos, v, p.reg.GetOrCreate(types.Float))
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		p.error(tok.Pos, "invalid integer literal %q", tok.Literal)
	}
	return ast.NewIntLit(tok.Pos, v, p.reg.GetOrCreate(types.Int32))
}
