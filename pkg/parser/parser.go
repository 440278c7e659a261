package parser

import (
	"strconv"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ast"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/symtab"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/types"
)

// Parser holds the state for the parsing process. Scope and type
// checking happen inline while the tree is built: semantic findings go
// into the bag and never stop the parse, while a genuine grammar
// violation aborts with a SyntaxError.
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token

	syms *symtab.Table
	bag  *diag.Bag
	cfg  *config.Config
}

// NewParser creates and initializes a new Parser from a token stream.
func NewParser(tokens []token.Token, bag *diag.Bag, cfg *config.Config) *Parser {
	p := &Parser{tokens: tokens, syms: symtab.New(), bag: bag, cfg: cfg}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parse consumes the whole token stream and returns the program tree
// together with the symbol table built along the way. A nil error does
// not mean the program is clean; check the bag for recorded findings.
func (p *Parser) Parse() (root *ast.Node, tab *symtab.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*diag.SyntaxError)
			if !ok {
				panic(r)
			}
			p.bag.Report(diag.Syntax, se.Tok, "%s", se.Message)
			root, err = nil, se
		}
	}()

	first := p.current
	var stmts []*ast.Node
	for !p.check(token.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	return ast.NewProgram(first, stmts), p.syms, nil
}

// Symbols exposes the table mid-parse, for tests.
func (p *Parser) Symbols() *symtab.Table { return p.syms }

// --- Parser helpers ---

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) {
	if p.check(tokType) {
		p.advance()
		return
	}
	panic(&diag.SyntaxError{Tok: p.current, Message: message})
}

func (p *Parser) promoteMixed() bool {
	return p.cfg == nil || p.cfg.IsFeatureEnabled(config.FeatPromoteMixed)
}

// --- Statements ---

func (p *Parser) parseStatement() *ast.Node {
	switch {
	case p.current.Type.IsTypeKeyword():
		return p.parseDeclaration()
	case p.check(token.Ident) && p.peek().Type == token.Eq:
		stmt := p.parseAssignment()
		p.expect(token.Semi, "Expected ';' after assignment.")
		return stmt
	case p.check(token.If):
		return p.parseIf()
	case p.check(token.While):
		return p.parseWhile()
	case p.check(token.For):
		return p.parseFor()
	case p.check(token.Def):
		return p.parseFuncDecl()
	case p.check(token.Return):
		return p.parseReturn()
	case p.check(token.Print):
		return p.parsePrint()
	case p.check(token.Read):
		return p.parseRead()
	default:
		expr := p.parseExpr()
		p.expect(token.Semi, "Expected ';' after expression.")
		return expr
	}
}

// parseDeclaration handles `type IDENT;` and `type IDENT = expr;`.
// Duplicate names in the same scope keep their first declaration.
func (p *Parser) parseDeclaration() *ast.Node {
	declTok := p.current
	p.advance()
	declType := types.FromToken(declTok.Type)

	nameTok := p.current
	p.expect(token.Ident, "Expected variable name after type.")
	name := nameTok.Value

	sym := &symtab.Symbol{Name: name, Kind: symtab.Var, Type: declType, Line: nameTok.Line}
	if prev, ok := p.syms.Declare(sym); !ok {
		p.bag.Report(diag.DuplicateDeclaration, nameTok,
			"variable '%s' already declared in this scope (line %d)", name, prev.Line)
		sym = prev
	}

	if p.match(token.Eq) {
		init := p.parseExpr()
		if init.Typ != types.Unknown && init.Typ != declType {
			p.bag.Report(diag.TypeMismatch, nameTok,
				"cannot initialize %s '%s' with %s value", declType, name, init.Typ)
		}
		sym.Initialized = true
		p.expect(token.Semi, "Expected ';' after declaration.")
		return ast.NewVarDeclInit(nameTok, name, declType, init)
	}

	p.expect(token.Semi, "Expected ';' after declaration.")
	return ast.NewVarDecl(nameTok, name, declType)
}

// parseAssignment handles `IDENT = expr` without the trailing ';' so
// the for-loop increment can reuse it.
func (p *Parser) parseAssignment() *ast.Node {
	nameTok := p.current
	p.expect(token.Ident, "Expected variable name.")
	name := nameTok.Value
	p.expect(token.Eq, "Expected '=' in assignment.")

	expr := p.parseExpr()

	sym := p.syms.Lookup(name)
	switch {
	case sym == nil:
		p.bag.Report(diag.UndeclaredSymbol, nameTok, "assignment to undeclared variable '%s'", name)
	case sym.Kind != symtab.Var:
		p.bag.Report(diag.TypeMismatch, nameTok, "'%s' is a function, not a variable", name)
	default:
		if expr.Typ != types.Unknown && expr.Typ != sym.Type {
			p.bag.Report(diag.TypeMismatch, nameTok,
				"cannot assign %s value to %s variable '%s'", expr.Typ, sym.Type, name)
		}
		sym.Initialized = true
	}

	return ast.NewAssign(nameTok, name, expr)
}

// parseCondition parses a parenthesized condition. Any type is
// accepted; non-bool values are coerced with a nonzero comparison when
// the branch is lowered.
func (p *Parser) parseCondition(what string) *ast.Node {
	p.expect(token.LParen, "Expected '(' after '"+what+"'.")
	cond := p.parseExpr()
	p.expect(token.RParen, "Expected ')' after condition.")
	return cond
}

// parseBlock parses `{ statement* }` in a fresh scope.
func (p *Parser) parseBlock() []*ast.Node {
	p.expect(token.LBrace, "Expected '{'.")
	p.syms.EnterScope()
	var stmts []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	p.syms.ExitScope()
	p.expect(token.RBrace, "Expected '}' to close block.")
	return stmts
}

func (p *Parser) parseIf() *ast.Node {
	ifTok := p.current
	p.advance()
	cond := p.parseCondition("if")
	then := p.parseBlock()
	if p.match(token.Else) {
		els := p.parseBlock()
		return ast.NewIfElse(ifTok, cond, then, els)
	}
	return ast.NewIf(ifTok, cond, then)
}

func (p *Parser) parseWhile() *ast.Node {
	whileTok := p.current
	p.advance()
	cond := p.parseCondition("while")
	body := p.parseBlock()
	return ast.NewWhile(whileTok, cond, body)
}

// parseFor handles `for (decl cond ; incr) { ... }`. The init clause is
// a full declaration statement, so it carries its own ';'. The loop
// variable is scoped to the loop.
func (p *Parser) parseFor() *ast.Node {
	forTok := p.current
	p.advance()
	p.expect(token.LParen, "Expected '(' after 'for'.")

	p.syms.EnterScope()
	if !p.current.Type.IsTypeKeyword() {
		panic(&diag.SyntaxError{Tok: p.current, Message: "for-loop initializer must be a declaration"})
	}
	init := p.parseDeclaration()

	cond := p.parseExpr()
	p.expect(token.Semi, "Expected ';' after for condition.")

	var post *ast.Node
	if p.check(token.Ident) && p.peek().Type == token.Eq {
		post = p.parseAssignment()
	} else {
		post = p.parseExpr()
	}
	p.expect(token.RParen, "Expected ')' after for clauses.")

	p.expect(token.LBrace, "Expected '{' after for header.")
	var body []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		body = append(body, p.parseStatement())
	}
	p.expect(token.RBrace, "Expected '}' to close for body.")
	p.syms.ExitScope()

	return ast.NewFor(forTok, init, cond, post, body)
}

// parseFuncDecl handles `def name(type a, type b) { ... }`. The
// function symbol is declared before its body is parsed so recursive
// calls resolve. Parameters count as initialized.
func (p *Parser) parseFuncDecl() *ast.Node {
	defTok := p.current
	p.advance()
	nameTok := p.current
	p.expect(token.Ident, "Expected function name after 'def'.")
	name := nameTok.Value

	p.expect(token.LParen, "Expected '(' after function name.")
	var params []ast.Param
	for !p.check(token.RParen) {
		if len(params) > 0 {
			p.expect(token.Comma, "Expected ',' between parameters.")
		}
		typeTok := p.current
		if !typeTok.Type.IsTypeKeyword() {
			panic(&diag.SyntaxError{Tok: typeTok, Message: "expected parameter type"})
		}
		p.advance()
		paramTok := p.current
		p.expect(token.Ident, "Expected parameter name.")
		params = append(params, ast.Param{Name: paramTok.Value, Type: types.FromToken(typeTok.Type)})
	}
	p.expect(token.RParen, "Expected ')' after parameters.")

	paramTypes := make([]types.Type, len(params))
	for i, prm := range params {
		paramTypes[i] = prm.Type
	}
	sym := &symtab.Symbol{
		Name: name, Kind: symtab.Func, Type: types.Int,
		Params: paramTypes, Initialized: true, Line: nameTok.Line,
	}
	if prev, ok := p.syms.Declare(sym); !ok {
		p.bag.Report(diag.DuplicateDeclaration, nameTok,
			"function '%s' already declared (line %d)", name, prev.Line)
	}

	p.expect(token.LBrace, "Expected '{' before function body.")
	p.syms.EnterScope()
	for _, prm := range params {
		psym := &symtab.Symbol{Name: prm.Name, Kind: symtab.Var, Type: prm.Type, Initialized: true, Line: defTok.Line}
		if _, ok := p.syms.Declare(psym); !ok {
			p.bag.Report(diag.DuplicateDeclaration, nameTok, "duplicate parameter '%s'", prm.Name)
		}
	}
	var body []*ast.Node
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		body = append(body, p.parseStatement())
	}
	p.syms.ExitScope()
	p.expect(token.RBrace, "Expected '}' to close function body.")

	return ast.NewFuncDecl(nameTok, name, params, body)
}

func (p *Parser) parseReturn() *ast.Node {
	retTok := p.current
	p.advance()
	expr := p.parseExpr()
	p.expect(token.Semi, "Expected ';' after return value.")
	return ast.NewReturn(retTok, expr)
}

func (p *Parser) parsePrint() *ast.Node {
	printTok := p.current
	p.advance()
	p.expect(token.LParen, "Expected '(' after 'print'.")
	expr := p.parseExpr()
	p.expect(token.RParen, "Expected ')' after print argument.")
	p.expect(token.Semi, "Expected ';' after print.")
	return ast.NewPrint(printTok, expr)
}

func (p *Parser) parseRead() *ast.Node {
	readTok := p.current
	p.advance()
	p.expect(token.LParen, "Expected '(' after 'read'.")
	p.expect(token.RParen, "Expected ')' after 'read('.")
	p.expect(token.Semi, "Expected ';' after read.")
	return ast.NewRead(readTok)
}

// --- Expressions ---
//
// Precedence, loosest first: ||, &&, unary !, the non-associative
// comparisons, then + - %, then * /, then unary -, then primaries.

func (p *Parser) parseExpr() *ast.Node {
	return p.parseOr()
}

func (p *Parser) logicalNode(opTok token.Token, left, right *ast.Node) *ast.Node {
	node := ast.NewBinaryOp(opTok, opTok.Type, left, right)
	typ, ok := types.Logical(left.Typ, right.Typ)
	if !ok {
		p.bag.Report(diag.TypeMismatch, opTok,
			"operands of %s must both be bool, got %s and %s", opTok.Type, left.Typ, right.Typ)
	}
	node.Typ = typ
	return node
}

func (p *Parser) parseOr() *ast.Node {
	left := p.parseAnd()
	for p.check(token.OrOr) {
		opTok := p.current
		p.advance()
		left = p.logicalNode(opTok, left, p.parseAnd())
	}
	return left
}

func (p *Parser) parseAnd() *ast.Node {
	left := p.parseNot()
	for p.check(token.AndAnd) {
		opTok := p.current
		p.advance()
		left = p.logicalNode(opTok, left, p.parseNot())
	}
	return left
}

// parseNot binds looser than comparisons: !a == b negates the whole
// comparison.
func (p *Parser) parseNot() *ast.Node {
	if !p.check(token.Not) {
		return p.parseComparison()
	}
	opTok := p.current
	p.advance()
	expr := p.parseNot()
	node := ast.NewUnaryOp(opTok, token.Not, expr)
	typ, ok := types.Not(expr.Typ)
	if !ok {
		p.bag.Report(diag.TypeMismatch, opTok, "operand of '!' must be bool, got %s", expr.Typ)
	}
	node.Typ = typ
	return node
}

func isComparisonOp(tt token.Type) bool {
	switch tt {
	case token.Lt, token.Gt, token.Lte, token.Gte, token.EqEq, token.Neq:
		return true
	}
	return false
}

// parseComparison parses at most one comparison; chains like a < b < c
// are not in the grammar.
func (p *Parser) parseComparison() *ast.Node {
	left := p.parseAdditive()
	if !isComparisonOp(p.current.Type) {
		return left
	}
	opTok := p.current
	p.advance()
	right := p.parseAdditive()
	node := ast.NewComparison(opTok, opTok.Type, left, right)
	typ, ok := types.Relational(left.Typ, right.Typ, p.promoteMixed())
	if !ok {
		p.bag.Report(diag.TypeMismatch, opTok,
			"cannot compare %s with %s", left.Typ, right.Typ)
	}
	node.Typ = typ
	return node
}

func (p *Parser) binaryArith(opTok token.Token, left, right *ast.Node) *ast.Node {
	node := ast.NewBinaryOp(opTok, opTok.Type, left, right)
	typ, ok := types.Arithmetic(opTok.Type, left.Typ, right.Typ, p.promoteMixed())
	if !ok {
		p.bag.Report(diag.TypeMismatch, opTok,
			"invalid operands for %s: %s and %s", opTok.Type, left.Typ, right.Typ)
	}
	node.Typ = typ
	return node
}

func (p *Parser) parseAdditive() *ast.Node {
	left := p.parseTerm()
	for p.check(token.Plus) || p.check(token.Minus) || p.check(token.Rem) {
		opTok := p.current
		p.advance()
		left = p.binaryArith(opTok, left, p.parseTerm())
	}
	return left
}

func (p *Parser) parseTerm() *ast.Node {
	left := p.parseUnary()
	for p.check(token.Star) || p.check(token.Slash) {
		opTok := p.current
		p.advance()
		left = p.binaryArith(opTok, left, p.parseUnary())
	}
	return left
}

func (p *Parser) parseUnary() *ast.Node {
	if p.check(token.Minus) {
		opTok := p.current
		p.advance()
		expr := p.parseUnary()
		node := ast.NewUnaryOp(opTok, token.Minus, expr)
		if expr.Typ != types.Unknown && !expr.Typ.IsNumeric() {
			p.bag.Report(diag.TypeMismatch, opTok, "unary '-' needs a numeric operand, got %s", expr.Typ)
		}
		node.Typ = expr.Typ
		return node
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() *ast.Node {
	tok := p.current
	switch {
	case p.match(token.Number):
		val, _ := strconv.ParseInt(p.previous.Value, 10, 64)
		return ast.NewNumber(tok, val)
	case p.match(token.FloatNumber):
		val, _ := strconv.ParseFloat(p.previous.Value, 64)
		return ast.NewFloatNumber(tok, val)
	case p.match(token.String):
		return ast.NewString(tok, p.previous.Value)
	case p.match(token.True):
		return ast.NewBool(tok, true)
	case p.match(token.False):
		return ast.NewBool(tok, false)
	case p.check(token.Ident) && p.peek().Type == token.LParen:
		return p.parseCall()
	case p.match(token.Ident):
		return p.identExpr(tok)
	case p.match(token.LParen):
		expr := p.parseExpr()
		p.expect(token.RParen, "Expected ')' after expression.")
		return expr
	}
	panic(&diag.SyntaxError{Tok: tok, Message: "expected an expression"})
}

func (p *Parser) identExpr(tok token.Token) *ast.Node {
	node := ast.NewIdent(tok, tok.Value)
	sym := p.syms.Lookup(tok.Value)
	switch {
	case sym == nil:
		p.bag.Report(diag.UndeclaredSymbol, tok, "use of undeclared variable '%s'", tok.Value)
		node.Typ = types.Unknown
	case sym.Kind != symtab.Var:
		p.bag.Report(diag.TypeMismatch, tok, "function '%s' used as a value", tok.Value)
		node.Typ = types.Unknown
	default:
		if !sym.Initialized {
			p.bag.Report(diag.UseBeforeInit, tok, "variable '%s' used before initialization", tok.Value)
		}
		node.Typ = sym.Type
	}
	return node
}

// parseCall handles `name(args...)`. Calls to names the table does not
// know are recorded here and left for code generation to resolve
// against the builtins.
func (p *Parser) parseCall() *ast.Node {
	nameTok := p.current
	p.advance()
	p.expect(token.LParen, "Expected '(' in call.")
	var args []*ast.Node
	for !p.check(token.RParen) {
		if len(args) > 0 {
			p.expect(token.Comma, "Expected ',' between arguments.")
		}
		args = append(args, p.parseExpr())
	}
	p.expect(token.RParen, "Expected ')' after arguments.")

	sym := p.syms.Lookup(nameTok.Value)
	switch {
	case sym == nil:
		p.bag.Report(diag.UndeclaredSymbol, nameTok, "call to undeclared function '%s'", nameTok.Value)
	case sym.Kind != symtab.Func:
		p.bag.Report(diag.TypeMismatch, nameTok, "'%s' is not a function", nameTok.Value)
	case len(args) != len(sym.Params):
		p.bag.Report(diag.TypeMismatch, nameTok,
			"function '%s' expects %d argument(s), got %d", nameTok.Value, len(sym.Params), len(args))
	}

	node := ast.NewFuncCall(nameTok, nameTok.Value, args)
	node.Typ = types.Int
	return node
}
