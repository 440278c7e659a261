// Package codegen lowers the checked syntax tree into the block-based
// intermediate module and renders it, either as textual QBE IR or as
// target assembly through libqbe.
package codegen

import (
	"fmt"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ast"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ir"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/symtab"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/types"
)

type binding struct {
	slot ir.Value
	typ  types.Type
}

type varScope struct {
	vars   map[string]*binding
	parent *varScope
}

func newVarScope(parent *varScope) *varScope {
	return &varScope{vars: make(map[string]*binding), parent: parent}
}

// Context carries the lowering cursor: the module under construction,
// the function and block instructions go into, and the visible variable
// slots. Statement lowering reports whether it terminated the block, so
// callers know when to stop appending.
type Context struct {
	mod          *ir.Module
	cfg          *config.Config
	bag          *diag.Bag
	syms         *symtab.Table
	currentFunc  *ir.Func
	currentBlock *ir.BasicBlock
	currentScope *varScope
	tempCount    int
	labelCount   int
}

func NewContext(cfg *config.Config, bag *diag.Bag) *Context {
	return &Context{
		mod:          ir.NewModule(cfg.WordSize),
		cfg:          cfg,
		bag:          bag,
		currentScope: newVarScope(nil),
	}
}

// fatal aborts lowering; recovered in Generate.
type fatal struct{ err error }

// Generate lowers the program into a module. Functions are emitted in
// source order after the entry function; when the source defines no
// 'main', one is synthesized around the top-level statements.
func (ctx *Context) Generate(root *ast.Node, tab *symtab.Table) (mod *ir.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(fatal)
			if !ok {
				panic(r)
			}
			mod, err = nil, f.err
		}
	}()

	ctx.syms = tab
	prog, ok := root.Data.(ast.ProgramNode)
	if !ok {
		return nil, fmt.Errorf("codegen: root node is not a program")
	}

	userMain := false
	for _, stmt := range prog.Stmts {
		if d, isFunc := stmt.Data.(ast.FuncDeclNode); isFunc && d.Name == "main" {
			userMain = true
		}
	}

	if !userMain && ctx.cfg.IsFeatureEnabled(config.FeatSynthMain) {
		ctx.beginFunc("main", nil)
		mainDone := false
		for _, stmt := range prog.Stmts {
			if stmt.Type == ast.FuncDecl {
				ctx.lowerFunc(stmt)
				continue
			}
			if mainDone || ctx.blockDone(stmt) {
				mainDone = true
				continue
			}
			ctx.genStmt(stmt)
		}
		ctx.endFunc()
	} else {
		for _, stmt := range prog.Stmts {
			if stmt.Type == ast.FuncDecl {
				ctx.lowerFunc(stmt)
			}
		}
	}

	if err := ctx.mod.Validate(); err != nil {
		return nil, err
	}
	return ctx.mod, nil
}

// --- cursor helpers ---

func (ctx *Context) newTemp(name string) *ir.Temporary {
	t := &ir.Temporary{Name: name, ID: ctx.tempCount}
	ctx.tempCount++
	return t
}

func (ctx *Context) newLabel(prefix string) *ir.Label {
	l := &ir.Label{Name: fmt.Sprintf("%s.%d", prefix, ctx.labelCount)}
	ctx.labelCount++
	return l
}

func (ctx *Context) startBlock(label *ir.Label) {
	b := &ir.BasicBlock{Label: label}
	ctx.currentFunc.Blocks = append(ctx.currentFunc.Blocks, b)
	ctx.currentBlock = b
}

func (ctx *Context) addInstr(instr *ir.Instruction) {
	ctx.currentBlock.Add(instr)
}

func (ctx *Context) enterScope() { ctx.currentScope = newVarScope(ctx.currentScope) }
func (ctx *Context) exitScope() {
	if ctx.currentScope.parent != nil {
		ctx.currentScope = ctx.currentScope.parent
	}
}

func (ctx *Context) lookupVar(name string) *binding {
	for s := ctx.currentScope; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			return b
		}
	}
	return nil
}

// blockDone checks whether the current block already ended; statements
// after a terminator never execute and are dropped with a warning.
func (ctx *Context) blockDone(next *ast.Node) bool {
	if !ctx.currentBlock.Terminated() {
		return false
	}
	if ctx.cfg.IsWarningEnabled(config.WarnUnreachableCode) {
		ctx.bag.Report(diag.UnreachableCode, next.Tok, "unreachable code")
	}
	return true
}

// --- functions ---

type cursor struct {
	fn    *ir.Func
	block *ir.BasicBlock
	scope *varScope
	temps int
	lbls  int
}

func (ctx *Context) saveCursor() cursor {
	return cursor{ctx.currentFunc, ctx.currentBlock, ctx.currentScope, ctx.tempCount, ctx.labelCount}
}

func (ctx *Context) restoreCursor(c cursor) {
	ctx.currentFunc, ctx.currentBlock, ctx.currentScope = c.fn, c.block, c.scope
	ctx.tempCount, ctx.labelCount = c.temps, c.lbls
}

func (ctx *Context) beginFunc(name string, params []ast.Param) {
	fn := &ir.Func{Name: name, ReturnType: ir.TypeW, Export: true}
	ctx.mod.Funcs = append(ctx.mod.Funcs, fn)
	ctx.currentFunc = fn
	ctx.tempCount, ctx.labelCount = 0, 0
	ctx.currentScope = newVarScope(nil)
	ctx.startBlock(&ir.Label{Name: "start"})

	for _, prm := range params {
		in := ctx.newTemp(prm.Name + ".arg")
		fn.Params = append(fn.Params, &ir.Param{Name: prm.Name, Typ: slotType(prm.Type), Val: in})
		b := ctx.declareSlot(prm.Name, prm.Type)
		ctx.addInstr(&ir.Instruction{Op: ir.OpStore, Typ: slotType(prm.Type), Args: []ir.Value{in, b.slot}})
	}
}

// endFunc closes the function with an implicit 'return 0' when control
// can still fall off the end.
func (ctx *Context) endFunc() {
	if !ctx.currentBlock.Terminated() {
		ctx.addInstr(&ir.Instruction{Op: ir.OpRet, Args: []ir.Value{&ir.Const{Value: 0}}})
	}
}

// lowerFunc lowers a function definition wherever it appears. The
// caller's cursor is saved for the duration of the body and restored
// afterward, so definitions nest without bleeding state.
func (ctx *Context) lowerFunc(node *ast.Node) {
	d := node.Data.(ast.FuncDeclNode)
	saved := ctx.saveCursor()
	ctx.beginFunc(d.Name, d.Params)
	ctx.genStmts(d.Body)
	ctx.endFunc()
	ctx.restoreCursor(saved)
}

// --- statements ---

// genStmts lowers a statement list, stopping at the first statement
// that can never run.
func (ctx *Context) genStmts(stmts []*ast.Node) bool {
	for _, stmt := range stmts {
		if ctx.blockDone(stmt) {
			return true
		}
		ctx.genStmt(stmt)
	}
	return ctx.currentBlock.Terminated()
}

// genStmt lowers one statement and reports whether it terminated the
// current block.
func (ctx *Context) genStmt(node *ast.Node) bool {
	switch node.Type {
	case ast.VarDecl:
		d := node.Data.(ast.VarDeclNode)
		ctx.declareSlot(d.Name, d.DeclType)
	case ast.VarDeclInit:
		d := node.Data.(ast.VarDeclInitNode)
		b := ctx.declareSlot(d.Name, d.DeclType)
		val, vt := ctx.genExpr(d.Init)
		val = ctx.convert(val, vt, b.typ, node.Tok)
		ctx.addInstr(&ir.Instruction{Op: ir.OpStore, Typ: slotType(b.typ), Args: []ir.Value{val, b.slot}})
	case ast.Assign:
		d := node.Data.(ast.AssignNode)
		b := ctx.lookupVar(d.Name)
		if b == nil {
			panic(fatal{fmt.Errorf("line %d: assignment to undeclared variable '%s'", node.Tok.Line, d.Name)})
		}
		val, vt := ctx.genExpr(d.Expr)
		val = ctx.convert(val, vt, b.typ, node.Tok)
		ctx.addInstr(&ir.Instruction{Op: ir.OpStore, Typ: slotType(b.typ), Args: []ir.Value{val, b.slot}})
	case ast.If:
		return ctx.genIf(node)
	case ast.IfElse:
		return ctx.genIfElse(node)
	case ast.While:
		return ctx.genWhile(node)
	case ast.For:
		return ctx.genFor(node)
	case ast.FuncDecl:
		ctx.lowerFunc(node)
	case ast.Return:
		ctx.genReturn(node)
		return true
	case ast.Print:
		ctx.genPrint(node)
	case ast.Read:
		ctx.genRead(node)
	default:
		// expression statement: evaluate for effect, discard the value
		ctx.genExpr(node)
	}
	return false
}

func (ctx *Context) genIf(node *ast.Node) bool {
	d := node.Data.(ast.IfNode)
	cond, ct := ctx.genExpr(d.Cond)
	cond = ctx.toBool(cond, ct)

	thenL, endL := ctx.newLabel("if.then"), ctx.newLabel("if.end")
	ctx.addInstr(&ir.Instruction{Op: ir.OpJnz, Args: []ir.Value{cond, thenL, endL}})

	ctx.startBlock(thenL)
	ctx.enterScope()
	terminated := ctx.genStmts(d.Then)
	ctx.exitScope()
	if !terminated {
		ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{endL}})
	}

	ctx.startBlock(endL)
	return false
}

func (ctx *Context) genIfElse(node *ast.Node) bool {
	d := node.Data.(ast.IfElseNode)
	cond, ct := ctx.genExpr(d.Cond)
	cond = ctx.toBool(cond, ct)

	thenL, elseL, endL := ctx.newLabel("if.then"), ctx.newLabel("if.else"), ctx.newLabel("if.end")
	ctx.addInstr(&ir.Instruction{Op: ir.OpJnz, Args: []ir.Value{cond, thenL, elseL}})

	ctx.startBlock(thenL)
	ctx.enterScope()
	thenDone := ctx.genStmts(d.Then)
	ctx.exitScope()
	if !thenDone {
		ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{endL}})
	}

	ctx.startBlock(elseL)
	ctx.enterScope()
	elseDone := ctx.genStmts(d.Else)
	ctx.exitScope()
	if !elseDone {
		ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{endL}})
	}

	ctx.startBlock(endL)
	return false
}

func (ctx *Context) genWhile(node *ast.Node) bool {
	d := node.Data.(ast.WhileNode)
	condL, bodyL, endL := ctx.newLabel("while.cond"), ctx.newLabel("while.body"), ctx.newLabel("while.end")

	ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{condL}})

	ctx.startBlock(condL)
	cond, ct := ctx.genExpr(d.Cond)
	cond = ctx.toBool(cond, ct)
	ctx.addInstr(&ir.Instruction{Op: ir.OpJnz, Args: []ir.Value{cond, bodyL, endL}})

	ctx.startBlock(bodyL)
	ctx.enterScope()
	terminated := ctx.genStmts(d.Body)
	ctx.exitScope()
	if !terminated {
		ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{condL}})
	}

	ctx.startBlock(endL)
	return false
}

// genFor lowers `for (init cond; post) { body }`: init runs in the
// current block, the body falls through to a dedicated increment block
// which loops back to the condition.
func (ctx *Context) genFor(node *ast.Node) bool {
	d := node.Data.(ast.ForNode)

	ctx.enterScope()
	ctx.genStmt(d.Init)

	condL, bodyL, incrL, endL := ctx.newLabel("for.cond"), ctx.newLabel("for.body"),
		ctx.newLabel("for.incr"), ctx.newLabel("for.end")

	ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{condL}})

	ctx.startBlock(condL)
	cond, ct := ctx.genExpr(d.Cond)
	cond = ctx.toBool(cond, ct)
	ctx.addInstr(&ir.Instruction{Op: ir.OpJnz, Args: []ir.Value{cond, bodyL, endL}})

	ctx.startBlock(bodyL)
	terminated := ctx.genStmts(d.Body)
	if !terminated {
		ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{incrL}})
	}

	ctx.startBlock(incrL)
	ctx.genStmt(d.Post)
	ctx.addInstr(&ir.Instruction{Op: ir.OpJmp, Args: []ir.Value{condL}})

	ctx.exitScope()
	ctx.startBlock(endL)
	return false
}

// genReturn coerces the value to the int return type. A string return
// has no representation; it degrades to 0 with a warning.
func (ctx *Context) genReturn(node *ast.Node) {
	d := node.Data.(ast.ReturnNode)
	val, vt := ctx.genExpr(d.Expr)
	switch vt {
	case types.Float:
		val = ctx.emit(ir.OpFToSI, ir.TypeW, ir.TypeS, val)
	case types.Bool:
		val = ctx.emit(ir.OpCopy, ir.TypeW, ir.TypeNone, val)
	case types.String:
		ctx.warnConv(node.Tok, "cannot return a string from an int function, returning 0")
		val = &ir.Const{Value: 0}
	}
	ctx.addInstr(&ir.Instruction{Op: ir.OpRet, Args: []ir.Value{val}})
}
