package codegen

import (
	"fmt"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ast"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ir"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/symtab"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/types"
)

// slotType maps a source type to the instruction type carrying it.
// Bools live in words; strings are pointers into the constant pool.
func slotType(t types.Type) ir.Type {
	switch t {
	case types.Float:
		return ir.TypeS
	case types.String:
		return ir.TypePtr
	default:
		return ir.TypeW
	}
}

func (ctx *Context) alignFor(t ir.Type) int {
	if t == ir.TypePtr || t == ir.TypeL {
		return ctx.mod.WordSize
	}
	return 4
}

// declareSlot allocates a named stack slot and binds it in the current
// variable scope. No store is emitted; that is the initializer's job.
// A name redeclared in the same scope keeps its first slot.
func (ctx *Context) declareSlot(name string, t types.Type) *binding {
	if b, ok := ctx.currentScope.vars[name]; ok {
		return b
	}
	st := slotType(t)
	slot := ctx.newTemp(name)
	ctx.addInstr(&ir.Instruction{Op: ir.OpAlloc, Typ: ir.TypePtr, Result: slot,
		Args: []ir.Value{&ir.Const{Value: int64(ctx.alignFor(st))}}, Align: ctx.alignFor(st)})
	b := &binding{slot: slot, typ: t}
	ctx.currentScope.vars[name] = b
	return b
}

// emit appends a single-result instruction and returns the result temp.
func (ctx *Context) emit(op ir.Op, typ, operandType ir.Type, args ...ir.Value) *ir.Temporary {
	res := ctx.newTemp("")
	ctx.addInstr(&ir.Instruction{Op: op, Typ: typ, OperandType: operandType, Result: res, Args: args})
	return res
}

func (ctx *Context) warnConv(tok token.Token, format string, args ...interface{}) {
	if ctx.cfg.IsWarningEnabled(config.WarnUnsupportedConversion) {
		ctx.bag.Report(diag.UnsupportedConversion, tok, format, args...)
	}
}

func zeroOf(t types.Type) ir.Value {
	if t == types.Float {
		return &ir.FloatConst{Value: 0, Typ: ir.TypeS}
	}
	return &ir.Const{Value: 0}
}

// toBool normalizes a value to the word-carried bool: anything nonzero
// becomes 1.
func (ctx *Context) toBool(val ir.Value, t types.Type) ir.Value {
	if t == types.Bool {
		return val
	}
	return ctx.emit(ir.OpCNeq, ir.TypeW, slotType(t), val, zeroOf(t))
}

// convert applies the conversion matrix between source types. Pairs
// with no implementation (anything involving strings) warn and pass the
// value through unchanged.
func (ctx *Context) convert(val ir.Value, from, to types.Type, tok token.Token) ir.Value {
	if from == to || from == types.Unknown || to == types.Unknown {
		return val
	}
	switch {
	case from == types.Int && to == types.Float, from == types.Bool && to == types.Float:
		return ctx.emit(ir.OpSWToF, ir.TypeS, ir.TypeW, val)
	case from == types.Float && to == types.Int:
		return ctx.emit(ir.OpFToSI, ir.TypeW, ir.TypeS, val)
	case from == types.Float && to == types.Bool, from == types.Int && to == types.Bool:
		return ctx.toBool(val, from)
	case from == types.Bool && to == types.Int:
		return ctx.emit(ir.OpCopy, ir.TypeW, ir.TypeNone, val)
	default:
		ctx.warnConv(tok, "conversion from %s to %s not implemented, value passed through", from, to)
		return val
	}
}

// --- expressions ---

// genExpr lowers an expression and returns its value with its source
// type.
func (ctx *Context) genExpr(node *ast.Node) (ir.Value, types.Type) {
	switch node.Type {
	case ast.Number:
		return &ir.Const{Value: node.Data.(ast.NumberNode).Value}, types.Int
	case ast.FloatNumber:
		return &ir.FloatConst{Value: node.Data.(ast.FloatNumberNode).Value, Typ: ir.TypeS}, types.Float
	case ast.String:
		return ctx.mod.InternString(node.Data.(ast.StringNode).Value), types.String
	case ast.Bool:
		v := int64(0)
		if node.Data.(ast.BoolNode).Value {
			v = 1
		}
		return &ir.Const{Value: v}, types.Bool
	case ast.Ident:
		return ctx.genIdent(node)
	case ast.UnaryOp:
		return ctx.genUnary(node)
	case ast.BinaryOp:
		return ctx.genBinary(node)
	case ast.Comparison:
		return ctx.genComparison(node)
	case ast.FuncCall:
		return ctx.genCall(node)
	}
	panic(fatal{fmt.Errorf("line %d: statement node used as an expression", node.Tok.Line)})
}

// genIdent loads a bound variable. A bare token that never resolved to
// a declaration is materialized as a pooled string constant, which
// keeps lowering total over unchecked input.
func (ctx *Context) genIdent(node *ast.Node) (ir.Value, types.Type) {
	name := node.Data.(ast.IdentNode).Name
	b := ctx.lookupVar(name)
	if b == nil {
		return ctx.mod.InternString(name), types.String
	}
	st := slotType(b.typ)
	res := ctx.emit(ir.OpLoad, st, st, b.slot)
	return res, b.typ
}

func (ctx *Context) genUnary(node *ast.Node) (ir.Value, types.Type) {
	d := node.Data.(ast.UnaryOpNode)
	val, t := ctx.genExpr(d.Expr)

	if d.Op == token.Not {
		// comparing against zero negates in one step
		res := ctx.emit(ir.OpCEq, ir.TypeW, slotType(t), val, zeroOf(t))
		return res, types.Bool
	}

	if t == types.Float {
		return ctx.emit(ir.OpNegF, ir.TypeS, ir.TypeS, val), types.Float
	}
	return ctx.emit(ir.OpSub, ir.TypeW, ir.TypeW, &ir.Const{Value: 0}, val), types.Int
}

var intArithOps = map[token.Type]ir.Op{
	token.Plus:  ir.OpAdd,
	token.Minus: ir.OpSub,
	token.Star:  ir.OpMul,
	token.Slash: ir.OpDiv,
	token.Rem:   ir.OpRem,
}

// floatArithOps has no remainder entry: there is no float rem
// instruction, so float % lowers to a libm call instead.
var floatArithOps = map[token.Type]ir.Op{
	token.Plus:  ir.OpAddF,
	token.Minus: ir.OpSubF,
	token.Star:  ir.OpMulF,
	token.Slash: ir.OpDivF,
}

func (ctx *Context) genBinary(node *ast.Node) (ir.Value, types.Type) {
	d := node.Data.(ast.BinaryOpNode)

	if d.Op == token.AndAnd || d.Op == token.OrOr {
		lv, lt := ctx.genExpr(d.Left)
		rv, rt := ctx.genExpr(d.Right)
		lv, rv = ctx.toBool(lv, lt), ctx.toBool(rv, rt)
		op := ir.OpAnd
		if d.Op == token.OrOr {
			op = ir.OpOr
		}
		return ctx.emit(op, ir.TypeW, ir.TypeW, lv, rv), types.Bool
	}

	lv, lt := ctx.genExpr(d.Left)
	rv, rt := ctx.genExpr(d.Right)

	if lt == types.String || rt == types.String {
		if d.Op == token.Plus && lt == types.String && rt == types.String {
			ctx.warnConv(node.Tok, "string concatenation not implemented, using left operand")
		} else {
			ctx.warnConv(node.Tok, "%s is not implemented for %s and %s", node.Tok.Type, lt, rt)
		}
		if lt == types.String {
			return lv, types.String
		}
		return rv, types.String
	}

	operandType := lt
	if lt != rt {
		// mixed numeric operands widen to float
		lv = ctx.convert(lv, lt, types.Float, node.Tok)
		rv = ctx.convert(rv, rt, types.Float, node.Tok)
		operandType = types.Float
	}

	if operandType == types.Float {
		op, ok := floatArithOps[d.Op]
		if !ok {
			return ctx.genFloatRem(lv, rv), types.Float
		}
		return ctx.emit(op, ir.TypeS, ir.TypeS, lv, rv), types.Float
	}
	return ctx.emit(intArithOps[d.Op], ir.TypeW, ir.TypeW, lv, rv), operandType
}

// genFloatRem lowers float % through fmodf, the same way printf and
// scanf are reached.
func (ctx *Context) genFloatRem(lv, rv ir.Value) ir.Value {
	ctx.mod.AddExtrn("fmodf")
	res := ctx.newTemp("")
	ctx.addInstr(&ir.Instruction{
		Op: ir.OpCall, Typ: ir.TypeS, Result: res,
		Args:     []ir.Value{&ir.Global{Name: "fmodf"}, lv, rv},
		ArgTypes: []ir.Type{ir.TypeS, ir.TypeS},
	})
	return res
}

var cmpOps = map[token.Type]ir.Op{
	token.EqEq: ir.OpCEq,
	token.Neq:  ir.OpCNeq,
	token.Lt:   ir.OpCLt,
	token.Gt:   ir.OpCGt,
	token.Lte:  ir.OpCLe,
	token.Gte:  ir.OpCGe,
}

func (ctx *Context) genComparison(node *ast.Node) (ir.Value, types.Type) {
	d := node.Data.(ast.ComparisonNode)
	lv, lt := ctx.genExpr(d.Left)
	rv, rt := ctx.genExpr(d.Right)

	operandType := lt
	if lt != rt {
		lv = ctx.convert(lv, lt, types.Float, node.Tok)
		rv = ctx.convert(rv, rt, types.Float, node.Tok)
		operandType = types.Float
	}

	res := ctx.emit(cmpOps[d.Op], ir.TypeW, slotType(operandType), lv, rv)
	return res, types.Bool
}

// builtins the language can reach by name without a declaration.
var builtins = map[string]bool{"printf": true, "scanf": true}

// genCall resolves a call: user-declared functions first, then the
// builtin table. Anything else aborts lowering: a module with a
// dangling call is not worth emitting.
func (ctx *Context) genCall(node *ast.Node) (ir.Value, types.Type) {
	d := node.Data.(ast.FuncCallNode)

	sym := ctx.syms.Globals()[d.Name]
	if sym != nil && sym.Kind != symtab.Func {
		sym = nil
	}
	if sym == nil {
		if !builtins[d.Name] {
			panic(fatal{&diag.UndeclaredFunctionError{Name: d.Name, Line: node.Tok.Line}})
		}
		ctx.mod.AddExtrn(d.Name)
	}

	args := []ir.Value{&ir.Global{Name: d.Name}}
	var argTypes []ir.Type
	for i, argNode := range d.Args {
		val, vt := ctx.genExpr(argNode)
		if sym != nil && i < len(sym.Params) {
			val = ctx.convert(val, vt, sym.Params[i], argNode.Tok)
			vt = sym.Params[i]
		}
		args = append(args, val)
		argTypes = append(argTypes, slotType(vt))
	}

	res := ctx.newTemp("")
	ctx.addInstr(&ir.Instruction{Op: ir.OpCall, Typ: ir.TypeW, Result: res, Args: args, ArgTypes: argTypes})
	return res, types.Int
}

// --- builtins ---

// printFormats maps a printed type to its pooled format string. Bools
// print as integers after a retag.
var printFormats = map[types.Type]string{
	types.Int:    "%d\n",
	types.Bool:   "%d\n",
	types.Float:  "%f\n",
	types.String: "%s\n",
}

func (ctx *Context) genPrint(node *ast.Node) {
	d := node.Data.(ast.PrintNode)
	val, t := ctx.genExpr(d.Expr)

	format, ok := printFormats[t]
	if !ok {
		format = printFormats[types.Int]
	}

	var argType ir.Type
	switch t {
	case types.Float:
		// floats widen to double across the variadic boundary
		val = ctx.emit(ir.OpFToF, ir.TypeD, ir.TypeS, val)
		argType = ir.TypeD
	case types.String:
		argType = ir.TypePtr
	case types.Bool:
		val = ctx.emit(ir.OpCopy, ir.TypeW, ir.TypeNone, val)
		argType = ir.TypeW
	default:
		argType = ir.TypeW
	}

	fmtPtr := ctx.mod.InternString(format)
	ctx.mod.AddExtrn("printf")
	res := ctx.newTemp("")
	ctx.addInstr(&ir.Instruction{
		Op: ir.OpCall, Typ: ir.TypeW, Result: res,
		Args:     []ir.Value{&ir.Global{Name: "printf"}, fmtPtr, val},
		ArgTypes: []ir.Type{ir.TypePtr, argType}, VariadicFixed: 1,
	})
}

// genRead scans one integer into a scratch slot and discards it; the
// language has no way to bind the value yet.
func (ctx *Context) genRead(node *ast.Node) {
	scratch := ctx.newTemp("read_tmp")
	ctx.addInstr(&ir.Instruction{Op: ir.OpAlloc, Typ: ir.TypePtr, Result: scratch,
		Args: []ir.Value{&ir.Const{Value: 4}}, Align: 4})

	fmtPtr := ctx.mod.InternString("%d")
	ctx.mod.AddExtrn("scanf")
	res := ctx.newTemp("")
	ctx.addInstr(&ir.Instruction{
		Op: ir.OpCall, Typ: ir.TypeW, Result: res,
		Args:     []ir.Value{&ir.Global{Name: "scanf"}, fmtPtr, scratch},
		ArgTypes: []ir.Type{ir.TypePtr, ir.TypePtr}, VariadicFixed: 1,
	})
}
