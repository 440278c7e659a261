// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/types"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Expressions
	Number NodeType = iota
	FloatNumber
	String
	Bool
	Ident
	BinaryOp
	UnaryOp
	Comparison
	FuncCall

	// Statements
	Program
	VarDecl
	VarDeclInit
	Assign
	If
	IfElse
	While
	For
	FuncDecl
	Return
	Print
	Read
)

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
	Typ  types.Type // static type, set while parsing; meaningful for expressions
}

// --- Node Data Structs ---
type NumberNode struct{ Value int64 }
type FloatNumberNode struct{ Value float64 }
type StringNode struct{ Value string }
type BoolNode struct{ Value bool }
type IdentNode struct{ Name string }
type BinaryOpNode struct {
	Op          token.Type
	Left, Right *Node
}
type UnaryOpNode struct {
	Op   token.Type
	Expr *Node
}
type ComparisonNode struct {
	Op          token.Type
	Left, Right *Node
}
type FuncCallNode struct {
	Name string
	Args []*Node
}

type ProgramNode struct{ Stmts []*Node }
type VarDeclNode struct {
	Name     string
	DeclType types.Type
}
type VarDeclInitNode struct {
	Name     string
	DeclType types.Type
	Init     *Node
}
type AssignNode struct {
	Name string
	Expr *Node
}
type IfNode struct {
	Cond *Node
	Then []*Node
}
type IfElseNode struct {
	Cond *Node
	Then []*Node
	Else []*Node
}
type WhileNode struct {
	Cond *Node
	Body []*Node
}
type ForNode struct {
	Init *Node
	Cond *Node
	Post *Node
	Body []*Node
}

// Param is one formal parameter of a function declaration.
type Param struct {
	Name string
	Type types.Type
}

type FuncDeclNode struct {
	Name   string
	Params []Param
	Body   []*Node
}
type ReturnNode struct{ Expr *Node }
type PrintNode struct{ Expr *Node }
type ReadNode struct{}

// --- Constructors ---

func newNode(nt NodeType, tok token.Token, data interface{}) *Node {
	return &Node{Type: nt, Tok: tok, Data: data}
}

func NewNumber(tok token.Token, value int64) *Node {
	n := newNode(Number, tok, NumberNode{Value: value})
	n.Typ = types.Int
	return n
}

func NewFloatNumber(tok token.Token, value float64) *Node {
	n := newNode(FloatNumber, tok, FloatNumberNode{Value: value})
	n.Typ = types.Float
	return n
}

func NewString(tok token.Token, value string) *Node {
	n := newNode(String, tok, StringNode{Value: value})
	n.Typ = types.String
	return n
}

func NewBool(tok token.Token, value bool) *Node {
	n := newNode(Bool, tok, BoolNode{Value: value})
	n.Typ = types.Bool
	return n
}

func NewIdent(tok token.Token, name string) *Node {
	return newNode(Ident, tok, IdentNode{Name: name})
}

func NewBinaryOp(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(BinaryOp, tok, BinaryOpNode{Op: op, Left: left, Right: right})
}

func NewUnaryOp(tok token.Token, op token.Type, expr *Node) *Node {
	return newNode(UnaryOp, tok, UnaryOpNode{Op: op, Expr: expr})
}

func NewComparison(tok token.Token, op token.Type, left, right *Node) *Node {
	return newNode(Comparison, tok, ComparisonNode{Op: op, Left: left, Right: right})
}

func NewFuncCall(tok token.Token, name string, args []*Node) *Node {
	return newNode(FuncCall, tok, FuncCallNode{Name: name, Args: args})
}

func NewProgram(tok token.Token, stmts []*Node) *Node {
	return newNode(Program, tok, ProgramNode{Stmts: stmts})
}

func NewVarDecl(tok token.Token, name string, declType types.Type) *Node {
	return newNode(VarDecl, tok, VarDeclNode{Name: name, DeclType: declType})
}

func NewVarDeclInit(tok token.Token, name string, declType types.Type, init *Node) *Node {
	return newNode(VarDeclInit, tok, VarDeclInitNode{Name: name, DeclType: declType, Init: init})
}

func NewAssign(tok token.Token, name string, expr *Node) *Node {
	return newNode(Assign, tok, AssignNode{Name: name, Expr: expr})
}

func NewIf(tok token.Token, cond *Node, then []*Node) *Node {
	return newNode(If, tok, IfNode{Cond: cond, Then: then})
}

func NewIfElse(tok token.Token, cond *Node, then, els []*Node) *Node {
	return newNode(IfElse, tok, IfElseNode{Cond: cond, Then: then, Else: els})
}

func NewWhile(tok token.Token, cond *Node, body []*Node) *Node {
	return newNode(While, tok, WhileNode{Cond: cond, Body: body})
}

func NewFor(tok token.Token, init, cond, post *Node, body []*Node) *Node {
	return newNode(For, tok, ForNode{Init: init, Cond: cond, Post: post, Body: body})
}

func NewFuncDecl(tok token.Token, name string, params []Param, body []*Node) *Node {
	return newNode(FuncDecl, tok, FuncDeclNode{Name: name, Params: params, Body: body})
}

func NewReturn(tok token.Token, expr *Node) *Node {
	return newNode(Return, tok, ReturnNode{Expr: expr})
}

func NewPrint(tok token.Token, expr *Node) *Node {
	return newNode(Print, tok, PrintNode{Expr: expr})
}

func NewRead(tok token.Token) *Node {
	return newNode(Read, tok, ReadNode{})
}
