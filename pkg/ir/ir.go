// Package ir defines the block-structured intermediate representation
// produced by lowering: a module of functions, each a list of basic
// blocks holding typed instructions over virtual values.
package ir

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

type Op int

const (
	OpAlloc Op = iota
	OpLoad
	OpStore
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAddF
	OpSubF
	OpMulF
	OpDivF
	OpNegF
	OpAnd
	OpOr
	OpCEq
	OpCNeq
	OpCLt
	OpCGt
	OpCLe
	OpCGe
	OpCopy
	OpSWToF
	OpFToSI
	OpFToF
	OpJmp
	OpJnz
	OpRet
	OpCall
)

// IsTerminator reports whether op ends a basic block.
func (op Op) IsTerminator() bool {
	return op == OpJmp || op == OpJnz || op == OpRet
}

type Type int

const (
	TypeNone Type = iota
	TypeB         // byte, used in data definitions
	TypeW         // word (32-bit); ints and bools live here
	TypeL         // long (64-bit)
	TypeS         // single float (32-bit)
	TypeD         // double float (64-bit); floats widen here across calls
	TypePtr       // pointer-sized, word-size dependent
)

type Value interface {
	isValue()
	String() string
}

type Const struct{ Value int64 }
type FloatConst struct {
	Value float64
	Typ   Type
}
type Global struct{ Name string }
type Temporary struct {
	Name string
	ID   int
}
type Label struct{ Name string }

func (c *Const) isValue()      {}
func (f *FloatConst) isValue() {}
func (g *Global) isValue()     {}
func (t *Temporary) isValue()  {}
func (l *Label) isValue()      {}

func (c *Const) String() string { return fmt.Sprintf("%d", c.Value) }
func (f *FloatConst) String() string {
	if f.Typ == TypeD {
		return fmt.Sprintf("d_%g", f.Value)
	}
	return fmt.Sprintf("s_%g", f.Value)
}
func (g *Global) String() string { return "$" + g.Name }
func (t *Temporary) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%%%s.%d", t.Name, t.ID)
	}
	return fmt.Sprintf("%%t%d", t.ID)
}
func (l *Label) String() string { return "@" + l.Name }

type Instruction struct {
	Op          Op
	Typ         Type // result type
	OperandType Type // for loads, stores, comparisons and conversions
	Result      Value
	Args        []Value
	ArgTypes    []Type // for calls: one type per argument after the callee
	Align       int    // for allocs
	// VariadicFixed marks a call to a variadic function: the number of
	// fixed arguments before the "..." marker. Zero means not variadic.
	VariadicFixed int
}

type BasicBlock struct {
	Label        *Label
	Instructions []*Instruction
}

func (b *BasicBlock) Add(instr *Instruction) { b.Instructions = append(b.Instructions, instr) }

// Terminated reports whether the block already ends in a terminator.
func (b *BasicBlock) Terminated() bool {
	n := len(b.Instructions)
	return n > 0 && b.Instructions[n-1].Op.IsTerminator()
}

type Param struct {
	Name string
	Typ  Type
	Val  Value
}

type Func struct {
	Name       string
	Params     []*Param
	ReturnType Type
	Blocks     []*BasicBlock
	Export     bool
}

// Validate checks the block discipline: every block carries exactly one
// terminator and it is the last instruction.
func (f *Func) Validate() error {
	for _, b := range f.Blocks {
		if len(b.Instructions) == 0 || !b.Terminated() {
			return fmt.Errorf("function %s: block @%s does not end in a terminator", f.Name, b.Label.Name)
		}
		for i, instr := range b.Instructions[:len(b.Instructions)-1] {
			if instr.Op.IsTerminator() {
				return fmt.Errorf("function %s: block @%s has a terminator at position %d of %d",
					f.Name, b.Label.Name, i, len(b.Instructions))
			}
		}
	}
	return nil
}

// Module is the unit lowering produces and the text backend consumes.
type Module struct {
	Funcs       []*Func
	Extrns      []string
	WordSize    int
	strings     map[string]string // content -> label
	stringOrder []string          // contents in first-interned order
}

func NewModule(wordSize int) *Module {
	return &Module{WordSize: wordSize, strings: make(map[string]string)}
}

// InternString returns the global for a pooled string constant,
// creating it on first use. Equal contents share one definition; the
// label is derived from a content hash so it is stable across runs.
func (m *Module) InternString(s string) *Global {
	if label, ok := m.strings[s]; ok {
		return &Global{Name: label}
	}
	label := fmt.Sprintf("str.%016x", xxhash.Sum64String(s))
	m.strings[s] = label
	m.stringOrder = append(m.stringOrder, s)
	return &Global{Name: label}
}

// StringPool yields the pooled strings as (content, label) pairs in
// interning order, so emission is deterministic.
func (m *Module) StringPool() []StringData {
	pool := make([]StringData, 0, len(m.stringOrder))
	for _, s := range m.stringOrder {
		pool = append(pool, StringData{Content: s, Label: m.strings[s]})
	}
	return pool
}

type StringData struct {
	Content string
	Label   string
}

// AddExtrn records an external function the module calls, once.
func (m *Module) AddExtrn(name string) {
	for _, e := range m.Extrns {
		if e == name {
			return
		}
	}
	m.Extrns = append(m.Extrns, name)
}

func (m *Module) FindFunc(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (m *Module) Validate() error {
	for _, f := range m.Funcs {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}
