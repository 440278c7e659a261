// Package symtab implements the scoped symbol table the parser checks
// declarations against. It records conditions (duplicate, missing,
// uninitialized) and leaves diagnostic reporting to the caller.
package symtab

import "github.com/ahtishamdilawar/CForge-mini-compiler/pkg/types"

type Kind int

const (
	Var Kind = iota
	Func
)

type Symbol struct {
	Name        string
	Kind        Kind
	Type        types.Type   // declared type, or return type for functions
	Params      []types.Type // parameter types for functions
	Initialized bool
	Line        int
}

// Table is a stack of lexical scopes. The bottom scope is the global
// one and is never popped.
type Table struct {
	scopes []map[string]*Symbol
}

func New() *Table {
	return &Table{scopes: []map[string]*Symbol{{}}}
}

func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, map[string]*Symbol{})
}

func (t *Table) ExitScope() {
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

func (t *Table) Depth() int { return len(t.scopes) }

// Declare binds sym in the current scope. If the name is already bound
// there, the existing symbol wins and is returned; the caller decides
// whether that is worth a diagnostic.
func (t *Table) Declare(sym *Symbol) (existing *Symbol, ok bool) {
	cur := t.scopes[len(t.scopes)-1]
	if prev, found := cur[sym.Name]; found {
		return prev, false
	}
	cur[sym.Name] = sym
	return sym, true
}

// Lookup resolves name from the innermost scope outward. Returns nil
// when the name is not declared anywhere.
func (t *Table) Lookup(name string) *Symbol {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym
		}
	}
	return nil
}

// LookupCurrent resolves name in the current scope only.
func (t *Table) LookupCurrent(name string) *Symbol {
	if sym, ok := t.scopes[len(t.scopes)-1][name]; ok {
		return sym
	}
	return nil
}

// Globals returns the global scope, for callers that want to walk the
// declared functions after parsing.
func (t *Table) Globals() map[string]*Symbol { return t.scopes[0] }
