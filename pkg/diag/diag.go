// Package diag carries compiler diagnostics between pipeline phases.
// Phases record what they find and keep going; whether a recorded
// diagnostic stops the pipeline is the caller's decision, not the
// phase's.
package diag

import (
	"fmt"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
)

type Kind int

const (
	Lexical Kind = iota
	Syntax
	DuplicateDeclaration
	UndeclaredSymbol
	TypeMismatch
	UseBeforeInit
	UnsupportedConversion
	UnreachableCode
	UndeclaredFunction
)

var kindNames = map[Kind]string{
	Lexical:               "lexical",
	Syntax:                "syntax",
	DuplicateDeclaration:  "duplicate-declaration",
	UndeclaredSymbol:      "undeclared-symbol",
	TypeMismatch:          "type-mismatch",
	UseBeforeInit:         "use-before-init",
	UnsupportedConversion: "unsupported-conversion",
	UnreachableCode:       "unreachable-code",
	UndeclaredFunction:    "undeclared-function",
}

func (k Kind) String() string { return kindNames[k] }

// IsWarning reports whether diagnostics of this kind are advisory.
// Everything else is an error from the source program's point of view,
// even when the pipeline chooses to keep going.
func (k Kind) IsWarning() bool { return k == UnsupportedConversion || k == UnreachableCode }

type Diagnostic struct {
	Kind    Kind
	Message string
	Line    int
	Column  int
	Len     int
}

// Bag accumulates diagnostics in the order they were recorded.
type Bag struct {
	diags []Diagnostic
}

func NewBag() *Bag { return &Bag{} }

func (b *Bag) Report(kind Kind, tok token.Token, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
		Len:     tok.Len,
	})
}

func (b *Bag) All() []Diagnostic { return b.diags }

func (b *Bag) Len() int { return len(b.diags) }

func (b *Bag) Merge(other *Bag) {
	if other != nil {
		b.diags = append(b.diags, other.diags...)
	}
}

// CountKind returns how many diagnostics of the given kind were recorded.
func (b *Bag) CountKind(kind Kind) int {
	n := 0
	for _, d := range b.diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// HasErrors reports whether any non-warning diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if !d.Kind.IsWarning() {
			return true
		}
	}
	return false
}

// SyntaxError is the one parse-time condition that aborts the pipeline:
// a genuine grammar violation. The caller receives the offending token's
// value, kind and line.
type SyntaxError struct {
	Tok     token.Token
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Tok.Type == token.EOF {
		return fmt.Sprintf("syntax error at end of input: %s", e.Message)
	}
	what := e.Tok.Value
	if what == "" {
		what = e.Tok.Type.String()
	}
	return fmt.Sprintf("syntax error at line %d near %q (%s): %s", e.Tok.Line, what, e.Tok.Type, e.Message)
}

// UndeclaredFunctionError aborts code generation: a module with a
// dangling call is not a valid artifact to hand downstream.
type UndeclaredFunctionError struct {
	Name string
	Line int
}

func (e *UndeclaredFunctionError) Error() string {
	return fmt.Sprintf("line %d: call to undeclared function '%s'", e.Line, e.Name)
}
