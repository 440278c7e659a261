package parser

import (
	"testing"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ast"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/lexer"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/types"
)

func parseSrc(t *testing.T, src string, cfg *config.Config) (*ast.Node, *diag.Bag, error) {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	bag := diag.NewBag()
	toks := lexer.Tokenize(src, bag)
	p := NewParser(toks, bag, cfg)
	root, _, err := p.Parse()
	return root, bag, err
}

func TestCleanProgram(t *testing.T) {
	src := `
int x = 1;
float y = 2.5;
if (x > 0) {
	print(x);
}
`
	root, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", bag.All())
	}
	stmts := root.Data.(ast.ProgramNode).Stmts
	if len(stmts) != 3 {
		t.Errorf("got %d top-level statements, want 3", len(stmts))
	}
}

func TestSyntaxErrorAborts(t *testing.T) {
	_, bag, err := parseSrc(t, "int x = ;", nil)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	se, ok := err.(*diag.SyntaxError)
	if !ok {
		t.Fatalf("error type = %T, want *diag.SyntaxError", err)
	}
	if se.Tok.Line != 1 {
		t.Errorf("error line = %d, want 1", se.Tok.Line)
	}
	if bag.CountKind(diag.Syntax) != 1 {
		t.Errorf("syntax diagnostics = %d, want 1", bag.CountKind(diag.Syntax))
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	_, bag, err := parseSrc(t, "int x; float x;", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.DuplicateDeclaration) != 1 {
		t.Errorf("duplicate diagnostics = %d, want 1", bag.CountKind(diag.DuplicateDeclaration))
	}
}

func TestShadowingIsNotDuplicate(t *testing.T) {
	src := `
int x = 1;
if (x > 0) {
	float x = 2.0;
	print(x);
}
`
	_, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Errorf("expected no diagnostics, got %v", bag.All())
	}
}

func TestUndeclaredVariable(t *testing.T) {
	_, bag, err := parseSrc(t, "print(nope);", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.UndeclaredSymbol) != 1 {
		t.Errorf("undeclared diagnostics = %d, want 1", bag.CountKind(diag.UndeclaredSymbol))
	}
}

func TestUseBeforeInit(t *testing.T) {
	_, bag, err := parseSrc(t, "int x; print(x); x = 1; print(x);", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.UseBeforeInit) != 1 {
		t.Errorf("use-before-init diagnostics = %d, want 1", bag.CountKind(diag.UseBeforeInit))
	}
}

func TestInitializerTypeMismatch(t *testing.T) {
	_, bag, err := parseSrc(t, `int x = "hi";`, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.TypeMismatch) != 1 {
		t.Errorf("type diagnostics = %d, want 1", bag.CountKind(diag.TypeMismatch))
	}
}

func TestAssignmentTypeMismatch(t *testing.T) {
	_, bag, err := parseSrc(t, `bool b = true; b = 3;`, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.TypeMismatch) != 1 {
		t.Errorf("type diagnostics = %d, want 1", bag.CountKind(diag.TypeMismatch))
	}
}

func TestMixedArithmeticPromotes(t *testing.T) {
	root, bag, err := parseSrc(t, "float y = 1 + 2.5;", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics with promotion on, got %v", bag.All())
	}
	decl := root.Data.(ast.ProgramNode).Stmts[0].Data.(ast.VarDeclInitNode)
	if decl.Init.Typ != types.Float {
		t.Errorf("initializer type = %v, want float", decl.Init.Typ)
	}
}

func TestMixedArithmeticStrict(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatPromoteMixed, false)
	_, bag, err := parseSrc(t, "float y = 1 + 2.5;", cfg)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.TypeMismatch) == 0 {
		t.Error("expected a type mismatch with promotion off")
	}
}

func TestNonBoolConditionIsAccepted(t *testing.T) {
	srcs := []string{
		"int x = 1; while (x) { x = 0; }",
		"if (1) { print(1); }",
		"for (int i = 3; i; i = i - 1) { print(i); }",
	}
	for _, src := range srcs {
		_, bag, err := parseSrc(t, src, nil)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", src, err)
		}
		if bag.Len() != 0 {
			t.Errorf("Parse(%q) recorded %v, want none", src, bag.All())
		}
	}
}

func TestLogicalOperandsMustBeBool(t *testing.T) {
	_, bag, err := parseSrc(t, "bool b = 1 && true;", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.TypeMismatch) != 1 {
		t.Errorf("type diagnostics = %d, want 1", bag.CountKind(diag.TypeMismatch))
	}
}

func TestFunctionDeclarationAndCall(t *testing.T) {
	src := `
def add(int a, int b) {
	return a + b;
}
int r = add(1, 2);
`
	_, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Errorf("expected no diagnostics, got %v", bag.All())
	}
}

func TestCallArityMismatch(t *testing.T) {
	src := `
def f(int a) { return a; }
int r = f(1, 2);
`
	_, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.TypeMismatch) != 1 {
		t.Errorf("type diagnostics = %d, want 1", bag.CountKind(diag.TypeMismatch))
	}
}

func TestCallToUndeclaredIsRecorded(t *testing.T) {
	_, bag, err := parseSrc(t, "int r = ghost(1);", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.UndeclaredSymbol) != 1 {
		t.Errorf("undeclared diagnostics = %d, want 1", bag.CountKind(diag.UndeclaredSymbol))
	}
}

func TestRecursionResolves(t *testing.T) {
	src := `
def fact(int n) {
	if (n <= 1) {
		return 1;
	}
	return n * fact(n - 1);
}
`
	_, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Errorf("expected no diagnostics, got %v", bag.All())
	}
}

func TestForLoopScopesItsVariable(t *testing.T) {
	src := `
for (int i = 0; i < 3; i = i + 1) {
	print(i);
}
print(i);
`
	_, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.UndeclaredSymbol) != 1 {
		t.Errorf("undeclared diagnostics = %d, want 1 (loop variable escaped)", bag.CountKind(diag.UndeclaredSymbol))
	}
}

func TestForInitMustBeDeclaration(t *testing.T) {
	_, _, err := parseSrc(t, "int i; for (i = 0; i < 3; i = i + 1) { }", nil)
	if err == nil {
		t.Fatal("expected a syntax error for a non-declaration init")
	}
}

func TestParametersAreInitialized(t *testing.T) {
	src := `
def twice(int n) {
	return n + n;
}
`
	_, bag, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.CountKind(diag.UseBeforeInit) != 0 {
		t.Error("parameters should count as initialized")
	}
}

func TestIfElseTree(t *testing.T) {
	src := `
bool b = true;
if (b) {
	print(1);
} else {
	print(2);
}
`
	root, _, err := parseSrc(t, src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	stmts := root.Data.(ast.ProgramNode).Stmts
	if stmts[1].Type != ast.IfElse {
		t.Errorf("node type = %v, want IfElse", stmts[1].Type)
	}
	d := stmts[1].Data.(ast.IfElseNode)
	if len(d.Then) != 1 || len(d.Else) != 1 {
		t.Errorf("branch lengths = %d/%d, want 1/1", len(d.Then), len(d.Else))
	}
}

func TestRemainderBindsLikeAddition(t *testing.T) {
	root, bag, err := parseSrc(t, "int r = 6 % 2 * 2;", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", bag.All())
	}
	decl := root.Data.(ast.ProgramNode).Stmts[0].Data.(ast.VarDeclInitNode)
	top := decl.Init.Data.(ast.BinaryOpNode)
	if top.Op != token.Rem {
		t.Fatalf("top operator = %v, want %%", top.Op)
	}
	if top.Right.Data.(ast.BinaryOpNode).Op != token.Star {
		t.Error("multiplication should bind tighter than %")
	}
}

func TestNotNegatesWholeComparison(t *testing.T) {
	root, bag, err := parseSrc(t, "bool b = !1 == 1;", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %v", bag.All())
	}
	decl := root.Data.(ast.ProgramNode).Stmts[0].Data.(ast.VarDeclInitNode)
	if decl.Init.Type != ast.UnaryOp {
		t.Fatalf("initializer node = %v, want UnaryOp", decl.Init.Type)
	}
	inner := decl.Init.Data.(ast.UnaryOpNode).Expr
	if inner.Type != ast.Comparison {
		t.Error("'!' should apply to the whole comparison")
	}
}

func TestComparisonDoesNotChain(t *testing.T) {
	_, _, err := parseSrc(t, "bool b = 1 < 2 < 3;", nil)
	if err == nil {
		t.Fatal("expected a syntax error for a chained comparison")
	}
}
