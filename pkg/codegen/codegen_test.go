package codegen

import (
	"strings"
	"testing"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/diag"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ir"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/lexer"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/parser"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.SetTarget("linux", "amd64", "amd64_sysv")
	return cfg
}

func lower(t *testing.T, src string) (*ir.Module, *diag.Bag, error) {
	t.Helper()
	cfg := testConfig()
	bag := diag.NewBag()
	toks := lexer.Tokenize(src, bag)
	p := parser.NewParser(toks, bag, cfg)
	root, tab, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ctx := NewContext(cfg, bag)
	mod, err := ctx.Generate(root, tab)
	return mod, bag, err
}

func emit(t *testing.T, src string) (string, *diag.Bag) {
	t.Helper()
	mod, bag, err := lower(t, src)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	text, err := (&qbeBackend{}).GenerateIR(mod, testConfig())
	if err != nil {
		t.Fatalf("GenerateIR() error = %v", err)
	}
	return text, bag
}

func TestSynthesizedMain(t *testing.T) {
	text, _ := emit(t, "int x = 1; print(x);")

	if !strings.Contains(text, "export function w $main(") {
		t.Errorf("no synthesized main in:\n%s", text)
	}
	if !strings.Contains(text, "ret 0") {
		t.Errorf("missing implicit 'ret 0' in:\n%s", text)
	}
}

func TestUserMainIsNotWrapped(t *testing.T) {
	text, _ := emit(t, "def main() { return 7; }")

	if strings.Count(text, "$main(") != 1 {
		t.Errorf("expected exactly one main in:\n%s", text)
	}
	if !strings.Contains(text, "ret 7") {
		t.Errorf("user main body missing in:\n%s", text)
	}
}

func TestDeclarationAllocatesSlot(t *testing.T) {
	mod, _, err := lower(t, "int x;")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	fn := mod.FindFunc("main")
	if fn == nil {
		t.Fatal("no main function")
	}
	var allocs, stores int
	for _, instr := range fn.Blocks[0].Instructions {
		switch instr.Op {
		case ir.OpAlloc:
			allocs++
		case ir.OpStore:
			stores++
		}
	}
	if allocs != 1 {
		t.Errorf("allocs = %d, want 1", allocs)
	}
	if stores != 0 {
		t.Errorf("bare declaration should not store, got %d stores", stores)
	}
}

func TestDuplicateDeclarationSharesSlot(t *testing.T) {
	mod, bag, err := lower(t, "int x; int x; x = 1; print(x);")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bag.CountKind(diag.DuplicateDeclaration) != 1 {
		t.Errorf("duplicate diagnostics = %d, want 1", bag.CountKind(diag.DuplicateDeclaration))
	}
	fn := mod.FindFunc("main")
	allocs := 0
	for _, block := range fn.Blocks {
		for _, instr := range block.Instructions {
			if instr.Op == ir.OpAlloc {
				allocs++
			}
		}
	}
	if allocs != 1 {
		t.Errorf("allocs = %d, want 1 (redeclared name keeps its first slot)", allocs)
	}
}

func TestRedeclarationStoresIntoFirstSlot(t *testing.T) {
	mod, _, err := lower(t, "int x = 1; float x = 2.5; print(x);")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	fn := mod.FindFunc("main")
	for _, instr := range fn.Blocks[0].Instructions {
		if instr.Op == ir.OpStore && instr.Typ != ir.TypeW {
			t.Errorf("store type = %v, want w (the surviving int slot)", instr.Typ)
		}
	}
}

func TestIfElseBlockShape(t *testing.T) {
	src := `
bool b = true;
if (b) {
	print(1);
} else {
	print(2);
}
`
	mod, _, err := lower(t, src)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	fn := mod.FindFunc("main")
	// start + then + else + end
	if len(fn.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(fn.Blocks))
	}
	if err := fn.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	// both arms fall through to the join block
	text, _ := emit(t, src)
	if strings.Count(text, "jmp @if.end") != 2 {
		t.Errorf("expected both arms to branch to the end block:\n%s", text)
	}
}

func TestWhileShape(t *testing.T) {
	src := `
int i = 0;
while (i < 3) {
	i = i + 1;
}
`
	text, _ := emit(t, src)

	for _, label := range []string{"@while.cond", "@while.body", "@while.end"} {
		if !strings.Contains(text, label) {
			t.Errorf("missing block %s in:\n%s", label, text)
		}
	}
	// the body never falls through to end; it loops back to the condition
	if strings.Count(text, "jmp @while.cond") != 2 {
		t.Errorf("expected entry and back-edge jumps to the condition:\n%s", text)
	}
}

func TestForShape(t *testing.T) {
	src := `
for (int i = 0; i < 3; i = i + 1) {
	print(i);
}
`
	text, _ := emit(t, src)

	for _, label := range []string{"@for.cond", "@for.body", "@for.incr", "@for.end"} {
		if !strings.Contains(text, label) {
			t.Errorf("missing block %s in:\n%s", label, text)
		}
	}
}

func TestStringPoolSharing(t *testing.T) {
	src := `
print("hello");
print("hello");
print("world");
`
	mod, _, err := lower(t, src)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	// "hello", "world" and the shared "%s\n" format
	if got := len(mod.StringPool()); got != 3 {
		t.Errorf("pool has %d entries, want 3", got)
	}
}

func TestPrintFormats(t *testing.T) {
	tests := []struct {
		name, src, format string
	}{
		{"int", "print(42);", `"%d\n"`},
		{"float", "print(2.5);", `"%f\n"`},
		{"string", `print("hi");`, `"%s\n"`},
		{"bool", "print(true);", `"%d\n"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, _ := emit(t, tt.src)
			if !strings.Contains(text, tt.format) {
				t.Errorf("format %s not pooled in:\n%s", tt.format, text)
			}
			if !strings.Contains(text, "call $printf(") {
				t.Errorf("no printf call in:\n%s", text)
			}
		})
	}
}

func TestPrintFloatWidens(t *testing.T) {
	text, _ := emit(t, "print(2.5);")
	if !strings.Contains(text, "exts") {
		t.Errorf("float argument should widen to double before the call:\n%s", text)
	}
	if !strings.Contains(text, "..., d ") {
		t.Errorf("printf call should pass a variadic double:\n%s", text)
	}
}

func TestMixedArithmeticPromotes(t *testing.T) {
	text, _ := emit(t, "float y = 1 + 2.5; print(y);")
	if !strings.Contains(text, "swtof") {
		t.Errorf("int operand should convert with swtof:\n%s", text)
	}
}

func TestFloatRemainderCallsLibm(t *testing.T) {
	text, _ := emit(t, "float a = 5.5 % 2.0; print(a);")
	if !strings.Contains(text, "call $fmodf(s ") {
		t.Errorf("float %% should lower to an fmodf call:\n%s", text)
	}
	if strings.Contains(text, "=s rem") {
		t.Errorf("float %% must not emit a rem instruction:\n%s", text)
	}
}

func TestFloatRemainderAssembles(t *testing.T) {
	mod, _, err := lower(t, "float a = 5.5 % 2.0; print(a);")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	asm, err := NewQBEBackend().Generate(mod, testConfig())
	if err != nil {
		t.Fatalf("Generate() assembly error = %v", err)
	}
	if asm.Len() == 0 {
		t.Error("expected non-empty assembly")
	}
}

func TestNonBoolConditionIsCoerced(t *testing.T) {
	text, _ := emit(t, "if (1) { print(1); }")
	if !strings.Contains(text, "cnew 1, 0") {
		t.Errorf("int condition should coerce with a nonzero comparison:\n%s", text)
	}
	if !strings.Contains(text, "jnz") {
		t.Errorf("missing conditional branch:\n%s", text)
	}
}

func TestBoolArithmeticKeepsItsType(t *testing.T) {
	text, _ := emit(t, "bool b = true + false; print(b);")
	// the sum is already word-carried bool; no coercion before the store
	if strings.Contains(text, "cnew") {
		t.Errorf("bool + bool should store without a coercion:\n%s", text)
	}
}

func TestFloatReturnTruncates(t *testing.T) {
	text, _ := emit(t, "def f() { return 2.5; } int r = f();")
	if !strings.Contains(text, "stosi") {
		t.Errorf("float return should convert with stosi:\n%s", text)
	}
}

func TestReadScansIntoScratchSlot(t *testing.T) {
	text, _ := emit(t, "read();")
	if !strings.Contains(text, "call $scanf(") {
		t.Errorf("no scanf call in:\n%s", text)
	}
	if !strings.Contains(text, `"%d"`) {
		t.Errorf("scanf format not pooled in:\n%s", text)
	}
}

func TestUndeclaredFunctionIsFatal(t *testing.T) {
	cfg := testConfig()
	bag := diag.NewBag()
	toks := lexer.Tokenize("int r = ghost(1);", bag)
	p := parser.NewParser(toks, bag, cfg)
	root, tab, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ctx := NewContext(cfg, bag)
	_, err = ctx.Generate(root, tab)
	if err == nil {
		t.Fatal("expected a fatal error for an undeclared callee")
	}
	if _, ok := err.(*diag.UndeclaredFunctionError); !ok {
		t.Errorf("error type = %T, want *diag.UndeclaredFunctionError", err)
	}
}

func TestFunctionParamsSpillToSlots(t *testing.T) {
	text, _ := emit(t, "def add(int a, int b) { return a + b; } int r = add(1, 2);")
	if !strings.Contains(text, "export function w $add(w ") {
		t.Errorf("add signature missing in:\n%s", text)
	}
	if !strings.Contains(text, "call $add(w 1, w 2)") {
		t.Errorf("call to add missing in:\n%s", text)
	}
}

func TestStatementsAfterReturnAreDropped(t *testing.T) {
	src := `
def f() {
	return 1;
	print(2);
}
`
	mod, bag, err := lower(t, src)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bag.CountKind(diag.UnreachableCode) != 1 {
		t.Errorf("unreachable warnings = %d, want 1", bag.CountKind(diag.UnreachableCode))
	}
	if err := mod.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestBothArmsReturn(t *testing.T) {
	src := `
def f(int n) {
	if (n > 0) {
		return 1;
	} else {
		return 2;
	}
}
int r = f(3);
`
	mod, _, err := lower(t, src)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := mod.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestStringConcatWarnsAndPassesThrough(t *testing.T) {
	_, bag, err := lower(t, `string s = "a" + "b"; print(s);`)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if bag.CountKind(diag.UnsupportedConversion) != 1 {
		t.Errorf("unsupported-conversion warnings = %d, want 1", bag.CountKind(diag.UnsupportedConversion))
	}
}

func TestModuleValidates(t *testing.T) {
	src := `
def fact(int n) {
	if (n <= 1) {
		return 1;
	}
	return n * fact(n - 1);
}
print(fact(5));
`
	mod, _, err := lower(t, src)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := mod.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
