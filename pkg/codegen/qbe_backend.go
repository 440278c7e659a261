package codegen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ir"
	"modernc.org/libqbe"
)

type qbeBackend struct {
	out *strings.Builder
	mod *ir.Module
}

func NewQBEBackend() Backend { return &qbeBackend{} }

// GenerateIR renders the module as textual QBE IR.
func (b *qbeBackend) GenerateIR(mod *ir.Module, cfg *config.Config) (string, error) {
	var sb strings.Builder
	b.out = &sb
	b.mod = mod
	b.gen()
	return sb.String(), nil
}

// Generate renders the module and assembles it for the configured
// target through libqbe.
func (b *qbeBackend) Generate(mod *ir.Module, cfg *config.Config) (*bytes.Buffer, error) {
	text, err := b.GenerateIR(mod, cfg)
	if err != nil {
		return nil, err
	}

	var asmBuf bytes.Buffer
	if err := libqbe.Main(cfg.QbeTarget, "input.ssa", strings.NewReader(text), &asmBuf, nil); err != nil {
		return nil, fmt.Errorf("qbe: %w", err)
	}
	return &asmBuf, nil
}

func (b *qbeBackend) gen() {
	if pool := b.mod.StringPool(); len(pool) > 0 {
		for _, s := range pool {
			fmt.Fprintf(b.out, "data $%s = { b %s, b 0 }\n", s.Label, strconv.Quote(s.Content))
		}
		b.out.WriteString("\n")
	}

	for i, fn := range b.mod.Funcs {
		if i > 0 {
			b.out.WriteString("\n")
		}
		b.genFunc(fn)
	}
}

func (b *qbeBackend) genFunc(fn *ir.Func) {
	export := ""
	if fn.Export {
		export = "export "
	}
	fmt.Fprintf(b.out, "%sfunction %s $%s(", export, b.formatType(fn.ReturnType), fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			b.out.WriteString(", ")
		}
		fmt.Fprintf(b.out, "%s %s", b.formatType(p.Typ), b.formatValue(p.Val))
	}
	b.out.WriteString(") {\n")

	for _, block := range fn.Blocks {
		fmt.Fprintf(b.out, "@%s\n", block.Label.Name)
		for _, instr := range block.Instructions {
			b.genInstr(instr)
		}
	}
	b.out.WriteString("}\n")
}

func (b *qbeBackend) genInstr(instr *ir.Instruction) {
	b.out.WriteString("\t")

	if instr.Op == ir.OpCall {
		b.genCall(instr)
		return
	}

	if instr.Result != nil {
		fmt.Fprintf(b.out, "%s =%s ", b.formatValue(instr.Result), b.formatType(instr.Typ))
	}
	b.out.WriteString(b.formatOp(instr))
	for i, arg := range instr.Args {
		if i > 0 {
			b.out.WriteString(",")
		}
		b.out.WriteString(" " + b.formatValue(arg))
	}
	b.out.WriteString("\n")
}

func (b *qbeBackend) genCall(instr *ir.Instruction) {
	if instr.Result != nil {
		fmt.Fprintf(b.out, "%s =%s ", b.formatValue(instr.Result), b.formatType(instr.Typ))
	}
	fmt.Fprintf(b.out, "call %s(", b.formatValue(instr.Args[0]))
	for i, arg := range instr.Args[1:] {
		if i > 0 {
			b.out.WriteString(", ")
		}
		if instr.VariadicFixed > 0 && i == instr.VariadicFixed {
			b.out.WriteString("..., ")
		}
		argType := ir.TypeW
		if i < len(instr.ArgTypes) {
			argType = instr.ArgTypes[i]
		}
		fmt.Fprintf(b.out, "%s %s", b.formatType(argType), b.formatValue(arg))
	}
	b.out.WriteString(")\n")
}

func (b *qbeBackend) formatValue(v ir.Value) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case *ir.Const:
		return fmt.Sprintf("%d", val.Value)
	case *ir.FloatConst:
		return fmt.Sprintf("%s_%g", b.formatType(val.Typ), val.Value)
	case *ir.Global:
		return "$" + val.Name
	case *ir.Temporary:
		if val.Name != "" {
			return fmt.Sprintf("%%%s.%d", strings.ReplaceAll(val.Name, ".", "_"), val.ID)
		}
		return fmt.Sprintf("%%t%d", val.ID)
	case *ir.Label:
		return "@" + val.Name
	default:
		return ""
	}
}

func (b *qbeBackend) formatType(t ir.Type) string {
	switch t {
	case ir.TypeB:
		return "b"
	case ir.TypeW:
		return "w"
	case ir.TypeL:
		return "l"
	case ir.TypeS:
		return "s"
	case ir.TypeD:
		return "d"
	case ir.TypePtr:
		if b.mod.WordSize == 4 {
			return "w"
		}
		return "l"
	default:
		return ""
	}
}

func (b *qbeBackend) formatOp(instr *ir.Instruction) string {
	operand := instr.OperandType
	if operand == ir.TypeNone {
		operand = instr.Typ
	}
	operandStr := b.formatType(operand)

	switch instr.Op {
	case ir.OpAlloc:
		if instr.Align <= 4 {
			return "alloc4"
		}
		if instr.Align <= 8 {
			return "alloc8"
		}
		return "alloc16"
	case ir.OpLoad:
		return "load" + b.formatType(instr.Typ)
	case ir.OpStore:
		return "store" + b.formatType(instr.Typ)
	case ir.OpAdd, ir.OpAddF:
		return "add"
	case ir.OpSub, ir.OpSubF:
		return "sub"
	case ir.OpMul, ir.OpMulF:
		return "mul"
	case ir.OpDiv, ir.OpDivF:
		return "div"
	case ir.OpRem:
		return "rem"
	case ir.OpNegF:
		return "neg"
	case ir.OpAnd:
		return "and"
	case ir.OpOr:
		return "or"
	case ir.OpCopy:
		return "copy"
	case ir.OpCEq:
		return "ceq" + operandStr
	case ir.OpCNeq:
		return "cne" + operandStr
	case ir.OpCLt:
		if operand == ir.TypeS || operand == ir.TypeD {
			return "clt" + operandStr
		}
		return "cslt" + operandStr
	case ir.OpCGt:
		if operand == ir.TypeS || operand == ir.TypeD {
			return "cgt" + operandStr
		}
		return "csgt" + operandStr
	case ir.OpCLe:
		if operand == ir.TypeS || operand == ir.TypeD {
			return "cle" + operandStr
		}
		return "csle" + operandStr
	case ir.OpCGe:
		if operand == ir.TypeS || operand == ir.TypeD {
			return "cge" + operandStr
		}
		return "csge" + operandStr
	case ir.OpSWToF:
		return "swtof"
	case ir.OpFToSI:
		return "stosi"
	case ir.OpFToF:
		return "exts"
	case ir.OpJmp:
		return "jmp"
	case ir.OpJnz:
		return "jnz"
	case ir.OpRet:
		return "ret"
	}
	return ""
}
