package ir

import "testing"

func block(name string, ops ...Op) *BasicBlock {
	b := &BasicBlock{Label: &Label{Name: name}}
	for _, op := range ops {
		b.Add(&Instruction{Op: op})
	}
	return b
}

func TestValidateAcceptsTerminatedBlocks(t *testing.T) {
	fn := &Func{Name: "f", Blocks: []*BasicBlock{
		block("start", OpAlloc, OpStore, OpJmp),
		block("next", OpLoad, OpRet),
	}}
	if err := fn.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingTerminator(t *testing.T) {
	fn := &Func{Name: "f", Blocks: []*BasicBlock{block("start", OpAlloc, OpStore)}}
	if err := fn.Validate(); err == nil {
		t.Error("Validate() should reject a block without a terminator")
	}
}

func TestValidateRejectsMidBlockTerminator(t *testing.T) {
	fn := &Func{Name: "f", Blocks: []*BasicBlock{block("start", OpRet, OpStore, OpRet)}}
	if err := fn.Validate(); err == nil {
		t.Error("Validate() should reject a terminator before the end of a block")
	}
}

func TestValidateRejectsEmptyBlock(t *testing.T) {
	fn := &Func{Name: "f", Blocks: []*BasicBlock{block("start")}}
	if err := fn.Validate(); err == nil {
		t.Error("Validate() should reject an empty block")
	}
}

func TestInternStringDeduplicates(t *testing.T) {
	m := NewModule(8)
	a := m.InternString("hello")
	b := m.InternString("hello")
	c := m.InternString("world")

	if a.Name != b.Name {
		t.Errorf("equal contents got different labels: %q vs %q", a.Name, b.Name)
	}
	if a.Name == c.Name {
		t.Errorf("distinct contents share label %q", a.Name)
	}
	if got := len(m.StringPool()); got != 2 {
		t.Errorf("pool has %d entries, want 2", got)
	}
}

func TestStringPoolOrderIsStable(t *testing.T) {
	m := NewModule(8)
	m.InternString("b")
	m.InternString("a")
	m.InternString("b")

	pool := m.StringPool()
	if len(pool) != 2 || pool[0].Content != "b" || pool[1].Content != "a" {
		t.Errorf("pool order = %v, want interning order [b a]", pool)
	}
}

func TestAddExtrnDeduplicates(t *testing.T) {
	m := NewModule(8)
	m.AddExtrn("printf")
	m.AddExtrn("printf")
	m.AddExtrn("scanf")
	if len(m.Extrns) != 2 {
		t.Errorf("Extrns = %v, want [printf scanf]", m.Extrns)
	}
}

func TestTerminators(t *testing.T) {
	for _, op := range []Op{OpJmp, OpJnz, OpRet} {
		if !op.IsTerminator() {
			t.Errorf("op %d should be a terminator", op)
		}
	}
	for _, op := range []Op{OpAdd, OpCall, OpStore, OpAlloc, OpCopy} {
		if op.IsTerminator() {
			t.Errorf("op %d should not be a terminator", op)
		}
	}
}
