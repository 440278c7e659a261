package types

import (
	"testing"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
)

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name         string
		op           token.Type
		left, right  Type
		promoteMixed bool
		want         Type
		wantOK       bool
	}{
		{"int plus int", token.Plus, Int, Int, true, Int, true},
		{"float times float", token.Star, Float, Float, true, Float, true},
		{"string plus string", token.Plus, String, String, true, String, true},
		{"string plus int", token.Plus, String, Int, true, String, false},
		{"string minus string", token.Minus, String, String, true, String, false},
		{"mixed promoted", token.Plus, Int, Float, true, Float, true},
		{"mixed promoted flipped", token.Plus, Float, Int, true, Float, true},
		{"mixed strict", token.Plus, Int, Float, false, Float, false},
		{"bool plus bool", token.Plus, Bool, Bool, true, Bool, true},
		{"int rem float promoted", token.Rem, Int, Float, true, Float, true},
		{"unknown passes", token.Plus, Unknown, Int, true, Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Arithmetic(tt.op, tt.left, tt.right, tt.promoteMixed)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Arithmetic(%v, %v, %v, %v) = (%v, %v), want (%v, %v)",
					tt.op, tt.left, tt.right, tt.promoteMixed, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLogical(t *testing.T) {
	if typ, ok := Logical(Bool, Bool); !ok || typ != Bool {
		t.Errorf("Logical(bool, bool) = (%v, %v), want (bool, true)", typ, ok)
	}
	if _, ok := Logical(Int, Bool); ok {
		t.Error("Logical(int, bool) should be rejected")
	}
	if _, ok := Logical(Bool, String); ok {
		t.Error("Logical(bool, string) should be rejected")
	}
}

func TestNot(t *testing.T) {
	if typ, ok := Not(Bool); !ok || typ != Bool {
		t.Errorf("Not(bool) = (%v, %v), want (bool, true)", typ, ok)
	}
	if _, ok := Not(Int); ok {
		t.Error("Not(int) should be rejected")
	}
}

func TestRelational(t *testing.T) {
	tests := []struct {
		name         string
		left, right  Type
		promoteMixed bool
		wantOK       bool
	}{
		{"int vs int", Int, Int, true, true},
		{"float vs float", Float, Float, true, true},
		{"string vs string", String, String, true, true},
		{"bool vs bool", Bool, Bool, true, true},
		{"mixed promoted", Int, Float, true, true},
		{"mixed strict", Int, Float, false, false},
		{"string vs int", String, Int, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ok := Relational(tt.left, tt.right, tt.promoteMixed)
			if typ != Bool {
				t.Errorf("result type = %v, want bool", typ)
			}
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}
