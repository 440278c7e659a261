// Package types defines the source-level type lattice and the static
// rules for applying operators to it.
package types

import (
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/token"
)

type Type int

const (
	Unknown Type = iota
	Int
	Float
	Bool
	String
)

var typeNames = map[Type]string{
	Unknown: "unknown",
	Int:     "int",
	Float:   "float",
	Bool:    "bool",
	String:  "string",
}

func (t Type) String() string { return typeNames[t] }

func (t Type) IsNumeric() bool { return t == Int || t == Float }

// FromToken maps a type keyword to its type. Anything else is Unknown.
func FromToken(tt token.Type) Type {
	switch tt {
	case token.IntType:
		return Int
	case token.FloatType:
		return Float
	case token.StringType:
		return String
	case token.BoolType:
		return Bool
	}
	return Unknown
}

// Arithmetic applies the static rule for +, -, *, / and %. The second
// result is false when the combination is a type mismatch; a best-guess
// result type is still returned so checking can continue.
//
// For +: string+string is string, equal non-string types keep their
// type, and string mixed with anything else is an error. For the rest
// the operand types must match. When promoteMixed is set, mixed int and
// float operands are accepted and widen to float; otherwise they are
// rejected the way the strict rule demands (the result is still float,
// since lowering promotes regardless).
func Arithmetic(op token.Type, left, right Type, promoteMixed bool) (Type, bool) {
	if left == Unknown || right == Unknown {
		return Unknown, true
	}

	if op == token.Plus && (left == String || right == String) {
		if left == String && right == String {
			return String, true
		}
		return String, false
	}

	if left == right {
		if left == String {
			// -, *, / and % have no string form.
			return String, false
		}
		return left, true
	}

	if left.IsNumeric() && right.IsNumeric() {
		return Float, promoteMixed
	}
	return left, false
}

// Logical applies the rule for && and ||: both operands must be bool.
func Logical(left, right Type) (Type, bool) {
	if left == Unknown || right == Unknown {
		return Bool, true
	}
	return Bool, left == Bool && right == Bool
}

// Not applies the rule for unary !: the operand must be bool.
func Not(operand Type) (Type, bool) {
	if operand == Unknown {
		return Bool, true
	}
	return Bool, operand == Bool
}

// Relational applies the rule for <, >, <=, >=, == and !=. The result
// is always bool; operand types must match, with the same mixed-numeric
// escape hatch as Arithmetic.
func Relational(left, right Type, promoteMixed bool) (Type, bool) {
	if left == Unknown || right == Unknown {
		return Bool, true
	}
	if left == right {
		return Bool, true
	}
	if left.IsNumeric() && right.IsNumeric() {
		return Bool, promoteMixed
	}
	return Bool, false
}
