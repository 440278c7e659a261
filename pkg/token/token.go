package token

type Type int

const (
	EOF Type = iota
	Ident
	Number
	FloatNumber
	String
	True
	False
	If
	Else
	While
	For
	Return
	Def
	Print
	Read
	IntType
	FloatType
	StringType
	BoolType
	LParen
	RParen
	LBrace
	RBrace
	Semi
	Comma
	Eq
	EqEq
	Neq
	Lt
	Gt
	Lte
	Gte
	Plus
	Minus
	Star
	Slash
	Rem
	AndAnd
	OrOr
	Not
)

var KeywordMap = map[string]Type{
	"if":     If,
	"else":   Else,
	"while":  While,
	"for":    For,
	"int":    IntType,
	"float":  FloatType,
	"string": StringType,
	"bool":   BoolType,
	"true":   True,
	"false":  False,
	"return": Return,
	"def":    Def,
	"print":  Print,
	"read":   Read,
}

var typeNames = map[Type]string{
	EOF:         "end of input",
	Ident:       "identifier",
	Number:      "integer literal",
	FloatNumber: "float literal",
	String:      "string literal",
	True:        "'true'",
	False:       "'false'",
	If:          "'if'",
	Else:        "'else'",
	While:       "'while'",
	For:         "'for'",
	Return:      "'return'",
	Def:         "'def'",
	Print:       "'print'",
	Read:        "'read'",
	IntType:     "'int'",
	FloatType:   "'float'",
	StringType:  "'string'",
	BoolType:    "'bool'",
	LParen:      "'('",
	RParen:      "')'",
	LBrace:      "'{'",
	RBrace:      "'}'",
	Semi:        "';'",
	Comma:       "','",
	Eq:          "'='",
	EqEq:        "'=='",
	Neq:         "'!='",
	Lt:          "'<'",
	Gt:          "'>'",
	Lte:         "'<='",
	Gte:         "'>='",
	Plus:        "'+'",
	Minus:       "'-'",
	Star:        "'*'",
	Slash:       "'/'",
	Rem:         "'%'",
	AndAnd:      "'&&'",
	OrOr:        "'||'",
	Not:         "'!'",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown token"
}

// IsTypeKeyword reports whether t names one of the four declarable types.
func (t Type) IsTypeKeyword() bool {
	return t == IntType || t == FloatType || t == StringType || t == BoolType
}

type Token struct {
	Type   Type
	Value  string
	Line   int
	Column int
	Len    int
}
