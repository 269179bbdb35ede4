package asm

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the top-level AST node: one entry per source line.
type File struct {
	Lines []*Line `@@*`
}

// Line holds any labels defined on a line followed by at most one
// directive or instruction.
type Line struct {
	Pos         lexer.Position
	Labels      []string     `@Label*`
	Directive   *Directive   `( @@`
	Instruction *Instruction `| @@ )? EOL`
}

// Directive: .name args...
type Directive struct {
	Pos  lexer.Position
	Name string     `@Directive`
	Args []*Operand `@@*`
}

// Instruction: mnemonic operands... with a brace-delimited case list for
// switches, which may span lines.
type Instruction struct {
	Pos      lexer.Position
	Mnemonic string     `@Word`
	Operands []*Operand `@@*`
	Cases    []*Case    `( "{" EOL* ( @@ EOL* )* "}" )?`
}

// Case: key: label or default: label
type Case struct {
	Pos    lexer.Position
	Label  *string `( @Label`
	Key    *string `| @Number ":" )`
	Target string  `@Word`
}

// Operand is a number, a quoted string or a bare word (label, class name,
// member name or descriptor).
type Operand struct {
	Pos    lexer.Position
	Number *string `  @Number`
	Str    *string `| @String`
	Word   *string `| @Word`
}

func (o *Operand) String() string {
	switch {
	case o.Number != nil:
		return *o.Number
	case o.Str != nil:
		return *o.Str
	case o.Word != nil:
		return *o.Word
	}
	return ""
}

var asmLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "EOL", Pattern: `\n`},

	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `[-+]?(0[xX][0-9a-fA-F]+[Ll]?|[0-9]+(\.[0-9]+)?([eE][-+]?[0-9]+)?[LlFfDd]?)`},
	{Name: "Directive", Pattern: `\.[a-z]+`},

	// A label definition is an identifier immediately followed by a colon.
	{Name: "Label", Pattern: `[A-Za-z_$][A-Za-z0-9_$]*:`},
	{Name: "Word", Pattern: `[A-Za-z_$<(\[][^\s{}:"#]*`},
	{Name: "Punct", Pattern: `[{}:]`},
})

var parser = participle.MustBuild[File](
	participle.Lexer(asmLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Map(stripColon, "Label"),
)

func stripColon(t lexer.Token) (lexer.Token, error) {
	t.Value = strings.TrimSuffix(t.Value, ":")
	return t, nil
}

// Parse parses assembler source into its AST.
func Parse(filename string, src []byte) (*File, error) {
	s := string(src)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return parser.ParseString(filename, s)
}
