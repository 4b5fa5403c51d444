package annotations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// argumentList is the root of a `request:"..."` tag value
type argumentList struct {
	Arguments []*argumentNode `parser:"( @@ ( ',' @@ )* ','? )?"`
}

// argumentNode is either `value` or `name = value`
type argumentNode struct {
	Pos    lexer.Position
	EndPos lexer.Position

	Name  string       `parser:"( @Ident '=' )?"`
	Value *literalNode `parser:"@@"`
}

// literalNode is one of the literal kinds an argument can carry
type literalNode struct {
	String *string  `parser:"  @String"`
	Number *string  `parser:"| @Number"`
	Bool   *boolean `parser:"| @('true' | 'false')"`
	Path   []string `parser:"| @Ident ( '.' @Ident )*"`
}

type boolean bool

func (b *boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

var argumentLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `[-+]?[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[=,.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var argumentParser = participle.MustBuild[argumentList](
	participle.Lexer(argumentLexer),
	participle.Map(unquoteToken, "String"),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseArguments tokenizes and parses one annotation argument list.
// loc is the location of the first byte of src; argument locations are
// derived from it.
func ParseArguments(src string, loc SourceLocation) ([]Argument, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}

	root, err := argumentParser.ParseString(loc.File, src)
	if err != nil {
		return nil, toSyntaxError(err, loc)
	}

	args := make([]Argument, 0, len(root.Arguments))
	for i, node := range root.Arguments {
		arg := Argument{
			Name:     node.Name,
			Position: i,
			Raw:      rawText(src, node.Pos.Offset, node.EndPos.Offset),
			Location: loc.At(node.Pos.Offset),
		}

		switch value := node.Value; {
		case value.String != nil:
			arg.Kind = StringLiteral
			arg.Text = *value.String
		case value.Number != nil:
			arg.Kind = NumberLiteral
			arg.Text = *value.Number
		case value.Bool != nil:
			arg.Kind = BoolLiteral
			arg.Bool = bool(*value.Bool)
		default:
			arg.Kind = PathLiteral
			arg.Path = value.Path
		}

		args = append(args, arg)
	}

	return args, nil
}

func rawText(src string, start, end int) string {
	if start < 0 || start > len(src) {
		return ""
	}
	if end <= start || end > len(src) {
		end = len(src)
	}
	return strings.TrimRight(strings.TrimSpace(src[start:end]), ", ")
}

func toSyntaxError(err error, loc SourceLocation) *SyntaxError {
	var perr participle.Error
	if errors.As(err, &perr) {
		return &SyntaxError{
			Msg:  perr.Message(),
			Loc:  loc.At(perr.Position().Offset),
			Hint: "arguments are comma separated: identifiers, 'strings', true/false or name = value",
		}
	}
	return &SyntaxError{Msg: err.Error(), Loc: loc}
}

func unquoteToken(tok lexer.Token) (lexer.Token, error) {
	value, err := unquote(tok.Value)
	if err != nil {
		return tok, participle.Errorf(tok.Pos, "invalid string literal %s", tok.Value)
	}
	tok.Value = value
	return tok, nil
}

// unquote accepts Go double-quoted strings and single-quoted strings using
// the same escapes, where \' is an escaped quote and " needs no escape.
func unquote(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("invalid string literal %s", s)
	}
	if s[0] == '"' {
		return strconv.Unquote(s)
	}

	body := s[1 : len(s)-1]
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(body):
			b.WriteByte(c)
			b.WriteByte(body[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return strconv.Unquote(b.String())
}
