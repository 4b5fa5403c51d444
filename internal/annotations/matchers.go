package annotations

import "fmt"

// Match is the result of looking up a named argument. Index is the position
// of the matched argument in the list it was found in, -1 when absent.
type Match[T any] struct {
	Value T
	Index int
}

// Found reports whether the argument was present
func (m Match[T]) Found() bool {
	return m.Index >= 0
}

func absent[T any]() Match[T] {
	return Match[T]{Index: -1}
}

// FlagOrString is the value of an argument that can be a bare flag, a
// boolean or a string, e.g. `header`, `header = false`, `header = 'X-Id'`
type FlagOrString struct {
	Flag    bool
	Text    string
	HasText bool
}

// MatchFlag finds the first `name` or `name = <bool>` argument
func MatchFlag(args []Argument, name string) (Match[bool], error) {
	for i, arg := range args {
		if arg.IsIdent(name) {
			return Match[bool]{Value: true, Index: i}, nil
		}
		if arg.Name != name {
			continue
		}
		if arg.Kind != BoolLiteral {
			return absent[bool](), invalidValue(arg, "a boolean literal (true or false)")
		}
		return Match[bool]{Value: arg.Bool, Index: i}, nil
	}
	return absent[bool](), nil
}

// MatchString finds the first `name = <string>` argument
func MatchString(args []Argument, name string) (Match[string], error) {
	for i, arg := range args {
		if arg.Name != name {
			continue
		}
		if arg.Kind != StringLiteral {
			return absent[string](), invalidValue(arg, "a string literal")
		}
		return Match[string]{Value: arg.Text, Index: i}, nil
	}
	return absent[string](), nil
}

// MatchFlagOrString finds the first argument setting name. A bare string
// literal counts only when it is the first declared argument.
func MatchFlagOrString(args []Argument, name string) (Match[FlagOrString], error) {
	for i, arg := range args {
		switch {
		case arg.IsIdent(name):
			return Match[FlagOrString]{Value: FlagOrString{Flag: true}, Index: i}, nil
		case arg.Name == name:
			switch arg.Kind {
			case BoolLiteral:
				return Match[FlagOrString]{Value: FlagOrString{Flag: arg.Bool}, Index: i}, nil
			case StringLiteral:
				return Match[FlagOrString]{Value: FlagOrString{Flag: true, Text: arg.Text, HasText: true}, Index: i}, nil
			default:
				return absent[FlagOrString](), invalidValue(arg, "a boolean or string literal")
			}
		case !arg.Named() && arg.Kind == StringLiteral && arg.Position == 0:
			return Match[FlagOrString]{Value: FlagOrString{Flag: true, Text: arg.Text, HasText: true}, Index: i}, nil
		}
	}
	return absent[FlagOrString](), nil
}

func invalidValue(arg Argument, expected string) *GrammarError {
	return &GrammarError{
		Argument: arg.String(),
		Expected: expected,
		Loc:      arg.Location,
		Hint:     fmt.Sprintf("write %s", exampleFor(arg.Name, expected)),
	}
}

func exampleFor(name, expected string) string {
	switch expected {
	case "a string literal":
		return fmt.Sprintf("%s = '...'", name)
	case "a boolean literal (true or false)":
		return fmt.Sprintf("%s or %s = false", name, name)
	default:
		return fmt.Sprintf("%s, %s = false or %s = '...'", name, name, name)
	}
}

// Pool holds the arguments of one annotation that have not been consumed yet
type Pool struct {
	args []Argument
}

// NewPool creates a pool over a copy of args
func NewPool(args []Argument) *Pool {
	return &Pool{args: append([]Argument(nil), args...)}
}

// Len returns the number of remaining arguments
func (p *Pool) Len() int {
	return len(p.args)
}

// Remaining returns the arguments not consumed yet, in declared order
func (p *Pool) Remaining() []Argument {
	return append([]Argument(nil), p.args...)
}

// Peek returns the first remaining argument
func (p *Pool) Peek() (Argument, bool) {
	if len(p.args) == 0 {
		return Argument{}, false
	}
	return p.args[0], true
}

// Next removes and returns the first remaining argument
func (p *Pool) Next() (Argument, bool) {
	arg, ok := p.Peek()
	if ok {
		p.args = p.args[1:]
	}
	return arg, ok
}

// TakeFlag runs MatchFlag and removes the matched argument
func (p *Pool) TakeFlag(name string) (Match[bool], error) {
	m, err := MatchFlag(p.args, name)
	p.consume(m.Index, err)
	return m, err
}

// TakeString runs MatchString and removes the matched argument
func (p *Pool) TakeString(name string) (Match[string], error) {
	m, err := MatchString(p.args, name)
	p.consume(m.Index, err)
	return m, err
}

// TakeFlagOrString runs MatchFlagOrString and removes the matched argument
func (p *Pool) TakeFlagOrString(name string) (Match[FlagOrString], error) {
	m, err := MatchFlagOrString(p.args, name)
	p.consume(m.Index, err)
	return m, err
}

func (p *Pool) consume(index int, err error) {
	if err != nil || index < 0 {
		return
	}
	p.args = append(p.args[:index], p.args[index+1:]...)
}
