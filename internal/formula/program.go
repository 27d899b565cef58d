package formula

import (
	"math"
	"strings"
)

// Vars binds variable names to numeric values. Names are case-sensitive.
type Vars map[string]any

type function struct {
	arity int
	apply func(args []float64) float64
}

var functions = map[string]function{
	"ceil":  {1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"floor": {1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"max":   {2, func(a []float64) float64 { return math.Max(a[0], a[1]) }},
	"min":   {2, func(a []float64) float64 { return math.Min(a[0], a[1]) }},
}

func precedence(op string) int {
	switch op {
	case "+", "-":
		return 1
	case "*", "/":
		return 2
	}
	return 0
}

// Program is a compiled formula in postfix order. It is immutable and safe
// for concurrent use.
type Program struct {
	source  string
	postfix []Token
}

// Compile tokenizes expr and converts it to postfix with the shunting-yard
// algorithm
func Compile(expr string) (*Program, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return nil, err
	}

	output := make([]Token, 0, len(tokens)+4)
	operators := make([]Token, 0, 8)
	var previous *Token

	for i := range tokens {
		tok := tokens[i]

		switch tok.Type {
		case TokenNumber, TokenVariable:
			output = append(output, tok)

		case TokenFunction:
			operators = append(operators, tok)

		case TokenOperator:
			if isUnaryPosition(previous) {
				output = append(output, Token{Type: TokenNumber, Value: "0", Pos: tok.Pos})
			}
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.Type != TokenOperator || precedence(top.Value) < precedence(tok.Value) {
					break
				}
				output = append(output, top)
				operators = operators[:len(operators)-1]
			}
			operators = append(operators, tok)

		case TokenLeftParen:
			operators = append(operators, tok)

		case TokenRightParen:
			found := false
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if top.Type == TokenLeftParen {
					found = true
					break
				}
				output = append(output, top)
			}
			if !found {
				return nil, syntaxErrorf(expr, tok.Pos, "mismatched parentheses: unexpected ')'")
			}
			if n := len(operators); n > 0 && operators[n-1].Type == TokenFunction {
				output = append(output, operators[n-1])
				operators = operators[:n-1]
			}

		case TokenComma:
			for len(operators) > 0 && operators[len(operators)-1].Type != TokenLeftParen {
				output = append(output, operators[len(operators)-1])
				operators = operators[:len(operators)-1]
			}
			if len(operators) == 0 {
				return nil, syntaxErrorf(expr, tok.Pos, "comma outside of a function call")
			}
		}

		if tok.Type == TokenComma {
			previous = nil
		} else {
			previous = &tokens[i]
		}
	}

	if previous != nil && previous.Type == TokenOperator {
		return nil, syntaxErrorf(expr, previous.Pos, "expression ends with operator %q", previous.Value)
	}

	for len(operators) > 0 {
		top := operators[len(operators)-1]
		operators = operators[:len(operators)-1]
		if top.Type == TokenLeftParen {
			return nil, syntaxErrorf(expr, top.Pos, "mismatched parentheses: unclosed '('")
		}
		output = append(output, top)
	}

	return &Program{source: expr, postfix: output}, nil
}

// isUnaryPosition reports whether an operator following previous is unary
func isUnaryPosition(previous *Token) bool {
	if previous == nil {
		return true
	}
	switch previous.Type {
	case TokenOperator, TokenLeftParen, TokenFunction:
		return true
	}
	return false
}

// Source returns the formula text the program was compiled from
func (p *Program) Source() string {
	return p.source
}

// Postfix renders the compiled program in reverse Polish notation
func (p *Program) Postfix() string {
	parts := make([]string, len(p.postfix))
	for i, tok := range p.postfix {
		parts[i] = tok.Value
	}
	return strings.Join(parts, " ")
}

// Variables returns the distinct variable names the program reads, in order
// of first use
func (p *Program) Variables() []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, tok := range p.postfix {
		if tok.Type == TokenVariable && !seen[tok.Value] {
			seen[tok.Value] = true
			names = append(names, tok.Value)
		}
	}
	return names
}

// Eval runs the program against vars
func (p *Program) Eval(vars Vars) (float64, error) {
	stack := make([]float64, 0, len(p.postfix))

	for _, tok := range p.postfix {
		switch tok.Type {
		case TokenNumber:
			stack = append(stack, tok.Num)

		case TokenVariable:
			raw, ok := vars[tok.Value]
			if !ok {
				return 0, evalErrorf(p.source, tok.Pos, "unknown variable %q", tok.Value)
			}
			v, ok := toFloat(raw)
			if !ok {
				return 0, evalErrorf(p.source, tok.Pos, "variable %q is not numeric (%T)", tok.Value, raw)
			}
			stack = append(stack, v)

		case TokenOperator:
			if len(stack) < 2 {
				return 0, evalErrorf(p.source, tok.Pos, "insufficient operands for %q", tok.Value)
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, applyOperator(tok.Value, a, b))

		case TokenFunction:
			fn, ok := functions[tok.Value]
			if !ok {
				return 0, evalErrorf(p.source, tok.Pos, "unsupported function %q", tok.Value)
			}
			if len(stack) < fn.arity {
				return 0, evalErrorf(p.source, tok.Pos, "%s expects %d argument(s)", tok.Value, fn.arity)
			}
			args := make([]float64, fn.arity)
			copy(args, stack[len(stack)-fn.arity:])
			stack = stack[:len(stack)-fn.arity]
			stack = append(stack, fn.apply(args))
		}
	}

	if len(stack) != 1 {
		return 0, evalErrorf(p.source, -1, "expression leaves %d values on the stack, want 1", len(stack))
	}
	return stack[0], nil
}

func applyOperator(op string, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	default:
		return a / b
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Evaluate compiles and runs expr in one step
func Evaluate(expr string, vars Vars) (float64, error) {
	p, err := Compile(expr)
	if err != nil {
		return 0, err
	}
	return p.Eval(vars)
}
