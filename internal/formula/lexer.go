package formula

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenVariable
	TokenFunction
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
)

func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "number"
	case TokenVariable:
		return "variable"
	case TokenFunction:
		return "function"
	case TokenOperator:
		return "operator"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenComma:
		return ","
	default:
		return "unknown"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Num   float64
	Pos   int
}

// Tokenize scans expr left to right
func Tokenize(expr string) ([]Token, error) {
	tokens := make([]Token, 0, len(expr)/2+1)

	for pos := 0; pos < len(expr); {
		r, width := utf8.DecodeRuneInString(expr[pos:])

		switch {
		case unicode.IsSpace(r):
			pos += width

		case isDigit(r) || r == '.':
			start := pos
			for pos < len(expr) && (isDigit(rune(expr[pos])) || expr[pos] == '.') {
				pos++
			}
			text := expr[start:pos]
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, syntaxErrorf(expr, start, "malformed number %q", text)
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: text, Num: num, Pos: start})

		case unicode.IsLetter(r):
			start := pos
			pos += width
			for pos < len(expr) {
				r, w := utf8.DecodeRuneInString(expr[pos:])
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
					break
				}
				pos += w
			}
			typ := TokenVariable
			if next := skipSpace(expr, pos); next < len(expr) && expr[next] == '(' {
				typ = TokenFunction
			}
			tokens = append(tokens, Token{Type: typ, Value: expr[start:pos], Pos: start})

		case r == '+' || r == '-' || r == '*' || r == '/':
			tokens = append(tokens, Token{Type: TokenOperator, Value: string(r), Pos: pos})
			pos++

		case r == '(':
			tokens = append(tokens, Token{Type: TokenLeftParen, Value: "(", Pos: pos})
			pos++

		case r == ')':
			tokens = append(tokens, Token{Type: TokenRightParen, Value: ")", Pos: pos})
			pos++

		case r == ',':
			tokens = append(tokens, Token{Type: TokenComma, Value: ",", Pos: pos})
			pos++

		default:
			return nil, syntaxErrorf(expr, pos, "unexpected character %q", r)
		}
	}

	return tokens, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func skipSpace(s string, pos int) int {
	for pos < len(s) {
		r, w := utf8.DecodeRuneInString(s[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += w
	}
	return pos
}
