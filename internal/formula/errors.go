package formula

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches every *SyntaxError
	ErrSyntax = errors.New("formula syntax error")
	// ErrEvaluation matches every *EvaluationError
	ErrEvaluation = errors.New("formula evaluation error")
)

// SyntaxError reports malformed formula text
type SyntaxError struct {
	Expr    string
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d in %q: %s", e.Pos, e.Expr, e.Message)
}

// Is reports whether target is ErrSyntax
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// EvaluationError reports a well-formed formula that cannot be evaluated
// against the supplied variables
type EvaluationError struct {
	Expr    string
	Pos     int
	Message string
}

func (e *EvaluationError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("evaluation error in %q: %s", e.Expr, e.Message)
	}
	return fmt.Sprintf("evaluation error at position %d in %q: %s", e.Pos, e.Expr, e.Message)
}

// Is reports whether target is ErrEvaluation
func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

func syntaxErrorf(expr string, pos int, format string, args ...any) error {
	return &SyntaxError{Expr: expr, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func evalErrorf(expr string, pos int, format string, args ...any) error {
	return &EvaluationError{Expr: expr, Pos: pos, Message: fmt.Sprintf(format, args...)}
}
