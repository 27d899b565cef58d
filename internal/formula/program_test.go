package formula

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		vars     Vars
		expected float64
	}{
		{"precedence", "2+3*4", nil, 14},
		{"parentheses", "(2+3)*4", nil, 20},
		{"leading unary minus", "-5+3", nil, -2},
		{"leading unary plus", "+5", nil, 5},
		{"unary after paren", "(-2)*3", nil, -6},
		{"unary inside call", "ceil(-1.5)", nil, -1},
		{"unary after operator is zero minus", "2*-3", nil, -3},
		{"left associative minus", "10-4-3", nil, 3},
		{"left associative divide", "100/10/5", nil, 2},
		{"functions", "ceil(10.2)+floor(3.9)+max(1,5)-min(3,8)", nil, 16},
		{"nested calls", "max(min(4, 9), ceil(2.1))", nil, 4},
		{"call argument expressions", "max(1+1, 2*3)", nil, 6},
		{"space before call paren", "ceil (1.2)", nil, 2},
		{"variables", "length / step + 1", Vars{"length": 10, "step": 0.5}, 21},
		{"int variable", "count * 2", Vars{"count": 3}, 6},
		{"identifier with digits", "a1_b + 1", Vars{"a1_b": 1.5}, 2.5},
		{"decimal literal", "0.25 * 4", nil, 1},
		{"leading dot literal", ".5 + .5", nil, 1},
		{"clip formula", "ceil(lengthMeters / step) + 1", Vars{"lengthMeters": 10, "step": 0.5}, 21},
		{"terminal floor", "max(10, 10 + 4 * extra)", Vars{"extra": 2}, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, tt.vars)
			if err != nil {
				t.Fatalf("Evaluate(%q) unexpected error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.expected)
			}
		})
	}
}

func TestEvaluateSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		vars Vars
	}{
		{"trailing operator", "length+", Vars{"length": 5}},
		{"unclosed paren", "(1+2", nil},
		{"extra close paren", "1+2)", nil},
		{"comma outside call", "1,2", nil},
		{"unexpected character", "2 ^ 3", nil},
		{"malformed number", "1.2.3 + 1", nil},
		{"lone dot", ".", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, tt.vars)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.expr)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Evaluate(%q) error = %v, want syntax error", tt.expr, err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if se.Expr != tt.expr {
				t.Errorf("expected Expr %q, got %q", tt.expr, se.Expr)
			}
		})
	}
}

func TestEvaluateEvaluationErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		vars Vars
	}{
		{"unknown variable", "x", nil},
		{"non numeric variable", "x + 1", Vars{"x": "5"}},
		{"unknown function", "sqrt(4)", nil},
		{"function names are case-sensitive", "CEIL(1.2)", nil},
		{"missing argument", "max(1)", nil},
		{"empty call", "ceil()", nil},
		{"empty expression", "", nil},
		{"dangling operand", "(1 + ) 2", nil},
		{"too many values", "max(1, 2, 3)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, tt.vars)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error", tt.expr)
			}
			if !errors.Is(err, ErrEvaluation) {
				t.Errorf("Evaluate(%q) error = %v, want evaluation error", tt.expr, err)
			}
			if errors.Is(err, ErrSyntax) {
				t.Errorf("Evaluate(%q) unexpectedly matched ErrSyntax", tt.expr)
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	got, err := Evaluate("1/0", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %v", got)
	}

	got, err = Evaluate("0/0", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("expected NaN, got %v", got)
	}
}

func TestCompilePostfix(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{"2+3*4", "2 3 4 * +"},
		{"-x", "0 x -"},
		{"max(a, b+1)", "a b 1 + max"},
		{"ceil(x/2)*3", "x 2 / ceil 3 *"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) unexpected error: %v", tt.expr, err)
			}
			if got := p.Postfix(); got != tt.expected {
				t.Errorf("Compile(%q).Postfix() = %q, want %q", tt.expr, got, tt.expected)
			}
		})
	}
}

func TestProgramVariables(t *testing.T) {
	p, err := Compile("ceil(length / step) + length * branches")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"length", "step", "branches"}
	if got := p.Variables(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Variables() = %v, want %v", got, expected)
	}
}

func TestCache(t *testing.T) {
	var c Cache

	a, err := c.Compile("1 + x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := c.Compile("1 + x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Error("expected cached program to be reused")
	}

	if _, err := c.Compile("1 +"); err == nil {
		t.Error("expected syntax error")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached program, got %d", c.Len())
	}

	got, err := c.Evaluate("1 + x", Vars{"x": 2})
	if err != nil || got != 3 {
		t.Errorf("Evaluate = %v, %v; want 3, nil", got, err)
	}
}
