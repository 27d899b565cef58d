// Package formula implements the norm formula language.
//
// A formula is an arithmetic expression over named variables:
//
//	ceil(length / step) + 2
//	max(10, 10 + 4 * extra)
//
// Supported are numeric literals, identifiers, the binary operators + - * /
// (left-associative, * and / bind tighter), parentheses and the functions
// ceil, floor (one argument) and max, min (two arguments). An identifier
// immediately followed by '(' is a function call; any other identifier is a
// variable looked up in the supplied Vars. Both kinds of name are
// case-sensitive, so CEIL is an unsupported function.
//
// A leading + or - (or one following another operator, '(' or a function
// name) is unary and compiles to 0 - x. This is a plain rewrite, so 2*-3
// evaluates as (2*0)-3.
//
// Compile converts the source to postfix once; Program.Eval runs it. Failures
// are *SyntaxError (matches ErrSyntax) or *EvaluationError (matches
// ErrEvaluation). Division by zero is not an error and yields ±Inf or NaN.
package formula
