package parser

import "fmt"

// SyntaxError names the expected construct, the observed token text, and
// its line (spec.md §4.2: "Fails fast with a diagnostic naming the expected
// construct, the observed token text, and its line").
type SyntaxError struct {
	Line     int
	Column   int
	Expected string
	Got      string
}

func CreateSyntaxError(line, column int, expected, got string) SyntaxError {
	return SyntaxError{Line: line, Column: column, Expected: expected, Got: got}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 syntax error:\nline:%d, column:%d - expected %s, got %q", e.Line, e.Column, e.Expected, e.Got)
}
