package parser

import "fmt"

// ParseError reports text that could not be converted into a field value.
type ParseError struct {
	Field string
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: unrecognised input %q", e.Field, e.Input)
}

func newParseError(field, input string) error {
	return &ParseError{Field: field, Input: input}
}
