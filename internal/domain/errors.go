package domain

import "fmt"

// SchemaError reports a required field that is missing, has the wrong JSON
// type, or holds a value outside its allowed range.
type SchemaError struct {
	Field    string
	Expected string
	Received string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("field %q: expected %s, received %s", e.Field, e.Expected, e.Received)
}

// UnknownEnumValueError reports a value outside a closed set of literals.
type UnknownEnumValueError struct {
	Field string
	Value string
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("field %q: unknown value %q", e.Field, e.Value)
}
