package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported marks constructs the translator rejects on purpose.
	ErrUnsupported = errors.New("unsupported")
	// ErrStructural marks references to blocks that cannot be identified.
	ErrStructural = errors.New("structural reference error")
	// ErrInvariant marks defects: kind mismatches, invalid output.
	ErrInvariant = errors.New("invariant violation")
	// ErrUnresolvedAlias is returned when a constant uses an alias whose
	// target never resolved.
	ErrUnresolvedAlias = errors.New("unresolved alias")
)

type UnsupportedError struct {
	Feature string
	Detail  string
}

func (e *UnsupportedError) Error() string {
	if e.Detail == "" {
		return "unsupported " + e.Feature
	}
	return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Detail)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

func unsupported(feature, format string, args ...any) error {
	return &UnsupportedError{Feature: feature, Detail: fmt.Sprintf(format, args...)}
}

// StructuralError names the function and block a bad reference came from.
type StructuralError struct {
	Function string
	Block    string
	Detail   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("fn%s bb %s: %s", e.Function, e.Block, e.Detail)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

type InvariantError struct {
	Detail string
	Err    error
}

func (e *InvariantError) Error() string {
	if e.Err == nil {
		return "invariant violation: " + e.Detail
	}
	return fmt.Sprintf("invariant violation: %s: %v", e.Detail, e.Err)
}

func (e *InvariantError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvariant}
	}
	return []error{ErrInvariant, e.Err}
}

func invariant(err error, format string, args ...any) error {
	return &InvariantError{Detail: fmt.Sprintf(format, args...), Err: err}
}
