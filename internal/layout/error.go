package layout

import (
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a struct that contains itself by value.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	LayoutErrLengthConversion
	LayoutErrOpaque
	LayoutErrUnsupported
	LayoutErrFieldIndex
	LayoutErrDataLayout
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  string   // textual form of the offending type
	Cycle []string // for LayoutErrRecursiveUnsized
	Index int64    // for LayoutErrFieldIndex
	Spec  string   // for LayoutErrDataLayout
	Err   error
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("recursive value type has infinite size (%s)", e.Type)
		}
		return fmt.Sprintf("recursive value type has infinite size (cycle: %s)", strings.Join(e.Cycle, " -> "))
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("length conversion error (%s): %v", e.Type, e.Err)
		}
		return fmt.Sprintf("length conversion error (%s)", e.Type)
	case LayoutErrOpaque:
		return fmt.Sprintf("opaque type has no layout: %s", e.Type)
	case LayoutErrUnsupported:
		return fmt.Sprintf("unsupported type: %s", e.Type)
	case LayoutErrFieldIndex:
		return fmt.Sprintf("index %d out of range for %s", e.Index, e.Type)
	case LayoutErrDataLayout:
		if e.Err != nil {
			return fmt.Sprintf("invalid datalayout entry %q: %v", e.Spec, e.Err)
		}
		return fmt.Sprintf("invalid datalayout entry %q", e.Spec)
	default:
		return fmt.Sprintf("layout error kind=%d (%s)", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
