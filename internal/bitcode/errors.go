package bitcode

import "fmt"

// DecodeError reports a malformed record or an unusable symbol.
type DecodeError struct {
	Record RecordID
	Symbol int // -1 when not tied to a symbol
	Msg    string
}

func (e *DecodeError) Error() string {
	switch {
	case e.Symbol >= 0 && e.Record != 0:
		return fmt.Sprintf("%s (symbol %d): %s", e.Record, e.Symbol, e.Msg)
	case e.Symbol >= 0:
		return fmt.Sprintf("symbol %d: %s", e.Symbol, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Record, e.Msg)
	}
}

func recordErr(id RecordID, format string, args ...any) *DecodeError {
	return &DecodeError{Record: id, Symbol: -1, Msg: fmt.Sprintf(format, args...)}
}

func symbolErr(idx int, format string, args ...any) *DecodeError {
	return &DecodeError{Symbol: idx, Msg: fmt.Sprintf(format, args...)}
}
