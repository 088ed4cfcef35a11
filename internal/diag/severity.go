package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for notes about ignored module content.
	SevInfo Severity = iota
	// SevWarning is for tolerated problems.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

func (s Severity) label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "note"
	}
}
