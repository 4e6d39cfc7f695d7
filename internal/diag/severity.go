package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevWeakWarning is for hints that do not indicate a defect.
	SevWeakWarning Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevWeakWarning:
		return "WEAK_WARNING"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label is the lower-case form used in short and golden output.
func (s Severity) Label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "weak"
	}
}
