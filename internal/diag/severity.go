package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo carries notes such as phase timings.
	SevInfo Severity = iota
	// SevWarning never fails a unit.
	SevWarning
	// SevError fails the unit; the affected function compiles to a Fatal body.
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
