package security

// Severity ranks how serious a security issue is. Ordering matters: issues
// at SeverityHigh or above block the validated operation.
type Severity int

const (
	// SeverityInfo is purely informational
	SeverityInfo Severity = iota
	// SeverityWarning flags something suspicious without blocking
	SeverityWarning
	// SeverityHigh blocks the operation
	SeverityHigh
	// SeverityCritical blocks the operation and marks it as actively harmful
	SeverityCritical
)

// String returns string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity parses a string into a Severity
func ParseSeverity(s string) Severity {
	switch s {
	case "info", "INFO":
		return SeverityInfo
	case "warning", "WARNING", "warn", "WARN":
		return SeverityWarning
	case "high", "HIGH":
		return SeverityHigh
	case "critical", "CRITICAL":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}
