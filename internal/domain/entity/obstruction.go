package entity

type ObstructionState int

const (
	ObstructionUnknown ObstructionState = iota
	ObstructionDetected
	ObstructionDismissAttempted
	ObstructionDismissed
	ObstructionBlocked
)

func (s ObstructionState) String() string {
	switch s {
	case ObstructionDetected:
		return "detected"
	case ObstructionDismissAttempted:
		return "dismiss_attempted"
	case ObstructionDismissed:
		return "dismissed"
	case ObstructionBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ObstructionReport describes one clearing attempt. A report in the Unknown
// state means no obstruction was present.
type ObstructionReport struct {
	State     ObstructionState
	Signature string
	Cycles    int
	Strategy  string
	Trace     []string
}

// Clear reports whether extraction can proceed without obstruction text on
// screen.
func (r ObstructionReport) Clear() bool {
	return r.State == ObstructionUnknown || r.State == ObstructionDismissed
}
