package domain

// RunState tracks one invocation from scan to completion.
type RunState int

const (
	StateScanning RunState = iota
	StateProbing
	StateGrouping
	StatePlanBuilt
	StateDryRunPrinted
	StateExecuting
	StateCompleted
)

func (s RunState) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateProbing:
		return "probing"
	case StateGrouping:
		return "grouping"
	case StatePlanBuilt:
		return "plan-built"
	case StateDryRunPrinted:
		return "dry-run-printed"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
