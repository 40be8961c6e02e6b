package domain

type ResultStatus string

const (
	StatusSucceeded ResultStatus = "succeeded"
	StatusFailed    ResultStatus = "failed"
	StatusSkipped   ResultStatus = "skipped"
)

// ExecutionResult is the outcome of one planned action. Index is the
// action's position in the plan.
type ExecutionResult struct {
	Index         int
	Action        PlannedAction
	Status        ResultStatus
	Reason        string
	Err           error
	Checksum      string
	SourceDeleted bool
}

type RunSummary struct {
	Results        []ExecutionResult
	Succeeded      int
	Failed         int
	Skipped        int
	Deleted        int
	DeleteDeclined bool
	Failures       []ExecutionResult
}

func Summarize(results []ExecutionResult) RunSummary {
	summary := RunSummary{Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, r)
		case StatusSkipped:
			summary.Skipped++
		}
		if r.SourceDeleted {
			summary.Deleted++
		}
	}
	return summary
}

func (s RunSummary) OK() bool {
	return s.Failed == 0
}
