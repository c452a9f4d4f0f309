package pipeline

import "time"

// StepStatus is the terminal state of one step within a run.
type StepStatus string

const (
	StepSucceeded StepStatus = "succeeded"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
)

// StepResult records the outcome of a single step.
type StepResult struct {
	Name    string
	Status  StepStatus
	Policy  Policy
	Elapsed time.Duration
	Err     error
}

// RunSummary reports every step outcome for one workflow invocation. It is
// produced even when the run aborts so callers can render a full table.
type RunSummary struct {
	RunID   string
	Results []StepResult
	Aborted bool
	Elapsed time.Duration
}

// Succeeded counts steps that completed.
func (s *RunSummary) Succeeded() int { return s.count(StepSucceeded) }

// Skipped counts steps that were disabled or bypassed by an abort.
func (s *RunSummary) Skipped() int { return s.count(StepSkipped) }

// Failed counts steps that errored, including ones the run continued past.
func (s *RunSummary) Failed() int { return s.count(StepFailed) }

func (s *RunSummary) count(status StepStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}
