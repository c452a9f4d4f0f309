package pipeline

import (
	"context"
	"fmt"

	"relpack/internal/config"
)

// Policy decides what a step failure does to the rest of the run.
type Policy int

const (
	// PolicyWarnContinue records the failure and moves on to the next step.
	// Strict mode upgrades it to an abort.
	PolicyWarnContinue Policy = iota
	// PolicyFatal aborts the run regardless of strict mode.
	PolicyFatal
)

func (p Policy) String() string {
	if p == PolicyFatal {
		return "fatal"
	}
	return "warn-continue"
}

// Descriptor is one runnable step in the release workflow. Enabled gates the
// step on the resolved configuration; Retryable marks steps whose transient
// failures are worth repeating under the retry policy.
type Descriptor struct {
	Name      string
	Enabled   func(*config.ReleaseConfig) bool
	Policy    Policy
	Retryable bool
	Run       func(context.Context, *Release) error
}

// Always is an Enabled predicate for steps that run on every configuration.
func Always(*config.ReleaseConfig) bool { return true }

// StepError reports which step failed and under which policy.
type StepError struct {
	Step   string
	Policy Policy
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
