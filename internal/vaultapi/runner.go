package vaultapi

import (
	"encoding/json"
	"time"
)

// Observer is told about every step Run executes
type Observer func(step string, elapsed time.Duration, err error)

// Runner holds what Run needs besides the step itself: where diagnostics go
// and who observes step outcomes. A nil *Runner is valid and silent.
type Runner struct {
	diag    Diagnostics
	observe Observer
}

// NewRunner creates a Runner. Either argument may be nil.
func NewRunner(diag Diagnostics, observe Observer) *Runner {
	if diag == nil {
		diag = nopDiagnostics{}
	}
	return &Runner{diag: diag, observe: observe}
}

// Run executes one named step. A successful result is returned unchanged.
// A failure is written to the diagnostics sink in full and returned as a
// *StepError whose message has the same shape for every step.
func Run[T any](r *Runner, description string, op func() (T, error)) (T, error) {
	if r == nil {
		r = NewRunner(nil, nil)
	}

	r.diag.Debug("Starting request: %s", description)

	start := time.Now()
	result, err := op()
	if r.observe != nil {
		r.observe(description, time.Since(start), err)
	}

	if err != nil {
		r.report(err)
		var zero T
		return zero, wrapStep(description, err)
	}

	r.diag.Debug("Successfully completed request: %s", description)
	return result, nil
}

func wrapStep(description string, err error) *StepError {
	return &StepError{
		Description: description,
		Message:     causeOf(err),
		StatusCode:  StatusOf(err),
		Err:         err,
	}
}

func (r *Runner) report(err error) {
	detail, merr := json.MarshalIndent(exchangeOf(err).report(err.Error()), "", "  ")
	if merr != nil {
		r.diag.Debug("Full error object unavailable: %v", merr)
		return
	}
	r.diag.Debug("Full error object:\n%s", detail)
}
