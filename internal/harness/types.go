package harness

import "strings"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// RunID is the run ID the analysis used.
	RunID string `json:"run_id"`

	// Output is the raw report output. It is what golden files hold.
	Output string `json:"output"`

	// Steps is the number of runner steps taken.
	Steps int `json:"steps"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Lines splits the output into lines, dropping the trailing newline.
func (r *Result) Lines() []string {
	out := strings.TrimSuffix(r.Output, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
