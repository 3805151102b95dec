package types

import "strings"

// SpecResult is the outcome of one spec (test case) as reported by the host runner.
type SpecResult struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description"`
	Suite       []string `json:"suite"`
	Success     bool     `json:"success"`
	Skipped     bool     `json:"skipped"`
	Time        float64  `json:"time"` // milliseconds, zero when the runner did not time the spec
	Log         []string `json:"log,omitempty"`
}

// SuitePath returns the suite segments joined with sep.
func (r *SpecResult) SuitePath(sep string) string {
	return strings.Join(r.Suite, sep)
}

// TopSuite returns the outermost suite name, or "" for a spec outside any suite.
func (r *SpecResult) TopSuite() string {
	if len(r.Suite) == 0 {
		return ""
	}
	return r.Suite[0]
}

// SpecStatus is the outcome category of a spec.
type SpecStatus string

const (
	SpecStatusPass SpecStatus = "pass"
	SpecStatusFail SpecStatus = "fail"
	SpecStatusSkip SpecStatus = "skip"
)

// Status classifies the result the way the host runner dispatches it:
// skipped wins over success, anything else unsuccessful is a failure.
func (r *SpecResult) Status() SpecStatus {
	switch {
	case r.Skipped:
		return SpecStatusSkip
	case r.Success:
		return SpecStatusPass
	default:
		return SpecStatusFail
	}
}
