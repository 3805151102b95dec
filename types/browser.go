package types

// Browser is a test execution environment reported by the host runner.
type Browser struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	FullName   string         `json:"fullName"`
	LastResult *BrowserResult `json:"lastResult,omitempty"`
}

// BrowserResult is the aggregated outcome of a browser at the time it completes.
// Times are in milliseconds, as delivered by the host runner.
type BrowserResult struct {
	Total        int     `json:"total"`
	Success      int     `json:"success"`
	Failed       int     `json:"failed"`
	Skipped      int     `json:"skipped"`
	NetTime      float64 `json:"netTime"`
	Disconnected bool    `json:"disconnected"`
	Error        bool    `json:"error"`
}

// Errored returns true if the browser crashed or lost its connection.
func (r *BrowserResult) Errored() bool {
	return r.Disconnected || r.Error
}
