package types

import "time"

// Listing is a listing entry chosen on the listings page
type Listing struct {
	Index int    `json:"index"` // position among listing entries, in document order
	Text  string `json:"text"`
}

// Status is the outcome of one application attempt
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusFailed    Status = "failed"
)

// Attempt records one pass through the application flow
type Attempt struct {
	Listing    string    `json:"listing"`
	URL        string    `json:"url"`
	Status     Status    `json:"status"`
	Answered   []string  `json:"answered"` // question labels that received an answer
	Skipped    []string  `json:"skipped"`  // question labels with no matching phrase
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RunResult summarizes a whole session
type RunResult struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempts   []Attempt `json:"attempts"`
	Error      string    `json:"error,omitempty"`
}

// Submitted counts attempts that reached the success signal
func (r *RunResult) Submitted() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Status == StatusSubmitted {
			n++
		}
	}
	return n
}

// Failed counts attempts that aborted
func (r *RunResult) Failed() int {
	return len(r.Attempts) - r.Submitted()
}
