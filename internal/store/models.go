package store

import "time"

// Run is one recorded application session
type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"` // zero while the run is in progress
	Submitted  int       `json:"submitted"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// Finished reports whether FinishRun has been recorded
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}
