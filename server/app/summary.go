package app

import (
	"time"

	"github.com/pkg/errors"
)

type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// RunSummary is the outcome of one job run. Processed counts every item the
// run looked at, including the errored ones.
type RunSummary struct {
	Job        string         `json:"job"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Processed  int            `json:"processed"`
	Changed    int            `json:"changed"`
	Skipped    int            `json:"skipped"`
	Errored    int            `json:"errored"`
	Errors     []ItemError    `json:"errors,omitempty"`
	Details    map[string]int `json:"details,omitempty"`
}

func newSummary(job string, now time.Time) *RunSummary {
	return &RunSummary{
		Job:       job,
		StartedAt: now,
		Details:   map[string]int{},
	}
}

// Succeeded is the number of processed items that did not error.
func (s *RunSummary) Succeeded() int {
	return s.Processed - s.Errored
}

// Unchanged is the number of processed items that needed nothing done.
func (s *RunSummary) Unchanged() int {
	if n := s.Processed - s.Errored - s.Changed - s.Skipped; n > 0 {
		return n
	}
	return 0
}

func (s *RunSummary) fail(id string, err error) {
	s.Errored++
	s.Errors = append(s.Errors, ItemError{ID: id, Error: err.Error()})
}

func (s *RunSummary) add(detail string, n int) {
	s.Details[detail] += n
}

func (s *RunSummary) finish() *RunSummary {
	s.FinishedAt = time.Now()
	return s
}

// isolate runs the work for one item and turns a panic into an error, so a
// single bad item cannot end the run.
func isolate(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return f()
}
