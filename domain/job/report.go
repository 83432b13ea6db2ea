package job

import (
	"time"

	"reels-relay/domain/video"
)

// Outcome is the result of processing one video in a run
type Outcome struct {
	Video     video.Video `json:"video"`
	ArchiveID string      `json:"archive_id,omitempty"`
	PostID    string      `json:"post_id,omitempty"`
	Err       *StepError  `json:"-"`
}

// Succeeded returns true if every attempted step completed
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Report summarizes one orchestrator run
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Published returns the number of videos that reached a post id
func (r *Report) Published() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.PostID != "" {
			n++
		}
	}
	return n
}

// Failures returns the step errors of the run in processing order
func (r *Report) Failures() []*StepError {
	var errs []*StepError
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
