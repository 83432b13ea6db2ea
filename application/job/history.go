package job

import (
	"sync"

	"reels-relay/domain/job"
)

// History holds the most recent run report for concurrent readers
type History struct {
	mu   sync.RWMutex
	last *job.Report
}

// NewHistory creates an empty history
func NewHistory() *History {
	return &History{}
}

// Set replaces the last report
func (h *History) Set(r *job.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = r
}

// Last returns the last report, or nil before the first run
func (h *History) Last() *job.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
