package pipeline

import (
	"time"

	"github.com/couchcryptid/envirocar-etl/internal/domain"
)

// Report summarizes a run. It is published once the run has finished so
// that a partial load can be detected downstream.
type Report struct {
	Status     string           `json:"status"`
	Table      string           `json:"table"`
	Phenomena  domain.Phenomena `json:"phenomena"`
	Stats      *Stats           `json:"stats"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitzero"`
	Error      string           `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without error.
func (r Report) Succeeded() bool {
	return r.Status == StateDone.String()
}

// Report returns a snapshot of the run so far.
func (p *Pipeline) Report() Report {
	p.mu.Lock()
	r := p.report
	p.mu.Unlock()

	r.Status = p.State().String()
	r.Stats = &p.stats
	return r
}
