package scheduler

import (
	"sync"

	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// ReportRegistry keeps the most recent cycle report of each service
type ReportRegistry struct {
	mu      sync.RWMutex
	order   []string
	reports map[string]models.CycleReport
}

// NewReportRegistry creates a new registry
func NewReportRegistry() *ReportRegistry {
	return &ReportRegistry{
		reports: make(map[string]models.CycleReport),
	}
}

// Record stores report, replacing the previous one for the same service
func (r *ReportRegistry) Record(report models.CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reports[report.Service]; !ok {
		r.order = append(r.order, report.Service)
	}
	r.reports[report.Service] = report
}

// Latest returns the last report of every service, in first-seen order
func (r *ReportRegistry) Latest() []models.CycleReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.CycleReport, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.reports[name])
	}
	return out
}

// Get returns the last report for service
func (r *ReportRegistry) Get(service string) (models.CycleReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[service]
	return report, ok
}
