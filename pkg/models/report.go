package models

import "time"

// CycleReport summarizes one cleanup cycle for one service.
type CycleReport struct {
	Service        string        `json:"service"`         // Endpoint name
	CycleID        string        `json:"cycle_id"`        // Correlates the cycle's log lines
	StartedAt      time.Time     `json:"started_at"`      // When the fetch began
	Duration       time.Duration `json:"duration"`        // Wall time of the whole cycle
	Fetched        bool          `json:"fetched"`         // False when the queue could not be read
	Attempted      int           `json:"attempted"`       // Delete calls issued
	Deleted        int           `json:"deleted"`         // Delete calls that succeeded
	Failed         int           `json:"failed"`          // Delete calls that returned an error
	SkippedInvalid int           `json:"skipped_invalid"` // Entries missing required keys
}
