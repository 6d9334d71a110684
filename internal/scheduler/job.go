package scheduler

import (
	"context"
	"fmt"
)

// Job names understood by the Scheduler and the sweep command.
const (
	JobOverdue  = "overdue"
	JobUpcoming = "upcoming"
	JobArchive  = "archive"
)

// Job is a unit of periodic background work.
type Job interface {
	// Name returns the job's unique name.
	Name() string

	// Run performs one execution of the job.
	Run(ctx context.Context) (Result, error)
}

// Result summarizes one execution of a job.
type Result struct {
	// Selected is the number of tasks the sweep's query returned.
	Selected int
	// Applied counts notifications created or tasks archived.
	Applied int
	// Skipped counts selected tasks that needed no write.
	Skipped int
	// Failed counts tasks whose write returned an error.
	Failed int
}

func (r Result) String() string {
	return fmt.Sprintf("selected=%d applied=%d skipped=%d failed=%d", r.Selected, r.Applied, r.Skipped, r.Failed)
}
