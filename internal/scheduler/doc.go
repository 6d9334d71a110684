// Package scheduler runs the periodic task sweeps.
//
// Three jobs are provided: the overdue sweep notifies assignees of
// in-progress tasks whose deadline has passed, the upcoming sweep reminds
// assignees of tasks due within a day, and the archival sweep archives
// settled tasks whose opportunity has closed. Every sweep re-selects its
// window on each tick; repeated runs stay quiet because notifications are
// inserted only if absent and archiving is a conditional update.
//
// The Scheduler fires each job on its own ticker and hands due runs to a
// small WorkerPool through a bounded JobQueue. A job is never queued while
// its previous run is still in flight.
package scheduler
