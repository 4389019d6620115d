// Package jobs provides the scheduled background tasks of the optimization
// service.
//
// Jobs use github.com/robfig/cron/v3 with "@every" schedules.
//
// # Available Jobs
//
// 1. AutoscalerJob - samples queue depth and runs the scale-out and scale-in loops
// 2. StaleSubmissionJob - reports tasks that stayed SUBMITTED past a threshold
//
// # Usage
//
//	jobManager := jobs.NewJobManager(autoscalerJob, staleJob)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// Entries are wrapped with cron.SkipIfStillRunning, so a slow run delays the
// next tick instead of overlapping it.
package jobs
