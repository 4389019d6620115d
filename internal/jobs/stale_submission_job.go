package jobs

import (
	"context"
	"log/slog"
	"time"

	"routeopt/internal/core/application/usecases/queries"

	"github.com/robfig/cron/v3"
)

const staleBatchSize = 100

type StaleSubmissionFinder interface {
	Handle(ctx context.Context, query queries.FindStaleSubmissionsQuery) ([]queries.StaleSubmission, error)
}

// StaleSubmissionJob logs tasks that no worker picked up within Threshold.
// It reports only; operators decide whether to resubmit.
type StaleSubmissionJob struct {
	finder    StaleSubmissionFinder
	threshold time.Duration
	interval  time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
}

func NewStaleSubmissionJob(
	finder StaleSubmissionFinder,
	threshold, interval time.Duration,
	logger *slog.Logger,
) *StaleSubmissionJob {
	logger = logger.With("component", "stale_submission_job")
	return &StaleSubmissionJob{
		finder:    finder,
		threshold: threshold,
		interval:  interval,
		cron:      newCron(),
		logger:    logger,
		now:       time.Now,
	}
}

func (j *StaleSubmissionJob) Name() string {
	return "stale submission"
}

func (j *StaleSubmissionJob) Start() error {
	if _, err := j.cron.AddFunc(every(j.interval), func() { j.Run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stale submission job started",
		"threshold", j.threshold.String(), "interval", j.interval.String())
	return nil
}

func (j *StaleSubmissionJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Stale submission job stopped")
}

// Run performs one report and returns how many stale tasks it logged.
func (j *StaleSubmissionJob) Run(ctx context.Context) int {
	now := j.now().UTC()

	query, err := queries.NewFindStaleSubmissionsQuery(now.Add(-j.threshold), staleBatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Stale submission query rejected", "error", err)
		return 0
	}

	stale, err := j.finder.Handle(ctx, query)
	if err != nil {
		j.logger.ErrorContext(ctx, "Stale submission lookup failed", "error", err)
		return 0
	}

	for _, s := range stale {
		j.logger.WarnContext(ctx, "Task still submitted",
			"problemId", s.ProblemID.String(),
			"createdAt", s.CreatedAt,
			"age", now.Sub(s.CreatedAt).Round(time.Second).String())
	}
	return len(stale)
}
