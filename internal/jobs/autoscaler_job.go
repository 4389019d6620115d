package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"routeopt/internal/core/application/autoscaling"

	"github.com/robfig/cron/v3"
)

type AutoscalerSchedule struct {
	SampleInterval   time.Duration
	ScaleOutInterval time.Duration
	ScaleInInterval  time.Duration
}

// AutoscalerJob drives an autoscaling.Controller: one sampler entry and one
// entry per scaling loop.
type AutoscalerJob struct {
	controller *autoscaling.Controller
	schedule   AutoscalerSchedule
	cron       *cron.Cron
	logger     *slog.Logger
}

func NewAutoscalerJob(controller *autoscaling.Controller, schedule AutoscalerSchedule, logger *slog.Logger) *AutoscalerJob {
	logger = logger.With("component", "autoscaler_job")
	return &AutoscalerJob{
		controller: controller,
		schedule:   schedule,
		cron:       newCron(),
		logger:     logger,
	}
}

func (j *AutoscalerJob) Name() string {
	return "autoscaler"
}

func (j *AutoscalerJob) Start() error {
	entries := []struct {
		every time.Duration
		run   func()
	}{
		{j.schedule.SampleInterval, j.sample},
		{j.schedule.ScaleOutInterval, func() { j.evaluate("scale_out", j.controller.EvaluateScaleOut) }},
		{j.schedule.ScaleInInterval, func() { j.evaluate("scale_in", j.controller.EvaluateScaleIn) }},
	}

	for _, entry := range entries {
		if _, err := j.cron.AddFunc(every(entry.every), entry.run); err != nil {
			return err
		}
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Autoscaler job started",
		"sampleInterval", j.schedule.SampleInterval.String(),
		"scaleOutInterval", j.schedule.ScaleOutInterval.String(),
		"scaleInInterval", j.schedule.ScaleInInterval.String())
	return nil
}

func (j *AutoscalerJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Autoscaler job stopped")
}

func (j *AutoscalerJob) sample() {
	ctx, cancel := context.WithTimeout(context.Background(), j.schedule.SampleInterval)
	defer cancel()

	if err := j.controller.Sample(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Queue sampling failed", "error", err)
	}
}

func (j *AutoscalerJob) evaluate(loop string, run func(context.Context) autoscaling.Decision) {
	ctx := context.Background()
	decision := run(ctx)
	if !decision.Scaled {
		j.logger.DebugContext(ctx, "No scaling action",
			"loop", loop, "metric", decision.Metric, "reason", decision.Reason)
	}
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

func newCron() *cron.Cron {
	return cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
}
