package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gizihub/gizihub/internal/jobs"
)

// Instrument wraps an asynq handler with run, failure and duration metrics.
func Instrument(job string, metrics *jobmetrics.Metrics, h asynq.HandlerFunc) asynq.HandlerFunc {
	if metrics == nil {
		return h
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(job)
		return tracker.End(h(ctx, t))
	}
}
