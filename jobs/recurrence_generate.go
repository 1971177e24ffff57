package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/granite-erp/granite/internal/observability"
	"github.com/granite-erp/granite/internal/recurrence"
)

// RecurrenceGenerateJob runs the recurrence generation batch.
type RecurrenceGenerateJob struct {
	service *recurrence.Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRecurrenceGenerateJob constructs the job.
func NewRecurrenceGenerateJob(service *recurrence.Service, logger *slog.Logger, metrics *observability.Metrics) *RecurrenceGenerateJob {
	return &RecurrenceGenerateJob{service: service, logger: logger, metrics: metrics}
}

// Handle processes TaskRecurrenceGenerate tasks. Per-pattern failures
// are logged and counted but do not fail the task; a failed batch
// would otherwise retry and regenerate the successful patterns.
func (j *RecurrenceGenerateJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RecurrenceGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	result, err := j.service.GenerateDue(ctx, asOf)
	if err != nil {
		j.logger.Error("recurrence batch failed", slog.Any("error", err))
		return err
	}

	for _, f := range result.Failures {
		j.logger.Warn("recurring pattern skipped",
			slog.Int64("pattern_id", f.PatternID),
			slog.String("pattern", f.Name),
			slog.String("reason", f.Err),
		)
	}
	if j.metrics != nil {
		j.metrics.ObserveRecurrence(result.Generated, len(result.Failures))
	}
	j.logger.Info("recurrence batch complete",
		slog.Time("as_of", asOf),
		slog.Int("generated", result.Generated),
		slog.Int("failed", len(result.Failures)),
	)
	return nil
}
