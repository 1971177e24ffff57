package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRecurrenceGenerate materialises due recurring patterns.
	TaskRecurrenceGenerate = "recurrence:generate"
)

// RecurrenceGeneratePayload parameterises a generation batch. A zero
// AsOf means "now" at processing time, which is what the nightly cron
// enqueues.
type RecurrenceGeneratePayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewRecurrenceGenerateTask constructs an Asynq task.
func NewRecurrenceGenerateTask(payload RecurrenceGeneratePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecurrenceGenerate, data), nil
}
