package observability

import (
	"fmt"
	"time"
)

// UsageMetrics holds counts derived from the event log.
type UsageMetrics struct {
	TasksCreated     int `json:"tasks_created"`
	TasksUpdated     int `json:"tasks_updated"`
	TasksDeleted     int `json:"tasks_deleted"`
	Refreshes        int `json:"refreshes"`
	Logins           int `json:"logins"`
	MutationFailures int `json:"mutation_failures"`

	// Window covered by the metrics.
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MetricsCalculator derives usage metrics from the event log.
type MetricsCalculator interface {
	Calculate(since *time.Time) (*UsageMetrics, error)
}

type eventLogMetrics struct {
	log EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from the
// given event log.
func NewMetricsCalculator(log EventLog) MetricsCalculator {
	return &eventLogMetrics{log: log}
}

// Calculate reduces the event log into usage counts. A nil since covers
// the whole log.
func (m *eventLogMetrics) Calculate(since *time.Time) (*UsageMetrics, error) {
	events, err := m.log.Read(EventFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("calculating metrics: %w", err)
	}

	metrics := &UsageMetrics{To: time.Now().UTC()}
	if since != nil {
		metrics.From = *since
	}

	for _, e := range events {
		switch e.Type {
		case EventTaskCreated:
			metrics.TasksCreated++
		case EventTaskUpdated:
			metrics.TasksUpdated++
		case EventTaskDeleted:
			metrics.TasksDeleted++
		case EventRefresh:
			metrics.Refreshes++
		case EventLogin:
			metrics.Logins++
		case EventMutationError:
			metrics.MutationFailures++
		}
	}

	return metrics, nil
}
