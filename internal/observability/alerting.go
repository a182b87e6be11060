package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/tasknest/taskdeck/pkg/models"
)

// Alert severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Alert is a deadline warning raised over the task collection.
type Alert struct {
	Severity string    `json:"severity"`
	TaskID   int64     `json:"task_id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Deadline time.Time `json:"deadline"`
}

// DeadlineAlerts scans the collection for non-completed tasks whose
// deadline has passed (high severity) or falls within the warning window
// (medium severity). Tasks without a deadline never alert.
func DeadlineAlerts(tasks []models.Task, now time.Time, window time.Duration) []Alert {
	var alerts []Alert
	for _, t := range tasks {
		if t.Deadline == nil || t.Completed() {
			continue
		}

		switch {
		case t.Deadline.Before(now):
			alerts = append(alerts, Alert{
				Severity: SeverityHigh,
				TaskID:   t.ID,
				Title:    t.Title,
				Message:  fmt.Sprintf("overdue since %s", t.Deadline.Format("2006-01-02")),
				Deadline: *t.Deadline,
			})
		case t.Deadline.Sub(now) <= window:
			alerts = append(alerts, Alert{
				Severity: SeverityMedium,
				TaskID:   t.ID,
				Title:    t.Title,
				Message:  fmt.Sprintf("due %s", t.Deadline.Format("2006-01-02")),
				Deadline: *t.Deadline,
			})
		}
	}

	// Most urgent first: overdue before upcoming, then by deadline.
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity != alerts[j].Severity {
			return alerts[i].Severity == SeverityHigh
		}
		return alerts[i].Deadline.Before(alerts[j].Deadline)
	})

	return alerts
}
