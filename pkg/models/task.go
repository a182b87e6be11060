package models

import (
	"math"
	"strings"
	"time"
)

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskPriority represents the urgency level of a task.
type TaskPriority string

const (
	PriorityUrgent TaskPriority = "urgent"
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// priorityRanks orders priorities for sorting, lowest rank first.
var priorityRanks = map[TaskPriority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityMedium: 2,
	PriorityLow:    3,
}

// NormalizeStatus canonicalizes a status value for storage and comparison.
// The remote service and older clients are inconsistent about casing and
// spacing ("In Progress", "in progress"), so both are folded here.
func NormalizeStatus(s string) TaskStatus {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, " ", "_")
	return TaskStatus(n)
}

// NormalizePriority canonicalizes a priority value for storage and comparison.
func NormalizePriority(p string) TaskPriority {
	return TaskPriority(strings.ToLower(strings.TrimSpace(p)))
}

// PriorityRank returns the sort rank of a priority after normalization.
// Unrecognized values rank after low so they sort last instead of failing.
func PriorityRank(p TaskPriority) int {
	if r, ok := priorityRanks[NormalizePriority(string(p))]; ok {
		return r
	}
	return math.MaxInt
}

// Task represents a unit of work owned by the authenticated user.
// The ID and created_at are assigned by the remote service and immutable.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Completed reports whether the task's normalized status is completed.
func (t Task) Completed() bool {
	return NormalizeStatus(string(t.Status)) == StatusCompleted
}

// TaskDraft is the input payload for create and update calls, prior to
// server-assigned fields. Updates are full replaces, so callers carry
// forward unchanged fields themselves.
type TaskDraft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Deadline    *time.Time   `json:"deadline"`
}

// WithDefaults returns a copy of the draft with empty status and priority
// filled in with the service defaults.
func (d TaskDraft) WithDefaults() TaskDraft {
	if d.Status == "" {
		d.Status = StatusTodo
	}
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	return d
}
