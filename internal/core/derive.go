// Package core contains the business logic for taskdeck: view derivation,
// the mutation controller, the session state machine, and configuration.
package core

import (
	"sort"
	"strings"

	"github.com/tasknest/taskdeck/pkg/models"
)

// ViewParams is the user-controlled search and filter state driving
// derivation. Empty fields disable the corresponding filter.
type ViewParams struct {
	Search   string
	Status   models.TaskStatus
	Priority models.TaskPriority
}

// ActiveFilters counts the status/priority filters currently set.
// Free-text search is not counted, matching how the filter badge behaves.
func (p ViewParams) ActiveFilters() int {
	n := 0
	if p.Status != "" {
		n++
	}
	if p.Priority != "" {
		n++
	}
	return n
}

// Stats are aggregate counts over the unfiltered collection. They are
// independent of ViewParams and change only when the collection changes.
type Stats struct {
	Completed  int
	Pending    int
	HighUrgent int
}

// ComputeStats derives aggregate statistics over the whole collection.
func ComputeStats(tasks []models.Task) Stats {
	var s Stats
	for _, t := range tasks {
		if t.Completed() {
			s.Completed++
		} else {
			s.Pending++
		}
		switch models.NormalizePriority(string(t.Priority)) {
		case models.PriorityUrgent, models.PriorityHigh:
			s.HighUrgent++
		}
	}
	return s
}

// Derive produces the ordered, filtered sequence to render. It is a pure
// function of its inputs: the input slice is never mutated, and no
// combination of malformed optional fields can make it fail.
func Derive(tasks []models.Task, params ViewParams) []models.Task {
	derived := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, params) {
			derived = append(derived, t)
		}
	}

	// Comparator precedence: created_at descending, then completed tasks
	// after non-completed, then priority rank ascending. Completion only
	// breaks ties between identical timestamps; a strictly newer completed
	// task still sorts before an older pending one. That is the shipped
	// behavior and is kept as-is rather than sinking completed tasks
	// unconditionally.
	sort.SliceStable(derived, func(i, j int) bool {
		a, b := derived[i], derived[j]

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}

		aDone, bDone := a.Completed(), b.Completed()
		if aDone != bDone {
			return !aDone
		}

		return models.PriorityRank(a.Priority) < models.PriorityRank(b.Priority)
	})

	return derived
}

// matches applies the search, status, and priority filters to one task.
func matches(t models.Task, params ViewParams) bool {
	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		title := strings.ToLower(t.Title)
		desc := strings.ToLower(t.Description)
		if !strings.Contains(title, needle) && !strings.Contains(desc, needle) {
			return false
		}
	}

	if params.Status != "" && models.NormalizeStatus(string(t.Status)) != models.NormalizeStatus(string(params.Status)) {
		return false
	}

	if params.Priority != "" && models.NormalizePriority(string(t.Priority)) != models.NormalizePriority(string(params.Priority)) {
		return false
	}

	return true
}
