package core

import (
	"sync"

	"github.com/tasknest/taskdeck/pkg/models"
)

// ViewSnapshot is the immutable state handed to the presentation layer:
// the derived sequence, aggregate statistics, and the parameters that
// produced them.
type ViewSnapshot struct {
	Tasks  []models.Task
	Stats  Stats
	Params ViewParams
}

// ViewModel owns the in-memory task collection and the current view
// parameters, and re-derives the rendered sequence on every relevant
// change. The collection is replaced only atomically via SetTasks;
// all mutation goes through the MutationController, which re-fetches
// rather than patching.
type ViewModel struct {
	mu      sync.RWMutex
	tasks   []models.Task
	params  ViewParams
	derived []models.Task
	stats   Stats
}

// NewViewModel creates an empty ViewModel with no filters set.
func NewViewModel() *ViewModel {
	return &ViewModel{}
}

// SetTasks atomically replaces the collection and re-derives.
func (vm *ViewModel) SetTasks(tasks []models.Task) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.tasks = append([]models.Task(nil), tasks...)
	vm.rederive()
}

// SetSearch updates the free-text search and re-derives.
func (vm *ViewModel) SetSearch(search string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.params.Search = search
	vm.rederive()
}

// SetStatusFilter updates the status filter and re-derives.
func (vm *ViewModel) SetStatusFilter(status models.TaskStatus) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.params.Status = status
	vm.rederive()
}

// SetPriorityFilter updates the priority filter and re-derives.
func (vm *ViewModel) SetPriorityFilter(priority models.TaskPriority) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.params.Priority = priority
	vm.rederive()
}

// ClearFilters resets search and both filters and re-derives.
func (vm *ViewModel) ClearFilters() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.params = ViewParams{}
	vm.rederive()
}

// Snapshot returns the current derived view. The returned slices are
// copies; callers may not mutate the view-model through them.
func (vm *ViewModel) Snapshot() ViewSnapshot {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return ViewSnapshot{
		Tasks:  append([]models.Task(nil), vm.derived...),
		Stats:  vm.stats,
		Params: vm.params,
	}
}

// Task returns the task with the given id from the full collection,
// filtered or not, so status changes can carry current fields forward.
func (vm *ViewModel) Task(id int64) (models.Task, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, t := range vm.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Len returns the size of the unfiltered collection.
func (vm *ViewModel) Len() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.tasks)
}

// rederive recomputes the derived sequence and stats. Callers hold the
// write lock.
func (vm *ViewModel) rederive() {
	vm.derived = Derive(vm.tasks, vm.params)
	vm.stats = ComputeStats(vm.tasks)
}
