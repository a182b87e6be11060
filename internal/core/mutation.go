package core

import (
	"context"
	"strings"
	"sync"

	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/pkg/models"
)

// MutationController performs task mutations against the repository
// client. Every successful mutation is followed by a full reconciling
// read; the view never trusts a locally constructed post-mutation object.
// A per-id guard rejects overlapping mutations on the same task, and
// refresh responses are sequence-stamped so a slow, stale list response
// can never overwrite a newer one.
type MutationController struct {
	client remote.Client
	view   *ViewModel

	// onUnauthorized is invoked when the remote rejects the credential,
	// so the session can transition to logged out. May be nil.
	onUnauthorized func()

	mu       sync.Mutex
	inFlight map[int64]bool
	pending  map[int64]bool

	// refreshSeq stamps each refresh; applySeq is the newest applied.
	refreshSeq uint64
	applySeq   uint64
}

// NewMutationController creates a controller bound to the given client
// and view-model. onUnauthorized is called whenever a call fails with 401.
func NewMutationController(client remote.Client, view *ViewModel, onUnauthorized func()) *MutationController {
	return &MutationController{
		client:         client,
		view:           view,
		onUnauthorized: onUnauthorized,
		inFlight:       make(map[int64]bool),
		pending:        make(map[int64]bool),
	}
}

// Refresh re-reads the full collection and atomically replaces the
// view-model's tasks. Out-of-order completions are discarded: if a newer
// refresh already applied, this response is dropped on the floor.
func (mc *MutationController) Refresh(ctx context.Context) error {
	mc.mu.Lock()
	mc.refreshSeq++
	seq := mc.refreshSeq
	mc.mu.Unlock()

	tasks, err := mc.client.ListTasks(ctx)
	if err != nil {
		return mc.fail(err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	mc.mu.Lock()
	stale := seq < mc.applySeq
	if !stale {
		mc.applySeq = seq
	}
	mc.mu.Unlock()

	if !stale {
		mc.view.SetTasks(tasks)
	}
	return nil
}

// Create validates the draft and creates the task, then refreshes.
// A failed create leaves the collection entirely unchanged.
func (mc *MutationController) Create(ctx context.Context, draft models.TaskDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	if _, err := mc.client.CreateTask(ctx, draft); err != nil {
		return mc.fail(err)
	}
	return mc.Refresh(ctx)
}

// Update validates the draft and replaces the task's fields, then
// refreshes. Only one mutation per id may be in flight at a time.
func (mc *MutationController) Update(ctx context.Context, id int64, draft models.TaskDraft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	release, err := mc.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	if _, err := mc.client.UpdateTask(ctx, id, draft); err != nil {
		return mc.fail(err)
	}
	return mc.Refresh(ctx)
}

// ChangeStatus updates only the status of a task, carrying the task's
// other current fields forward as a full update.
func (mc *MutationController) ChangeStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	task, ok := mc.view.Task(id)
	if !ok {
		return &ValidationError{Field: "id", Reason: "task not found"}
	}

	return mc.Update(ctx, id, models.TaskDraft{
		Title:       task.Title,
		Description: task.Description,
		Status:      models.NormalizeStatus(string(status)),
		Priority:    task.Priority,
		Deadline:    task.Deadline,
	})
}

// StageDelete marks a task as pending deletion so the presentation layer
// can show a confirmation step. Deletion is a two-step commit.
func (mc *MutationController) StageDelete(id int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.pending[id] = true
}

// CancelDelete clears a pending deletion without touching the remote.
func (mc *MutationController) CancelDelete(id int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.pending, id)
}

// PendingDelete reports whether a delete has been staged for the id.
func (mc *MutationController) PendingDelete(id int64) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.pending[id]
}

// Deleting reports whether a mutation is currently in flight for the id,
// which the presentation layer uses to block double submission.
func (mc *MutationController) Deleting(id int64) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.inFlight[id]
}

// ConfirmDelete performs a staged deletion, then refreshes. It fails with
// a ValidationError when no delete was staged for the id.
func (mc *MutationController) ConfirmDelete(ctx context.Context, id int64) error {
	mc.mu.Lock()
	if !mc.pending[id] {
		mc.mu.Unlock()
		return &ValidationError{Field: "id", Reason: "delete not confirmed"}
	}
	mc.mu.Unlock()

	release, err := mc.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	if err := mc.client.DeleteTask(ctx, id); err != nil {
		return mc.fail(err)
	}

	mc.mu.Lock()
	delete(mc.pending, id)
	mc.mu.Unlock()

	return mc.Refresh(ctx)
}

// acquire takes the per-id in-flight guard. A second mutation for the
// same id while one is outstanding is rejected with a ConflictError;
// other ids are unaffected.
func (mc *MutationController) acquire(id int64) (release func(), err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.inFlight[id] {
		return nil, &ConflictError{ID: id}
	}
	mc.inFlight[id] = true

	return func() {
		mc.mu.Lock()
		defer mc.mu.Unlock()
		delete(mc.inFlight, id)
	}, nil
}

// fail inspects a remote failure and notifies the session when the
// credential was rejected. The error is returned unchanged.
func (mc *MutationController) fail(err error) error {
	if remote.IsUnauthorized(err) && mc.onUnauthorized != nil {
		mc.onUnauthorized()
	}
	return err
}
