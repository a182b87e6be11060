package core

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/pkg/models"
)

// fakeClient implements remote.Client for testing. Unset hooks return
// zero values so tests only wire the calls they care about.
type fakeClient struct {
	listFn     func(ctx context.Context) ([]models.Task, error)
	createFn   func(ctx context.Context, draft models.TaskDraft) (*models.Task, error)
	updateFn   func(ctx context.Context, id int64, draft models.TaskDraft) (*models.Task, error)
	deleteFn   func(ctx context.Context, id int64) error
	loginFn    func(ctx context.Context, username, password string) (string, error)
	registerFn func(ctx context.Context, input models.RegisterInput) (*models.UserProfile, error)
	profileFn  func(ctx context.Context) (*models.UserProfile, error)
}

func (f *fakeClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeClient) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, draft)
	}
	return &models.Task{}, nil
}

func (f *fakeClient) UpdateTask(ctx context.Context, id int64, draft models.TaskDraft) (*models.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, draft)
	}
	return &models.Task{ID: id}, nil
}

func (f *fakeClient) DeleteTask(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, username, password)
	}
	return "", errors.New("login not wired")
}

func (f *fakeClient) Register(ctx context.Context, input models.RegisterInput) (*models.UserProfile, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, input)
	}
	return &models.UserProfile{}, nil
}

func (f *fakeClient) Profile(ctx context.Context) (*models.UserProfile, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx)
	}
	return nil, errors.New("profile not wired")
}

func (f *fakeClient) UpdateProfile(ctx context.Context, fields map[string]any) (*models.UserProfile, error) {
	return &models.UserProfile{}, nil
}

func (f *fakeClient) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	return nil
}

func TestMutation_CreateRejectsBlankTitle(t *testing.T) {
	called := false
	client := &fakeClient{
		createFn: func(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
			called = true
			return &models.Task{}, nil
		},
	}
	mc := NewMutationController(client, NewViewModel(), nil)

	err := mc.Create(context.Background(), models.TaskDraft{Title: "   "})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if called {
		t.Error("blank title must not reach the remote")
	}
}

func TestMutation_CreateRefreshesView(t *testing.T) {
	after := []models.Task{
		mkTask(1, "existing", models.StatusTodo, models.PriorityLow, 0),
		mkTask(2, "created", models.StatusTodo, models.PriorityMedium, time.Hour),
	}
	client := &fakeClient{
		listFn: func(ctx context.Context) ([]models.Task, error) { return after, nil },
	}

	vm := NewViewModel()
	mc := NewMutationController(client, vm, nil)

	if err := mc.Create(context.Background(), models.TaskDraft{Title: "created"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if vm.Len() != 2 {
		t.Fatalf("view not refreshed after create, len = %d", vm.Len())
	}
}

func TestMutation_FailedCreateLeavesViewUnchanged(t *testing.T) {
	client := &fakeClient{
		createFn: func(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
			return nil, &remote.RemoteError{Status: http.StatusUnprocessableEntity, Message: "title too long"}
		},
		listFn: func(ctx context.Context) ([]models.Task, error) {
			t.Error("failed create must not refresh")
			return nil, nil
		},
	}

	vm := NewViewModel()
	vm.SetTasks([]models.Task{mkTask(1, "kept", models.StatusTodo, models.PriorityLow, 0)})
	mc := NewMutationController(client, vm, nil)

	err := mc.Create(context.Background(), models.TaskDraft{Title: "x"})
	var re *remote.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if vm.Len() != 1 {
		t.Error("collection changed after a failed create")
	}
}

// Two overlapping mutations on one id: exactly one proceeds, the other
// gets a ConflictError. A different id is unaffected.
func TestMutation_PerTaskInFlightGuard(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once
	client := &fakeClient{
		updateFn: func(ctx context.Context, id int64, draft models.TaskDraft) (*models.Task, error) {
			if id == 1 {
				enteredOnce.Do(func() { close(entered) })
				<-release
			}
			return &models.Task{ID: id}, nil
		},
	}

	vm := NewViewModel()
	mc := NewMutationController(client, vm, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		firstErr <- mc.Update(context.Background(), 1, models.TaskDraft{Title: "slow"})
	}()

	<-entered

	err := mc.Update(context.Background(), 1, models.TaskDraft{Title: "overlapping"})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError for overlapping update, got %v", err)
	}
	if ce.ID != 1 {
		t.Errorf("conflict id = %d, want 1", ce.ID)
	}

	// A mutation on another task is not blocked.
	if err := mc.Update(context.Background(), 2, models.TaskDraft{Title: "other"}); err != nil {
		t.Errorf("unrelated id blocked: %v", err)
	}

	close(release)
	wg.Wait()
	if err := <-firstErr; err != nil {
		t.Errorf("first update failed: %v", err)
	}

	// The guard is released once the first mutation completes.
	if err := mc.Update(context.Background(), 1, models.TaskDraft{Title: "again"}); err != nil {
		t.Errorf("guard not released: %v", err)
	}
}

// A slow list response that started before a newer refresh must be
// dropped, never applied over the newer state.
func TestMutation_StaleRefreshDiscarded(t *testing.T) {
	older := []models.Task{mkTask(1, "stale", models.StatusTodo, models.PriorityLow, 0)}
	newer := []models.Task{
		mkTask(1, "fresh", models.StatusTodo, models.PriorityLow, 0),
		mkTask(2, "fresh too", models.StatusTodo, models.PriorityLow, 0),
	}

	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	client := &fakeClient{
		listFn: func(ctx context.Context) ([]models.Task, error) {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				close(firstStarted)
				<-firstRelease
				return older, nil
			}
			return newer, nil
		},
	}

	vm := NewViewModel()
	mc := NewMutationController(client, vm, nil)

	done := make(chan error, 1)
	go func() { done <- mc.Refresh(context.Background()) }()
	<-firstStarted

	if err := mc.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if vm.Len() != 2 {
		t.Fatalf("second refresh not applied, len = %d", vm.Len())
	}

	close(firstRelease)
	if err := <-done; err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	if vm.Len() != 2 {
		t.Error("stale refresh overwrote newer state")
	}
	if task, _ := vm.Task(1); task.Title != "fresh" {
		t.Errorf("task 1 title = %q, want %q", task.Title, "fresh")
	}
}

func TestMutation_FailedRefreshKeepsState(t *testing.T) {
	client := &fakeClient{
		listFn: func(ctx context.Context) ([]models.Task, error) {
			return nil, &remote.TransportError{Err: errors.New("connection refused")}
		},
	}

	vm := NewViewModel()
	vm.SetTasks([]models.Task{mkTask(1, "kept", models.StatusTodo, models.PriorityLow, 0)})
	mc := NewMutationController(client, vm, nil)

	err := mc.Refresh(context.Background())
	var te *remote.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if vm.Len() != 1 {
		t.Error("failed refresh cleared the collection")
	}
}

func TestMutation_DeleteIsTwoStep(t *testing.T) {
	deleted := false
	client := &fakeClient{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}

	vm := NewViewModel()
	mc := NewMutationController(client, vm, nil)

	// Confirming without staging is refused.
	err := mc.ConfirmDelete(context.Background(), 7)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if deleted {
		t.Fatal("unstaged delete reached the remote")
	}

	mc.StageDelete(7)
	if !mc.PendingDelete(7) {
		t.Fatal("delete not staged")
	}

	mc.CancelDelete(7)
	if mc.PendingDelete(7) {
		t.Fatal("cancel did not clear the staged delete")
	}

	mc.StageDelete(7)
	if err := mc.ConfirmDelete(context.Background(), 7); err != nil {
		t.Fatalf("confirmed delete failed: %v", err)
	}
	if !deleted {
		t.Error("confirmed delete never reached the remote")
	}
	if mc.PendingDelete(7) {
		t.Error("pending flag survives a committed delete")
	}
}

func TestMutation_ChangeStatusCarriesFieldsForward(t *testing.T) {
	deadline := deriveBase.Add(48 * time.Hour)
	current := models.Task{
		ID:          3,
		Title:       "quarterly report",
		Description: "numbers for Q1",
		Status:      models.StatusInProgress,
		Priority:    models.PriorityHigh,
		Deadline:    &deadline,
		CreatedAt:   deriveBase,
	}

	var sent models.TaskDraft
	client := &fakeClient{
		updateFn: func(ctx context.Context, id int64, draft models.TaskDraft) (*models.Task, error) {
			sent = draft
			return &current, nil
		},
	}

	vm := NewViewModel()
	vm.SetTasks([]models.Task{current})
	mc := NewMutationController(client, vm, nil)

	if err := mc.ChangeStatus(context.Background(), 3, "Completed"); err != nil {
		t.Fatalf("status change failed: %v", err)
	}

	if sent.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q", sent.Status, models.StatusCompleted)
	}
	if sent.Title != current.Title || sent.Description != current.Description || sent.Priority != current.Priority {
		t.Errorf("fields not carried forward: %+v", sent)
	}
	if sent.Deadline == nil || !sent.Deadline.Equal(deadline) {
		t.Error("deadline not carried forward")
	}
}

func TestMutation_ChangeStatusUnknownID(t *testing.T) {
	mc := NewMutationController(&fakeClient{}, NewViewModel(), nil)
	err := mc.ChangeStatus(context.Background(), 42, models.StatusCompleted)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMutation_UnauthorizedNotifiesSession(t *testing.T) {
	client := &fakeClient{
		listFn: func(ctx context.Context) ([]models.Task, error) {
			return nil, &remote.RemoteError{Status: http.StatusUnauthorized, Message: "token expired"}
		},
	}

	expired := false
	mc := NewMutationController(client, NewViewModel(), func() { expired = true })

	err := mc.Refresh(context.Background())
	if !remote.IsUnauthorized(err) {
		t.Fatalf("expected a 401 RemoteError, got %v", err)
	}
	if !expired {
		t.Error("401 did not notify the session")
	}
}
