package cli

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tasknest/taskdeck/internal/core"
	"github.com/tasknest/taskdeck/internal/remote"
	"github.com/tasknest/taskdeck/pkg/models"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate left short string alone: %q", got)
	}
	got := truncate("a very long task title indeed", 10)
	if len([]rune(got)) > 10 {
		t.Errorf("truncated to %d runes: %q", len([]rune(got)), got)
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("missing ellipsis: %q", got)
	}
}

func TestParseDeadline(t *testing.T) {
	got, err := parseDeadline("")
	if err != nil || got != nil {
		t.Errorf("empty deadline: %v %v", got, err)
	}

	got, err = parseDeadline("2026-05-01")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}

	_, err = parseDeadline("05/01/2026")
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestParseTaskID(t *testing.T) {
	id, err := parseTaskID("42")
	if err != nil || id != 42 {
		t.Errorf("parseTaskID(42) = %d, %v", id, err)
	}
	if _, err := parseTaskID("abc"); err == nil {
		t.Error("non-numeric id accepted")
	}
}

func TestNextStatus_Cycles(t *testing.T) {
	cycle := []models.TaskStatus{models.StatusTodo, models.StatusInProgress, models.StatusCompleted, models.StatusTodo}
	for i := 1; i < len(cycle); i++ {
		if got := nextStatus(cycle[i-1]); got != cycle[i] {
			t.Errorf("nextStatus(%s) = %s, want %s", cycle[i-1], got, cycle[i])
		}
	}
	if got := nextStatus("weird"); got != models.StatusTodo {
		t.Errorf("unknown status should cycle to todo, got %s", got)
	}
}

func TestUserMessage(t *testing.T) {
	if msg := userMessage(nil); msg != "" {
		t.Errorf("nil error: %q", msg)
	}
	if msg := userMessage(core.ErrNotLoggedIn); msg != "session expired, please log in again" {
		t.Errorf("not logged in: %q", msg)
	}
	if msg := userMessage(&remote.RemoteError{Status: http.StatusUnauthorized}); msg != "session expired, please log in again" {
		t.Errorf("401: %q", msg)
	}
	if msg := userMessage(errors.New("boom")); msg != "boom" {
		t.Errorf("plain error: %q", msg)
	}
}
