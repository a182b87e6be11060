package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tasknest/taskdeck/pkg/models"
)

// staticTokens is a fixed-credential TokenSource for tests.
type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func TestListTasks_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodGet || r.URL.Path != "/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]models.Task{
			{ID: 1, Title: "first", Status: models.StatusTodo, Priority: models.PriorityHigh},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens("tok123"))
	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(tasks) != 1 || tasks[0].Title != "first" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestAuthorizedCall_NoTokenFailsLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server without a token")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens(""))
	_, err := c.ListTasks(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected a local 401, got %v", err)
	}
}

func TestLogin_FormEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "p&w=1" {
			t.Errorf("form = %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok456"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens(""))
	token, err := c.Login(context.Background(), "alice", "p&w=1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token != "tok456" {
		t.Errorf("token = %q", token)
	}
}

func TestLogin_UnauthorizedCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "incorrect username or password"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens(""))
	_, err := c.Login(context.Background(), "alice", "wrong")

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Status != http.StatusUnauthorized {
		t.Errorf("status = %d", re.Status)
	}
	if re.Message != "incorrect username or password" {
		t.Errorf("message = %q", re.Message)
	}
}

func TestCreateTask_FillsDefaults(t *testing.T) {
	var sent models.TaskDraft
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(models.Task{ID: 9, Title: sent.Title})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens("tok"))
	task, err := c.CreateTask(context.Background(), models.TaskDraft{Title: "new"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if task.ID != 9 {
		t.Errorf("id = %d", task.ID)
	}
	if sent.Status != models.StatusTodo || sent.Priority != models.PriorityMedium {
		t.Errorf("defaults not applied on the wire: %+v", sent)
	}
}

func TestUpdateTask_Path(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tasks/update/42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.Task{ID: 42})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens("tok"))
	if _, err := c.UpdateTask(context.Background(), 42, models.TaskDraft{Title: "t"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
}

func TestDeleteTask_Path(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/tasks/42" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens("tok"))
	if err := c.DeleteTask(context.Background(), 42); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestUpdatePassword_Body(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/update-password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "updated"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens("tok"))
	if err := c.UpdatePassword(context.Background(), "old", "new"); err != nil {
		t.Fatalf("update password failed: %v", err)
	}
	if body["old_password"] != "old" || body["new_password"] != "new" {
		t.Errorf("body = %v", body)
	}
}

func TestConnectionFailure_IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := NewClient(srv.URL, time.Second, staticTokens("tok"))
	_, err := c.ListTasks(context.Background())

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.Unwrap() == nil {
		t.Error("transport error must carry its cause")
	}
}

func TestDecodeDetail_PlainTextFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, staticTokens("tok"))
	_, err := c.ListTasks(context.Background())

	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.Message != "upstream unavailable" {
		t.Errorf("message = %q", re.Message)
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(&RemoteError{Status: http.StatusUnauthorized}) {
		t.Error("bare 401 not recognized")
	}
	if IsUnauthorized(&RemoteError{Status: http.StatusForbidden}) {
		t.Error("403 must not count as unauthorized")
	}
	if IsUnauthorized(errors.New("boom")) {
		t.Error("plain error must not count as unauthorized")
	}
}
