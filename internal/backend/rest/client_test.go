package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"todo/internal/backend/rest"
	"todo/internal/service"
)

func staticToken(tok string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})
}

func newClient(t *testing.T, h http.HandlerFunc) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return rest.New(context.Background(), srv.URL, staticToken("abc"), rest.WithHTTPClient(srv.Client()))
}

func TestClient_SendsBearerAndDecodesEnvelope(t *testing.T) {
	var gotAuth, gotPath string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":"1","title":"Buy milk","completed":false,"ownerId":"u1","createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}]}`)
	})

	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotPath != "/api/v1/tasks" {
		t.Errorf("expected /api/v1/tasks, got %q", gotPath)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].OwnerID != "u1" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
	if !tasks[0].CreatedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected createdAt %v", tasks[0].CreatedAt)
	}
}

func TestClient_EmptyListIsNotNil(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null}`)
	})
	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty slice, got %#v", tasks)
	}
}

func TestClient_UpdateSendsOnlyPresentFields(t *testing.T) {
	var body map[string]any
	var method, path string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"data":{"id":"t 1","title":"x","completed":true}}`)
	})

	got, err := c.UpdateTask(context.Background(), "t 1", service.Patch{Completed: service.BoolPtr(true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodPatch || path != "/api/v1/tasks/t 1" {
		t.Errorf("unexpected request %s %s", method, path)
	}
	if _, ok := body["title"]; ok {
		t.Errorf("expected title omitted, got %v", body)
	}
	if body["completed"] != true {
		t.Errorf("expected completed=true, got %v", body)
	}
	if !got.Completed {
		t.Error("expected decoded task to be completed")
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind service.Kind
		wantMsg  string
		wantCode string
	}{
		{"validation", 400, `{"message":"Task title is required","code":"validation_failed","details":{"title":["Task title is required"]}}`, service.KindValidation, "Task title is required", "validation_failed"},
		{"unauthorized", 401, `{"message":"invalid token","code":"unauthorized"}`, service.KindAuth, "invalid token", "unauthorized"},
		{"forbidden is not found", 403, `{"message":"forbidden","code":"forbidden"}`, service.KindNotFound, "forbidden", "forbidden"},
		{"not found", 404, `{"message":"Task not found","code":"not_found"}`, service.KindNotFound, "Task not found", "not_found"},
		{"server", 500, `{"message":"boom","code":"internal"}`, service.KindServer, "boom", "internal"},
		{"no envelope", 502, `<html>bad gateway</html>`, service.KindServer, "Bad Gateway", "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.CreateTask(context.Background(), "x")
			var se *service.Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *service.Error, got %T %v", err, err)
			}
			if se.Kind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, se.Kind)
			}
			if se.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, se.Message)
			}
			if se.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, se.Code)
			}
			if se.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.Status)
			}
		})
	}
}

func TestClient_ValidationDetails(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"bad","code":"validation_failed","details":{"title":["too long"]}}`)
	})

	_, err := c.CreateTask(context.Background(), "x")
	var se *service.Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *service.Error, got %v", err)
	}
	if got := se.Details["title"]; len(got) != 1 || got[0] != "too long" {
		t.Errorf("unexpected details %v", se.Details)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := rest.New(context.Background(), url, staticToken("abc"))
	_, err := c.ListTasks(context.Background())
	if !service.IsNetwork(err) {
		t.Errorf("expected network error, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(done) })

	c := rest.New(context.Background(), srv.URL, staticToken("abc"), rest.WithTimeout(50*time.Millisecond))
	_, err := c.ListTasks(context.Background())
	if !service.IsNetwork(err) {
		t.Errorf("expected network error on timeout, got %v", err)
	}
}

func TestClient_TokenSourceFailureIsAuth(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	ts := failingSource{err: service.NewAuthError("not signed in", nil)}
	c := rest.New(context.Background(), srv.URL, ts)

	_, err := c.ListTasks(context.Background())
	if !service.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if called {
		t.Error("expected no request without a token")
	}
}

type failingSource struct{ err error }

func (f failingSource) Token() (*oauth2.Token, error) { return nil, f.err }
