package googletasks_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"todo/internal/backend/googletasks"
	"todo/internal/service"
)

func newClient(t *testing.T, h http.HandlerFunc) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestListTasks_MapsStatus(t *testing.T) {
	var query string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"items":[
			{"id":"a","title":"Buy milk","status":"needsAction","updated":"2025-01-02T03:04:05.000Z"},
			{"id":"b","title":"Walk dog","status":"completed","updated":"2025-01-02T03:04:05.000Z"}
		]}`)
	})

	got, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].Completed || !got[1].Completed {
		t.Errorf("unexpected completion flags %+v", got)
	}
	if got[0].UpdatedAt.IsZero() {
		t.Error("expected updated timestamp to be parsed")
	}
	if !strings.Contains(query, "showCompleted=true") {
		t.Errorf("expected completed tasks requested, query %q", query)
	}
}

func TestUpdateTask_ReopenClearsCompleted(t *testing.T) {
	var body map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"a","title":"Buy milk","status":"needsAction"}`)
	})

	got, err := c.UpdateTask(context.Background(), "a", service.Patch{Completed: service.BoolPtr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Completed {
		t.Error("expected reopened task")
	}
	if body["status"] != "needsAction" {
		t.Errorf("expected status needsAction, got %v", body["status"])
	}
	if v, ok := body["completed"]; !ok || v != nil {
		t.Errorf("expected completed sent as null, got %v (present=%v)", v, ok)
	}
}

func TestErrors_MapToKinds(t *testing.T) {
	tests := []struct {
		status int
		want   service.Kind
	}{
		{http.StatusUnauthorized, service.KindAuth},
		{http.StatusForbidden, service.KindNotFound},
		{http.StatusNotFound, service.KindNotFound},
		{http.StatusBadRequest, service.KindValidation},
		{http.StatusInternalServerError, service.KindServer},
	}

	for _, tt := range tests {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tt.status)
			_, _ = io.WriteString(w, `{"error":{"message":"nope"}}`)
		})

		err := c.DeleteTask(context.Background(), "a")
		if got := service.KindOf(err); got != tt.want {
			t.Errorf("status %d: expected %q, got %q (%v)", tt.status, tt.want, got, err)
		}
	}
}
