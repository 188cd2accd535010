package httpapi_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	"todo/internal/backend/rest"
	"todo/internal/service"
)

func newClient(t *testing.T, srv *httptest.Server, subject string) *rest.Client {
	t.Helper()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tokenFor(t, subject)})
	return rest.New(context.Background(), srv.URL, ts, rest.WithHTTPClient(srv.Client()))
}

func TestRESTClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()
	ctx := context.Background()
	c := newClient(t, srv, "u1")

	created, err := c.CreateTask(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "Buy milk" || created.Completed {
		t.Errorf("unexpected created task %+v", created)
	}

	updated, err := c.UpdateTask(ctx, created.ID, service.Patch{Completed: service.BoolPtr(true)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("unexpected updated task %+v", updated)
	}

	list, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("expected the created task, got %+v", list)
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.UpdateTask(ctx, created.ID, service.Patch{Completed: service.BoolPtr(false)}); !service.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	list, err = c.ListTasks(ctx)
	if err != nil || list == nil || len(list) != 0 {
		t.Errorf("expected empty list, got %#v (err %v)", list, err)
	}
}

func TestRESTClientRoundTrip_Errors(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()
	ctx := context.Background()

	_, err := newClient(t, srv, "u1").CreateTask(ctx, "")
	var se *service.Error
	if !errors.As(err, &se) || se.Kind != service.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if se.Message != service.MsgTitleRequired || len(se.Details["title"]) == 0 {
		t.Errorf("unexpected validation error %+v", se)
	}

	created, _ := newClient(t, srv, "u1").CreateTask(ctx, "Buy milk")
	if err := newClient(t, srv, "u2").DeleteTask(ctx, created.ID); !service.IsNotFound(err) {
		t.Errorf("expected not found for another user's task, got %v", err)
	}

	bad := rest.New(ctx, srv.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "garbage"}))
	if _, err := bad.ListTasks(ctx); !service.IsAuth(err) {
		t.Errorf("expected auth error for a bad token, got %v", err)
	}
}
