package commands

import (
	"testing"

	"todo/internal/service"
)

var refTasks = []service.Task{
	{ID: "7f3a9c21", Title: "Buy milk"},
	{ID: "7f3a0d44", Title: "Walk dog"},
	{ID: "b12", Title: "Call mom"},
}

func TestParseTaskRef_Numeric(t *testing.T) {
	ref, err := ParseTaskRef([]string{"5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 5 || ref.ID != "" {
		t.Errorf("expected position 5, got %+v", ref)
	}
}

func TestParseTaskRef_ID(t *testing.T) {
	ref, err := ParseTaskRef([]string{"b12"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ID != "b12" || ref.Num != 0 {
		t.Errorf("expected id b12, got %+v", ref)
	}
}

func TestParseTaskRef_Required(t *testing.T) {
	for _, args := range [][]string{nil, {}, {"  "}} {
		if _, err := ParseTaskRef(args); err != ErrTaskRefRequired {
			t.Errorf("args %q: expected ErrTaskRefRequired, got %v", args, err)
		}
	}
}

func TestTaskRef_ResolvePosition(t *testing.T) {
	got, err := TaskRef{Num: 2}.Resolve(refTasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Walk dog" {
		t.Errorf("expected %q, got %q", "Walk dog", got.Title)
	}
}

func TestTaskRef_ResolveOutOfRange(t *testing.T) {
	for _, num := range []int{0, 4} {
		_, err := TaskRef{Num: num}.Resolve(refTasks)
		if !service.IsValidation(err) {
			t.Errorf("position %d: expected validation error, got %v", num, err)
		}
	}
}

func TestTaskRef_ResolveID(t *testing.T) {
	tests := []struct {
		id      string
		want    string
		wantErr service.Kind
	}{
		{id: "b12", want: "Call mom"},
		{id: "7f3a9", want: "Buy milk"},
		{id: "7f3a", wantErr: service.KindValidation},
		{id: "7f3", wantErr: service.KindNotFound},
		{id: "zzzz", wantErr: service.KindNotFound},
	}

	for _, tt := range tests {
		got, err := TaskRef{ID: tt.id}.Resolve(refTasks)
		if tt.wantErr != "" {
			if service.KindOf(err) != tt.wantErr {
				t.Errorf("id %q: expected %q error, got %v", tt.id, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("id %q: unexpected error: %v", tt.id, err)
			continue
		}
		if got.Title != tt.want {
			t.Errorf("id %q: expected %q, got %q", tt.id, tt.want, got.Title)
		}
	}
}
