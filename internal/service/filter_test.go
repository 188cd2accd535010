package service_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"todo/internal/service"
)

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "1", Title: "Buy milk", Completed: false},
		{ID: "2", Title: "Walk dog", Completed: true},
		{ID: "3", Title: "buy bread", Completed: false},
		{ID: "4", Title: "Pay rent", Completed: true},
	}
}

func ids(tasks []service.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTasks(t *testing.T) {
	tests := []struct {
		name   string
		filter service.StatusFilter
		search string
		want   []string
	}{
		{"all no search", service.FilterAll, "", []string{"1", "2", "3", "4"}},
		{"active", service.FilterActive, "", []string{"1", "3"}},
		{"completed", service.FilterCompleted, "", []string{"2", "4"}},
		{"search is case-insensitive", service.FilterAll, "BUY", []string{"1", "3"}},
		{"search and status combine", service.FilterActive, "milk", []string{"1"}},
		{"search with no status match", service.FilterCompleted, "buy", []string{}},
		{"no match", service.FilterAll, "xyz", []string{}},
		{"spaces are part of the search", service.FilterAll, " dog", []string{"2"}},
		{"leading space must match", service.FilterAll, " milk", []string{"1"}},
		{"blank search matches titles with a space", service.FilterAll, " ", []string{"1", "2", "3", "4"}},
		{"two spaces match nothing", service.FilterAll, "  ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(service.FilterTasks(sampleTasks(), tt.filter, tt.search))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterTasks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterTasks_EmptyCollection(t *testing.T) {
	got := service.FilterTasks(nil, service.FilterActive, "anything")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("expected no tasks, got %d", len(got))
	}
}

func TestFilterTasks_DoesNotMutateInput(t *testing.T) {
	in := sampleTasks()
	before := sampleTasks()

	_ = service.FilterTasks(in, service.FilterCompleted, "a")

	if diff := cmp.Diff(before, in); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

// generated builds a deterministic collection mixing titles and states.
func generated(n int) []service.Task {
	words := []string{"Alpha", "beta", "GAMMA", "delta", "Beta gamma"}
	tasks := make([]service.Task, n)
	for i := range tasks {
		tasks[i] = service.Task{
			ID:        fmt.Sprintf("t%d", i),
			Title:     words[i%len(words)],
			Completed: i%3 == 0,
		}
	}
	return tasks
}

func TestFilterTasks_Properties(t *testing.T) {
	filters := []service.StatusFilter{service.FilterAll, service.FilterActive, service.FilterCompleted}
	searches := []string{"", "beta", "GAM", "zzz"}

	for _, n := range []int{0, 1, 7, 50} {
		tasks := generated(n)
		for _, f := range filters {
			for _, s := range searches {
				got := service.FilterTasks(tasks, f, s)

				// Every result satisfies both predicates.
				for _, task := range got {
					if !f.Matches(task) {
						t.Errorf("n=%d f=%s s=%q: %s fails status filter", n, f, s, task.ID)
					}
					if s != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(s)) {
						t.Errorf("n=%d f=%s s=%q: %s fails search", n, f, s, task.ID)
					}
				}

				// Results form a subsequence of the input.
				j := 0
				for _, task := range tasks {
					if j < len(got) && got[j].ID == task.ID {
						j++
					}
				}
				if j != len(got) {
					t.Errorf("n=%d f=%s s=%q: result is not an ordered subsequence", n, f, s)
				}

				// Idempotent.
				again := service.FilterTasks(got, f, s)
				if diff := cmp.Diff(ids(got), ids(again)); diff != "" {
					t.Errorf("n=%d f=%s s=%q: not idempotent:\n%s", n, f, s, diff)
				}
			}
		}

		// active and completed partition the collection.
		active := service.FilterTasks(tasks, service.FilterActive, "")
		completed := service.FilterTasks(tasks, service.FilterCompleted, "")
		if len(active)+len(completed) != len(tasks) {
			t.Errorf("n=%d: active(%d)+completed(%d) != total(%d)", n, len(active), len(completed), len(tasks))
		}
	}
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    service.StatusFilter
		wantErr bool
	}{
		{"", service.FilterAll, false},
		{"all", service.FilterAll, false},
		{"Active", service.FilterActive, false},
		{"pending", service.FilterActive, false},
		{"completed", service.FilterCompleted, false},
		{"done", service.FilterCompleted, false},
		{"someday", "", true},
	}

	for _, tt := range tests {
		got, err := service.ParseStatusFilter(tt.in)
		if tt.wantErr {
			if !service.IsValidation(err) {
				t.Errorf("ParseStatusFilter(%q): expected validation error, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStatusFilter(%q): unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStatusFilter(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestCountTasks(t *testing.T) {
	got := service.CountTasks(sampleTasks())
	want := service.Counts{Total: 4, Active: 2, Completed: 2}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
