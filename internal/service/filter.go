package service

import (
	"fmt"
	"strings"
)

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterActive    StatusFilter = "active"
	FilterCompleted StatusFilter = "completed"
)

// ParseStatusFilter parses a filter name. The empty string means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "pending":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return "", NewValidationError(fmt.Sprintf("invalid filter: %s (want all, active or completed)", s), nil)
	}
}

// Matches reports whether t passes the status filter.
func (f StatusFilter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// FilterTasks derives the visible subset of tasks. A task survives when it
// passes the status filter and, for a non-empty search, its title contains
// the search text case-insensitively. The search is matched as given.
// Input order is preserved and the input slice is never modified.
func FilterTasks(tasks []Task, f StatusFilter, search string) []Task {
	needle := strings.ToLower(search)

	result := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !f.Matches(t) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// Counts summarises a collection by status.
type Counts struct {
	Total     int
	Active    int
	Completed int
}

// CountTasks returns status counts for tasks.
func CountTasks(tasks []Task) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	return c
}
