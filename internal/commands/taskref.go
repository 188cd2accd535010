package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position, 0 when ID is set
	ID  string // task id or id prefix
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// minIDPrefix is the shortest id prefix accepted as a reference.
const minIDPrefix = 4

// ParseTaskRef parses the task reference from the first arg.
//
// Parsing rules:
//  1. No args → error: task reference required
//  2. All digits → position in the full task list (as printed by list)
//  3. Anything else → task id, or a unique id prefix of at least 4 chars
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	ref := strings.TrimSpace(args[0])
	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
		}
		return TaskRef{Num: num}, nil
	}
	return TaskRef{ID: ref}, nil
}

// Resolve finds the referenced task in tasks. Positions are 1-based.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID == "" {
		if r.Num < 1 || r.Num > len(tasks) {
			return service.Task{}, service.NewValidationError(
				fmt.Sprintf("task number out of range: %d", r.Num), nil)
		}
		return tasks[r.Num-1], nil
	}

	for _, t := range tasks {
		if t.ID == r.ID {
			return t, nil
		}
	}

	var match *service.Task
	for i := range tasks {
		t := &tasks[i]
		if len(r.ID) >= minIDPrefix && strings.HasPrefix(t.ID, r.ID) {
			if match != nil {
				return service.Task{}, service.NewValidationError("ambiguous task id: "+r.ID, nil)
			}
			match = t
		}
	}
	if match == nil {
		return service.Task{}, service.NewNotFoundError("task not found: " + r.ID)
	}
	return *match, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
