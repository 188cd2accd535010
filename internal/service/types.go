package service

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the maximum task title length in characters.
const MaxTitleLength = 500

// Validation messages shared by client and server.
const (
	MsgTitleRequired = "Task title is required"
	MsgTitleTooLong  = "Task title must be at most 500 characters"
	MsgEmptyPatch    = "Nothing to update"
)

// Task represents a single task item.
type Task struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Completed bool      `json:"completed" yaml:"completed"`
	OwnerID   string    `json:"ownerId" yaml:"ownerId"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Patch is a partial task update. Nil fields are left unchanged.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// Apply returns a copy of t with the patch applied.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// Validate checks the patch fields that are present.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return NewValidationError(MsgEmptyPatch, nil)
	}
	if p.Title != nil {
		return ValidateTitle(*p.Title)
	}
	return nil
}

// ValidateTitle checks a task title after trimming surrounding whitespace.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return NewValidationError(MsgTitleRequired, map[string][]string{
			"title": {MsgTitleRequired},
		})
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return NewValidationError(MsgTitleTooLong, map[string][]string{
			"title": {MsgTitleTooLong},
		})
	}
	return nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
