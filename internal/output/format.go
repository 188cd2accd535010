// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"todo/internal/service"
)

// Format selects how task lists are rendered.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a --format value. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %s (want text, table, json or yaml)", s)
	}
}

// NumberedTask pairs a task with its 1-based position in the full,
// unfiltered collection. The number is what task references resolve.
type NumberedTask struct {
	Num  int
	Task service.Task
}

// Number assigns positions to every task in the collection.
func Number(all []service.Task) []NumberedTask {
	out := make([]NumberedTask, len(all))
	for i, t := range all {
		out[i] = NumberedTask{Num: i + 1, Task: t}
	}
	return out
}

// Select keeps the numbered tasks whose ids appear in visible, preserving
// their original numbers.
func Select(numbered []NumberedTask, visible []service.Task) []NumberedTask {
	keep := make(map[string]bool, len(visible))
	for _, t := range visible {
		keep[t.ID] = true
	}
	out := make([]NumberedTask, 0, len(visible))
	for _, n := range numbered {
		if keep[n.Task.ID] {
			out = append(out, n)
		}
	}
	return out
}

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n" (4-wide right-aligned number, two spaces,
// status marker, title)
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, marker(task), normalizeTitle(task.Title))
}

// FormatTasks renders tasks in the given format.
func FormatTasks(w io.Writer, f Format, tasks []NumberedTask) error {
	switch f {
	case FormatTable:
		return formatTable(w, tasks)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plain(tasks))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plain(tasks)); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, n := range tasks {
			FormatTask(w, n.Num, n.Task)
		}
		return nil
	}
}

func formatTable(w io.Writer, tasks []NumberedTask) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Done", "Title", "ID"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignCenter},
		{Number: 3, WidthMax: 60},
	})
	for _, n := range tasks {
		done := ""
		if n.Task.Completed {
			done = "x"
		}
		tw.AppendRow(table.Row{n.Num, done, normalizeTitle(n.Task.Title), n.Task.ID})
	}
	tw.Render()
	return nil
}

func plain(tasks []NumberedTask) []service.Task {
	out := make([]service.Task, len(tasks))
	for i, n := range tasks {
		out[i] = n.Task
	}
	return out
}

// FormatSummary prints a one-line count of the collection.
func FormatSummary(w io.Writer, c service.Counts) {
	noun := "tasks"
	if c.Total == 1 {
		noun = "task"
	}
	fmt.Fprintf(w, "%d %s (%d active, %d completed)\n", c.Total, noun, c.Active, c.Completed)
}

func marker(t service.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
