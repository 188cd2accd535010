package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/testutil"
)

var created = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFormatTasks_Text(t *testing.T) {
	tasks := []output.NumberedTask{
		{Num: 1, Task: service.Task{ID: "a", Title: "Buy milk"}},
		{Num: 2, Task: service.Task{ID: "b", Title: "Walk\ndog", Completed: true}},
		{Num: 10, Task: service.Task{ID: "c", Title: "  "}},
	}

	var buf bytes.Buffer
	if err := output.FormatTasks(&buf, output.FormatText, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.Golden(t, "list_text", buf.Bytes())
}

func TestFormatTasks_JSON(t *testing.T) {
	tasks := []output.NumberedTask{
		{Num: 1, Task: service.Task{ID: "a", Title: "Buy milk", OwnerID: "u1", CreatedAt: created, UpdatedAt: created}},
	}

	var buf bytes.Buffer
	if err := output.FormatTasks(&buf, output.FormatJSON, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.Golden(t, "list_json", buf.Bytes())
}

func TestFormatTasks_YAML(t *testing.T) {
	tasks := []output.NumberedTask{
		{Num: 1, Task: service.Task{ID: "a", Title: "Buy milk", Completed: true, CreatedAt: created}},
	}

	var buf bytes.Buffer
	if err := output.FormatTasks(&buf, output.FormatYAML, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml %q: %v", buf.String(), err)
	}
	if len(got) != 1 || got[0]["title"] != "Buy milk" || got[0]["completed"] != true {
		t.Errorf("unexpected yaml document %v", got)
	}
}

func TestFormatTasks_Table(t *testing.T) {
	tasks := []output.NumberedTask{
		{Num: 1, Task: service.Task{ID: "a", Title: "Buy milk"}},
		{Num: 2, Task: service.Task{ID: "b", Title: "Walk dog", Completed: true}},
	}

	var buf bytes.Buffer
	if err := output.FormatTasks(&buf, output.FormatTable, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Buy milk", "Walk dog", "TITLE"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q:\n%s", want, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"", "text", "TABLE", "json", "yaml"} {
		if _, err := output.ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q): unexpected error %v", in, err)
		}
	}
	if _, err := output.ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestNumberAndSelect(t *testing.T) {
	all := []service.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	numbered := output.Number(all)

	got := output.Select(numbered, []service.Task{{ID: "c"}, {ID: "a"}})
	if len(got) != 2 || got[0].Num != 1 || got[1].Num != 3 {
		t.Errorf("expected positions 1 and 3 in collection order, got %+v", got)
	}
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	output.FormatSummary(&buf, service.Counts{Total: 1, Active: 1})
	if buf.String() != "1 task (1 active, 0 completed)\n" {
		t.Errorf("unexpected summary %q", buf.String())
	}
}
