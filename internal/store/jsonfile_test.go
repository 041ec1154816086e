package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fentz26/tasklist/internal/models"
)

func TestJSONFile_MissingFileIsEmpty(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "tasks.json"))

	tasks, err := f.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected empty collection, got %d", len(tasks))
	}
}

func TestJSONFile_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tasks, err := NewJSONFile(path).Load()
	if err != nil {
		t.Fatalf("Load should not fail on corrupt data: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected empty collection, got %d", len(tasks))
	}
}

func TestJSONFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tasks.json")
	f := NewJSONFile(path)

	want := sampleTasks()
	if err := f.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertSameTasks(t, want, got)

	// No temp files are left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only tasks.json in data dir, got %d entries", len(entries))
	}
}

func TestJSONFile_BrowserExportFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	doc := `[
  {"id": 1736065815123, "text": "Buy milk", "completed": false, "category": "shopping", "priority": "high", "dueDate": "2025-01-20", "createdAt": "2025-01-05T08:30:15.123Z"},
  {"id": 1736065815124, "text": "Pay rent", "completed": true, "category": "personal", "priority": "medium", "dueDate": null, "createdAt": "2025-01-05T08:31:00.000Z", "completedAt": "2025-01-06T09:00:00.000Z"},
  {"id": "not-a-number", "text": "skip me"},
  {"id": 1736065815125, "text": "Mystery", "completed": false, "category": "gym", "priority": "low", "dueDate": null, "createdAt": "2025-01-05T08:32:00.000Z"},
  {"id": 1736065815124, "text": "Duplicate", "completed": false, "category": "work", "priority": "low", "dueDate": null, "createdAt": "2025-01-05T08:33:00.000Z"}
]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	tasks, err := NewJSONFile(path, WithCategories(models.DefaultCategories)).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 valid tasks, got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].DueDate == nil || tasks[0].DueDate.String() != "2025-01-20" {
		t.Errorf("Unexpected due date: %v", tasks[0].DueDate)
	}
	if !tasks[1].Completed || tasks[1].CompletedAt == nil {
		t.Errorf("Expected second task completed with timestamp, got %+v", tasks[1])
	}
	if tasks[1].Text != "Pay rent" {
		t.Errorf("Expected first occurrence of duplicate id to win, got %q", tasks[1].Text)
	}
}
