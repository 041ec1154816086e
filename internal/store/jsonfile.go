package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/tasklist/internal/models"
)

// JSONFile persists the task collection as one JSON array in a file.
type JSONFile struct {
	path string
	opts options
}

// NewJSONFile returns a JSONFile writing to path. The file is created on first save.
func NewJSONFile(path string, opts ...Option) *JSONFile {
	return &JSONFile{path: path, opts: buildOptions(opts)}
}

// Path returns the backing file path.
func (f *JSONFile) Path() string { return f.path }

// Load reads the collection. A missing or corrupt file yields an empty collection.
func (f *JSONFile) Load() ([]models.Task, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		f.opts.logger.Printf("load: %s is not a task list, starting empty: %v", f.path, err)
		return []models.Task{}, nil
	}

	records := make([]record, 0, len(raw))
	for i, msg := range raw {
		var r record
		if err := json.Unmarshal(msg, &r); err != nil {
			f.opts.logger.Printf("load: skipping entry %d: %v", i, err)
			continue
		}
		records = append(records, r)
	}
	return sanitize(records, f.opts.categories, f.opts.logger), nil
}

// Save overwrites the file with tasks. The write goes through a temp file
// and rename so a crash never leaves a half-written document.
func (f *JSONFile) Save(tasks []models.Task) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	records := make([]record, len(tasks))
	for i, t := range tasks {
		records[i] = toRecord(t)
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tasks-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
