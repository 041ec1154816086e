// Package audit keeps a journal of task mutations.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/tasklist/internal/models"
)

// ActivityStore persists journal entries.
type ActivityStore interface {
	RecordActivity(action string, taskID int64, inputsHash, details string) (*models.Activity, error)
	RecentActivity(limit int) ([]models.Activity, error)
}

// Journal records one entry per task mutation.
type Journal struct {
	store ActivityStore
}

// NewJournal creates a journal backed by s.
func NewJournal(s ActivityStore) *Journal {
	return &Journal{store: s}
}

// Record writes an entry for a state-mutating action.
func (j *Journal) Record(action string, inputs interface{}, taskID int64, details string) error {
	_, err := j.store.RecordActivity(action, taskID, hashInputs(inputs), details)
	return err
}

// Recent returns the newest entries first.
func (j *Journal) Recent(limit int) ([]models.Activity, error) {
	return j.store.RecentActivity(limit)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
