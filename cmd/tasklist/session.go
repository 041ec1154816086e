package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fentz26/tasklist/internal/audit"
	"github.com/fentz26/tasklist/internal/config"
	"github.com/fentz26/tasklist/internal/store"
	"github.com/fentz26/tasklist/internal/taskstore"
)

// session is one open task collection plus the resources behind it.
type session struct {
	tasks   *taskstore.TaskStore
	db      *store.Store // nil for the json backend
	journal *audit.Journal
}

// openSession builds the persistence adapter selected by c and loads the
// task collection.
func openSession(c *config.Config, logger *log.Logger) (*session, error) {
	storeOpts := []store.Option{
		store.WithCategories(c.CategorySet()),
		store.WithLogger(logger),
	}

	s := &session{}
	var persist taskstore.Persistence
	switch c.Backend {
	case config.BackendSQLite:
		db, err := store.New(c.DBPath, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.db, persist = db, db
	case config.BackendMySQL:
		db, err := store.Open(store.DriverMySQL, c.DSN, storeOpts...)
		if err != nil {
			return nil, fmt.Errorf("open mysql store: %w", err)
		}
		s.db, persist = db, db
	case config.BackendJSON:
		if err := os.MkdirAll(filepath.Dir(c.JSONPath), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		persist = store.NewJSONFile(c.JSONPath, storeOpts...)
	default:
		return nil, fmt.Errorf("unsupported backend %q", c.Backend)
	}

	taskOpts := []taskstore.Option{
		taskstore.WithCategories(c.CategorySet()),
		taskstore.WithLogger(logger),
	}
	if s.db != nil {
		s.journal = audit.NewJournal(s.db)
		taskOpts = append(taskOpts, taskstore.WithRecorder(s.journal))
	}

	ts, err := taskstore.New(persist, taskOpts...)
	if err != nil {
		s.closeDB()
		return nil, err
	}
	s.tasks = ts
	return s, nil
}

// Close saves any unsaved mutation and releases the database.
func (s *session) Close() error {
	err := s.tasks.Close()
	if cerr := s.closeDB(); err == nil {
		err = cerr
	}
	return err
}

func (s *session) closeDB() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// withSession opens a session for the duration of fn.
func withSession(fn func(s *session) error) error {
	s, err := openSession(cfg, log.Default())
	if err != nil {
		return err
	}
	err = fn(s)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
