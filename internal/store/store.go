// Package store provides SQL-backed persistence for tasklist.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fentz26/tasklist/internal/models"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Option configures a Store or JSONFile.
type Option func(*options)

type options struct {
	categories models.CategorySet
	logger     *log.Logger
}

// WithCategories makes Load discard tasks whose category is not in cats.
func WithCategories(cats []models.Category) Option {
	return func(o *options) { o.categories = append(models.CategorySet(nil), cats...) }
}

// WithLogger sets the logger used to report discarded records.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store persists the task collection and the activity journal in a SQL database.
type Store struct {
	db     *sql.DB
	driver string
	opts   options
}

// New opens (or creates) a SQLite database at dbPath and runs migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(DriverSQLite, dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", opts...)
}

// Open connects to a database using driver ("sqlite" or "mysql") and runs migrations.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	if driver != DriverSQLite && driver != DriverMySQL {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
		db.SetMaxIdleConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: db, driver: driver, opts: buildOptions(opts)}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate(ctx context.Context) error {
	textType, keyType := "TEXT", "TEXT"
	if s.driver == DriverMySQL {
		keyType = "VARCHAR(64)"
	}

	// Timestamps are stored as RFC 3339 text so both dialects round-trip
	// nanosecond precision.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGINT PRIMARY KEY,
			position INTEGER NOT NULL,
			text ` + textType + ` NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			category VARCHAR(64) NOT NULL,
			priority VARCHAR(16) NOT NULL,
			due_date VARCHAR(10),
			created_at VARCHAR(40) NOT NULL,
			completed_at VARCHAR(40)
		)`,
		`CREATE TABLE IF NOT EXISTS activity (
			id ` + keyType + ` PRIMARY KEY,
			action VARCHAR(64) NOT NULL,
			task_id BIGINT,
			inputs_hash VARCHAR(64) NOT NULL,
			details ` + textType + `,
			timestamp VARCHAR(40) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	// MySQL lacks IF NOT EXISTS for CREATE INDEX; duplicates are ignored instead.
	if s.driver == DriverMySQL {
		return s.execIgnoreDupIndex(ctx, `CREATE INDEX idx_activity_timestamp ON activity(timestamp)`)
	}
	_, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity(timestamp)`)
	return err
}

func (s *Store) execIgnoreDupIndex(ctx context.Context, ddl string) error {
	_, err := s.db.ExecContext(ctx, ddl)
	if err != nil {
		e := err.Error()
		if strings.Contains(e, "Duplicate key name") || strings.Contains(e, "1061") {
			return nil
		}
	}
	return err
}

// --- Task collection ---

// Load returns every stored task in saved order. Rows that fail validation
// are skipped and logged rather than failing the whole load.
func (s *Store) Load() ([]models.Task, error) {
	rows, err := s.db.Query(
		`SELECT id, text, completed, category, priority, due_date, created_at, completed_at FROM tasks ORDER BY position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var r record
		var completed int
		var due, completedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Text, &completed, &r.Category, &r.Priority, &due, &r.CreatedAt, &completedAt); err != nil {
			s.opts.logger.Printf("load: skipping unreadable task row: %v", err)
			continue
		}
		r.Completed = completed != 0
		if due.Valid {
			r.DueDate = &due.String
		}
		if completedAt.Valid {
			r.CompletedAt = &completedAt.String
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return sanitize(records, s.opts.categories, s.opts.logger), nil
}

// Save replaces the stored collection with tasks in a single transaction.
func (s *Store) Save(tasks []models.Task) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO tasks (id, position, text, completed, category, priority, due_date, created_at, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		r := toRecord(t)
		completed := 0
		if r.Completed {
			completed = 1
		}
		if _, err := stmt.Exec(r.ID, i, r.Text, completed, r.Category, r.Priority, nullString(r.DueDate), r.CreatedAt, nullString(r.CompletedAt)); err != nil {
			return fmt.Errorf("insert task %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- Activity journal ---

// RecordActivity appends an entry to the activity journal.
func (s *Store) RecordActivity(action string, taskID int64, inputsHash, details string) (*models.Activity, error) {
	a := &models.Activity{
		ID:         uuid.New().String(),
		Action:     action,
		TaskID:     taskID,
		InputsHash: inputsHash,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO activity (id, action, task_id, inputs_hash, details, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Action, a.TaskID, a.InputsHash, a.Details, a.Timestamp.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

// RecentActivity returns up to limit journal entries, newest first.
func (s *Store) RecentActivity(limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, action, task_id, inputs_hash, details, timestamp FROM activity ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var items []models.Activity
	for rows.Next() {
		var a models.Activity
		var taskID sql.NullInt64
		var details sql.NullString
		var ts string
		if err := rows.Scan(&a.ID, &a.Action, &taskID, &a.InputsHash, &details, &ts); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if taskID.Valid {
			a.TaskID = taskID.Int64
		}
		if details.Valid {
			a.Details = details.String
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			a.Timestamp = parsed
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
