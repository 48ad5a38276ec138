// Package migration upgrades the SQL task stores from embedded NNN_name.sql steps.
package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amnyam666/tgdailybot/internal/logger"
)

// ErrSchemaTooNew is returned when the store was upgraded by a newer build.
var ErrSchemaTooNew = errors.New("task store schema is newer than this build supports")

// Migration is one schema step, parsed from "NNN_name.sql".
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status compares a store's applied schema with the embedded steps.
type Status struct {
	Applied int
	Latest  int
	Pending []Migration
}

// UpToDate reports whether the store is exactly at the latest step.
func (s Status) UpToDate() bool {
	return s.Applied == s.Latest
}

// Runner applies schema steps to one task store. Queries are rebound to the
// placeholder style of the store's driver, so it serves SQLite and Postgres.
type Runner struct {
	db    *sqlx.DB
	steps fs.FS
}

func NewRunner(db *sqlx.DB, steps fs.FS) *Runner {
	return &Runner{db: db, steps: steps}
}

// schema_history keeps one row per applied step.
const createHistory = `CREATE TABLE IF NOT EXISTS schema_history (
	version       INTEGER PRIMARY KEY,
	name          TEXT NOT NULL,
	applied_at_ms BIGINT NOT NULL
)`

func (r *Runner) ensureHistory() error {
	if _, err := r.db.Exec(createHistory); err != nil {
		return fmt.Errorf("failed to create schema_history: %w", err)
	}
	return nil
}

// AppliedVersion returns the highest applied step, 0 for a fresh store.
func (r *Runner) AppliedVersion() (int, error) {
	if err := r.ensureHistory(); err != nil {
		return 0, err
	}
	var version int
	if err := r.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_history"); err != nil {
		return 0, fmt.Errorf("failed to read applied schema version: %w", err)
	}
	return version, nil
}

func (r *Runner) record(tx *sqlx.Tx, m Migration) error {
	_, err := tx.Exec(
		tx.Rebind("INSERT INTO schema_history (version, name, applied_at_ms) VALUES (?, ?, ?)"),
		m.Version, m.Name, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema step %d: %w", m.Version, err)
	}
	return nil
}

func parseStepName(filename string) (int, string, error) {
	prefix, name, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", filename)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in filename %s: %w", filename, err)
	}
	if version < 1 {
		return 0, "", fmt.Errorf("invalid version number in filename %s: version must be at least 1", filename)
	}
	return version, name, nil
}

// Migrations returns the embedded steps ordered by version.
func (r *Runner) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(r.steps, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var steps []Migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		version, name, err := parseStepName(entry.Name())
		if err != nil {
			return nil, err
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d (%s and %s)", version, other, entry.Name())
		}
		seen[version] = entry.Name()

		body, err := fs.ReadFile(r.steps, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}
		steps = append(steps, Migration{Version: version, Name: name, SQL: string(body)})
	}

	slices.SortFunc(steps, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return steps, nil
}

// LatestVersion returns the highest embedded step, 0 when there are none.
func (r *Runner) LatestVersion() (int, error) {
	steps, err := r.Migrations()
	if err != nil {
		return 0, err
	}
	if len(steps) == 0 {
		return 0, nil
	}
	return steps[len(steps)-1].Version, nil
}

// Status reports the applied version, the latest embedded one and the steps
// still to run.
func (r *Runner) Status() (Status, error) {
	applied, err := r.AppliedVersion()
	if err != nil {
		return Status{}, err
	}
	steps, err := r.Migrations()
	if err != nil {
		return Status{}, err
	}

	st := Status{Applied: applied}
	for _, m := range steps {
		st.Latest = m.Version
		if m.Version > applied {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

// Check fails with ErrSchemaTooNew when the store is ahead of this build.
func (r *Runner) Check() error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	return st.tooNew()
}

func (s Status) tooNew() error {
	if s.Applied > s.Latest {
		return fmt.Errorf("%w: store at version %d, build knows %d (upgrade tgdaily)", ErrSchemaTooNew, s.Applied, s.Latest)
	}
	return nil
}

// Up runs every pending step, each in its own transaction together with its
// schema_history row, and returns how many ran.
func (r *Runner) Up() (int, error) {
	st, err := r.Status()
	if err != nil {
		return 0, err
	}
	if err := st.tooNew(); err != nil {
		return 0, err
	}
	if len(st.Pending) == 0 {
		logger.Debug("Task store schema is current", "version", st.Applied)
		return 0, nil
	}

	logger.Info("Upgrading task store schema", "from", st.Applied, "to", st.Latest, "steps", len(st.Pending))
	started := time.Now()

	for n, m := range st.Pending {
		if err := r.apply(m); err != nil {
			return n, err
		}
		logger.Debug("Schema step applied", "version", m.Version, "name", m.Name)
	}

	logger.Info("Task store schema upgraded", "version", st.Latest, "took", time.Since(started))
	return len(st.Pending), nil
}

func (r *Runner) apply(m Migration) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin schema step %d: %w", m.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if err := r.record(tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema step %d: %w", m.Version, err)
	}
	return nil
}
