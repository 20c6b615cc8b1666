package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/proofbench/proofbench-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResultStore = (*Store)(nil)

// Store is a SQLite-based evaluation result store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.proofbench/data/results.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".proofbench", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "results.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Save stores a new artifact, assigning an id and the next per
// (model, file) run number when unset. The run lookup and insert share
// one transaction so concurrent saves never claim the same run.
func (s *Store) Save(ctx context.Context, r *domain.FileResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if r.Run == 0 {
		var next int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(run), 0) + 1 FROM evaluations
			WHERE model_id = ? AND file_id = ?
		`, r.ModelID, r.FileID).Scan(&next)
		if err != nil {
			return fmt.Errorf("assigning run number: %w", err)
		}
		r.Run = next
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluations (id, model_id, file_id, run, date)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.ModelID, r.FileID, r.Run, r.Date.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s/%s run %d",
				domain.ErrImmutableResult, r.ModelID, r.FileID, r.Run)
		}
		return fmt.Errorf("saving evaluation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (
			evaluation_id, position, expected_edit_num, observed_edit_num,
			tp, fp, fn, edit_type, original_text, corrected_text,
			observed_line_number, line_diff, line_penalty, judgement
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, m := range r.Matches {
		if _, err := stmt.ExecContext(ctx,
			r.ID, i, nullInt(m.ExpectedEditNum), nullInt(m.ObservedEditNum),
			m.TP, m.FP, m.FN, string(m.Type), m.OriginalText, m.CorrectedText,
			nullInt(m.ObservedLineNumber), nullInt(m.LineDiff),
			m.LineNumberPenalty, m.Judgement); err != nil {
			return fmt.Errorf("saving match %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Get retrieves one artifact with its full match list.
func (s *Store) Get(ctx context.Context, modelID, fileID string, run int) (*domain.FileResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, model_id, file_id, run, date
		FROM evaluations WHERE model_id = ? AND file_id = ? AND run = ?
	`, modelID, fileID, run)

	var r domain.FileResult
	if err := row.Scan(&r.ID, &r.ModelID, &r.FileID, &r.Run, &r.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning evaluation: %w", err)
	}

	matches, err := s.loadMatches(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Matches = matches

	return &r, nil
}

// ListByModel returns all artifacts for a model, ordered by file id
// then run number.
func (s *Store) ListByModel(ctx context.Context, modelID string) ([]domain.FileResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model_id, file_id, run, date
		FROM evaluations WHERE model_id = ?
		ORDER BY file_id, run
	`, modelID)
	if err != nil {
		return nil, fmt.Errorf("querying evaluations: %w", err)
	}
	defer rows.Close()

	var results []domain.FileResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.FileResult
		if err := rows.Scan(&r.ID, &r.ModelID, &r.FileID, &r.Run, &r.Date); err != nil {
			return nil, fmt.Errorf("scanning evaluation: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evaluations: %w", err)
	}

	for i := range results {
		matches, err := s.loadMatches(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Matches = matches
	}

	return results, nil
}

// Models returns the distinct model ids present in the store.
func (s *Store) Models(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT model_id FROM evaluations ORDER BY model_id")
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer rows.Close()

	var models []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning model id: %w", err)
		}
		models = append(models, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating models: %w", err)
	}

	return models, nil
}

// loadMatches loads an artifact's match list in stored order.
func (s *Store) loadMatches(ctx context.Context, evaluationID string) ([]domain.EditMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT expected_edit_num, observed_edit_num, tp, fp, fn,
			edit_type, original_text, corrected_text,
			observed_line_number, line_diff, line_penalty, judgement
		FROM matches WHERE evaluation_id = ?
		ORDER BY position
	`, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.EditMatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m domain.EditMatch
		var expected, observed, line, diff sql.NullInt64
		var editType string
		if err := rows.Scan(&expected, &observed, &m.TP, &m.FP, &m.FN,
			&editType, &m.OriginalText, &m.CorrectedText,
			&line, &diff, &m.LineNumberPenalty, &m.Judgement); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}

		m.Type = domain.EditType(editType)
		m.ExpectedEditNum = intPointer(expected)
		m.ObservedEditNum = intPointer(observed)
		m.ObservedLineNumber = intPointer(line)
		m.LineDiff = intPointer(diff)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// nullInt converts an optional int to its SQL representation.
func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// intPointer converts a nullable SQL integer back to an optional int.
func intPointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
