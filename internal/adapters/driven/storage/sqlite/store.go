package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/medivault/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IngestionLedger = (*Store)(nil)

// DBName is the ledger database file name inside the data directory.
const DBName = "ledger.db"

// Store is the SQLite-backed ingestion ledger.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the ledger in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: ledger data directory is required", domain.ErrNotConfigured)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBName)

	// WAL lets status reads run alongside an ingestion write
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

// migrate applies pending .up.sql migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
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
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// RecordRun stores a run and the documents it indexed in one transaction.
// A rebuild run replaces the document table; otherwise rows are upserted.
func (s *Store) RecordRun(ctx context.Context, run *domain.IngestRun, docs []domain.DocumentRecord) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingestion_runs (id, started_at, completed_at, rebuild, status,
			documents_processed, chunks_created, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, formatTime(run.StartedAt), formatTime(run.CompletedAt), boolToInt(run.Rebuild),
		string(run.Status), run.DocumentsProcessed, run.ChunksCreated, run.Error)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if run.Rebuild {
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
			return fmt.Errorf("clearing documents: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (name, content_hash, record_date, chunk_count, ingested_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			content_hash = excluded.content_hash,
			record_date = excluded.record_date,
			chunk_count = excluded.chunk_count,
			ingested_at = excluded.ingested_at,
			run_id = excluded.run_id
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		runID := d.RunID
		if runID == "" {
			runID = run.ID
		}
		ingestedAt := d.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = run.CompletedAt
		}
		if _, err := stmt.ExecContext(ctx, d.Name, d.ContentHash, d.RecordDate, d.ChunkCount,
			formatTime(ingestedAt), runID); err != nil {
			return fmt.Errorf("saving document %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run.
func (s *Store) LastRun(ctx context.Context) (*domain.IngestRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, rebuild, status, documents_processed, chunks_created, error
		FROM ingestion_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`)

	var run domain.IngestRun
	var startedAt, completedAt, status string
	var rebuild int
	if err := row.Scan(&run.ID, &startedAt, &completedAt, &rebuild, &status,
		&run.DocumentsProcessed, &run.ChunksCreated, &run.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = parseTime(completedAt); err != nil {
		return nil, err
	}
	run.Rebuild = rebuild != 0
	run.Status = domain.IngestStatus(status)

	return &run, nil
}

// Documents returns the ingested document set ordered by name.
func (s *Store) Documents(ctx context.Context) ([]domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, content_hash, record_date, chunk_count, ingested_at, run_id
		FROM documents
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var d domain.DocumentRecord
		var ingestedAt string
		if err := rows.Scan(&d.Name, &d.ContentHash, &d.RecordDate, &d.ChunkCount, &ingestedAt, &d.RunID); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if d.IngestedAt, err = parseTime(ingestedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Times are stored as fixed-width UTC RFC 3339 text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
