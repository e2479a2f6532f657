// # internal/data/graphdb/store.go
package graphdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"javakg/internal/engine/serialize"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store keeps every exported run side by side, keyed by a generated run id.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

type Run struct {
	ID              string
	Root            string
	GeneratedAt     string
	ToolVersion     string
	NodeCount       int
	EdgeCount       int
	DiagnosticCount int
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("graph database path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("graph database path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create graph database directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite graph database %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite graph database %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveDocument writes an expanded document as a new run in one transaction
// and returns the run id. An empty runID gets a generated one.
func (s *Store) SaveDocument(ctx context.Context, runID string, doc *serialize.Document) (string, error) {
	if doc.Dictionary != nil {
		return "", fmt.Errorf("save document: compacted documents must be expanded first")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = uuid.NewString()
	}
	err := s.withRetry("save document", func() error {
		return s.saveTx(ctx, runID, doc)
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) saveTx(ctx context.Context, runID string, doc *serialize.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	m := doc.Metadata
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (run_id, root, generated_at, tool_version, node_count, edge_count, diagnostic_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, m.Root, m.GeneratedAt, m.ToolVersion, len(doc.Nodes), len(doc.Edges), len(doc.Diagnostics),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (run_id, id, kind, name, attributes) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()
	for _, n := range doc.Nodes {
		attrs := []byte("{}")
		if len(n.Attributes) > 0 {
			if attrs, err = json.Marshal(n.Attributes); err != nil {
				return fmt.Errorf("encode attributes of %s: %w", n.ID, err)
			}
		}
		if _, err := nodeStmt.ExecContext(ctx, runID, n.ID, n.Kind, n.Name, string(attrs)); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO edges (run_id, source_id, target_id, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	for _, e := range doc.Edges {
		if _, err := edgeStmt.ExecContext(ctx, runID, e.SourceID, e.TargetID, e.Kind); err != nil {
			return fmt.Errorf("insert edge %s -> %s: %w", e.SourceID, e.TargetID, err)
		}
	}

	for i, d := range doc.Diagnostics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO diagnostics (run_id, seq, file, severity, code, message) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, d.File, d.Severity, d.Code, d.Message,
		); err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}
	return tx.Commit()
}

// LatestRun returns the most recently stored run, or nil when the database
// holds none.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT run_id, root, generated_at, tool_version, node_count, edge_count, diagnostic_count
FROM runs ORDER BY created_at_utc DESC, rowid DESC LIMIT 1`)
	var r Run
	err := row.Scan(&r.ID, &r.Root, &r.GeneratedAt, &r.ToolVersion, &r.NodeCount, &r.EdgeCount, &r.DiagnosticCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest run: %w", err)
	}
	return &r, nil
}

// CountByKind reports node counts per kind for a run.
func (s *Store) CountByKind(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM nodes WHERE run_id = ? GROUP BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// Neighbors lists the edges leaving id in a run, ordered by kind and target.
func (s *Store) Neighbors(ctx context.Context, runID, id string) ([]serialize.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT source_id, target_id, kind FROM edges
WHERE run_id = ? AND source_id = ?
ORDER BY kind, target_id`, runID, id)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	var out []serialize.Edge
	for rows.Next() {
		var e serialize.Edge
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.Kind); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
