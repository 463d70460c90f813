// Package sqlitestore is the embedded relational implementation of
// store.Store: a single modernc.org/sqlite file holds every entity
// table plus an FTS5 index for keyword search, while an in-process
// vectorindex.Index serves vector search, loaded from the vectors
// table at open time and mirrored to it on every write. Grounded on
// the teacher's repository-construction idiom in
// internal/repository/dynamodb.go, adapted from a managed NoSQL
// client to a local database/sql handle.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/cortexmemory/cortex/internal/cortexerrors"
	"github.com/cortexmemory/cortex/internal/domain"
	"github.com/cortexmemory/cortex/internal/store"
	"github.com/cortexmemory/cortex/internal/store/vectorindex"
)

// SQLiteStore is the concrete store.Store backed by an embedded
// sqlite file. It is safe for concurrent use; sqlite's own writer
// serialization plus WAL mode handle cross-goroutine writes.
type SQLiteStore struct {
	db     *sql.DB
	vec    *vectorindex.Index
	logger *zap.Logger
}

// Open creates/migrates the database file at path and loads the
// vector index into memory. walMode enables SQLite's write-ahead log,
// the default recommended by the teacher's storage configuration for
// concurrent reader/writer workloads.
func Open(ctx context.Context, path string, walMode bool, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cortexerrors.NewFatal("opening sqlite database", err)
	}
	db.SetMaxOpenConns(1)

	if walMode {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
			return nil, cortexerrors.NewFatal("enabling WAL mode", err)
		}
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
		return nil, cortexerrors.NewFatal("enabling foreign keys", err)
	}

	if err := migrate(ctx, db); err != nil {
		return nil, cortexerrors.NewFatal("migrating schema", err)
	}

	s := &SQLiteStore{db: db, vec: vectorindex.New(), logger: logger}
	if err := s.loadVectorIndex(ctx); err != nil {
		return nil, cortexerrors.NewFatal("loading vector index", err)
	}
	return s, nil
}

func (s *SQLiteStore) loadVectorIndex(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, dims, vector FROM vectors`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var dims int
		var blob []byte
		if err := rows.Scan(&id, &dims, &blob); err != nil {
			return err
		}
		s.vec.Upsert(id, decodeVector(blob, dims))
	}
	return rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting every query
// function run identically whether called directly or inside
// Transaction. Go's lack of virtual dispatch through embedding means
// SQLiteStore and txStore each implement store.Store explicitly
// (see txstore.go), delegating to the same unexported functions with
// their own execer.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transaction runs fn against a Store bound to a single sqlite
// transaction. Vector index mutations made by fn take effect
// immediately in the in-memory index (it is not itself transactional)
// but are only durably mirrored to the vectors table if fn's sqlite
// transaction commits; a crash between the two leaves the index
// slightly ahead of disk, which Open's reload naturally heals.
func (s *SQLiteStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cortexerrors.NewFatal("beginning transaction", err)
	}

	txs := &txStore{parent: s, tx: sqlTx}
	if err := fn(txs); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return cortexerrors.NewFatal("committing transaction", err)
	}
	return nil
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(s string) map[string]any {
	if s == "" {
		return map[string]any{}
	}
	out := map[string]any{}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}
