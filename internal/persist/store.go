// Package persist stores cache snapshots in a local SQLite database so the
// client starts with the data it last saw.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/logger"
)

const (
	// DBFile is the snapshot database name inside the config directory.
	DBFile = "cache.db"
	table  = "query_cache"
)

const schema = `CREATE TABLE IF NOT EXISTS query_cache (
	key_hash   TEXT PRIMARY KEY,
	key_json   TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store reads and writes cache records.
type Store struct {
	db  *sql.DB
	qb  sq.StatementBuilderType
	log logger.Logger
}

// Open opens (creating if needed) the snapshot database at path.
func Open(path string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=500"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	s, err := New(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database, creating the table if it is missing.
func New(db *sql.DB, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Mock()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return &Store{
		db:  db,
		qb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		log: logger.WithModule(log, "persist"),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save replaces the stored snapshot with records.
func (s *Store) Save(ctx context.Context, records []cache.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.qb.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	for _, r := range records {
		keyJSON, err := keyJSON(r.Hash)
		if err != nil {
			s.log.Debug().Err(err).Str("key", r.Hash).Msg("skipping unparsable key")
			continue
		}
		_, err = s.qb.Insert(table).
			Columns("key_hash", "key_json", "data", "updated_at").
			Values(r.Hash, keyJSON, []byte(r.Data), r.UpdatedAt.UnixMilli()).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("save %s: %w", r.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug().Int("records", len(records)).Msg("snapshot saved")
	return nil
}

// Load returns every stored record, oldest first.
func (s *Store) Load(ctx context.Context) ([]cache.Record, error) {
	rows, err := s.qb.Select("key_hash", "data", "updated_at").
		From(table).
		OrderBy("updated_at ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	var out []cache.Record
	for rows.Next() {
		var (
			hash    string
			data    []byte
			updated int64
		)
		if err := rows.Scan(&hash, &data, &updated); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, cache.Record{
			Hash:      hash,
			Data:      json.RawMessage(data),
			UpdatedAt: time.UnixMilli(updated),
		})
	}
	return out, rows.Err()
}

// Prune deletes records last updated before cutoff and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.qb.Delete(table).
		Where(sq.Lt{"updated_at": cutoff.UnixMilli()}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune snapshot: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes the stored snapshot.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.qb.Delete(table).RunWith(s.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// keyJSON renders the key as a JSON array for inspection with sqlite3.
func keyJSON(hash string) (string, error) {
	k, err := cache.ParseKey(hash)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal([]any(k))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
