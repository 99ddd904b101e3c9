package seen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

const schema = `CREATE TABLE IF NOT EXISTS seen_events (
	id       TEXT PRIMARY KEY,
	added_at INTEGER NOT NULL
)`

var errNoDB = errors.New("seen-set database unavailable")

// SQLiteStore persists the set in a single SQLite table.
type SQLiteStore struct {
	mu  sync.RWMutex
	db  *sql.DB
	ids map[string]struct{}
}

// OpenSQLite opens (or creates) the database at path and reads every id into
// memory. If the database cannot be opened or read, the store runs in memory
// only and every Add reports an error.
func OpenSQLite(path string, logger *zap.Logger) *SQLiteStore {
	s := &SQLiteStore{ids: map[string]struct{}{}}
	db, err := openDB(path)
	if err != nil {
		logger.Warn("seen-set database unusable, running in memory", zap.String("path", path), zap.Error(err))
		return s
	}
	if err := s.loadFrom(db); err != nil {
		db.Close()
		logger.Warn("seen-set database unreadable, running in memory", zap.String("path", path), zap.Error(err))
		return s
	}
	s.db = db
	logger.Info("seen-set loaded", zap.String("path", path), zap.Int("ids", len(s.ids)))
	return s
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		schema,
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

func (s *SQLiteStore) loadFrom(db *sql.DB) error {
	rows, err := db.Query(`SELECT id FROM seen_events`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		s.ids[id] = struct{}{}
	}
	return rows.Err()
}

// ImportFile copies ids from a JSON seen-set file into the database. It is a
// no-op when the file does not exist.
func (s *SQLiteStore) ImportFile(ctx context.Context, path string) (int, error) {
	ids, err := readIDs(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	now := time.Now().Unix()
	n := 0
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO seen_events (id, added_at) VALUES (?, ?)`, id, now); err != nil {
			return 0, fmt.Errorf("import %s: %w", id, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return n, nil
}

func (s *SQLiteStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *SQLiteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *SQLiteStore) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	if s.db == nil {
		return errNoDB
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO seen_events (id, added_at) VALUES (?, ?)`, id, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert seen id %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
