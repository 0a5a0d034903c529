package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// ErrQueueFull means the writer goroutine is saturated and the save was not
// staged. Callers retry on a later autosave interval.
var ErrQueueFull = errors.New("session save queue full")

type saveReq struct {
	slot string
	tick uint64
	blob []byte
}

// Store persists session documents in a sqlite database. All writes funnel
// through one goroutine so the database sees exactly one writer; reads go
// through the shared handle, which sqlite serializes.
type Store struct {
	db *sql.DB

	ch   chan saveReq
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

// Open creates or opens the store at path, initializing pragmas and schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty session db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		ch: make(chan saveReq, 16),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			slot TEXT PRIMARY KEY,
			tick INTEGER NOT NULL,
			saved_at TEXT NOT NULL,
			blob BLOB NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loop() {
	for req := range s.ch {
		s.write(req)
	}
}

func (s *Store) write(req saveReq) {
	_, _ = s.db.Exec(
		`INSERT INTO sessions (slot, tick, saved_at, blob) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET tick=excluded.tick, saved_at=excluded.saved_at, blob=excluded.blob;`,
		req.slot, req.tick, time.Now().UTC().Format(time.RFC3339Nano), req.blob,
	)
}

// Save stages an asynchronous write of the document under the given slot.
// Encoding happens on the caller so the sim thread pays a predictable cost;
// the disk write happens on the writer goroutine.
func (s *Store) Save(slot string, doc Document) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	doc.Version = DocumentVersion
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now().UTC()
	}
	blob, err := encodeBlob(doc)
	if err != nil {
		return err
	}
	select {
	case s.ch <- saveReq{slot: slot, tick: doc.Tick, blob: blob}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SaveSync writes the document immediately on the calling goroutine. Used
// at shutdown, after Close has drained the async queue.
func (s *Store) SaveSync(slot string, doc Document) error {
	doc.Version = DocumentVersion
	if doc.SavedAt.IsZero() {
		doc.SavedAt = time.Now().UTC()
	}
	blob, err := encodeBlob(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (slot, tick, saved_at, blob) VALUES (?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET tick=excluded.tick, saved_at=excluded.saved_at, blob=excluded.blob;`,
		slot, doc.Tick, time.Now().UTC().Format(time.RFC3339Nano), blob,
	)
	return err
}

// Load reads the document stored under slot. A missing slot returns
// ok=false with no error; a corrupt blob returns ok=false with the decode
// error, and the stored row is left for inspection.
func (s *Store) Load(slot string) (Document, bool, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM sessions WHERE slot = ?;`, slot).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, err
	}
	doc, err := decodeBlob(blob)
	if err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

// Slots lists stored slot names with their last-save tick.
func (s *Store) Slots() (map[string]uint64, error) {
	rows, err := s.db.Query(`SELECT slot, tick FROM sessions;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]uint64)
	for rows.Next() {
		var slot string
		var tick uint64
		if err := rows.Scan(&slot, &tick); err != nil {
			return nil, err
		}
		out[slot] = tick
	}
	return out, rows.Err()
}

// Delete removes a slot.
func (s *Store) Delete(slot string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE slot = ?;`, slot)
	return err
}

// Close drains pending writes and closes the database.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
