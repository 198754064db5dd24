package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNoSave is returned when a slot has no stored snapshot.
var ErrNoSave = errors.New("persistence: no save for slot")

// Store keeps one snapshot per save slot in SQLite. Blobs are
// zstd-compressed JSON. The state is tiny, so frequent redundant saves are
// intentional and cheap.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open creates or opens the save database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("persistence: empty db path")
	}
	if log == nil {
		log = zap.NewNop()
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

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, log: log, enc: enc, dec: dec}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
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
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			game_version INTEGER NOT NULL,
			saved_at TEXT NOT NULL,
			blob BLOB NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Save upserts a snapshot into its slot.
func (s *Store) Save(slot string, snap SnapshotV1) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}
	blob := s.enc.EncodeAll(raw, nil)
	_, err = s.db.Exec(
		`INSERT INTO saves (slot, schema_version, game_version, saved_at, blob)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   schema_version=excluded.schema_version,
		   game_version=excluded.game_version,
		   saved_at=excluded.saved_at,
		   blob=excluded.blob`,
		slot, snap.Header.SchemaVersion, snap.Header.GameVersion,
		time.UnixMilli(snap.Header.SavedAtUnixMs).UTC().Format(time.RFC3339), blob,
	)
	if err != nil {
		return fmt.Errorf("persistence: save slot %s: %w", slot, err)
	}
	return nil
}

// Load reads a slot's snapshot. Unreadable blobs are reported as ErrCorrupt
// so callers reset rather than crash.
func (s *Store) Load(slot string) (SnapshotV1, error) {
	var snap SnapshotV1
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM saves WHERE slot = ?`, slot).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return snap, ErrNoSave
	}
	if err != nil {
		return snap, fmt.Errorf("persistence: load slot %s: %w", slot, err)
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		s.log.Warn("save blob decompression failed", zap.String("slot", slot), zap.Error(err))
		return snap, ErrCorrupt
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.log.Warn("save blob parse failed", zap.String("slot", slot), zap.Error(err))
		return snap, ErrCorrupt
	}
	return snap, nil
}

// Delete removes a slot (corrupt-save reset path).
func (s *Store) Delete(slot string) error {
	_, err := s.db.Exec(`DELETE FROM saves WHERE slot = ?`, slot)
	return err
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
