package cart

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// StorageKey is the single key the serialized line list is kept under.
const StorageKey = "cart"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStorage keeps the cart in a local SQLite file.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (and creates, if needed) the database at dbPath.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cart database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cart schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Load() ([]Line, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, StorageKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return lines, nil
}

func (s *SQLiteStorage) Save(lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		StorageKey, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

// MemoryStorage keeps the serialized cart in memory.
type MemoryStorage struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// NewMemoryStorageWith seeds the storage with an already serialized value.
func NewMemoryStorageWith(raw []byte) *MemoryStorage {
	return &MemoryStorage{raw: raw}
}

func (m *MemoryStorage) Load() ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.raw == nil {
		return nil, nil
	}
	var lines []Line
	if err := json.Unmarshal(m.raw, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return lines, nil
}

func (m *MemoryStorage) Save(lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
	return nil
}

// Raw returns the last serialized value.
func (m *MemoryStorage) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}
