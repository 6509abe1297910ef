package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/peepingotter/director/internal/types"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS memories (
	id              TEXT PRIMARY KEY,
	created_at      TIMESTAMP NOT NULL,
	source          TEXT NOT NULL,
	text            TEXT NOT NULL,
	memory_text     TEXT NOT NULL,
	interestingness REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS narrative (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL,
	tier       TEXT NOT NULL,
	text       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);
CREATE INDEX IF NOT EXISTS idx_narrative_tier ON narrative(tier);
`

// Archive is the durable sqlite layer under the in-RAM memory list. The RAM
// list is capped; the archive keeps every memory ever promoted.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveMemory upserts one promoted memory.
func (a *Archive) SaveMemory(e *types.EventItem) error {
	_, err := a.db.Exec(`
		INSERT INTO memories (id, created_at, source, text, memory_text, interestingness)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			memory_text = excluded.memory_text,
			interestingness = excluded.interestingness`,
		e.ID, e.Timestamp, string(e.Source), e.Text, e.MemoryContent(), e.Score.Interestingness)
	if err != nil {
		return fmt.Errorf("failed to save memory %s: %w", e.ID, err)
	}
	return nil
}

// SaveNarrative appends one narrative or ancient-history sentence.
func (a *Archive) SaveNarrative(text, tier string) error {
	_, err := a.db.Exec(
		`INSERT INTO narrative (created_at, tier, text) VALUES (?, ?, ?)`,
		time.Now(), tier, text)
	if err != nil {
		return fmt.Errorf("failed to save narrative entry: %w", err)
	}
	return nil
}

// ArchivedMemory is one row read back from the archive.
type ArchivedMemory struct {
	ID              string
	CreatedAt       time.Time
	Source          string
	Text            string
	MemoryText      string
	Interestingness float64
}

// RecentMemories returns the newest limit memories from the archive.
func (a *Archive) RecentMemories(limit int) ([]ArchivedMemory, error) {
	rows, err := a.db.Query(`
		SELECT id, created_at, source, text, memory_text, interestingness
		FROM memories ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var out []ArchivedMemory
	for rows.Next() {
		var m ArchivedMemory
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.Source, &m.Text, &m.MemoryText, &m.Interestingness); err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MemoryCount returns the total number of archived memories.
func (a *Archive) MemoryCount() (int, error) {
	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return n, nil
}
