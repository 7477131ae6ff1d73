// Package cache tracks generated outputs in a SQLite database so repeat runs
// can skip sources that have not changed. A cache failure is never fatal to
// the caller: open errors disable caching and lookup errors read as misses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"bidic/common"
)

const schema = `CREATE TABLE IF NOT EXISTS outputs (
	source        TEXT NOT NULL,
	direction     TEXT NOT NULL,
	source_hash   TEXT NOT NULL,
	profile       TEXT NOT NULL,
	name_template TEXT NOT NULL,
	output        TEXT NOT NULL,
	output_hash   TEXT NOT NULL,
	run_id        TEXT NOT NULL DEFAULT '',
	updated_at    TEXT NOT NULL,
	PRIMARY KEY (source, direction)
)`

// Entry is one recorded generation result, keyed by source path and direction.
type Entry struct {
	Source       string           // absolute source path
	Direction    common.Direction // generated direction
	SourceHash   string           // SHA-256 of the source bytes
	Profile      string           // fingerprint of the binding profile used
	NameTemplate string           // output name template in effect
	Output       string           // absolute output path
	OutputHash   string           // SHA-256 of the written output
	RunID        string           // invocation that wrote the row
	UpdatedAt    time.Time
}

// Cache is a handle to the output database.
type Cache struct {
	conn *sqlite.Conn
	log  *zap.Logger
}

// Open opens or creates the cache database at path.
func Open(path string, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if err := sqlitex.Execute(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize cache %s: %w", path, err)
	}
	return &Cache{conn: conn, log: log.Named("cache")}, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.conn.Close()
}

// Lookup returns the recorded entry for (source, direction). Database errors
// are logged and read as a miss.
func (c *Cache) Lookup(source string, d common.Direction) (*Entry, bool) {
	var entry *Entry
	err := sqlitex.Execute(c.conn,
		`SELECT source_hash, profile, name_template, output, output_hash, run_id, updated_at FROM outputs WHERE source = ? AND direction = ?`,
		&sqlitex.ExecOptions{
			Args: []any{source, d.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				e := Entry{
					Source:       source,
					Direction:    d,
					SourceHash:   stmt.ColumnText(0),
					Profile:      stmt.ColumnText(1),
					NameTemplate: stmt.ColumnText(2),
					Output:       stmt.ColumnText(3),
					OutputHash:   stmt.ColumnText(4),
					RunID:        stmt.ColumnText(5),
				}
				if ts, err := time.Parse(time.RFC3339, stmt.ColumnText(6)); err == nil {
					e.UpdatedAt = ts
				}
				entry = &e
				return nil
			},
		})
	if err != nil {
		c.log.Warn("Cache lookup failed, treating as miss",
			zap.String("source", source), zap.Stringer("direction", d), zap.Error(err))
		return nil, false
	}
	return entry, entry != nil
}

// Store inserts or replaces the entry for its (source, direction) key.
func (c *Cache) Store(e Entry) error {
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	return sqlitex.Execute(c.conn,
		`INSERT INTO outputs (source, direction, source_hash, profile, name_template, output, output_hash, run_id, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source, direction) DO UPDATE SET
	source_hash = excluded.source_hash,
	profile = excluded.profile,
	name_template = excluded.name_template,
	output = excluded.output,
	output_hash = excluded.output_hash,
	run_id = excluded.run_id,
	updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{
			Args: []any{
				e.Source, e.Direction.String(), e.SourceHash, e.Profile,
				e.NameTemplate, e.Output, e.OutputHash, e.RunID,
				e.UpdatedAt.UTC().Format(time.RFC3339),
			},
		})
}

// Entries returns all recorded entries ordered by source and direction. Rows
// with an unparseable direction are skipped with a warning.
func (c *Cache) Entries() ([]Entry, error) {
	var entries []Entry
	err := sqlitex.Execute(c.conn,
		`SELECT source, direction, source_hash, profile, name_template, output, output_hash, run_id, updated_at FROM outputs ORDER BY source, direction`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				d, err := common.ParseDirection(stmt.ColumnText(1))
				if err != nil {
					c.log.Warn("Skipping cache row with unknown direction",
						zap.String("source", stmt.ColumnText(0)), zap.String("direction", stmt.ColumnText(1)))
					return nil
				}
				e := Entry{
					Source:       stmt.ColumnText(0),
					Direction:    d,
					SourceHash:   stmt.ColumnText(2),
					Profile:      stmt.ColumnText(3),
					NameTemplate: stmt.ColumnText(4),
					Output:       stmt.ColumnText(5),
					OutputHash:   stmt.ColumnText(6),
					RunID:        stmt.ColumnText(7),
				}
				if ts, err := time.Parse(time.RFC3339, stmt.ColumnText(8)); err == nil {
					e.UpdatedAt = ts
				}
				entries = append(entries, e)
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Sum returns the hex encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
