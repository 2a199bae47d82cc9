// Package sqlite implements the storage repositories on a single SQLite
// database using the pure-Go modernc.org/sqlite driver.
//
// Embeddings are stored in a BLOB column as little-endian float32 values
// (see storage.EncodeVector). Section IDs come from an AUTOINCREMENT
// primary key and are never reused, even after deletes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS sections (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    section_no  TEXT NOT NULL,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    punishment  TEXT NOT NULL DEFAULT '',
    embedding   BLOB,
    inserted_at INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS checkpoints (
    name            TEXT PRIMARY KEY,
    encoder_version TEXT NOT NULL,
    dimension       INTEGER NOT NULL,
    sections        INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
)`}

const sectionColumns = `id, section_no, title, description, punishment, embedding, inserted_at, updated_at`

// Store implements storage.SectionRepository and storage.CheckpointRepository.
type Store struct {
	db *sql.DB
}

var (
	_ storage.SectionRepository    = (*Store)(nil)
	_ storage.CheckpointRepository = (*Store)(nil)
)

// Open opens (creating if needed) the SQLite database file at path.
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return New(db)
}

// OpenMemory opens a private in-memory database, mainly for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection would otherwise see its own empty database.
	db.SetMaxOpenConns(1)
	return New(db)
}

// New wraps an open database and ensures the schema exists.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite: db is nil")
	}
	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddSections inserts sections and assigns their IDs.
func (s *Store) AddSections(ctx context.Context, sections ...*core.Section) ([]*core.Section, error) {
	for _, section := range sections {
		if err := core.ValidateSection(section); err != nil {
			return nil, err
		}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sections(section_no, title, description, punishment, embedding, inserted_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, section := range sections {
			now := time.Now().UTC().Truncate(time.Microsecond)
			res, err := stmt.ExecContext(ctx, section.SectionNo, section.Title, section.Description, section.Punishment,
				storage.EncodeVector(section.Vector), now.UnixMicro(), now.UnixMicro())
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			section.Id = core.ID(id)
			section.InsertedAt = now
			section.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

// UpdateSections replaces the stored fields of existing sections.
func (s *Store) UpdateSections(ctx context.Context, sections ...*core.Section) ([]*core.Section, error) {
	for _, section := range sections {
		if err := core.ValidateSection(section); err != nil {
			return nil, err
		}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, section := range sections {
			var inserted int64
			err := tx.QueryRowContext(ctx, `SELECT inserted_at FROM sections WHERE id = ?`, int64(section.Id)).Scan(&inserted)
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			if err != nil {
				return err
			}

			now := time.Now().UTC().Truncate(time.Microsecond)
			if _, err := tx.ExecContext(ctx,
				`UPDATE sections SET section_no = ?, title = ?, description = ?, punishment = ?, embedding = ?, updated_at = ? WHERE id = ?`,
				section.SectionNo, section.Title, section.Description, section.Punishment,
				storage.EncodeVector(section.Vector), now.UnixMicro(), int64(section.Id)); err != nil {
				return err
			}
			section.InsertedAt = fromMicros(inserted)
			section.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sections, nil
}

// SetVector persists the embedding of a single section.
func (s *Store) SetVector(ctx context.Context, id core.ID, vector core.Embedding) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sections SET embedding = ?, updated_at = ? WHERE id = ?`,
		storage.EncodeVector(vector), time.Now().UTC().UnixMicro(), int64(id))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteSections removes sections by their IDs.
func (s *Store) DeleteSections(ctx context.Context, ids ...core.ID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, int64(id))
			if err != nil {
				return err
			}
			if err := requireRow(res); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSection retrieves a single section by ID.
func (s *Store) GetSection(ctx context.Context, id core.ID) (*core.Section, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sectionColumns+` FROM sections WHERE id = ?`, int64(id))
	section, err := scanSection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return section, err
}

// GetSections retrieves the sections that exist among ids.
func (s *Store) GetSections(ctx context.Context, ids ...core.ID) ([]*core.Section, error) {
	var result []*core.Section
	for _, id := range ids {
		section, err := s.GetSection(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, section)
	}
	return result, nil
}

// ListSections returns every section ordered by ascending ID.
func (s *Store) ListSections(ctx context.Context) ([]*core.Section, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sectionColumns+` FROM sections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*core.Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, section)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountSections returns the number of stored sections.
func (s *Store) CountSections(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections`).Scan(&n)
	return n, err
}

// SaveCheckpoint stores a named checkpoint, replacing any previous one.
func (s *Store) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := core.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO checkpoints(name, encoder_version, dimension, sections, updated_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    encoder_version = excluded.encoder_version,
    dimension = excluded.dimension,
    sections = excluded.sections,
    updated_at = excluded.updated_at`,
		checkpoint.Name, checkpoint.EncoderVersion, checkpoint.Dimension, checkpoint.Sections, checkpoint.UpdatedAt.UnixMicro())
	return err
}

// LoadCheckpoint retrieves a named checkpoint. Returns nil, nil if absent.
func (s *Store) LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error) {
	var (
		checkpoint core.Checkpoint
		updated    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, encoder_version, dimension, sections, updated_at FROM checkpoints WHERE name = ?`, name).
		Scan(&checkpoint.Name, &checkpoint.EncoderVersion, &checkpoint.Dimension, &checkpoint.Sections, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	checkpoint.UpdatedAt = fromMicros(updated)
	return &checkpoint, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSection(row scanner) (*core.Section, error) {
	var (
		section            core.Section
		id                 int64
		blob               []byte
		inserted, modified int64
	)
	if err := row.Scan(&id, &section.SectionNo, &section.Title, &section.Description, &section.Punishment,
		&blob, &inserted, &modified); err != nil {
		return nil, err
	}
	vec, err := storage.DecodeVector(blob)
	if err != nil {
		return nil, err
	}
	section.Id = core.ID(id)
	section.Vector = vec
	section.InsertedAt = fromMicros(inserted)
	section.UpdatedAt = fromMicros(modified)
	return &section, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func fromMicros(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
