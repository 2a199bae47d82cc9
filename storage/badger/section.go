package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
)

// SectionRepository implements storage.SectionRepository for BadgerDB.
type SectionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.SectionRepository = (*SectionRepository)(nil)

// NewSectionRepository creates a new SectionRepository.
func NewSectionRepository(backend *Backend) (*SectionRepository, error) {
	idSeq, err := backend.GetSequence(sectionIDSeq)
	if err != nil {
		return nil, err
	}

	return &SectionRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *SectionRepository) Close() error {
	return r.idSeq.Release()
}

// AddSections adds one or more sections to storage.
func (r *SectionRepository) AddSections(ctx context.Context, sections ...*core.Section) ([]*core.Section, error) {
	for _, section := range sections {
		if err := core.ValidateSection(section); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, section := range sections {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			section.Id = core.ID(nextID)

			section.InsertedAt = time.Now().UTC().Truncate(time.Microsecond)
			section.UpdatedAt = section.InsertedAt

			if err := tx.Set(makeSectionKey(section.Id), storage.MarshalSection(section)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return sections, nil
}

// UpdateSections updates existing sections.
func (r *SectionRepository) UpdateSections(ctx context.Context, sections ...*core.Section) ([]*core.Section, error) {
	for _, section := range sections {
		if err := core.ValidateSection(section); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, section := range sections {
			key := makeSectionKey(section.Id)

			old, err := r.readSection(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			section.InsertedAt = old.InsertedAt
			section.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

			if err := tx.Set(key, storage.MarshalSection(section)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return sections, nil
}

// SetVector persists the embedding of a single section.
func (r *SectionRepository) SetVector(ctx context.Context, id core.ID, vector core.Embedding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSectionKey(id)
		section, err := r.readSection(tx, key)
		if err != nil {
			return err
		}
		if section == nil {
			return storage.ErrNotFound
		}

		section.Vector = vector.Clone()
		section.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		if err := tx.Set(key, storage.MarshalSection(section)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteSections removes sections by their IDs.
func (r *SectionRepository) DeleteSections(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeSectionKey(id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetSection retrieves a single section by ID.
func (r *SectionRepository) GetSection(ctx context.Context, id core.ID) (*core.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result *core.Section
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readSection(tx, makeSectionKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSections retrieves multiple sections by their IDs.
func (r *SectionRepository) GetSections(ctx context.Context, ids ...core.ID) ([]*core.Section, error) {
	var result []*core.Section
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			section, err := r.readSection(tx, makeSectionKey(id))
			if err != nil {
				return err
			}
			if section != nil {
				result = append(result, section)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListSections returns every section ordered by ascending ID.
func (r *SectionRepository) ListSections(ctx context.Context) ([]*core.Section, error) {
	var results []*core.Section
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sectionPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if _, ok := sectionIDFromKey(item.Key()); !ok {
				continue
			}

			var section *core.Section
			if err := item.Value(func(val []byte) error {
				var err error
				section, err = storage.UnmarshalSection(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, section)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CountSections returns the number of stored sections.
func (r *SectionRepository) CountSections(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sectionPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if _, ok := sectionIDFromKey(iter.Item().Key()); ok {
				count++
			}
		}
		return nil
	}, false)
	return count, err
}

// readSection reads and unmarshals the section at key.
// Returns nil, nil if the key does not exist.
func (r *SectionRepository) readSection(tx *badger.Txn, key []byte) (*core.Section, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var section *core.Section
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		section, unmarshalErr = storage.UnmarshalSection(val)
		return unmarshalErr
	})
	return section, err
}
