// Package storagetest holds behaviour tests shared by every storage driver.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/poiesic/nyaya/core"
	"github.com/poiesic/nyaya/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens fresh, empty repositories. The returned cleanup closes them.
type Factory func(t *testing.T) (storage.SectionRepository, storage.CheckpointRepository, func())

// RunSectionRepositoryTests exercises the storage.SectionRepository contract.
func RunSectionRepositoryTests(t *testing.T, open Factory) {
	t.Run("add assigns increasing non-zero ids", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		added, err := repo.AddSections(ctx, fixture("303", "Theft"), fixture("101", "Murder"))
		require.NoError(t, err)
		require.Len(t, added, 2)
		assert.NotZero(t, added[0].Id)
		assert.Greater(t, added[1].Id, added[0].Id)
		assert.False(t, added[0].InsertedAt.IsZero())
		assert.Equal(t, added[0].InsertedAt, added[0].UpdatedAt)
	})

	t.Run("add rejects invalid sections", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()

		_, err := repo.AddSections(context.Background(), &core.Section{Title: "no number"})
		assert.ErrorIs(t, err, core.ErrInvalidSection)

		count, err := repo.CountSections(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("get returns stored fields", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		s := fixture("318", "Cheating")
		s.Description = "Whoever, by deceiving any person"
		s.Punishment = "Imprisonment up to seven years"
		added, err := repo.AddSections(ctx, s)
		require.NoError(t, err)

		got, err := repo.GetSection(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "318", got.SectionNo)
		assert.Equal(t, "Cheating", got.Title)
		assert.Equal(t, "Whoever, by deceiving any person", got.Description)
		assert.Equal(t, "Imprisonment up to seven years", got.Punishment)
		assert.Nil(t, got.Vector)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()

		_, err := repo.GetSection(context.Background(), core.ID(999))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("get sections skips missing", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		added, err := repo.AddSections(ctx, fixture("1", "A"), fixture("2", "B"))
		require.NoError(t, err)

		got, err := repo.GetSections(ctx, added[0].Id, core.ID(12345), added[1].Id)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "A", got[0].Title)
		assert.Equal(t, "B", got[1].Title)
	})

	t.Run("set vector round trips losslessly", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		added, err := repo.AddSections(ctx, fixture("303", "Theft"))
		require.NoError(t, err)

		vec := core.Embedding{2, 101, 0.5, -3.25, 0, 0}
		require.NoError(t, repo.SetVector(ctx, added[0].Id, vec))

		got, err := repo.GetSection(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, vec, got.Vector)
		assert.Equal(t, "Theft", got.Title)
	})

	t.Run("set vector on missing section", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()

		err := repo.SetVector(context.Background(), core.ID(77), core.Embedding{1})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update keeps insertion time", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		added, err := repo.AddSections(ctx, fixture("64", "Rape"))
		require.NoError(t, err)
		inserted := added[0].InsertedAt

		updated := *added[0]
		updated.Punishment = "Rigorous imprisonment"
		_, err = repo.UpdateSections(ctx, &updated)
		require.NoError(t, err)

		got, err := repo.GetSection(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "Rigorous imprisonment", got.Punishment)
		assert.True(t, inserted.Equal(got.InsertedAt))
	})

	t.Run("update missing section", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()

		s := fixture("1", "Ghost")
		s.Id = 4242
		_, err := repo.UpdateSections(context.Background(), s)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("delete removes and ids are not reused", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		added, err := repo.AddSections(ctx, fixture("1", "A"), fixture("2", "B"))
		require.NoError(t, err)
		require.NoError(t, repo.DeleteSections(ctx, added[1].Id))

		_, err = repo.GetSection(ctx, added[1].Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		again, err := repo.AddSections(ctx, fixture("3", "C"))
		require.NoError(t, err)
		assert.Greater(t, again[0].Id, added[1].Id)

		assert.ErrorIs(t, repo.DeleteSections(ctx, added[1].Id), storage.ErrNotFound)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		for _, title := range []string{"Theft", "Murder", "Assault", "Forgery", "Theft of vehicle"} {
			_, err := repo.AddSections(ctx, fixture("x", title))
			require.NoError(t, err)
		}

		all, err := repo.ListSections(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].Id, all[i].Id)
		}
		assert.Equal(t, "Theft", all[0].Title)
		assert.Equal(t, "Theft of vehicle", all[4].Title)

		count, err := repo.CountSections(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("empty repository", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		all, err := repo.ListSections(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		count, err := repo.CountSections(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("concurrent vector writes", func(t *testing.T) {
		repo, _, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		sections := make([]*core.Section, 20)
		for i := range sections {
			sections[i] = fixture("n", "Section")
		}
		added, err := repo.AddSections(ctx, sections...)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, len(added))
		for i, s := range added {
			wg.Add(1)
			go func(id core.ID, v float32) {
				defer wg.Done()
				errs <- repo.SetVector(ctx, id, core.Embedding{v, v + 1})
			}(s.Id, float32(i))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		all, err := repo.ListSections(ctx)
		require.NoError(t, err)
		for _, s := range all {
			assert.Len(t, s.Vector, 2)
		}
	})
}

// RunCheckpointRepositoryTests exercises the storage.CheckpointRepository contract.
func RunCheckpointRepositoryTests(t *testing.T, open Factory) {
	t.Run("missing checkpoint", func(t *testing.T) {
		_, checkpoints, cleanup := open(t)
		defer cleanup()

		got, err := checkpoints.LoadCheckpoint(context.Background(), core.VectorCheckpoint)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("save and overwrite", func(t *testing.T) {
		_, checkpoints, cleanup := open(t)
		defer cleanup()
		ctx := context.Background()

		first := &core.Checkpoint{Name: core.VectorCheckpoint, EncoderVersion: "v1/d128", Dimension: 128, Sections: 3}
		require.NoError(t, checkpoints.SaveCheckpoint(ctx, first))
		assert.False(t, first.UpdatedAt.IsZero())

		second := &core.Checkpoint{Name: core.VectorCheckpoint, EncoderVersion: "v2/d64", Dimension: 64, Sections: 5}
		require.NoError(t, checkpoints.SaveCheckpoint(ctx, second))

		got, err := checkpoints.LoadCheckpoint(ctx, core.VectorCheckpoint)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "v2/d64", got.EncoderVersion)
		assert.Equal(t, 64, got.Dimension)
		assert.Equal(t, 5, got.Sections)
	})

	t.Run("invalid checkpoint", func(t *testing.T) {
		_, checkpoints, cleanup := open(t)
		defer cleanup()

		err := checkpoints.SaveCheckpoint(context.Background(), &core.Checkpoint{})
		assert.ErrorIs(t, err, core.ErrInvalidCheckpoint)
	})
}

func fixture(no, title string) *core.Section {
	return &core.Section{SectionNo: no, Title: title}
}
