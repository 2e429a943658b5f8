package policy

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jonathan/bioquery/internal/schemas"
	"github.com/jonathan/bioquery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	store := newStore(t)
	entries := map[string]types.PolicyCodeEntry{
		"A072": pernis,
		"1166": triturus,
	}
	require.NoError(t, store.Save(Snapshot{Entries: entries, FetchedAt: time.Now()}))

	snap, err := store.Load(DefaultMaxAge)
	require.NoError(t, err)
	assert.Equal(t, entries, snap.Entries)
}

func TestFileStore_FileLayout(t *testing.T) {
	store := newStore(t)
	fetchedAt := time.Unix(1700000000, 0)
	require.NoError(t, store.Save(Snapshot{
		Entries:   map[string]types.PolicyCodeEntry{"A072": pernis},
		FetchedAt: fetchedAt,
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"codes": {
			"A072": {
				"natura2000": "A072",
				"scientific_name": "Pernis apivorus",
				"authorship": "(Linnaeus, 1758)",
				"eunis_url": "https://eunis.eea.europa.eu/species/1234"
			}
		},
		"timestamp": 1700000000
	}`, string(data))
}

func TestFileStore_LoadLegacyEntryWithoutCode(t *testing.T) {
	store := newStore(t)
	content := `{"codes": {"a072": {"scientific_name": "Pernis apivorus", "authorship": "", "eunis_url": ""}}, "timestamp": 2000000000}`
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0644))

	snap, err := store.Load(0)
	require.NoError(t, err)
	require.Contains(t, snap.Entries, "A072")
	assert.Equal(t, "A072", snap.Entries["A072"].Code)
}

func TestFileStore_LoadMissing(t *testing.T) {
	_, err := newStore(t).Load(DefaultMaxAge)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileStore_LoadStale(t *testing.T) {
	store := newStore(t)
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(Snapshot{
		Entries:   map[string]types.PolicyCodeEntry{"A072": pernis},
		FetchedAt: now.Add(-DefaultMaxAge - time.Second),
	}))

	_, err := store.Load(DefaultMaxAge)
	assert.ErrorIs(t, err, ErrStale)

	_, err = store.Load(0)
	assert.NoError(t, err, "zero max age disables the staleness check")
}

func TestFileStore_LoadSchemaMismatch(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"codes": {"A072": {"authorship": "x"}}, "timestamp": 1}`), 0644))

	_, err := store.Load(0)
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestFileStore_SaveEmptySnapshot(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(Snapshot{FetchedAt: time.Now()}))

	snap, err := store.Load(DefaultMaxAge)
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
}

func TestFileStore_RemoveMissingFile(t *testing.T) {
	assert.NoError(t, newStore(t).Remove())
}
