package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"storygenie/internal/domain/story"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, at time.Time) story.Record {
	return story.Record{
		ID:        id,
		Character: "Luna",
		Category:  "Space Story",
		AgeGroup:  "Kids",
		Language:  story.Hindi,
		Text:      "लूना चाँद पर गई। Luna went to the moon.",
		Images:    []string{"https://image.example/prompt/a", "https://image.example/prompt/b", "https://image.example/prompt/c"},
		CreatedAt: at,
	}
}

func TestSaveThenLoadReturnsNewestFirst(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	base := time.Date(2026, 10, 19, 20, 30, 0, 123456789, time.UTC)

	first := record("one", base)
	second := record("two", base.Add(time.Minute))
	second.Images = nil

	require.NoError(t, fs.Save(first))
	require.NoError(t, fs.Save(second))

	got, err := fs.LoadAll()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Empty(t, got[0].Images)
	assert.Equal(t, first, got[1])
}

func TestSaveRoundTripPreservesFields(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	rec := record("round-trip", time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC))

	require.NoError(t, fs.Save(rec))

	got, err := fs.LoadAll()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, rec, got[0])
}

func TestLoadAllMissingFileIsEmpty(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nested", "dir"))

	got, err := fs.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClearAll(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	require.NoError(t, fs.Save(record("one", time.Now().UTC())))

	require.NoError(t, fs.ClearAll())
	got, err := fs.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, got)

	// clearing twice is fine
	assert.NoError(t, fs.ClearAll())
}

func TestSaveWriteFailureKeepsCollection(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	rec := record("keep", time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC))
	require.NoError(t, fs.Save(rec))

	// a directory in place of the temp file makes the write fail
	require.NoError(t, os.Mkdir(fs.Path()+".tmp", 0755))

	err := fs.Save(record("lost", time.Now().UTC()))
	assert.True(t, errors.Is(err, story.ErrPersist), "got %v", err)

	got, err := fs.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []story.Record{rec}, got)
}

func TestCorruptFileIsPersistError(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	require.NoError(t, os.WriteFile(fs.Path(), []byte("{not json"), 0644))

	_, err := fs.LoadAll()
	assert.Equal(t, story.PersistError, story.KindOf(err))

	err = fs.Save(record("x", time.Now().UTC()))
	assert.Equal(t, story.PersistError, story.KindOf(err))

	data, readErr := os.ReadFile(fs.Path())
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(data))
}

func TestFind(t *testing.T) {
	fs := NewFileStore(t.TempDir())
	for i := 0; i < 3; i++ {
		require.NoError(t, fs.Save(record(fmt.Sprintf("id-%d", i), time.Now().UTC())))
	}

	rec, ok, err := fs.Find("id-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "id-1", rec.ID)

	_, ok, err = fs.Find("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShelfNewestFirstDoesNotMutate(t *testing.T) {
	shelf := Shelf{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := shelf.NewestFirst()

	assert.Equal(t, []string{"c", "b", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "a", shelf[0].ID)
}
