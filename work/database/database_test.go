package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tvrelay/work/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "tvrelay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSource(id string, created time.Time) *types.Source {
	return &types.Source{
		ID:   id,
		Name: "source " + id,
		URL:  "http://example.com/" + id + ".m3u",
		Channels: []types.Channel{
			types.NewChannel("CNN", "http://[2001:db8::1]/live.m3u8", "http://x/l.png", "News"),
			types.NewChannel("Plain", "https://example.com/plain.m3u8", "", ""),
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestSaveAndGetSource(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveSource(testSource("a", now)))

	got, err := db.GetSource("a")
	require.NoError(t, err)
	assert.Equal(t, "source a", got.Name)
	assert.True(t, now.Equal(got.CreatedAt))
	require.Len(t, got.Channels, 2)
	require.NotNil(t, got.Channels[0].Logo)
	assert.Equal(t, "http://x/l.png", *got.Channels[0].Logo)
	assert.Nil(t, got.Channels[1].Group)
}

func TestSaveSourceUpdatesExisting(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()

	src := testSource("a", now)
	require.NoError(t, db.SaveSource(src))

	src.Name = "renamed"
	src.Channels = src.Channels[:1]
	src.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, db.SaveSource(src))

	all, err := db.LoadSources()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "renamed", all[0].Name)
	assert.Len(t, all[0].Channels, 1)
}

func TestLoadSourcesOrdered(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveSource(testSource("late", base.Add(time.Second))))
	require.NoError(t, db.SaveSource(testSource("early", base.Add(500*time.Millisecond))))

	all, err := db.LoadSources()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "early", all[0].ID)
	assert.Equal(t, "late", all[1].ID)
}

func TestDeleteSource(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveSource(testSource("a", time.Now())))
	require.NoError(t, db.DeleteSource("a"))

	_, err := db.GetSource("a")
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.ErrorIs(t, db.DeleteSource("a"), ErrSourceNotFound)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tvrelay.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveSource(testSource("a", time.Now())))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	all, err := db.LoadSources()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
