package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"podcast-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultStoreSaveAndLoad(t *testing.T) {
	store, err := NewResultStore(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	day := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	result := &models.RunResult{
		RunID:          "run-1",
		Success:        true,
		NotebookURL:    "https://notebooklm.google.com/notebook/abc",
		SourcesAdded:   3,
		SourcesOutcome: models.SourcesConfirmed,
		AudioGenerated: true,
	}

	path, err := store.SaveResult(result, day)
	require.NoError(t, err)
	assert.Equal(t, "result_20260314.json", filepath.Base(path))

	loaded, err := store.LoadResult(day)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.SourcesAdded)
	assert.True(t, loaded.Success)
	assert.Equal(t, models.SourcesConfirmed, loaded.SourcesOutcome)
}

func TestResultStoreOverwritesSameDay(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	_, err = store.SaveResult(&models.RunResult{SourcesAdded: 1}, day)
	require.NoError(t, err)
	_, err = store.SaveResult(&models.RunResult{SourcesAdded: 5}, day)
	require.NoError(t, err)

	loaded, err := store.LoadResult(day)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.SourcesAdded)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".tmp", filepath.Ext(e.Name()), "temp file left behind: %s", e.Name())
	}
}

func TestResultStoreNilResult(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.SaveResult(nil, time.Now())
	assert.Error(t, err)
}

func TestResultDays(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	for _, d := range []int{3, 1, 2} {
		_, err := store.SaveResult(&models.RunResult{}, time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "result_garbage.json"), []byte("{}"), 0644))

	days, err := store.ResultDays()
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, 3, days[0].Day())
	assert.Equal(t, 1, days[2].Day())
}

func TestRecentResults(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	for d := 1; d <= 4; d++ {
		_, err := store.SaveResult(&models.RunResult{RunID: time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC).Format("0102")}, time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "result_20260105.json"), []byte("{broken"), 0644))

	results, err := store.RecentResults(3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "0104", results[0].RunID)
	assert.Equal(t, "0102", results[2].RunID)

	all, err := store.RecentResults(0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSaveAndLoadVideos(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	published := time.Date(2026, 3, 14, 1, 2, 3, 0, time.UTC)
	videos := []models.VideoRecord{
		{Title: "첫 번째", URL: "https://www.youtube.com/watch?v=a", VideoID: "a", Published: published, Channel: "One"},
		{Title: "Second", URL: "https://www.youtube.com/watch?v=b", VideoID: "b", Published: published, Channel: "Two"},
	}

	path, err := store.SaveVideos(videos)
	require.NoError(t, err)

	loaded, err := LoadVideos(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "첫 번째", loaded[0].Title)
	assert.True(t, loaded[0].Published.Equal(published))
}

func TestSaveVideosEmptyWritesArray(t *testing.T) {
	store, err := NewResultStore(t.TempDir())
	require.NoError(t, err)
	path, err := store.SaveVideos(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestLoadVideosMissingFile(t *testing.T) {
	videos, err := LoadVideos(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Empty(t, videos)
}
