package plugin

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest(id string) Manifest {
	return Manifest{
		ID:          id,
		Name:        id,
		Version:     "1.2.3",
		Category:    "search",
		Source:      Source{Type: SourceNPM, URL: "mcp-" + id},
		Runtime:     RuntimeNode,
		Entry:       "npx",
		Args:        []string{"-y", "mcp-" + id},
		Env:         map[string]string{"API_KEY": "k"},
		Status:      StatusInstalled,
		InstalledAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Save(ctx, sampleManifest("b")))
	require.NoError(t, s.Save(ctx, sampleManifest("a")))

	updated := sampleManifest("a")
	updated.Status = StatusError
	updated.Error = "spawn failed"
	require.NoError(t, s.Save(ctx, updated))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, StatusError, got[0].Status)
	assert.Equal(t, "spawn failed", got[0].Error)
	assert.Equal(t, sampleManifest("b"), got[1])

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "missing"))

	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestSQLiteStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "plugins.db")

	s, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleManifest("memory")))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sampleManifest("memory"), got[0])
}
