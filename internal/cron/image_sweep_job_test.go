package cron

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bazaar-backend/pkg/storage"
)

type staticIndex []string

func (s staticIndex) ImageURLs(context.Context) ([]string, error) { return s, nil }

func storeAged(t *testing.T, store *storage.LocalStore, name string, age time.Duration) string {
	t.Helper()
	url, err := store.Store(context.Background(), []byte("img"), name)
	require.NoError(t, err)
	file, ok := storage.NameFromURL(url)
	require.True(t, ok)
	stamp := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(filepath.Join(store.Dir(), file), stamp, stamp))
	return url
}

func TestOrphanImageSweepRemovesOnlyOldUnreferencedFiles(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	kept := storeAged(t, store, "kept.png", 48*time.Hour)
	orphan := storeAged(t, store, "orphan.png", 48*time.Hour)
	fresh := storeAged(t, store, "fresh.png", time.Minute)

	// the index may hold urls minted under another public origin
	keptName, _ := storage.NameFromURL(kept)
	job, err := NewOrphanImageSweepJob(OrphanImageSweepParams{
		Logger: testLogger(),
		Index:  staticIndex{"https://cdn.example.com/images/" + keptName},
		Files:  store,
		Grace:  24 * time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))

	for url, want := range map[string]bool{kept: true, orphan: false, fresh: true} {
		exists, err := store.Exists(ctx, url)
		require.NoError(t, err)
		require.Equal(t, want, exists, url)
	}
}
