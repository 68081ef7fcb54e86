package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/repoqa/internal/ingest"
)

func TestMetaStoreRoundTrip(t *testing.T) {
	meta, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	record := &Record{
		RepoName:    "example",
		Collection:  "example",
		TotalFiles:  3,
		TotalChunks: 12,
		RepoInfo: &ingest.RepoInfo{
			FullName: "alice/example",
			Language: "Go",
			Stars:    42,
		},
		IndexedAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, meta.Save(record))

	loaded, err := meta.Load("example")
	require.NoError(t, err)
	assert.Equal(t, record.TotalChunks, loaded.TotalChunks)
	require.NotNil(t, loaded.RepoInfo)
	assert.Equal(t, "alice/example", loaded.RepoInfo.FullName)
	assert.Equal(t, record.IndexedAt, loaded.IndexedAt)
}

func TestMetaStoreLoadMissing(t *testing.T) {
	meta, err := NewMetaStore(t.TempDir())
	require.NoError(t, err)

	_, err = meta.Load("ghost")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMetaStoreListSkipsStrayFiles(t *testing.T) {
	dir := t.TempDir()
	meta, err := NewMetaStore(dir)
	require.NoError(t, err)

	require.NoError(t, meta.Save(&Record{RepoName: "kept", Collection: "kept"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	records, err := meta.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Collection)
}
