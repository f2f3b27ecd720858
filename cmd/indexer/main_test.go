package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/madewith/chatbot/backend/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string]string
	opened  int
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memoryStore) Loader() loader.FileLoader {
	return memoryLoader(m.objects)
}

type memoryLoader map[string]string

func (m memoryLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	text, ok := m[file.Path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(text), nil
}

type recordingIndexer struct {
	mu       sync.Mutex
	indexed  map[string]string
	ingested map[string]string
	failOn   string
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{indexed: map[string]string{}, ingested: map[string]string{}}
}

func (r *recordingIndexer) IndexText(ctx context.Context, text string, source string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if source == r.failOn {
		return 0, errors.New("embedding failed")
	}
	r.indexed[source] = text
	return 2, nil
}

func (r *recordingIndexer) IngestDocument(ctx context.Context, text string, source string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested[source] = text
	return 3, nil
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "brands"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brands", "aero.md"), []byte("# Aero\n\nBubbly milk chocolate."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kitkat.txt"), []byte("Have a break, have a KitKat."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 0x50}, 0o600))
	return dir
}

func TestResolveLocalDirectory(t *testing.T) {
	dir := writeSite(t)
	r := newSourceResolver(func(ctx context.Context) (objectStore, error) {
		t.Fatal("object store must not be opened")
		return nil, nil
	})

	files, err := r.Resolve(context.Background(), []string{dir, filepath.Join(dir, "kitkat.txt")})
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "brands", "aero.md"), files[0].Path)
	assert.Equal(t, loader.SourceTypeMarkdown, files[0].Type)
	assert.Equal(t, filepath.Join(dir, "kitkat.txt"), files[1].Path)
}

func TestResolveObjectStoreAndURL(t *testing.T) {
	store := &memoryStore{objects: map[string]string{
		"site/smarties.html": "<p>Smarties</p>",
		"site/banner.jpg":    "binary",
		"other/notes.txt":    "ignored",
	}}
	r := newSourceResolver(func(ctx context.Context) (objectStore, error) {
		store.opened++
		return store, nil
	})

	files, err := r.Resolve(context.Background(), []string{
		"s3://site/",
		"s3://site/",
		"https://www.madewithnestle.ca/aero",
	})
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	assert.Equal(t, []string{"https://www.madewithnestle.ca/aero", "site/smarties.html"}, paths)
	assert.Equal(t, 1, store.opened)
}

func TestResolveObjectStoreError(t *testing.T) {
	r := newSourceResolver(func(ctx context.Context) (objectStore, error) {
		return nil, errors.New("no credentials")
	})
	_, err := r.Resolve(context.Background(), []string{"s3://site/"})
	assert.ErrorContains(t, err, "no credentials")
}

func TestResolveMissingPath(t *testing.T) {
	r := newSourceResolver(nil)
	_, err := r.Resolve(context.Background(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestIndexFiles(t *testing.T) {
	dir := writeSite(t)
	files, err := newSourceResolver(nil).Resolve(context.Background(), []string{dir})
	require.NoError(t, err)

	idx := newRecordingIndexer()
	stats, err := indexFiles(context.Background(), idx, files, 2, false)
	require.NoError(t, err)

	assert.Equal(t, indexStats{Files: 2, Passages: 4}, stats)
	assert.Equal(t, "Have a break, have a KitKat.", idx.indexed[filepath.Join(dir, "kitkat.txt")])
	assert.Empty(t, idx.ingested)
}

func TestIndexFilesWithGraph(t *testing.T) {
	dir := writeSite(t)
	files, err := newSourceResolver(nil).Resolve(context.Background(), []string{dir})
	require.NoError(t, err)

	idx := newRecordingIndexer()
	stats, err := indexFiles(context.Background(), idx, files, 2, true)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Files)
	assert.Equal(t, int64(6), stats.Passages)
	assert.Len(t, idx.ingested, 2)
	assert.Empty(t, idx.indexed)
}

func TestIndexFilesCountsFailures(t *testing.T) {
	dir := writeSite(t)
	files, err := newSourceResolver(nil).Resolve(context.Background(), []string{dir})
	require.NoError(t, err)

	idx := newRecordingIndexer()
	idx.failOn = filepath.Join(dir, "kitkat.txt")

	stats, err := indexFiles(context.Background(), idx, files, 1, false)
	require.NoError(t, err)
	assert.Equal(t, indexStats{Files: 1, Passages: 2, Failed: 1}, stats)
}
