package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/madewith/chatbot/backend/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOFileLoader(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "aero.txt")
	require.NoError(t, os.WriteFile(p, []byte("Aero is a bubbly chocolate bar."), 0o600))

	l := NewIOFileLoader()
	file := loader.NewSourceFile(loader.NewSourceFileParams{ID: "aero", Path: p, Loader: l})

	got, err := file.GetText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Aero is a bubbly chocolate bar.", string(got))

	require.NoError(t, os.Remove(p))
	cached, err := file.GetText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, cached)
}

func TestIOFileLoaderMissingFile(t *testing.T) {
	l := NewIOFileLoader()
	_, err := l.GetFileText(context.Background(), loader.SourceFile{ID: "x", Path: filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err)
}
