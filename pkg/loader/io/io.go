package io

import (
	"context"
	"os"

	"github.com/madewith/chatbot/backend/pkg/loader"
)

// IOFileLoader loads files directly from the local filesystem with caching.
type IOFileLoader struct {
	cache *loader.Cache
}

// NewIOFileLoader creates a new filesystem-based file loader.
func NewIOFileLoader() *IOFileLoader {
	return &IOFileLoader{cache: loader.NewCache()}
}

// GetFileText reads the file content from the filesystem. Results are cached.
func (l *IOFileLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		return os.ReadFile(file.Path)
	})
}
