package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSourceType(t *testing.T) {
	tests := []struct {
		path string
		want SourceType
	}{
		{"site/products/aero.html", SourceTypeHTML},
		{"site/products/AERO.HTM", SourceTypeHTML},
		{"notes/recipes.md", SourceTypeMarkdown},
		{"notes/recipes.txt", SourceTypeText},
		{"scraped/kitkat", SourceTypeText},
		{"https://www.madewithnestle.ca/aero", SourceTypeHTML},
		{"https://www.madewithnestle.ca/robots.txt?x=1", SourceTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSourceType(tt.path))
		})
	}
}

func TestCacheLoad(t *testing.T) {
	c := NewCache()
	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte("content"), nil
	}

	first, err := c.Load("a", load)
	require.NoError(t, err)
	second, err := c.Load("a", load)
	require.NoError(t, err)

	assert.Equal(t, "content", string(first))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheLoadDoesNotCacheErrors(t *testing.T) {
	c := NewCache()
	calls := 0

	_, err := c.Load("a", func() ([]byte, error) {
		calls++
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	got, err := c.Load("a", func() ([]byte, error) {
		calls++
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))
	assert.Equal(t, 2, calls)
}
