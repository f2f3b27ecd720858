package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/madewith/chatbot/backend/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
)

// WebLoader loads content from web URLs and extracts readable text.
// For HTML pages, it uses readability to extract the main content.
// Paths that are not URLs go to the fallback loader; HTML files loaded
// there are run through readability as well.
type WebLoader struct {
	fallback   loader.FileLoader
	httpClient *http.Client
	cache      *loader.Cache
}

// NewWebLoader creates a new web loader without a fallback loader.
func NewWebLoader() *WebLoader {
	return NewWebLoaderWithLoader(nil)
}

// NewWebLoaderWithLoader creates a web loader with a fallback for paths
// that are not URLs.
func NewWebLoaderWithLoader(fallback loader.FileLoader) *WebLoader {
	return &WebLoader{
		fallback:   fallback,
		httpClient: http.DefaultClient,
		cache:      loader.NewCache(),
	}
}

// GetFileText fetches a URL and extracts readable text content.
func (l *WebLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	if !loader.IsURL(file.Path) {
		if l.fallback == nil {
			return nil, fmt.Errorf("no loader for path %q", file.Path)
		}
		data, err := l.fallback.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}
		if file.Type != loader.SourceTypeHTML {
			return data, nil
		}
		return ReadableText(bytes.NewReader(data), nil)
	}

	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		return l.fetch(ctx, file.Path)
	})
}

func (l *WebLoader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return ReadableText(resp.Body, pageURL)
	}

	return io.ReadAll(resp.Body)
}

// ReadableText extracts the main article text of an HTML document.
// pageURL resolves relative links and may be nil.
func ReadableText(r io.Reader, pageURL *url.URL) ([]byte, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return nil, fmt.Errorf("failed to render article text: %w", err)
	}

	return []byte(strings.TrimSpace(builder.String())), nil
}
