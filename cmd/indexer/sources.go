package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/madewith/chatbot/backend/internal/storage"
	"github.com/madewith/chatbot/backend/pkg/loader"
	ioloader "github.com/madewith/chatbot/backend/pkg/loader/io"
	s3loader "github.com/madewith/chatbot/backend/pkg/loader/s3"
	"github.com/madewith/chatbot/backend/pkg/loader/web"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

var indexedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// objectStore lists and reads scraped content from a bucket.
type objectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Loader() loader.FileLoader
}

type s3Store struct {
	client *s3.Client
	bucket string
}

func (s s3Store) List(ctx context.Context, prefix string) ([]string, error) {
	return storage.ListFilesWithPrefix(ctx, s.client, s.bucket, prefix)
}

func (s s3Store) Loader() loader.FileLoader {
	return s3loader.NewS3FileLoaderWithClient(s.bucket, s.client)
}

// sourceResolver turns command line arguments into SourceFiles. The
// object store is only connected when an s3:// argument is present.
type sourceResolver struct {
	local    loader.FileLoader
	openS3   func(ctx context.Context) (objectStore, error)
	s3Once   sync.Once
	s3       objectStore
	s3Err    error
	s3Loader loader.FileLoader
}

func newSourceResolver(openS3 func(ctx context.Context) (objectStore, error)) *sourceResolver {
	return &sourceResolver{
		local:  web.NewWebLoaderWithLoader(ioloader.NewIOFileLoader()),
		openS3: openS3,
	}
}

func (r *sourceResolver) objectStore(ctx context.Context) (objectStore, error) {
	r.s3Once.Do(func() {
		r.s3, r.s3Err = r.openS3(ctx)
		if r.s3Err == nil {
			r.s3Loader = web.NewWebLoaderWithLoader(r.s3.Loader())
		}
	})
	return r.s3, r.s3Err
}

// Resolve expands directories and S3 prefixes into files, keeping only
// indexable extensions there. URLs and explicit file paths are kept as given.
// The result is sorted by path and free of duplicates.
func (r *sourceResolver) Resolve(ctx context.Context, args []string) ([]loader.SourceFile, error) {
	seen := make(map[string]bool)
	files := make([]loader.SourceFile, 0, len(args))
	add := func(p string, l loader.FileLoader) {
		if seen[p] {
			return
		}
		seen[p] = true
		files = append(files, loader.NewSourceFile(loader.NewSourceFileParams{
			ID:     p,
			Path:   p,
			Loader: l,
		}))
	}

	for _, arg := range args {
		switch {
		case loader.IsURL(arg):
			add(arg, r.local)
		case strings.HasPrefix(arg, s3Scheme):
			store, err := r.objectStore(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to open object store: %w", err)
			}
			keys, err := store.List(ctx, strings.TrimPrefix(arg, s3Scheme))
			if err != nil {
				return nil, err
			}
			for _, key := range keys {
				if indexable(key) {
					add(key, r.s3Loader)
				}
			}
		default:
			paths, err := walkLocal(arg)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				add(p, r.local)
			}
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func walkLocal(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !indexable(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	return paths, err
}

func indexable(p string) bool {
	return indexedExtensions[strings.ToLower(filepath.Ext(p))]
}
