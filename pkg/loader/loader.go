package loader

import (
	"context"
	"path"
	"strings"
)

type SourceType string

const (
	SourceTypeText     SourceType = "text"
	SourceTypeMarkdown SourceType = "markdown"
	SourceTypeHTML     SourceType = "html"
)

// SourceFile is one piece of scraped site content that the indexer turns
// into passages. Path is a local path, an S3 key or an http(s) URL,
// depending on the Loader.
//
// The actual content is retrieved via the associated FileLoader.
type SourceFile struct {
	ID     string
	Path   string
	Type   SourceType
	Loader FileLoader
}

// NewSourceFileParams defines the input for NewSourceFile. Type is detected
// from the path when empty.
type NewSourceFileParams struct {
	ID     string
	Path   string
	Type   SourceType
	Loader FileLoader
}

// NewSourceFile creates a SourceFile, detecting its type from the path when
// none is given.
func NewSourceFile(params NewSourceFileParams) SourceFile {
	fileType := params.Type
	if fileType == "" {
		fileType = DetectSourceType(params.Path)
	}

	return SourceFile{
		ID:     params.ID,
		Path:   params.Path,
		Type:   fileType,
		Loader: params.Loader,
	}
}

// DetectSourceType maps a path or URL to a SourceType. URLs without a file
// extension are treated as HTML pages.
func DetectSourceType(p string) SourceType {
	lower := strings.ToLower(p)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}

	switch path.Ext(lower) {
	case ".html", ".htm":
		return SourceTypeHTML
	case ".md", ".markdown":
		return SourceTypeMarkdown
	case "":
		if IsURL(p) {
			return SourceTypeHTML
		}
	}
	return SourceTypeText
}

// IsURL reports whether p is an http or https URL.
func IsURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// GetText retrieves the text content of the file using its Loader.
//
// Example:
//
//	text, err := file.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(text))
func (f *SourceFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// FileLoader loads the contents of a SourceFile. Implementations may load
// files from disk, object storage or the web.
type FileLoader interface {
	GetFileText(ctx context.Context, file SourceFile) ([]byte, error)
}
