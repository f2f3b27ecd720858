package graph

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	ChunkSize    = 500
	ChunkOverlap = 100
)

// SplitText cuts text on blank lines into chunks of about ChunkSize
// characters that overlap by up to ChunkOverlap characters. A paragraph
// longer than ChunkSize stays a single chunk. Blank chunks are dropped.
func SplitText(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(ChunkSize),
		textsplitter.WithChunkOverlap(ChunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n"}),
	)

	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out, nil
}
