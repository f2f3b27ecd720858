package query

import (
	"context"
	"errors"
	"strings"

	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/store"
)

// ErrEmptyTerm marks a term that had nothing left to search for after
// sanitizing.
var ErrEmptyTerm = errors.New("term is empty after sanitizing")

const (
	DefaultFulltextIndex = "fulltext_entity_id"
	DefaultNodeLimit     = 7
)

// TermResult is the outcome of looking up one reference term. Err is set
// when the term was skipped, either because it sanitized to nothing
// (ErrEmptyTerm) or because the graph query failed.
type TermResult struct {
	Term  string
	Facts []string
	Err   error
}

// GraphResult holds one TermResult per reference term, in input order.
type GraphResult struct {
	Terms []TermResult
}

// Facts returns the facts of all successful terms in order.
func (r GraphResult) Facts() []string {
	out := make([]string, 0)
	for _, t := range r.Terms {
		if t.Err != nil {
			continue
		}
		out = append(out, t.Facts...)
	}
	return out
}

// Text is the newline join of all facts.
func (r GraphResult) Text() string {
	return strings.Join(r.Facts(), "\n")
}

// GraphRetriever collects the graph neighbourhood of reference terms.
type GraphRetriever struct {
	storage store.GraphStorage
	index   string
	limit   int
	trace   Tracer
}

type GraphRetrieverOption func(*GraphRetriever)

// WithNodeLimit overrides how many index hits are expanded per term.
// Non-positive values keep the default.
func WithNodeLimit(limit int) GraphRetrieverOption {
	return func(g *GraphRetriever) {
		if limit > 0 {
			g.limit = limit
		}
	}
}

// WithGraphTracer records which terms were queried or skipped.
func WithGraphTracer(t Tracer) GraphRetrieverOption {
	return func(g *GraphRetriever) {
		g.trace = t
	}
}

func NewGraphRetriever(storage store.GraphStorage, opts ...GraphRetrieverOption) *GraphRetriever {
	g := &GraphRetriever{
		storage: storage,
		index:   DefaultFulltextIndex,
		limit:   DefaultNodeLimit,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// Retrieve looks up every term in order. A failing term is logged and
// skipped; it never aborts the remaining terms.
func (g *GraphRetriever) Retrieve(ctx context.Context, terms []string) GraphResult {
	result := GraphResult{Terms: make([]TermResult, 0, len(terms))}

	for _, term := range terms {
		sanitized := RemoveLuceneChars(term)
		if sanitized == "" {
			result.Terms = append(result.Terms, TermResult{Term: term, Err: ErrEmptyTerm})
			RecordSkippedTerms(g.trace, term)
			continue
		}

		facts, err := g.storage.FuzzyQuery(ctx, g.index, GenerateFullTextQuery(sanitized), g.limit)
		if err != nil {
			logger.Warn("[Query] Graph query failed", "term", term, "err", err)
			result.Terms = append(result.Terms, TermResult{Term: term, Err: err})
			RecordSkippedTerms(g.trace, term)
			continue
		}

		result.Terms = append(result.Terms, TermResult{Term: term, Facts: facts})
		RecordQueriedTerms(g.trace, term)
	}

	RecordGraphFactsCount(g.trace, len(result.Facts()))
	return result
}
