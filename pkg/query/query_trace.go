package query

import (
	"sort"
	"sync"

	"github.com/madewith/chatbot/backend/pkg/logger"
)

type TraceEventKind string

const (
	TraceEventExtractedTerms  TraceEventKind = "extracted_terms"
	TraceEventQueriedTerms    TraceEventKind = "queried_terms"
	TraceEventSkippedTerms    TraceEventKind = "skipped_terms"
	TraceEventUsedPassageIDs  TraceEventKind = "used_passage_ids"
	TraceEventGraphFactsCount TraceEventKind = "graph_facts_count"
)

// TraceEvent is an extensible event envelope for retrieval tracing.
// Additive changes to this struct are backward compatible for implementers.
type TraceEvent struct {
	Kind TraceEventKind

	Terms      []string
	PassageIDs []string
	Count      int
}

// Tracer is a sink for retrieval tracing events.
//
// Implementers can forward events to logs or collect them for debugging.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordExtractedTerms(t Tracer, terms ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventExtractedTerms, Terms: terms})
}

func RecordQueriedTerms(t Tracer, terms ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventQueriedTerms, Terms: terms})
}

func RecordSkippedTerms(t Tracer, terms ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventSkippedTerms, Terms: terms})
}

func RecordUsedPassageIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventUsedPassageIDs, PassageIDs: ids})
}

func RecordGraphFactsCount(t Tracer, n int) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventGraphFactsCount, Count: n})
}

// QueryTrace collects what one retrieval run looked at.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	extractedTerms []string
	queriedTerms   map[string]struct{}
	skippedTerms   map[string]struct{}
	passageIDs     map[string]struct{}
	graphFacts     int
}

// LogTracer writes every event to the debug log.
type LogTracer struct{}

func (LogTracer) Record(event TraceEvent) {
	switch event.Kind {
	case TraceEventUsedPassageIDs:
		logger.Debug("[Query] Trace", "kind", event.Kind, "passage_ids", event.PassageIDs)
	case TraceEventGraphFactsCount:
		logger.Debug("[Query] Trace", "kind", event.Kind, "count", event.Count)
	default:
		logger.Debug("[Query] Trace", "kind", event.Kind, "terms", event.Terms)
	}
}

type QueryTraceSnapshot struct {
	ExtractedTerms []string
	QueriedTerms   []string
	SkippedTerms   []string
	PassageIDs     []string
	GraphFacts     int
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{
		queriedTerms: make(map[string]struct{}),
		skippedTerms: make(map[string]struct{}),
		passageIDs:   make(map[string]struct{}),
	}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventExtractedTerms:
		t.extractedTerms = append(t.extractedTerms, event.Terms...)
	case TraceEventQueriedTerms:
		addAll(t.queriedTerms, event.Terms)
	case TraceEventSkippedTerms:
		addAll(t.skippedTerms, event.Terms)
	case TraceEventUsedPassageIDs:
		addAll(t.passageIDs, event.PassageIDs)
	case TraceEventGraphFactsCount:
		t.graphFacts += event.Count
	default:
		return
	}
}

func addAll(set map[string]struct{}, values []string) {
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return QueryTraceSnapshot{
		ExtractedTerms: append([]string(nil), t.extractedTerms...),
		QueriedTerms:   sortedKeys(t.queriedTerms),
		SkippedTerms:   sortedKeys(t.skippedTerms),
		PassageIDs:     sortedKeys(t.passageIDs),
		GraphFacts:     t.graphFacts,
	}
}
