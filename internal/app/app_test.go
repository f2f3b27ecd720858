package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/madewith/chatbot/backend/pkg/ai"
	oai "github.com/madewith/chatbot/backend/pkg/ai/ollama"
	gai "github.com/madewith/chatbot/backend/pkg/ai/openai"
	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/graph"
	"github.com/madewith/chatbot/backend/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "CORS_ORIGINS", "AI_ADAPTER", "AI_CHAT_MODEL", "AI_EMBED_DIM",
		"RETRIEVAL_TOP_K", "PLACES_CACHE_TTL", "INGEST_MODE", "MIGRATIONS_PATH",
		"GRAPH_NODE_LIMIT", "PLACES_RADIUS", "PLACES_MAX_RESULTS",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, AdapterOpenAI, cfg.AIAdapter)
	assert.Equal(t, IngestModeSync, cfg.IngestMode)
	assert.Equal(t, "file://migrations", cfg.MigrationsPath)
	assert.Equal(t, time.Hour, cfg.PlacesCacheTTL)
	assert.Equal(t, 1536, cfg.EmbedDim)
	assert.Equal(t, 7, cfg.GraphNodeLimit)
	assert.Equal(t, 10500, cfg.PlacesRadius)
	assert.Equal(t, 4, cfg.PlacesMaxResults)
	assert.NoError(t, Config{
		AIAdapter:   cfg.AIAdapter,
		IngestMode:  cfg.IngestMode,
		EmbedDim:    cfg.EmbedDim,
		DatabaseURL: "postgres://localhost/chat",
	}.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://www.madewithnestle.ca, http://localhost:3000")
	t.Setenv("AI_ADAPTER", "azure")
	t.Setenv("AI_EMBED_DIM", "768")
	t.Setenv("GRAPH_NODE_LIMIT", "3")
	t.Setenv("PLACES_RADIUS", "5000")
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("PLACES_CACHE_TTL", "60")
	t.Setenv("INGEST_MODE", "queue")
	t.Setenv("DEBUG", "true")

	cfg := LoadConfig()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://www.madewithnestle.ca", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, AdapterAzure, cfg.AIAdapter)
	assert.Equal(t, 768, cfg.EmbedDim)
	assert.Equal(t, 3, cfg.GraphNodeLimit)
	assert.Equal(t, 5000, cfg.PlacesRadius)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, time.Minute, cfg.PlacesCacheTTL)
	assert.Equal(t, IngestModeQueue, cfg.IngestMode)
	assert.True(t, cfg.Debug)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		AIAdapter:   AdapterOpenAI,
		IngestMode:  IngestModeSync,
		EmbedDim:    1536,
		DatabaseURL: "postgres://localhost/chat",
	}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"embed dim":   func(c *Config) { c.EmbedDim = 768 },
		"adapter":     func(c *Config) { c.AIAdapter = "bedrock" },
		"ingest mode": func(c *Config) { c.IngestMode = "async" },
		"azure url":   func(c *Config) { c.AIAdapter = AdapterAzure },
		"database":    func(c *Config) { c.DatabaseURL = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewAIClient(t *testing.T) {
	client, err := NewAIClient(Config{AIAdapter: AdapterOpenAI, ChatKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &gai.GraphOpenAIClient{}, client)

	client, err = NewAIClient(Config{AIAdapter: AdapterOllama, ChatURL: "http://ollama:11434"})
	require.NoError(t, err)
	assert.IsType(t, &oai.GraphOllamaClient{}, client)

	_, err = NewAIClient(Config{AIAdapter: "bedrock"})
	assert.Error(t, err)
}

type scriptedAI struct {
	mu      sync.Mutex
	intent  string
	answer  string
	prompts []string
}

func (s *scriptedAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.answer, nil
}

func (s *scriptedAI) GenerateCompletionWithFormat(ctx context.Context, name string, description string, prompt string, out any, opts ...ai.GenerateOption) error {
	var raw string
	switch name {
	case "location_intent":
		raw = s.intent
	case "entities":
		raw = `{"link": ["Aero"]}`
	case "knowledge_graph":
		raw = `{"nodes": [{"id": "Aero", "type": "Product"}], "relationships": []}`
	}
	return json.Unmarshal([]byte(raw), out)
}

func (s *scriptedAI) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *scriptedAI) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (s *scriptedAI) ResetMetrics()               {}
func (s *scriptedAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

type memoryGraph struct {
	mu     sync.Mutex
	merged []common.GraphDocument
	limits []int
}

func (m *memoryGraph) FuzzyQuery(ctx context.Context, index string, query string, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	return []string{"Aero - CONTAINS -> Milk Chocolate"}, nil
}

func (m *memoryGraph) MergeDocuments(ctx context.Context, docs []common.GraphDocument, opts store.MergeOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merged = append(m.merged, docs...)
	return nil
}

type memoryVectors struct {
	added []common.Passage
}

func (m *memoryVectors) SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]common.Passage, error) {
	return []common.Passage{{ID: "p1", Text: "Aero bars are bubbly."}}, nil
}

func (m *memoryVectors) AddPassages(ctx context.Context, passages []common.Passage, embeddings [][]float32) error {
	m.added = append(m.added, passages...)
	return nil
}

type noPlaces struct {
	calls int
	radii []int
}

func (n *noPlaces) NearbySearch(ctx context.Context, keyword string, coord common.Coordinate, radiusMeters int) ([]common.Place, error) {
	n.calls++
	n.radii = append(n.radii, radiusMeters)
	return nil, nil
}

func newPipeline(aiClient *scriptedAI) (*memoryGraph, *memoryVectors, *noPlaces, func(context.Context, common.Question) (string, error)) {
	return newPipelineWithConfig(aiClient, Config{TopK: 4})
}

func newPipelineWithConfig(aiClient *scriptedAI, cfg Config) (*memoryGraph, *memoryVectors, *noPlaces, func(context.Context, common.Question) (string, error)) {
	graphStore := &memoryGraph{}
	vectors := &memoryVectors{}
	places := &noPlaces{}

	ingestor := graph.NewIngestor(graph.NewIngestorParams{
		Extractor: graph.NewGraphExtractor(aiClient, ""),
		Graph:     graphStore,
		Vectors:   vectors,
		Embedder:  aiClient,
	})

	svc := NewChatService(ChatServiceParams{
		Config:   cfg,
		AI:       aiClient,
		Graph:    graphStore,
		Vectors:  vectors,
		Places:   places,
		Ingester: ingestor,
	})
	return graphStore, vectors, places, svc.Handle
}

func TestChatServiceAnswersAndIngests(t *testing.T) {
	aiClient := &scriptedAI{
		intent: `{"is_location_query": false, "products": []}`,
		answer: "Hi Sam, Aero is made with milk chocolate.",
	}
	graphStore, vectors, places, handle := newPipeline(aiClient)

	got, err := handle(context.Background(), common.Question{Text: "What is Aero made of?", Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Sam, Aero is made with milk chocolate.", got)

	require.Len(t, aiClient.prompts, 1)
	prompt := aiClient.prompts[0]
	assert.Contains(t, prompt, "Graph data:\nAero - CONTAINS -> Milk Chocolate\n\nVector data:\nAero bars are bubbly.")
	assert.Contains(t, prompt, "Your name is Sam answer this question: What is Aero made of?")

	require.Len(t, graphStore.merged, 1)
	assert.Equal(t, "What is Aero made of?", graphStore.merged[0].Source.Text)
	require.Len(t, vectors.added, 1)
	assert.Equal(t, graph.SourceQuestion, vectors.added[0].Source)
	assert.Zero(t, places.calls)
}

func TestChatServiceLocationWithoutCoordinate(t *testing.T) {
	aiClient := &scriptedAI{intent: `{"is_location_query": true, "products": ["Nescafe Gold"]}`}
	graphStore, _, places, handle := newPipeline(aiClient)

	got, err := handle(context.Background(), common.Question{Text: "Where can I buy Nescafe Gold?", Name: "Sam"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "Please enable location services so I can find stores near you."))
	assert.Contains(t, got, "- Nescafe Gold: https://www.amazon.ca/s?k=Nescafe+Gold")
	assert.Zero(t, places.calls)
	assert.Empty(t, aiClient.prompts)
	assert.Empty(t, graphStore.merged)
}

func TestChatServiceDefaultsLimits(t *testing.T) {
	aiClient := &scriptedAI{
		intent: `{"is_location_query": false, "products": []}`,
		answer: "Aero is bubbly.",
	}
	graphStore, _, _, handle := newPipeline(aiClient)

	_, err := handle(context.Background(), common.Question{Text: "What is Aero?", Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, graphStore.limits)
}

func TestChatServiceUsesConfiguredLimits(t *testing.T) {
	cfg := Config{TopK: 4, GraphNodeLimit: 3, PlacesRadius: 5000}

	aiClient := &scriptedAI{
		intent: `{"is_location_query": false, "products": []}`,
		answer: "Aero is bubbly.",
	}
	graphStore, _, _, handle := newPipelineWithConfig(aiClient, cfg)
	_, err := handle(context.Background(), common.Question{Text: "What is Aero?", Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, graphStore.limits)

	aiClient = &scriptedAI{intent: `{"is_location_query": true, "products": ["KitKat"]}`}
	_, _, places, handle := newPipelineWithConfig(aiClient, cfg)
	got, err := handle(context.Background(), common.Question{
		Text:       "Where can I buy KitKat?",
		Name:       "Sam",
		Coordinate: &common.Coordinate{Lat: 43.65, Lng: -79.38},
	})
	require.NoError(t, err)
	assert.Contains(t, got, "No nearby places found for KitKat.")
	assert.Equal(t, []int{5000}, places.radii)
}
