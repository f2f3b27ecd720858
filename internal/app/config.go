package app

import (
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/locator"
	"github.com/madewith/chatbot/backend/pkg/query"
	pgxstore "github.com/madewith/chatbot/backend/pkg/store/pgx"
)

const (
	AdapterOpenAI = "openai"
	AdapterAzure  = "azure"
	AdapterOllama = "ollama"

	IngestModeSync  = "sync"
	IngestModeQueue = "queue"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port        string
	CORSOrigins []string
	Debug       bool

	AIAdapter    string
	ChatURL      string
	ChatKey      string
	ChatModel    string
	ExtractModel string
	EmbedURL     string
	EmbedKey     string
	EmbedModel   string
	EmbedDim     int
	APIVersion   string
	ParallelReq  int64
	TimeoutMin   int

	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	DatabaseURL    string
	MigrationsPath string

	TopK           int
	GraphNodeLimit int

	PlacesAPIKey   string
	PlacesBaseURL  string
	PlacesCacheTTL   time.Duration
	PlacesRadius     int
	PlacesMaxResults int
	RedisURL         string

	IngestMode string
}

// LoadConfig reads Config from the environment, applying defaults.
func LoadConfig() Config {
	return Config{
		Port:        util.GetEnvString("PORT", "8000"),
		CORSOrigins: util.GetEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		Debug:       util.GetEnvBool("DEBUG", false),

		AIAdapter:    util.GetEnvString("AI_ADAPTER", AdapterOpenAI),
		ChatURL:      util.GetEnv("AI_CHAT_URL"),
		ChatKey:      util.GetEnv("AI_CHAT_KEY"),
		ChatModel:    util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini"),
		ExtractModel: util.GetEnv("AI_EXTRACT_MODEL"),
		EmbedURL:     util.GetEnv("AI_EMBED_URL"),
		EmbedKey:     util.GetEnv("AI_EMBED_KEY"),
		EmbedModel:   util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small"),
		EmbedDim:     int(util.GetEnvNumeric("AI_EMBED_DIM", 1536)),
		APIVersion:   util.GetEnvString("AI_API_VERSION", "2024-06-01"),
		ParallelReq:  int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		TimeoutMin:   int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5)),

		Neo4jURI:      util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUsername: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase: util.GetEnv("NEO4J_DATABASE"),

		DatabaseURL:    util.GetEnv("DATABASE_URL"),
		MigrationsPath: util.GetEnvString("MIGRATIONS_PATH", "file://migrations"),

		TopK:           int(util.GetEnvNumeric("RETRIEVAL_TOP_K", 4)),
		GraphNodeLimit: int(util.GetEnvNumeric("GRAPH_NODE_LIMIT", query.DefaultNodeLimit)),

		PlacesAPIKey:   util.GetEnv("PLACES_API_KEY"),
		PlacesBaseURL:  util.GetEnv("PLACES_BASE_URL"),
		PlacesCacheTTL:   time.Duration(util.GetEnvNumeric("PLACES_CACHE_TTL", 3600)) * time.Second,
		PlacesRadius:     int(util.GetEnvNumeric("PLACES_RADIUS", locator.DefaultRadiusMeters)),
		PlacesMaxResults: int(util.GetEnvNumeric("PLACES_MAX_RESULTS", locator.DefaultMaxResults)),
		RedisURL:         util.GetEnv("REDIS_URL"),

		IngestMode: util.GetEnvString("INGEST_MODE", IngestModeSync),
	}
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	switch c.AIAdapter {
	case AdapterOpenAI, AdapterAzure, AdapterOllama:
	default:
		return fmt.Errorf("unknown AI_ADAPTER %q", c.AIAdapter)
	}

	switch c.IngestMode {
	case IngestModeSync, IngestModeQueue:
	default:
		return fmt.Errorf("unknown INGEST_MODE %q", c.IngestMode)
	}

	if c.AIAdapter == AdapterAzure && (c.ChatURL == "" || c.APIVersion == "") {
		return fmt.Errorf("azure adapter requires AI_CHAT_URL and AI_API_VERSION")
	}
	if c.EmbedDim != pgxstore.EmbeddingDimensions {
		return fmt.Errorf(
			"AI_EMBED_DIM is %d but the passages table stores %d-dimensional vectors",
			c.EmbedDim, pgxstore.EmbeddingDimensions,
		)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
