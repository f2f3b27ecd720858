package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/madewith/chatbot/backend/internal/queue"
	"github.com/madewith/chatbot/backend/internal/util"
	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/chat"
	"github.com/madewith/chatbot/backend/pkg/graph"
	"github.com/madewith/chatbot/backend/pkg/intent"
	"github.com/madewith/chatbot/backend/pkg/leaselock"
	"github.com/madewith/chatbot/backend/pkg/locator"
	"github.com/madewith/chatbot/backend/pkg/logger"
	"github.com/madewith/chatbot/backend/pkg/query"
	"github.com/madewith/chatbot/backend/pkg/store"
	neo4jstore "github.com/madewith/chatbot/backend/pkg/store/neo4j"
	pgxstore "github.com/madewith/chatbot/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// Neo4j usually comes up after the backend in compose setups.
const neo4jConnectTries = 5

// App holds the process-wide components. It is built once at startup and
// torn down with Close.
type App struct {
	Config Config

	AI       ai.GraphAIClient
	Graph    *neo4jstore.GraphDBStorage
	DB       *pgxpool.Pool
	Vectors  *pgxstore.VectorDBStorage
	Locks    *leaselock.Locker
	Ingestor *graph.Ingestor

	Redis *redis.Client
	AMQP  *amqp091.Connection
	Queue *amqp091.Channel

	closers []func()
}

// New connects the model client, Neo4j and Postgres, applies migrations and
// builds the ingestion pipeline. Parts of a failed App are closed before
// the error is returned.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	aiClient, err := NewAIClient(cfg)
	if err != nil {
		return err
	}
	a.AI = aiClient

	graphStorage, err := neo4jstore.NewGraphDBStorage(ctx, neo4jstore.NewGraphDBStorageParams{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUsername,
		Password: cfg.Neo4jPassword,
		Database: cfg.Neo4jDatabase,
	})
	if err != nil {
		return err
	}
	a.Graph = graphStorage
	a.closers = append(a.closers, func() {
		if err := graphStorage.Close(context.Background()); err != nil {
			logger.Warn("Failed to close neo4j driver", "err", err)
		}
	})
	err = util.RetryErrWithContext(ctx, neo4jConnectTries, 2*time.Second, graphStorage.Ping)
	if err != nil {
		return fmt.Errorf("neo4j not reachable: %w", err)
	}
	if err := graphStorage.EnsureIndexes(ctx); err != nil {
		return err
	}

	if err := pgxstore.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		return err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = pool
	a.closers = append(a.closers, pool.Close)

	a.Vectors = pgxstore.NewVectorDBStorageWithConnection(pool)
	a.Locks = leaselock.New(pool)

	a.Ingestor = graph.NewIngestor(graph.NewIngestorParams{
		Extractor: graph.NewGraphExtractor(aiClient, cfg.ExtractModel),
		Graph:     graphStorage,
		Vectors:   a.Vectors,
		Embedder:  aiClient,

		ParallelAiRequests: int(cfg.ParallelReq),
	})

	return nil
}

// OpenQueue connects to RabbitMQ and declares the work queues.
func (a *App) OpenQueue() error {
	if a.Queue != nil {
		return nil
	}

	conn, err := amqp091.Dial(queue.ConnectionURL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	a.AMQP = conn
	a.closers = append(a.closers, func() { _ = conn.Close() })

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	a.Queue = ch
	a.closers = append(a.closers, func() { _ = ch.Close() })

	return queue.SetupQueues(ch, queue.Queues)
}

// PlacesClient returns the Google Places client, behind the Redis cache
// when REDIS_URL is set.
func (a *App) PlacesClient(ctx context.Context) (locator.PlacesClient, error) {
	var places locator.PlacesClient = locator.NewGooglePlacesClient(locator.NewGooglePlacesClientParams{
		BaseURL: a.Config.PlacesBaseURL,
		APIKey:  a.Config.PlacesAPIKey,
	})
	if a.Config.RedisURL == "" {
		return places, nil
	}

	opts, err := redis.ParseURL(a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	a.Redis = rdb
	a.closers = append(a.closers, func() { _ = rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not reachable, places cache will be bypassed until it is", "err", err)
	}

	return locator.NewCachedPlacesClient(places, rdb, a.Config.PlacesCacheTTL), nil
}

// ChatService builds the request orchestrator. In queue mode, answered
// questions are published for the worker instead of being ingested inline.
func (a *App) ChatService(ctx context.Context) (*chat.Service, error) {
	places, err := a.PlacesClient(ctx)
	if err != nil {
		return nil, err
	}

	var ingester chat.Ingester = a.Ingestor
	if a.Config.IngestMode == IngestModeQueue {
		if err := a.OpenQueue(); err != nil {
			return nil, err
		}
		ingester = queue.NewIngestPublisher(a.Queue)
	}

	return NewChatService(ChatServiceParams{
		Config:   a.Config,
		AI:       a.AI,
		Graph:    a.Graph,
		Vectors:  a.Vectors,
		Places:   places,
		Ingester: ingester,
	}), nil
}

// ChatServiceParams are the collaborators NewChatService wires together.
type ChatServiceParams struct {
	Config   Config
	AI       ai.GraphAIClient
	Graph    store.GraphStorage
	Vectors  store.VectorStorage
	Places   locator.PlacesClient
	Ingester chat.Ingester
}

// NewChatService assembles the retrieval, routing and locator pipeline.
func NewChatService(params ChatServiceParams) *chat.Service {
	cfg := params.Config

	var tracer query.Tracer
	if cfg.Debug {
		tracer = query.LogTracer{}
	}

	retriever := query.NewHybridRetriever(query.NewHybridRetrieverParams{
		Entities: query.NewEntityExtractor(params.AI, cfg.ExtractModel),
		Graph: query.NewGraphRetriever(
			params.Graph,
			query.WithNodeLimit(cfg.GraphNodeLimit),
			query.WithGraphTracer(tracer),
		),
		Vector: query.NewVectorRetriever(params.AI, params.Vectors, cfg.TopK, tracer),
		Tracer: tracer,
	})

	return chat.NewService(chat.NewServiceParams{
		Classifier: intent.NewRouter(params.AI, cfg.ExtractModel),
		Retriever:  retriever,
		Locator: locator.NewRanker(
			params.Places,
			locator.WithRadius(cfg.PlacesRadius),
			locator.WithMaxResults(cfg.PlacesMaxResults),
		),
		Ingester:   params.Ingester,
		Completer:  params.AI,
		Model:      cfg.ChatModel,

		LogContextTokens: cfg.Debug,
	})
}

// Close releases everything New and the builders opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

var errNotReady = errors.New("app not initialised")

// Ready checks the stores the chat endpoint depends on.
func (a *App) Ready(ctx context.Context) error {
	if a.DB == nil || a.Graph == nil {
		return errNotReady
	}
	if err := a.DB.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := a.Graph.Ping(ctx); err != nil {
		return fmt.Errorf("neo4j: %w", err)
	}
	return nil
}
