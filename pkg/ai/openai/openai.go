package openai

import (
	"sync"

	"github.com/madewith/chatbot/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// GraphOpenAIClient talks to the OpenAI API, or an Azure OpenAI deployment,
// for answers, structured extraction and embeddings. It keeps separate
// clients for chat and embeddings so both can live on different endpoints.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel       string
	extractionModel string
	embeddingModel  string
	embeddingDim    int

	chatURL    string
	timeoutMin int

	reqLock       *semaphore.Weighted
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration for a GraphOpenAIClient.
//
// When Azure is set, ChatURL and EmbeddingURL are Azure resource endpoints,
// the models are deployment names and APIVersion is required.
type NewGraphOpenAIClientParams struct {
	ChatModel       string
	ExtractionModel string
	EmbeddingModel  string
	EmbeddingDim    int

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	Azure      bool
	APIVersion string

	MaxConcurrentRequests int64
	TimeoutMin            int
}

// NewGraphOpenAIClient creates a client from params.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ChatModel:      "gpt-4o-mini",
//		EmbeddingModel: "text-embedding-3-small",
//		EmbeddingDim:   1536,
//		ChatKey:        os.Getenv("AI_CHAT_KEY"),
//		EmbeddingKey:   os.Getenv("AI_EMBED_KEY"),
//	})
func NewGraphOpenAIClient(
	params NewGraphOpenAIClientParams,
) *GraphOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey, params.Azure, params.APIVersion)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey, params.Azure, params.APIVersion)

	extractionModel := params.ExtractionModel
	if extractionModel == "" {
		extractionModel = params.ChatModel
	}
	if params.MaxConcurrentRequests <= 0 {
		params.MaxConcurrentRequests = 1
	}
	if params.TimeoutMin <= 0 {
		params.TimeoutMin = 5
	}

	return &GraphOpenAIClient{
		chatModel:       params.ChatModel,
		extractionModel: extractionModel,
		embeddingModel:  params.EmbeddingModel,
		embeddingDim:    params.EmbeddingDim,

		chatURL:    params.ChatURL,
		timeoutMin: params.TimeoutMin,

		reqLock:       semaphore.NewWeighted(params.MaxConcurrentRequests),
		embeddingLock: semaphore.NewWeighted(params.MaxConcurrentRequests),

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
	useAzure bool,
	apiVersion string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}

	var options []option.RequestOption
	if useAzure {
		options = []option.RequestOption{
			azure.WithEndpoint(baseURL, apiVersion),
			azure.WithAPIKey(apiKey),
		}
	} else {
		options = []option.RequestOption{
			option.WithAPIKey(apiKey),
		}
		if baseURL != "" {
			options = append(options, option.WithBaseURL(baseURL))
		}
	}

	client := openai.NewClient(options...)

	return &client
}
