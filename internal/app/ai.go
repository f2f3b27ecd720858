package app

import (
	"fmt"

	"github.com/madewith/chatbot/backend/pkg/ai"
	oai "github.com/madewith/chatbot/backend/pkg/ai/ollama"
	gai "github.com/madewith/chatbot/backend/pkg/ai/openai"
)

// NewAIClient builds the model client selected by AIAdapter.
func NewAIClient(cfg Config) (ai.GraphAIClient, error) {
	switch cfg.AIAdapter {
	case AdapterOllama:
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:       cfg.ChatModel,
			ExtractionModel: cfg.ExtractModel,
			EmbeddingModel:  cfg.EmbedModel,
			EmbeddingDim:    cfg.EmbedDim,

			BaseURL: cfg.ChatURL,
			ApiKey:  cfg.ChatKey,

			MaxConcurrentRequests: cfg.ParallelReq,
			TimeoutMin:            cfg.TimeoutMin,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return client, nil
	case AdapterOpenAI, AdapterAzure:
		embedURL, embedKey := cfg.EmbedURL, cfg.EmbedKey
		if embedURL == "" {
			embedURL = cfg.ChatURL
		}
		if embedKey == "" {
			embedKey = cfg.ChatKey
		}

		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:       cfg.ChatModel,
			ExtractionModel: cfg.ExtractModel,
			EmbeddingModel:  cfg.EmbedModel,
			EmbeddingDim:    cfg.EmbedDim,

			ChatURL:      cfg.ChatURL,
			ChatKey:      cfg.ChatKey,
			EmbeddingURL: embedURL,
			EmbeddingKey: embedKey,

			Azure:      cfg.AIAdapter == AdapterAzure,
			APIVersion: cfg.APIVersion,

			MaxConcurrentRequests: cfg.ParallelReq,
			TimeoutMin:            cfg.TimeoutMin,
		}), nil
	}
	return nil, fmt.Errorf("unknown AI_ADAPTER %q", cfg.AIAdapter)
}
