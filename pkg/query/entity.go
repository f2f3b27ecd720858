package query

import (
	"context"
	"fmt"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/logger"
)

// Entities is the structured output of the entity extraction call.
type Entities struct {
	Link []string `json:"link" jsonschema:"description=What is being searched for."`
}

// EntityExtractor asks the model which things a question is looking for.
type EntityExtractor struct {
	client ai.FormatCompleter
	model  string
}

// NewEntityExtractor creates an extractor. An empty model uses the client's
// extraction model.
func NewEntityExtractor(client ai.FormatCompleter, model string) *EntityExtractor {
	return &EntityExtractor{client: client, model: model}
}

// Extract returns the reference terms of question. Extraction failures are
// logged and yield an empty list, so retrieval continues without graph data.
func (e *EntityExtractor) Extract(ctx context.Context, question string) []string {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(ai.EntitySystemPrompt),
		ai.WithTemperature(0),
	}
	if e.model != "" {
		opts = append(opts, ai.WithModel(e.model))
	}

	var out Entities
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"entities",
		"Identifying information about entities.",
		fmt.Sprintf(ai.EntityPrompt, question),
		&out,
		opts...,
	)
	if err != nil {
		logger.Warn("[Query] Entity extraction failed", "err", err)
		return []string{}
	}
	if out.Link == nil {
		return []string{}
	}

	return out.Link
}
