package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/common"
)

// Router decides whether a question is a store-locator request.
type Router struct {
	client ai.FormatCompleter
	model  string
}

// NewRouter creates a Router. An empty model uses the client's extraction
// model.
func NewRouter(client ai.FormatCompleter, model string) *Router {
	return &Router{client: client, model: model}
}

// Classify runs the structured routing call. Errors are returned to the
// caller; there is no fallback classification.
func (r *Router) Classify(ctx context.Context, question string) (common.LocationIntent, error) {
	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(ai.IntentSystemPrompt),
		ai.WithTemperature(0),
	}
	if r.model != "" {
		opts = append(opts, ai.WithModel(r.model))
	}

	var out common.LocationIntent
	err := r.client.GenerateCompletionWithFormat(
		ctx,
		"location_intent",
		"Whether the user wants nearby stores and for which products.",
		fmt.Sprintf(ai.IntentPrompt, question),
		&out,
		opts...,
	)
	if err != nil {
		return common.LocationIntent{}, fmt.Errorf("failed to classify question: %w", err)
	}

	products := make([]string, 0, len(out.Products))
	for _, p := range out.Products {
		if p = strings.TrimSpace(p); p != "" {
			products = append(products, p)
		}
	}

	return common.LocationIntent{
		IsLocationQuery: out.IsLocationQuery,
		Products:        products,
	}, nil
}
