package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"
)

// ErrNoAnswer is returned when the answer model produced no text.
var ErrNoAnswer = errors.New("no answer found")

// Classifier decides between the answer flow and the store locator.
type Classifier interface {
	Classify(ctx context.Context, question string) (common.LocationIntent, error)
}

// Retriever builds the context block for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) (string, error)
}

// Locator renders the store locator reply.
type Locator interface {
	Rank(ctx context.Context, products []string, coord *common.Coordinate) string
}

// Ingester stores a question as new graph knowledge. Depending on the
// deployment this runs inline or hands the text to a queue.
type Ingester interface {
	Ingest(ctx context.Context, text string) error
}

// Service answers one question at a time.
type Service struct {
	classifier Classifier
	retriever  Retriever
	locator    Locator
	ingester   Ingester
	completer  ai.Completer
	model      string

	logContextTokens bool
}

// NewServiceParams wires the collaborators of a Service. Model overrides
// the completer's default chat model when set. LogContextTokens logs the
// token estimate of every context block at debug level.
type NewServiceParams struct {
	Classifier Classifier
	Retriever  Retriever
	Locator    Locator
	Ingester   Ingester
	Completer  ai.Completer
	Model      string

	LogContextTokens bool
}

func NewService(params NewServiceParams) *Service {
	return &Service{
		classifier: params.Classifier,
		retriever:  params.Retriever,
		locator:    params.Locator,
		ingester:   params.Ingester,
		completer:  params.Completer,
		model:      params.Model,

		logContextTokens: params.LogContextTokens,
	}
}

// Handle routes q to the store locator when it asks for nearby stores of
// named products, and answers it from the hybrid context otherwise. Answered
// questions are ingested afterwards; an ingestion failure fails the request.
func (s *Service) Handle(ctx context.Context, q common.Question) (string, error) {
	intent, err := s.classifier.Classify(ctx, q.Text)
	if err != nil {
		return "", err
	}
	if intent.RoutesToLocator() {
		logger.Debug("[Chat] Routing to store locator", "products", intent.Products)
		return s.locator.Rank(ctx, intent.Products, q.Coordinate), nil
	}

	contextBlock, err := s.retriever.Retrieve(ctx, q.Text)
	if err != nil {
		return "", err
	}
	if s.logContextTokens {
		if tokens, err := ai.CountTokens(ai.DefaultEncoding, contextBlock); err == nil {
			logger.Debug("[Chat] Context assembled", "tokens", tokens)
		}
	}

	answer, err := s.answer(ctx, q, contextBlock)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(q.Text) != "" {
		if err := s.ingester.Ingest(ctx, q.Text); err != nil {
			return "", fmt.Errorf("failed to ingest question: %w", err)
		}
	}

	if answer == "" {
		return "", ErrNoAnswer
	}
	return answer, nil
}

func (s *Service) answer(ctx context.Context, q common.Question, contextBlock string) (string, error) {
	personalised := fmt.Sprintf(ai.PersonalisedQuestion, q.Name, q.Text)
	prompt := fmt.Sprintf(ai.AnswerPrompt, contextBlock, personalised)

	opts := []ai.GenerateOption{ai.WithTemperature(0)}
	if s.model != "" {
		opts = append(opts, ai.WithModel(s.model))
	}

	answer, err := s.completer.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}
