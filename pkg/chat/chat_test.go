package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/madewith/chatbot/backend/pkg/ai"
	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/locator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	intent common.LocationIntent
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, question string) (common.LocationIntent, error) {
	return f.intent, f.err
}

type fakeRetriever struct {
	context string
	err     error
	calls   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string) (string, error) {
	f.calls++
	return f.context, f.err
}

type fakeCompleter struct {
	answer  string
	err     error
	prompts []string
	opts    ai.GenerateOptions
}

func (f *fakeCompleter) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.opts = ai.ApplyOptions(ai.GenerateOptions{Temperature: 1}, opts...)
	return f.answer, f.err
}

type fakeIngester struct {
	texts []string
	err   error
}

func (f *fakeIngester) Ingest(ctx context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

type fakePlaces struct {
	calls  int
	places []common.Place
}

func (f *fakePlaces) NearbySearch(ctx context.Context, keyword string, coord common.Coordinate, radius int) ([]common.Place, error) {
	f.calls++
	return f.places, nil
}

type fixture struct {
	classifier *fakeClassifier
	retriever  *fakeRetriever
	completer  *fakeCompleter
	ingester   *fakeIngester
	places     *fakePlaces
	service    *Service
}

func newFixture(intent common.LocationIntent) *fixture {
	f := &fixture{
		classifier: &fakeClassifier{intent: intent},
		retriever:  &fakeRetriever{context: "Graph data:\nAero - CONTAINS -> Milk Chocolate\n\nVector data:\nAero bars are bubbly."},
		completer:  &fakeCompleter{answer: "Hi Sam! Aero contains milk chocolate."},
		ingester:   &fakeIngester{},
		places:     &fakePlaces{},
	}
	f.service = NewService(NewServiceParams{
		Classifier: f.classifier,
		Retriever:  f.retriever,
		Locator:    locator.NewRanker(f.places),
		Ingester:   f.ingester,
		Completer:  f.completer,
	})
	return f
}

func TestHandle_LocationWithCoordinate(t *testing.T) {
	f := newFixture(common.LocationIntent{IsLocationQuery: true, Products: []string{"KitKat"}})

	got, err := f.service.Handle(context.Background(), common.Question{
		Text:       "Where can I buy KitKat near me?",
		Name:       "Sam",
		Coordinate: &common.Coordinate{Lat: 43.65, Lng: -79.38},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.places.calls)
	assert.Contains(t, got, "No nearby places found for KitKat.")
	assert.Contains(t, got, "- KitKat: https://www.amazon.ca/s?k=KitKat")
	assert.NotContains(t, got, "Stores near you")

	assert.Zero(t, f.retriever.calls)
	assert.Empty(t, f.completer.prompts)
	assert.Empty(t, f.ingester.texts)
}

func TestHandle_LocationWithoutCoordinate(t *testing.T) {
	f := newFixture(common.LocationIntent{IsLocationQuery: true, Products: []string{"KitKat"}})

	got, err := f.service.Handle(context.Background(), common.Question{
		Text: "Where can I buy KitKat near me?",
		Name: "Sam",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"Please enable location services so I can find stores near you.\n\n"+
			"You can also buy these products online:\n"+
			"- KitKat: https://www.amazon.ca/s?k=KitKat",
		got,
	)
	assert.Zero(t, f.places.calls)
	assert.Empty(t, f.completer.prompts)
}

func TestHandle_GeneralQuestion(t *testing.T) {
	f := newFixture(common.LocationIntent{IsLocationQuery: false, Products: []string{}})

	got, err := f.service.Handle(context.Background(), common.Question{
		Text: "What ingredients are in Aero?",
		Name: "Sam",
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi Sam! Aero contains milk chocolate.", got)
	assert.Equal(t, []string{"What ingredients are in Aero?"}, f.ingester.texts)

	require.Len(t, f.completer.prompts, 1)
	prompt := f.completer.prompts[0]
	assert.True(t, strings.HasPrefix(prompt, "Answer the question based only on the following context"))
	assert.Contains(t, prompt, "Aero - CONTAINS -> Milk Chocolate")
	assert.Contains(t, prompt, "Question: Your name is Sam answer this question: What ingredients are in Aero?")
	assert.Zero(t, f.completer.opts.Temperature)
	assert.Zero(t, f.places.calls)
}

func TestHandle_LocationWithoutProductsUsesAnswerFlow(t *testing.T) {
	f := newFixture(common.LocationIntent{IsLocationQuery: true, Products: []string{}})

	_, err := f.service.Handle(context.Background(), common.Question{Text: "Any stores near me?", Name: "Sam"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.retriever.calls)
	assert.Len(t, f.completer.prompts, 1)
	assert.Zero(t, f.places.calls)
}

func TestHandle_Errors(t *testing.T) {
	t.Run("classifier", func(t *testing.T) {
		f := newFixture(common.LocationIntent{})
		f.classifier.err = errors.New("router down")
		_, err := f.service.Handle(context.Background(), common.Question{Text: "q"})
		assert.ErrorContains(t, err, "router down")
		assert.Zero(t, f.retriever.calls)
	})

	t.Run("retriever", func(t *testing.T) {
		f := newFixture(common.LocationIntent{})
		f.retriever.err = errors.New("vector store down")
		_, err := f.service.Handle(context.Background(), common.Question{Text: "q"})
		assert.ErrorContains(t, err, "vector store down")
		assert.Empty(t, f.ingester.texts)
	})

	t.Run("answer", func(t *testing.T) {
		f := newFixture(common.LocationIntent{})
		f.completer.err = errors.New("rate limited")
		_, err := f.service.Handle(context.Background(), common.Question{Text: "q"})
		assert.ErrorContains(t, err, "rate limited")
		assert.Empty(t, f.ingester.texts)
	})

	t.Run("ingestion", func(t *testing.T) {
		f := newFixture(common.LocationIntent{})
		f.ingester.err = errors.New("neo4j down")
		_, err := f.service.Handle(context.Background(), common.Question{Text: "q"})
		assert.ErrorContains(t, err, "neo4j down")
	})

	t.Run("empty answer", func(t *testing.T) {
		f := newFixture(common.LocationIntent{})
		f.completer.answer = ""
		_, err := f.service.Handle(context.Background(), common.Question{Text: "q"})
		assert.ErrorIs(t, err, ErrNoAnswer)
		assert.Equal(t, []string{"q"}, f.ingester.texts)
	})

	t.Run("blank question skips ingestion", func(t *testing.T) {
		f := newFixture(common.LocationIntent{})
		_, err := f.service.Handle(context.Background(), common.Question{Text: "   "})
		require.NoError(t, err)
		assert.Empty(t, f.ingester.texts)
	})
}
