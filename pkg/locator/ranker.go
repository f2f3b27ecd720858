package locator

import (
	"context"
	"errors"
	"fmt"

	"github.com/madewith/chatbot/backend/pkg/common"
	"github.com/madewith/chatbot/backend/pkg/logger"
)

const (
	DefaultRadiusMeters = 10500
	DefaultMaxResults   = 4
)

// RankedPlace is a place with its distance from the caller.
type RankedPlace struct {
	common.Place
	DistanceKm float64
}

// ProductResult is the lookup outcome for a single product. Err is set when
// the places call failed; Places is empty when nothing was found.
type ProductResult struct {
	Product string
	Places  []RankedPlace
	Err     error
}

// Ranker turns a product list and a caller coordinate into the store
// locator reply.
type Ranker struct {
	places       PlacesClient
	radiusMeters int
	maxResults   int
}

type RankerOption func(*Ranker)

func WithRadius(meters int) RankerOption {
	return func(r *Ranker) {
		if meters > 0 {
			r.radiusMeters = meters
		}
	}
}

func WithMaxResults(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

func NewRanker(places PlacesClient, opts ...RankerOption) *Ranker {
	r := &Ranker{
		places:       places,
		radiusMeters: DefaultRadiusMeters,
		maxResults:   DefaultMaxResults,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Lookup queries every product in order. A failing product never stops the
// remaining ones.
func (r *Ranker) Lookup(ctx context.Context, products []string, coord common.Coordinate) []ProductResult {
	results := make([]ProductResult, 0, len(products))
	for _, product := range products {
		places, err := r.places.NearbySearch(ctx, product, coord, r.radiusMeters)
		if err != nil {
			logger.Warn("[Locator] Nearby search failed", "product", product, "err", err)
			results = append(results, ProductResult{Product: product, Err: err})
			continue
		}

		if len(places) > r.maxResults {
			places = places[:r.maxResults]
		}
		ranked := make([]RankedPlace, 0, len(places))
		for _, p := range places {
			ranked = append(ranked, RankedPlace{
				Place:      p,
				DistanceKm: Haversine(coord, p.Location),
			})
		}
		results = append(results, ProductResult{Product: product, Places: ranked})
	}
	return results
}

// Rank returns the formatted reply. Without a coordinate no places call is
// made and the caller is asked to enable location services.
func (r *Ranker) Rank(ctx context.Context, products []string, coord *common.Coordinate) string {
	if coord == nil {
		return RenderMissingLocation(products)
	}
	return RenderResults(r.Lookup(ctx, products, *coord))
}

func describeError(product string, err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Could not look up stores for %s (status %d).", product, statusErr.StatusCode)
	}
	return fmt.Sprintf("Could not look up stores for %s (%s).", product, err.Error())
}
