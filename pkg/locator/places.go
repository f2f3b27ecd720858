package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/madewith/chatbot/backend/pkg/common"
)

const DefaultPlacesBaseURL = "https://maps.googleapis.com"

// PlacesClient finds places matching keyword around a coordinate.
type PlacesClient interface {
	NearbySearch(ctx context.Context, keyword string, coord common.Coordinate, radiusMeters int) ([]common.Place, error)
}

// StatusError is returned when the places API answers with a non-200 status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("places api returned status %d", e.StatusCode)
}

type nearbySearchResponse struct {
	Results []struct {
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours *struct {
			OpenNow *bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
	Status string `json:"status"`
}

// GooglePlacesClient calls the Google Places Nearby Search endpoint.
type GooglePlacesClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGooglePlacesClientParams configures a GooglePlacesClient. BaseURL
// defaults to the public Google endpoint and Timeout to 10 seconds.
type NewGooglePlacesClientParams struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewGooglePlacesClient(params NewGooglePlacesClientParams) *GooglePlacesClient {
	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultPlacesBaseURL
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GooglePlacesClient{
		baseURL:    baseURL,
		apiKey:     params.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NearbySearch returns the places in API order. Only the HTTP status is
// treated as a failure signal.
func (c *GooglePlacesClient) NearbySearch(
	ctx context.Context,
	keyword string,
	coord common.Coordinate,
	radiusMeters int,
) ([]common.Place, error) {
	q := url.Values{}
	q.Set("location", formatCoordinate(coord))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("keyword", keyword)
	q.Set("key", c.apiKey)

	endpoint := c.baseURL + "/maps/api/place/nearbysearch/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body nearbySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	places := make([]common.Place, 0, len(body.Results))
	for _, r := range body.Results {
		status := common.OpenStatusUnknown
		if r.OpeningHours != nil && r.OpeningHours.OpenNow != nil {
			if *r.OpeningHours.OpenNow {
				status = common.OpenStatusOpen
			} else {
				status = common.OpenStatusClosed
			}
		}
		places = append(places, common.Place{
			Name:    r.Name,
			Address: r.Vicinity,
			Location: common.Coordinate{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			Status: status,
		})
	}

	return places, nil
}

func formatCoordinate(c common.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
