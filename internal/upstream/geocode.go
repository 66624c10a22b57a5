package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tripplanner/internal/models"
)

// GeoClient queries an external geocoding service for destination
// suggestions that the local catalog does not know about.
type GeoClient struct {
	endpoint string
	language string
	timeout  time.Duration
	client   *http.Client
	logger   *slog.Logger
}

func NewGeoClient(cfg models.GeocodeConfig, logger *slog.Logger) *GeoClient {
	return &GeoClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		language: cfg.Language,
		timeout:  cfg.Timeout,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("component", "geo_client"),
	}
}

// geoResponse follows the GeoJSON feature collection shape used by
// photon-style geocoders.
type geoResponse struct {
	Features []geoFeature `json:"features"`
}

type geoFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [longitude, latitude]
	} `json:"geometry"`
	Properties struct {
		Name       string  `json:"name"`
		Country    string  `json:"country"`
		State      string  `json:"state"`
		Type       string  `json:"type"`
		Importance float64 `json:"importance"`
	} `json:"properties"`
}

// Search returns up to limit suggestions for the query, mapped into the
// shared result shape with SourceAPI provenance.
func (c *GeoClient) Search(ctx context.Context, query string, limit int, lang string) ([]models.EnhancedResult, error) {
	if lang == "" {
		lang = c.language
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("lang", lang)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api?"+params.Encode(), nil)
	if err != nil {
		return nil, NewNetworkError("failed to build geocode request", 0, err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeoutErr(err) {
			return nil, NewTimeout("geocode request timed out", err)
		}
		return nil, NewNetworkError("geocode request failed", 0, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, NewNetworkError("failed to read geocode response", resp.StatusCode, err)
	}

	var geo geoResponse
	if err := json.Unmarshal(payload, &geo); err != nil {
		return nil, NewMalformedResponse("geocode response is not valid JSON", err)
	}

	results := make([]models.EnhancedResult, 0, len(geo.Features))
	for _, feature := range geo.Features {
		result, ok := mapFeature(feature)
		if !ok {
			continue
		}
		results = append(results, result)
		if len(results) >= limit {
			break
		}
	}

	c.logger.Debug("geocode search completed", "query", query, "results", len(results))
	return results, nil
}

func mapFeature(feature geoFeature) (models.EnhancedResult, bool) {
	props := feature.Properties
	if props.Name == "" {
		return models.EnhancedResult{}, false
	}

	result := models.EnhancedResult{
		Name:       props.Name,
		Country:    props.Country,
		Type:       mapFeatureType(props.Type),
		Popularity: popularityFromImportance(props.Importance),
		Source:     models.SourceAPI,
		Confidence: confidenceFromImportance(props.Importance),
	}

	switch {
	case props.Country != "" && props.State != "":
		result.DisplayName = fmt.Sprintf("%s, %s, %s", props.Name, props.State, props.Country)
	case props.Country != "":
		result.DisplayName = fmt.Sprintf("%s, %s", props.Name, props.Country)
	default:
		result.DisplayName = props.Name
	}

	if coords := feature.Geometry.Coordinates; len(coords) == 2 {
		result.Coordinates = &models.Coordinates{Lon: coords[0], Lat: coords[1]}
	}
	return result, true
}

func mapFeatureType(raw string) models.DestinationType {
	switch raw {
	case "country":
		return models.DestinationCountry
	case "region", "state":
		return models.DestinationRegion
	default:
		return models.DestinationCity
	}
}

// confidenceFromImportance converts the geocoder's 0..1 importance into the
// 0..100 confidence scale shared with local scoring. Features without an
// importance land at a neutral 60 so they never outrank strong local matches.
func confidenceFromImportance(importance float64) int {
	if importance <= 0 {
		return 60
	}
	confidence := int(importance * 100)
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 1 {
		confidence = 1
	}
	return confidence
}

func popularityFromImportance(importance float64) int {
	popularity := int(importance*10 + 0.5)
	if popularity < 1 {
		popularity = 1
	}
	if popularity > 10 {
		popularity = 10
	}
	return popularity
}
