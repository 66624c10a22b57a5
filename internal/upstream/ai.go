package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"tripplanner/internal/models"
)

// AIClient talks to the plan-generation service. It classifies transport and
// content failures into the RequestError taxonomy and gates responses on a
// semver constraint for the response schema.
type AIClient struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
	schema   *semver.Constraints
	client   *http.Client
	logger   *slog.Logger
}

// NewAIClient builds a client from config. The schema_version constraint is
// parsed once here so a bad constraint fails at startup rather than on the
// first request.
func NewAIClient(cfg models.AIConfig, logger *slog.Logger) (*AIClient, error) {
	constraint, err := semver.NewConstraint(cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid ai schema_version constraint %q: %w", cfg.SchemaVersion, err)
	}

	return &AIClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		schema:   constraint,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("component", "ai_client"),
	}, nil
}

type aiPlanRequest struct {
	Model       string   `json:"model"`
	Destination string   `json:"destination"`
	Country     string   `json:"country,omitempty"`
	Days        int      `json:"days"`
	Interests   []string `json:"interests,omitempty"`
	Budget      string   `json:"budget,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type aiPlanResponse struct {
	SchemaVersion string                `json:"schema_version"`
	Summary       string                `json:"summary"`
	Itinerary     []models.ItineraryDay `json:"itinerary"`
}

// EstimatePlanRequestSize returns the wire size in bytes of the plan request
// as it would be sent, for admission accounting before any network activity.
func EstimatePlanRequestSize(req models.PlanRequest, model string) int {
	body, err := json.Marshal(aiPlanRequest{
		Model:       model,
		Destination: req.Destination,
		Country:     req.Country,
		Days:        req.Days,
		Interests:   req.Interests,
		Budget:      req.Budget,
		Notes:       req.Notes,
	})
	if err != nil {
		return 0
	}
	return len(body)
}

// GeneratePlan performs one request against the AI endpoint. Retrying is the
// caller's concern; this method classifies a single attempt.
func (c *AIClient) GeneratePlan(ctx context.Context, req models.PlanRequest) (*models.TripPlan, error) {
	body, err := json.Marshal(aiPlanRequest{
		Model:       c.model,
		Destination: req.Destination,
		Country:     req.Country,
		Days:        req.Days,
		Interests:   req.Interests,
		Budget:      req.Budget,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, NewMalformedResponse("failed to encode plan request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/plans", bytes.NewReader(body))
	if err != nil {
		return nil, NewNetworkError("failed to build plan request", 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeoutErr(err) {
			return nil, NewTimeout("plan generation timed out", err)
		}
		return nil, NewNetworkError("plan generation request failed", 0, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, NewNetworkError("failed to read plan response", resp.StatusCode, err)
	}

	var planResp aiPlanResponse
	if err := json.Unmarshal(payload, &planResp); err != nil {
		return nil, NewMalformedResponse("plan response is not valid JSON", err)
	}

	if err := c.validateResponse(planResp); err != nil {
		return nil, err
	}

	c.logger.Debug("plan generated",
		"destination", req.Destination,
		"days", len(planResp.Itinerary),
		"schema_version", planResp.SchemaVersion)

	return &models.TripPlan{
		Destination: req.Destination,
		Country:     req.Country,
		Days:        req.Days,
		Interests:   req.Interests,
		Summary:     planResp.Summary,
		Itinerary:   planResp.Itinerary,
		Source:      models.PlanSourceAI,
	}, nil
}

func (c *AIClient) validateResponse(resp aiPlanResponse) error {
	version, err := semver.NewVersion(resp.SchemaVersion)
	if err != nil {
		return NewMalformedResponse(fmt.Sprintf("unparseable schema_version %q", resp.SchemaVersion), err)
	}
	if !c.schema.Check(version) {
		return NewMalformedResponse(
			fmt.Sprintf("schema_version %s does not satisfy constraint %s", resp.SchemaVersion, c.schema), nil)
	}
	if resp.Summary == "" {
		return NewMalformedResponse("plan response is missing a summary", nil)
	}
	if len(resp.Itinerary) == 0 {
		return NewMalformedResponse("plan response has an empty itinerary", nil)
	}
	for i, day := range resp.Itinerary {
		if day.Day != i+1 {
			return NewMalformedResponse(
				fmt.Sprintf("itinerary day %d is numbered %d", i+1, day.Day), nil)
		}
		if len(day.Activities) == 0 {
			return NewMalformedResponse(fmt.Sprintf("itinerary day %d has no activities", day.Day), nil)
		}
	}
	return nil
}

// classifyStatus maps a non-2xx response into the error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewRateLimited("upstream rate limit exceeded", parseRetryAfter(resp.Header.Get("Retry-After")))
	case resp.StatusCode >= 500:
		return NewNetworkError(
			fmt.Sprintf("upstream returned status %d", resp.StatusCode), resp.StatusCode, nil)
	default:
		return NewClientError(
			fmt.Sprintf("upstream rejected the request with status %d", resp.StatusCode), resp.StatusCode)
	}
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func isTimeoutErr(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
