package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAIConfig(endpoint string) models.AIConfig {
	return models.AIConfig{
		Endpoint:      endpoint,
		APIKey:        "test-key",
		Model:         "planner-small",
		Timeout:       2 * time.Second,
		MaxRetries:    3,
		SchemaVersion: "^1.0",
	}
}

func validPlanBody(days int) aiPlanResponse {
	resp := aiPlanResponse{
		SchemaVersion: "1.2.0",
		Summary:       "Three days of food and ruins.",
	}
	for i := 1; i <= days; i++ {
		resp.Itinerary = append(resp.Itinerary, models.ItineraryDay{
			Day:        i,
			Title:      "Old town",
			Activities: []string{"walking tour", "dinner"},
		})
	}
	return resp
}

func TestAIClient_GeneratePlan(t *testing.T) {
	var gotAuth string
	var gotReq aiPlanRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(validPlanBody(3))
	}))
	defer srv.Close()

	client, err := NewAIClient(testAIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	plan, err := client.GeneratePlan(context.Background(), models.PlanRequest{
		Destination: "Roma",
		Country:     "Italia",
		Days:        3,
		Interests:   []string{"food", "history"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "planner-small", gotReq.Model)
	assert.Equal(t, "Roma", gotReq.Destination)
	assert.Equal(t, models.PlanSourceAI, plan.Source)
	assert.Len(t, plan.Itinerary, 3)
	assert.NotEmpty(t, plan.Summary)
}

func TestAIClient_BadSchemaVersionConstraint(t *testing.T) {
	cfg := testAIConfig("http://localhost:1")
	cfg.SchemaVersion = "not-a-constraint"

	_, err := NewAIClient(cfg, testLogger())
	require.Error(t, err)
}

func TestAIClient_RejectsIncompatibleSchemaVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := validPlanBody(2)
		body.SchemaVersion = "2.0.0"
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	client, err := NewAIClient(testAIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	_, err = client.GeneratePlan(context.Background(), models.PlanRequest{Destination: "Roma", Days: 2})
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestAIClient_RejectsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{not json")
	}))
	defer srv.Close()

	client, err := NewAIClient(testAIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	_, err = client.GeneratePlan(context.Background(), models.PlanRequest{Destination: "Roma", Days: 2})
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestAIClient_RejectsMisnumberedItinerary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := validPlanBody(2)
		body.Itinerary[1].Day = 5
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	client, err := NewAIClient(testAIConfig(srv.URL), testLogger())
	require.NoError(t, err)

	_, err = client.GeneratePlan(context.Background(), models.PlanRequest{Destination: "Roma", Days: 2})
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestAIClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		headers    map[string]string
		wantKind   Kind
		wantWaitGE time.Duration
	}{
		{"429 with hint", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, KindRateLimited, 30 * time.Second},
		{"429 without hint", http.StatusTooManyRequests, nil, KindRateLimited, 0},
		{"400", http.StatusBadRequest, nil, KindClientError, 0},
		{"503", http.StatusServiceUnavailable, nil, KindNetworkError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client, err := NewAIClient(testAIConfig(srv.URL), testLogger())
			require.NoError(t, err)

			_, err = client.GeneratePlan(context.Background(), models.PlanRequest{Destination: "Roma", Days: 2})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.wantWaitGE, RetryAfterOf(err))
		})
	}
}

func TestAIClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testAIConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	client, err := NewAIClient(cfg, testLogger())
	require.NoError(t, err)

	_, err = client.GeneratePlan(context.Background(), models.PlanRequest{Destination: "Roma", Days: 2})
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestAIClient_ConnectionRefused(t *testing.T) {
	client, err := NewAIClient(testAIConfig("http://127.0.0.1:1"), testLogger())
	require.NoError(t, err)

	_, err = client.GeneratePlan(context.Background(), models.PlanRequest{Destination: "Roma", Days: 2})
	require.Error(t, err)
	assert.Equal(t, KindNetworkError, KindOf(err))
}

func TestEstimatePlanRequestSize(t *testing.T) {
	small := EstimatePlanRequestSize(models.PlanRequest{Destination: "Roma", Days: 2}, "planner-small")
	large := EstimatePlanRequestSize(models.PlanRequest{
		Destination: "Roma",
		Days:        2,
		Notes:       strings.Repeat("x", 1000),
	}, "planner-small")

	assert.Positive(t, small)
	assert.Greater(t, large, small+900)
}
