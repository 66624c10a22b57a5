package plan

import (
	"fmt"
	"strings"

	"tripplanner/internal/models"
)

// Mock itineraries keep the product usable while the upstream AI service is
// down. Content is deterministic for a given request so repeated fallbacks
// look stable to the user.

var mockMorning = []string{
	"guided walking tour of the old town",
	"visit the main museum",
	"local market browse",
	"panoramic viewpoint hike",
	"historic district photo walk",
}

var mockAfternoon = []string{
	"lunch at a traditional restaurant",
	"boat or tram sightseeing ride",
	"botanical garden visit",
	"neighborhood cafe break",
	"artisan shopping street",
}

var mockEvening = []string{
	"dinner with regional specialties",
	"sunset at the waterfront",
	"evening concert or show",
	"night market stroll",
	"rooftop bar with a view",
}

// mockPlan builds a deterministic offline itinerary for the request.
func mockPlan(req models.PlanRequest) *models.TripPlan {
	itinerary := make([]models.ItineraryDay, req.Days)
	for i := range itinerary {
		itinerary[i] = models.ItineraryDay{
			Day:   i + 1,
			Title: fmt.Sprintf("Day %d in %s", i+1, req.Destination),
			Activities: []string{
				mockMorning[i%len(mockMorning)],
				mockAfternoon[i%len(mockAfternoon)],
				mockEvening[i%len(mockEvening)],
			},
		}
	}

	summary := fmt.Sprintf("A %d-day trip to %s", req.Days, req.Destination)
	if len(req.Interests) > 0 {
		summary += " focused on " + strings.Join(req.Interests, ", ")
	}
	summary += ". Generated offline while the planning service was unavailable."

	return &models.TripPlan{
		Destination: req.Destination,
		Country:     req.Country,
		Days:        req.Days,
		Interests:   req.Interests,
		Summary:     summary,
		Itinerary:   itinerary,
		Source:      models.PlanSourceMock,
	}
}
