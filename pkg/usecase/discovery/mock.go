package discovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/foodifind/foodifind/pkg/model"
)

// mockLocation maps a recognized query substring to a literal center
type mockLocation struct {
	substr string
	name   string
	center model.Coordinates
}

var mockLocations = []mockLocation{
	{substr: "paris", name: "Paris, France", center: model.Coordinates{Lat: 48.8566, Lng: 2.3522}},
	{substr: "new york", name: "New York, NY", center: model.Coordinates{Lat: 40.7128, Lng: -74.0060}},
	{substr: "kochi", name: "Kochi, Kerala", center: model.Coordinates{Lat: 9.9312, Lng: 76.2673}},
}

// mockSpotTemplate is one literal sample spot, placed at a fixed offset
// from the resolved center
type mockSpotTemplate struct {
	name        string
	cuisine     string
	street      string
	priceTier   model.PriceTier
	sentiment   float64
	trending    float64
	velocity    int
	confidence  float64
	dishes      []string
	description string
	dLat        float64
	dLng        float64
}

var mockSpotTemplates = []mockSpotTemplate{
	{
		name:        "The Copper Kettle",
		cuisine:     "Cafe & Bakery",
		street:      "12 Harbour Lane",
		priceTier:   model.PriceTierMedium,
		sentiment:   88,
		trending:    92,
		velocity:    34,
		confidence:  81,
		dishes:      []string{"Cardamom Buns", "Flat White", "Sourdough Toast"},
		description: "A corner bakery that blew up after its open-kitchen bread pulls started circulating on short-form video.",
		dLat:        0.012,
		dLng:        0.008,
	},
	{
		name:        "Spice Route Kitchen",
		cuisine:     "South Indian",
		street:      "48 Bazaar Road",
		priceTier:   model.PriceTierLow,
		sentiment:   91,
		trending:    87,
		velocity:    21,
		confidence:  77,
		dishes:      []string{"Ghee Roast Dosa", "Fish Moilee", "Filter Coffee"},
		description: "Family-run canteen with a two-item breakfast menu and a queue that forms before the shutters open.",
		dLat:        -0.009,
		dLng:        0.014,
	},
	{
		name:        "Luna Rooftop",
		cuisine:     "Modern Fusion",
		street:      "7th Floor, Meridian Tower",
		priceTier:   model.PriceTierLuxury,
		sentiment:   79,
		trending:    95,
		velocity:    58,
		confidence:  72,
		dishes:      []string{"Charred Octopus", "Yuzu Negroni", "Miso Creme Brulee"},
		description: "Skyline bar whose sunset table has become the default backdrop for local food influencers.",
		dLat:        0.005,
		dLng:        -0.011,
	},
	{
		name:        "Mama Rosa's Trattoria",
		cuisine:     "Italian",
		street:      "3 Old Mill Street",
		priceTier:   model.PriceTierHigh,
		sentiment:   85,
		trending:    76,
		velocity:    -4,
		confidence:  84,
		dishes:      []string{"Cacio e Pepe", "Burrata Caprese", "Tiramisu"},
		description: "Twenty-year neighborhood stalwart riding a second wave of attention from a viral pasta-wheel clip.",
		dLat:        -0.014,
		dLng:        -0.006,
	},
}

// MockSpots is the deterministic fallback generator: a pure function of the
// query text and fallback coordinate. A recognized location substring picks
// a literal center and display name; anything else keeps the fallback
// coordinate and echoes the query as the display name. Always four spots.
func MockSpots(query string, fallbackLat, fallbackLng float64) *model.DiscoveryResult {
	locationName := query
	center := model.Coordinates{Lat: fallbackLat, Lng: fallbackLng}

	lowered := strings.ToLower(query)
	for _, loc := range mockLocations {
		if strings.Contains(lowered, loc.substr) {
			locationName = loc.name
			center = loc.center
			break
		}
	}

	spots := make([]*model.FoodSpot, 0, len(mockSpotTemplates))
	for i, tmpl := range mockSpotTemplates {
		spot := &model.FoodSpot{
			ID:                 model.SpotID(fmt.Sprintf("mock-%d", i+1)),
			Name:               tmpl.name,
			Cuisine:            tmpl.cuisine,
			Address:            tmpl.street + ", " + locationName,
			PriceTier:          tmpl.priceTier,
			Coordinates:        model.Coordinates{Lat: center.Lat + tmpl.dLat, Lng: center.Lng + tmpl.dLng},
			SentimentScore:     tmpl.sentiment,
			TrendingScore:      tmpl.trending,
			PopularityVelocity: tmpl.velocity,
			BestDishes:         tmpl.dishes,
			Description:        tmpl.description,
			ConfidenceScore:    tmpl.confidence,
			Seed:               len(tmpl.name),
			Influencer:         fillerInfluencer(tmpl.name),
			ViralPosts:         fillerPosts(tmpl.name, len(tmpl.name)),
			LastUpdated:        time.Now(),
		}
		spots = append(spots, spot)
	}

	return &model.DiscoveryResult{
		Query:        query,
		LocationName: locationName,
		Center:       center,
		Spots:        spots,
		Source:       model.SourceMock,
		GeneratedAt:  time.Now(),
	}
}

// fillerInfluencer synthesizes influencer coverage for a spot that has none
func fillerInfluencer(name string) model.InfluencerData {
	handle := "@" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + "fan"
	return model.InfluencerData{
		Summary:     fmt.Sprintf("Local creators keep coming back to %s; coverage is broadly positive with repeat visits noted.", name),
		SourceCount: 3,
		Handles:     []string{handle, "@citybites", "@weekendforks"},
	}
}

// fillerPosts synthesizes a non-empty viral post list for a spot that has none
func fillerPosts(name string, seed int) []model.ViralPost {
	return []model.ViralPost{
		{
			Handle:   "@citybites",
			Caption:  fmt.Sprintf("Finally made it to %s and it lives up to the hype", name),
			Likes:    "12.5k",
			ImageURL: fmt.Sprintf("https://picsum.photos/seed/%d/400/300", seed),
			IsReel:   true,
		},
		{
			Handle:   "@weekendforks",
			Caption:  fmt.Sprintf("POV: you got the last table at %s", name),
			Likes:    "8.1k",
			ImageURL: fmt.Sprintf("https://picsum.photos/seed/%d/400/300", seed+1),
		},
	}
}
