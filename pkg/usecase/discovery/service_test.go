package discovery_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/genai"

	"github.com/foodifind/foodifind/pkg/cache"
	"github.com/foodifind/foodifind/pkg/model"
	"github.com/foodifind/foodifind/pkg/usecase/discovery"
	"github.com/foodifind/foodifind/pkg/utils/metrics"
)

// fakeGemini returns a canned structured-output response
type fakeGemini struct {
	response string
	err      error
	calls    int
}

func (f *fakeGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: f.response}},
				},
			},
		},
	}, nil
}

const parisPayload = `{
	"locationName": "Paris, France",
	"lat": 48.8566,
	"lng": 2.3522,
	"spots": [
		{
			"name": "Le Petit Zinc",
			"cuisine": "French Bistro",
			"address": "11 Rue Saint-Benoit",
			"priceTier": "high",
			"lat": 48.854,
			"lng": 2.333,
			"sentimentScore": 89,
			"trendingScore": 94,
			"popularityVelocity": 27,
			"bestDishes": ["Confit de Canard", "Tarte Tatin"],
			"description": "Art nouveau bistro rediscovered by food creators.",
			"confidenceScore": 85
		},
		{
			"name": "Boulangerie Aurore",
			"cuisine": "Bakery",
			"sentimentScore": 93,
			"trendingScore": 88,
			"bestDishes": ["Croissant", "Pain au Levain"],
			"description": "Queue-out-the-door bakery with a viral lamination video.",
			"lat": 48.861,
			"lng": 2.349
		}
	]
}`

func TestFetchUpstreamPath(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGemini{response: parisPayload}
	svc := discovery.New(fake, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Paris", model.Coordinates{Lat: 1, Lng: 2})
	gt.NoError(t, err)
	gt.NotNil(t, result)
	gt.Equal(t, result.LocationName, "Paris, France")
	gt.Equal(t, result.Source, model.SourceGemini)
	gt.Equal(t, len(result.Spots), 2)
	gt.Equal(t, fake.calls, 1)

	first := result.Spots[0]
	gt.Equal(t, first.Name, "Le Petit Zinc")
	gt.Equal(t, first.PriceTier, model.PriceTierHigh)
	gt.Equal(t, first.Coordinates.Lat, 48.854)
	gt.Equal(t, first.PopularityVelocity, 27)
}

func TestFetchDefaultsMissingFields(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGemini{response: parisPayload}
	svc := discovery.New(fake, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Paris bakeries", model.Coordinates{})
	gt.NoError(t, err)

	// Second spot omits priceTier, address, influencer and viralPosts
	second := result.Spots[1]
	gt.Equal(t, second.PriceTier, model.PriceTierMedium)
	gt.NotEqual(t, second.Address, "")
	gt.True(t, len(second.ViralPosts) > 0)
	gt.True(t, second.Influencer.SourceCount > 0)
	gt.Equal(t, second.PopularityVelocity, 10)
	gt.Equal(t, second.ConfidenceScore, 70.0)
}

func TestFetchJittersMissingCoordinates(t *testing.T) {
	ctx := context.Background()
	payload := `{
		"locationName": "Kochi, Kerala",
		"lat": 9.9312,
		"lng": 76.2673,
		"spots": [
			{"name": "Harbour Shack", "cuisine": "Seafood", "sentimentScore": 80,
			 "trendingScore": 85, "bestDishes": ["Karimeen Fry"], "description": "d"}
		]
	}`
	svc := discovery.New(&fakeGemini{response: payload}, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "kochi seafood", model.Coordinates{})
	gt.NoError(t, err)

	spot := result.Spots[0]
	if spot.Coordinates.Lat < 9.9212 || spot.Coordinates.Lat > 9.9412 {
		t.Fatal("jittered latitude out of range", spot.Coordinates.Lat)
	}
	if spot.Coordinates.Lng < 76.2573 || spot.Coordinates.Lng > 76.2773 {
		t.Fatal("jittered longitude out of range", spot.Coordinates.Lng)
	}
}

func TestFetchCacheIdempotence(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGemini{response: parisPayload}
	svc := discovery.New(fake, cache.NewMemory(0))

	first, err := svc.Fetch(ctx, "Paris", model.Coordinates{Lat: 1, Lng: 2})
	gt.NoError(t, err)

	// Same query modulo case and whitespace: no second upstream call, and
	// the second call's coordinates are ignored
	second, err := svc.Fetch(ctx, "  PARIS ", model.Coordinates{Lat: 99, Lng: 99})
	gt.NoError(t, err)

	gt.Equal(t, fake.calls, 1)
	gt.Equal(t, second.Center, first.Center)
	gt.Equal(t, len(second.Spots), len(first.Spots))
	for i := range first.Spots {
		gt.Equal(t, second.Spots[i].ID, first.Spots[i].ID)
		gt.Equal(t, second.Spots[i].Name, first.Spots[i].Name)
	}
}

func TestFetchFallsBackOnUpstreamError(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGemini{err: goerr.New("upstream unavailable")}
	svc := discovery.New(fake, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Tokyo", model.Coordinates{Lat: 35.6762, Lng: 139.6503})
	gt.NoError(t, err)
	gt.NotNil(t, result)
	gt.Equal(t, result.Source, model.SourceMock)
	gt.Equal(t, result.LocationName, "Tokyo")
	gt.Equal(t, len(result.Spots), 4)

	// The fallback result is cached too: no retry on the next call
	_, err = svc.Fetch(ctx, "tokyo", model.Coordinates{})
	gt.NoError(t, err)
	gt.Equal(t, fake.calls, 1)
}

func TestFetchFallsBackOnMalformedPayload(t *testing.T) {
	ctx := context.Background()
	fake := &fakeGemini{response: "not json at all"}
	svc := discovery.New(fake, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Rome", model.Coordinates{Lat: 41.9, Lng: 12.5})
	gt.NoError(t, err)
	gt.Equal(t, result.Source, model.SourceMock)
	gt.Equal(t, len(result.Spots), 4)
}

func TestFetchFallsBackOnEmptySpots(t *testing.T) {
	ctx := context.Background()
	// Syntactically valid but missing the required spots field
	fake := &fakeGemini{response: `{"locationName": "Tokyo"}`}
	svc := discovery.New(fake, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Tokyo", model.Coordinates{Lat: 35.6762, Lng: 139.6503})
	gt.NoError(t, err)
	gt.Equal(t, result.Source, model.SourceMock)
	gt.Equal(t, len(result.Spots), 4)
}

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (*model.DiscoveryResult, error) {
	return nil, goerr.New("backend unavailable")
}

func (failingCache) Set(ctx context.Context, key string, result *model.DiscoveryResult) error {
	return nil
}

func TestFetchCacheErrorNotCountedAsMiss(t *testing.T) {
	ctx := context.Background()
	missesBefore := testutil.ToFloat64(metrics.CacheMisses)
	errorsBefore := testutil.ToFloat64(metrics.CacheErrors)

	svc := discovery.New(nil, failingCache{})
	result, err := svc.Fetch(ctx, "Tokyo", model.Coordinates{})
	gt.NoError(t, err)
	gt.Equal(t, result.Source, model.SourceMock)

	gt.Equal(t, testutil.ToFloat64(metrics.CacheErrors), errorsBefore+1)
	gt.Equal(t, testutil.ToFloat64(metrics.CacheMisses), missesBefore)
}

func TestFetchNoCredentialUsesMock(t *testing.T) {
	ctx := context.Background()
	svc := discovery.New(nil, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Tokyo", model.Coordinates{Lat: 35.6762, Lng: 139.6503})
	gt.NoError(t, err)
	gt.Equal(t, result.LocationName, "Tokyo")
	gt.Equal(t, len(result.Spots), 4)
	gt.Equal(t, result.Source, model.SourceMock)
}

func TestFetchUniqueSpotIDs(t *testing.T) {
	ctx := context.Background()
	svc := discovery.New(&fakeGemini{response: parisPayload}, cache.NewMemory(0))

	result, err := svc.Fetch(ctx, "Paris", model.Coordinates{})
	gt.NoError(t, err)

	seen := map[model.SpotID]bool{}
	for _, spot := range result.Spots {
		gt.False(t, seen[spot.ID])
		seen[spot.ID] = true
	}
}
