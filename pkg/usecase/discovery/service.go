package discovery

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/foodifind/foodifind/pkg/adapter"
	"github.com/foodifind/foodifind/pkg/cache"
	"github.com/foodifind/foodifind/pkg/model"
	"github.com/foodifind/foodifind/pkg/utils/logging"
	"github.com/foodifind/foodifind/pkg/utils/metrics"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

//go:embed prompt/discover.md
var discoverPromptRaw string

var discoverPromptTmpl = template.Must(template.New("discover").Parse(discoverPromptRaw))

// Service resolves a free-text query to a DiscoveryResult via a single
// structured-output Gemini call, with the mock generator as fallback.
// Results are cached by normalized query text: identical text always yields
// the identical result for as long as the entry lives, regardless of the
// fallback coordinates passed later.
type Service struct {
	gemini adapter.Gemini
	cache  cache.Cache
}

// New creates a discovery service. A nil gemini adapter is a supported
// configuration (no API key) and routes every query to the mock generator.
func New(gemini adapter.Gemini, c cache.Cache) *Service {
	if c == nil {
		c = cache.NewMemory(0)
	}
	return &Service{
		gemini: gemini,
		cache:  c,
	}
}

// Fetch returns the spots for a query. The contract is total: the returned
// error is always nil and the result is never nil; any upstream failure is
// logged and replaced by mock data.
func (x *Service) Fetch(ctx context.Context, query string, fallback model.Coordinates) (*model.DiscoveryResult, error) {
	logger := logging.From(ctx)
	key := strings.ToLower(strings.TrimSpace(query))

	cached, err := x.cache.Get(ctx, key)
	switch {
	case err != nil:
		// A backend failure is not a miss: count it apart so a Redis
		// outage does not masquerade as cold traffic
		metrics.CacheErrors.Inc()
		logger.Warn("cache lookup failed", "error", err, "key", key)
	case cached != nil:
		metrics.CacheHits.Inc()
		logger.Debug("discovery cache hit", "key", key)
		return cached, nil
	default:
		metrics.CacheMisses.Inc()
	}

	var result *model.DiscoveryResult
	if x.gemini == nil {
		result = MockSpots(query, fallback.Lat, fallback.Lng)
	} else {
		generated, err := x.generate(ctx, query, fallback)
		if err != nil {
			metrics.Fallbacks.Inc()
			logger.Warn("discovery fell back to mock data", "error", err, "query", query)
			result = MockSpots(query, fallback.Lat, fallback.Lng)
		} else {
			result = generated
		}
	}

	if err := x.cache.Set(ctx, key, result); err != nil {
		logger.Warn("failed to cache discovery result", "error", err, "key", key)
	}

	return result, nil
}

// generate performs the structured-output Gemini call and maps the payload
// into the domain shape
func (x *Service) generate(ctx context.Context, query string, fallback model.Coordinates) (*model.DiscoveryResult, error) {
	var buf bytes.Buffer
	if err := discoverPromptTmpl.Execute(&buf, map[string]any{
		"Query": query,
		"Lat":   fallback.Lat,
		"Lng":   fallback.Lng,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute discover prompt template")
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   discoverSchema(),
	}

	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	metrics.UpstreamCalls.Inc()
	resp, err := x.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate discovery result")
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.New("invalid response structure from gemini")
	}

	rawJSON := resp.Candidates[0].Content.Parts[0].Text

	var payload discoverPayload
	if err := json.Unmarshal([]byte(rawJSON), &payload); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal discovery JSON", goerr.Value("json", rawJSON))
	}

	// Parsed but schema-violating payloads are errors, not empty results.
	// spots is in the schema's required list, so its absence means the
	// model ignored the schema.
	if len(payload.Spots) == 0 {
		return nil, goerr.New("discovery payload has no spots", goerr.Value("json", rawJSON))
	}

	return payload.toResult(query, fallback), nil
}

// discoverSchema is the response schema submitted with every discovery call
func discoverSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"locationName": {
				Type:        genai.TypeString,
				Description: "Human-readable resolved location name",
			},
			"lat": {
				Type:        genai.TypeNumber,
				Description: "Latitude of the resolved center",
			},
			"lng": {
				Type:        genai.TypeNumber,
				Description: "Longitude of the resolved center",
			},
			"spots": {
				Type:        genai.TypeArray,
				Description: "6 to 12 trending food spots within 5 km of the center",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":    {Type: genai.TypeString},
						"cuisine": {Type: genai.TypeString},
						"address": {Type: genai.TypeString},
						"priceTier": {
							Type: genai.TypeString,
							Enum: []string{"low", "medium", "high", "luxury"},
						},
						"lat": {Type: genai.TypeNumber},
						"lng": {Type: genai.TypeNumber},
						"sentimentScore": {
							Type:        genai.TypeNumber,
							Description: "0-100",
						},
						"trendingScore": {
							Type:        genai.TypeNumber,
							Description: "0-100",
						},
						"popularityVelocity": {
							Type:        genai.TypeInteger,
							Description: "Week-over-week percent change in mentions, may be negative",
						},
						"bestDishes": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
						"description":     {Type: genai.TypeString},
						"confidenceScore": {Type: genai.TypeNumber},
					},
					Required: []string{"name", "cuisine", "sentimentScore", "trendingScore", "bestDishes", "description", "lat", "lng"},
				},
			},
		},
		Required: []string{"locationName", "lat", "lng", "spots"},
	}
}

// discoverPayload mirrors the response schema. Everything beyond the
// required subset is a pointer so an upstream omission can be told apart
// from a zero value and defaulted instead of rejected.
type discoverPayload struct {
	LocationName string        `json:"locationName"`
	Lat          float64       `json:"lat"`
	Lng          float64       `json:"lng"`
	Spots        []spotPayload `json:"spots"`
}

type spotPayload struct {
	Name               string   `json:"name"`
	Cuisine            string   `json:"cuisine"`
	Address            string   `json:"address"`
	PriceTier          string   `json:"priceTier"`
	Lat                *float64 `json:"lat"`
	Lng                *float64 `json:"lng"`
	SentimentScore     *float64 `json:"sentimentScore"`
	TrendingScore      *float64 `json:"trendingScore"`
	PopularityVelocity *int     `json:"popularityVelocity"`
	BestDishes         []string `json:"bestDishes"`
	Description        string   `json:"description"`
	ConfidenceScore    *float64 `json:"confidenceScore"`
	Influencer         *struct {
		Summary     string   `json:"summary"`
		SourceCount int      `json:"sourceCount"`
		Handles     []string `json:"handles"`
	} `json:"influencer"`
	ViralPosts []struct {
		Handle   string `json:"handle"`
		Caption  string `json:"caption"`
		Likes    string `json:"likes"`
		ImageURL string `json:"imageUrl"`
		IsReel   bool   `json:"isReel"`
	} `json:"viralPosts"`
}

// toResult maps the untrusted payload into the domain shape with per-field
// defaulting. A partial spot never aborts the whole result.
func (p *discoverPayload) toResult(query string, fallback model.Coordinates) *model.DiscoveryResult {
	center := model.Coordinates{Lat: p.Lat, Lng: p.Lng}
	if center.Lat == 0 && center.Lng == 0 {
		center = fallback
	}

	locationName := p.LocationName
	if locationName == "" {
		locationName = query
	}

	now := time.Now()
	base := now.UnixMilli()

	spots := make([]*model.FoodSpot, 0, len(p.Spots))
	for i, s := range p.Spots {
		spot := &model.FoodSpot{
			ID:                 model.SpotID(fmt.Sprintf("%d-%d", base, i)),
			Name:               s.Name,
			Cuisine:            s.Cuisine,
			Address:            s.Address,
			PriceTier:          model.PriceTier(s.PriceTier),
			Coordinates:        spotCoordinates(s, center, i),
			SentimentScore:     valueOr(s.SentimentScore, 75),
			TrendingScore:      valueOr(s.TrendingScore, 80),
			PopularityVelocity: valueOr(s.PopularityVelocity, 10),
			BestDishes:         s.BestDishes,
			Description:        s.Description,
			ConfidenceScore:    valueOr(s.ConfidenceScore, 70),
			Seed:               len(s.Name),
			LastUpdated:        now,
		}

		if spot.Name == "" {
			spot.Name = fmt.Sprintf("Untitled Spot %d", i+1)
		}
		if spot.Address == "" {
			spot.Address = locationName
		}
		if spot.PriceTier.Validate() != nil {
			spot.PriceTier = model.PriceTierMedium
		}
		if len(spot.BestDishes) == 0 {
			spot.BestDishes = []string{"House special"}
		}

		if s.Influencer != nil {
			spot.Influencer = model.InfluencerData{
				Summary:     s.Influencer.Summary,
				SourceCount: s.Influencer.SourceCount,
				Handles:     s.Influencer.Handles,
			}
		} else {
			spot.Influencer = fillerInfluencer(spot.Name)
		}

		if len(s.ViralPosts) > 0 {
			posts := make([]model.ViralPost, 0, len(s.ViralPosts))
			for _, vp := range s.ViralPosts {
				posts = append(posts, model.ViralPost{
					Handle:   vp.Handle,
					Caption:  vp.Caption,
					Likes:    vp.Likes,
					ImageURL: vp.ImageURL,
					IsReel:   vp.IsReel,
				})
			}
			spot.ViralPosts = posts
		} else {
			spot.ViralPosts = fillerPosts(spot.Name, spot.Seed)
		}

		spots = append(spots, spot)
	}

	return &model.DiscoveryResult{
		Query:        query,
		LocationName: locationName,
		Center:       center,
		Spots:        spots,
		Source:       model.SourceGemini,
		GeneratedAt:  now,
	}
}

// spotCoordinates uses the upstream coordinates when present, otherwise the
// region center plus a small index-seeded jitter so defaulted spots do not
// stack on one pin
func spotCoordinates(s spotPayload, center model.Coordinates, index int) model.Coordinates {
	if s.Lat != nil && s.Lng != nil {
		return model.Coordinates{Lat: *s.Lat, Lng: *s.Lng}
	}

	r := rand.New(rand.NewSource(int64(index + 1)))
	return model.Coordinates{
		Lat: center.Lat + (r.Float64()-0.5)*0.02,
		Lng: center.Lng + (r.Float64()-0.5)*0.02,
	}
}

func valueOr[T any](v *T, fallback T) T {
	if v != nil {
		return *v
	}
	return fallback
}
