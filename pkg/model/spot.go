package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidPriceTier = goerr.New("invalid price tier")
)

type SpotID string

// NewSpotID generates a new unique SpotID
func NewSpotID() SpotID {
	return SpotID(uuid.New().String())
}

// Coordinates is a WGS84 point in degrees. No range validation is applied.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PriceTier string

const (
	PriceTierLow    PriceTier = "low"
	PriceTierMedium PriceTier = "medium"
	PriceTierHigh   PriceTier = "high"
	PriceTierLuxury PriceTier = "luxury"
)

// Validate checks if the price tier is valid
func (p PriceTier) Validate() error {
	switch p {
	case PriceTierLow, PriceTierMedium, PriceTierHigh, PriceTierLuxury:
		return nil
	default:
		return goerr.Wrap(ErrInvalidPriceTier, "unknown tier", goerr.V("tier", p))
	}
}

// FoodSpot is one recommended establishment with its aggregated
// social/sentiment metadata. Score fields are intended to be 0-100 but are
// not enforced; upstream payloads are untrusted and defaulted instead of
// rejected.
type FoodSpot struct {
	ID                 SpotID         `json:"id"`
	Name               string         `json:"name"`
	Cuisine            string         `json:"cuisine"`
	Address            string         `json:"address"`
	PriceTier          PriceTier      `json:"priceTier"`
	Coordinates        Coordinates    `json:"coordinates"`
	SentimentScore     float64        `json:"sentimentScore"`
	TrendingScore      float64        `json:"trendingScore"`
	PopularityVelocity int            `json:"popularityVelocity"`
	BestDishes         []string       `json:"bestDishes"`
	Description        string         `json:"description"`
	ConfidenceScore    float64        `json:"confidenceScore"`
	Seed               int            `json:"seed"`
	Influencer         InfluencerData `json:"influencer"`
	ViralPosts         []ViralPost    `json:"viralPosts"`
	LastUpdated        time.Time      `json:"lastUpdated"`
}

// InfluencerData summarizes influencer coverage of one spot
type InfluencerData struct {
	Summary     string   `json:"summary"`
	SourceCount int      `json:"sourceCount"`
	Handles     []string `json:"handles"`
}

// ViralPost is a simulated social media post attached to a spot. Likes is a
// display string ("12.5k"), not a number.
type ViralPost struct {
	Handle   string `json:"handle"`
	Caption  string `json:"caption"`
	Likes    string `json:"likes"`
	ImageURL string `json:"imageUrl"`
	IsReel   bool   `json:"isReel,omitempty"`
}

type ResultSource string

const (
	SourceGemini ResultSource = "gemini"
	SourceMock   ResultSource = "mock"
)

// DiscoveryResult is the bundle returned for one query: the resolved
// location, its map center and the spot list. Spot IDs are unique within
// one result.
type DiscoveryResult struct {
	Query        string       `json:"query"`
	LocationName string       `json:"locationName"`
	Center       Coordinates  `json:"center"`
	Spots        []*FoodSpot  `json:"spots"`
	Source       ResultSource `json:"source"`
	GeneratedAt  time.Time    `json:"generatedAt"`
}
