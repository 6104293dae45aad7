package agent

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/foodifind/foodifind/pkg/model"
	"github.com/foodifind/foodifind/pkg/usecase/discovery"
	"github.com/foodifind/foodifind/pkg/utils/logging"
)

// Delays are the cosmetic pauses between stage transitions. They exist only
// so a UI spinner has something to show; they carry no ordering guarantee
// with respect to anything except each other. Tests set them to zero.
type Delays struct {
	Discovery  time.Duration `yaml:"discovery"`
	Ranking    time.Duration `yaml:"ranking"`
	Validation time.Duration `yaml:"validation"`
	Refresh    time.Duration `yaml:"refresh"`
}

func DefaultDelays() Delays {
	return Delays{
		Discovery:  600 * time.Millisecond,
		Ranking:    700 * time.Millisecond,
		Validation: 500 * time.Millisecond,
		Refresh:    800 * time.Millisecond,
	}
}

// Pipeline runs the fixed linear stage sequence around one discovery call:
// discovery -> search -> ranking -> validation -> idle. It is deliberately
// NOT re-entrant safe: nothing prevents a second run while one is in
// flight, there is no cancellation, and a slow run commits its result
// whenever it finishes, last writer wins. Stage labels flicker under
// concurrent runs and that is the documented behavior.
type Pipeline struct {
	svc    *discovery.Service
	log    *Log
	delays Delays

	mu     sync.Mutex
	stage  model.Stage
	result *model.DiscoveryResult
}

func NewPipeline(svc *discovery.Service, log *Log, delays Delays) *Pipeline {
	if log == nil {
		log = NewLog()
	}
	return &Pipeline{
		svc:    svc,
		log:    log,
		delays: delays,
		stage:  model.StageIdle,
	}
}

// Log returns the pipeline's agent log
func (p *Pipeline) Log() *Log {
	return p.log
}

// Stage returns the current stage label
func (p *Pipeline) Stage() model.Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Result returns the last committed result, or nil before the first run
func (p *Pipeline) Result() *model.DiscoveryResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Run executes the stage sequence for one query and commits the result.
// Like the discovery service it never fails: the result is always non-nil.
func (p *Pipeline) Run(ctx context.Context, query string, fallback model.Coordinates) *model.DiscoveryResult {
	logger := logging.From(ctx)

	p.setStage(model.StageDiscovery)
	p.log.Append(model.StageDiscovery, "Scanning social signals for %q", query)
	time.Sleep(p.delays.Discovery)

	p.setStage(model.StageSearch)
	p.log.Append(model.StageSearch, "Searching trending spots near %q", query)

	result, err := p.svc.Fetch(ctx, query, fallback)
	if err != nil {
		// Fetch's contract is total; this branch is unreachable but kept
		// so the pipeline stays total even if the contract changes
		logger.Error("discovery fetch failed", "error", err)
		result = discovery.MockSpots(query, fallback.Lat, fallback.Lng)
	}

	p.setStage(model.StageRanking)
	p.log.Append(model.StageRanking, "Ranking %d candidate spots", len(result.Spots))
	time.Sleep(p.delays.Ranking)

	p.setStage(model.StageValidation)
	p.log.Append(model.StageValidation, "Validating coordinates and metadata")
	time.Sleep(p.delays.Validation)

	p.commit(result)

	p.setStage(model.StageIdle)
	p.log.Append(model.StageIdle, "Discovery complete: %d spots in %s", len(result.Spots), result.LocationName)

	return result
}

// WeeklyRefresh perturbs each held spot's trending score by a bounded
// random delta and stamps a new update time, after the configured delay.
// The refresh is copy-on-write: it commits a fresh result built from spot
// copies and never mutates the previously committed one, so readers that
// hold the old pointer (handlers mid-encode, the cache entry) are
// unaffected. Returns nil when nothing has been committed yet.
func (p *Pipeline) WeeklyRefresh(ctx context.Context) *model.DiscoveryResult {
	time.Sleep(p.delays.Refresh)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.result == nil {
		return nil
	}

	next := *p.result
	next.Spots = make([]*model.FoodSpot, len(p.result.Spots))
	for i, prev := range p.result.Spots {
		spot := *prev

		delta := rand.Float64()*6 - 3
		spot.TrendingScore += delta
		if spot.TrendingScore > 100 {
			spot.TrendingScore = 100
		}

		now := time.Now()
		if !now.After(spot.LastUpdated) {
			now = spot.LastUpdated.Add(time.Millisecond)
		}
		spot.LastUpdated = now

		next.Spots[i] = &spot
	}
	p.result = &next

	p.log.Append(model.StageIdle, "Weekly refresh applied to %d spots", len(next.Spots))
	return p.result
}

func (p *Pipeline) setStage(stage model.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = stage
}

func (p *Pipeline) commit(result *model.DiscoveryResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = result
}
