package agent_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/foodifind/foodifind/pkg/agent"
	"github.com/foodifind/foodifind/pkg/cache"
	"github.com/foodifind/foodifind/pkg/model"
	"github.com/foodifind/foodifind/pkg/usecase/discovery"
)

func newTestPipeline() *agent.Pipeline {
	svc := discovery.New(nil, cache.NewMemory(0))
	return agent.NewPipeline(svc, agent.NewLog(), agent.Delays{})
}

func TestRunStageSequence(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline()

	gt.Equal(t, p.Stage(), model.StageIdle)
	gt.Nil(t, p.Result())

	result := p.Run(ctx, "Tokyo", model.Coordinates{Lat: 35.6762, Lng: 139.6503})
	gt.NotNil(t, result)
	gt.Equal(t, result.LocationName, "Tokyo")
	gt.Equal(t, len(result.Spots), 4)

	// Pipeline returns to idle and commits the result
	gt.Equal(t, p.Stage(), model.StageIdle)
	gt.Equal(t, p.Result(), result)

	// Log records one entry per stage transition, in order
	entries := p.Log().Entries()
	gt.Equal(t, len(entries), 5)
	wantStages := []model.Stage{
		model.StageDiscovery,
		model.StageSearch,
		model.StageRanking,
		model.StageValidation,
		model.StageIdle,
	}
	for i, entry := range entries {
		gt.Equal(t, entry.Stage, wantStages[i])
		gt.NotEqual(t, entry.Message, "")
	}
}

func TestRunAppendsLogAcrossRuns(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline()

	p.Run(ctx, "paris", model.Coordinates{})
	p.Run(ctx, "kochi", model.Coordinates{})

	// Append-only: the second run never clears the first run's entries
	gt.Equal(t, len(p.Log().Entries()), 10)
}

func TestWeeklyRefresh(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline()

	before := p.Run(ctx, "kochi", model.Coordinates{})
	prevScores := make([]float64, len(before.Spots))
	prevUpdated := make([]time.Time, len(before.Spots))
	for i, spot := range before.Spots {
		prevScores[i] = spot.TrendingScore
		prevUpdated[i] = spot.LastUpdated
	}

	after := p.WeeklyRefresh(ctx)
	gt.NotNil(t, after)
	gt.Equal(t, len(after.Spots), len(before.Spots))

	for i, spot := range after.Spots {
		delta := spot.TrendingScore - prevScores[i]
		if delta < -3 || delta > 3 {
			if spot.TrendingScore != 100 {
				t.Fatal("trending score delta out of bounds", delta)
			}
		}
		gt.True(t, spot.TrendingScore <= 100)
		gt.True(t, spot.LastUpdated.After(prevUpdated[i]))
	}
}

func TestWeeklyRefreshWithoutResult(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline()

	gt.Nil(t, p.WeeklyRefresh(ctx))
}

func TestWeeklyRefreshDoesNotTouchCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(0)
	svc := discovery.New(nil, c)
	p := agent.NewPipeline(svc, agent.NewLog(), agent.Delays{})

	p.Run(ctx, "kochi", model.Coordinates{})

	cached, err := c.Get(ctx, "kochi")
	gt.NoError(t, err)
	scores := make([]float64, len(cached.Spots))
	for i, spot := range cached.Spots {
		scores[i] = spot.TrendingScore
	}

	p.WeeklyRefresh(ctx)

	// The cached entry keeps its pre-refresh scores: the perturbation
	// lives only on the freshly committed result
	cachedAfter, err := c.Get(ctx, "kochi")
	gt.NoError(t, err)
	for i, spot := range cachedAfter.Spots {
		gt.Equal(t, spot.TrendingScore, scores[i])
	}
}

func TestWeeklyRefreshLeavesPriorResultIntact(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline()

	before := p.Run(ctx, "paris", model.Coordinates{Lat: 48.85, Lng: 2.35})
	prevScores := make([]float64, len(before.Spots))
	prevUpdated := make([]time.Time, len(before.Spots))
	for i, spot := range before.Spots {
		prevScores[i] = spot.TrendingScore
		prevUpdated[i] = spot.LastUpdated
	}

	after := p.WeeklyRefresh(ctx)
	gt.NotNil(t, after)

	// Refresh commits copies; a holder of the old result never sees the
	// perturbation
	for i, spot := range before.Spots {
		gt.Equal(t, spot.TrendingScore, prevScores[i])
		gt.Equal(t, spot.LastUpdated, prevUpdated[i])
		gt.True(t, spot != after.Spots[i])
	}
	gt.Equal(t, p.Result(), after)
}

// Concurrent runs are deliberately unguarded: both must complete, stage
// labels may flicker, and whichever commits last wins.
func TestConcurrentRunsUnguarded(t *testing.T) {
	ctx := context.Background()
	p := newTestPipeline()

	queries := []string{"paris", "new york", "kochi", "lagos"}
	results := make(chan *model.DiscoveryResult, len(queries))

	var wg sync.WaitGroup
	for _, q := range queries {
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			results <- p.Run(ctx, query, model.Coordinates{Lat: 1, Lng: 1})
		}(q)
	}
	wg.Wait()
	close(results)

	for result := range results {
		gt.NotNil(t, result)
		gt.Equal(t, len(result.Spots), 4)
	}

	gt.Equal(t, len(p.Log().Entries()), 5*len(queries))
	gt.NotNil(t, p.Result())
}

func TestLogSubscribe(t *testing.T) {
	log := agent.NewLog()
	ch, cancel := log.Subscribe()
	defer cancel()

	log.Append(model.StageSearch, "searching %s", "paris")

	select {
	case entry := <-ch:
		gt.Equal(t, entry.Stage, model.StageSearch)
		gt.Equal(t, entry.Message, "searching paris")
	case <-time.After(time.Second):
		t.Fatal("no log entry delivered")
	}
}

func TestLogSubscribeCancel(t *testing.T) {
	log := agent.NewLog()
	ch, cancel := log.Subscribe()
	cancel()

	// Channel is closed after cancel; appends no longer reach it
	log.Append(model.StageIdle, "after cancel")
	_, ok := <-ch
	gt.False(t, ok)

	// Double cancel is safe
	cancel()
}
