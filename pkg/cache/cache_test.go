package cache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/foodifind/foodifind/pkg/cache"
	"github.com/foodifind/foodifind/pkg/model"
)

func sampleResult(query string) *model.DiscoveryResult {
	return &model.DiscoveryResult{
		Query:        query,
		LocationName: query,
		Center:       model.Coordinates{Lat: 1.5, Lng: 2.5},
		Spots: []*model.FoodSpot{
			{ID: "spot-1", Name: "Sample Spot", Cuisine: "Fusion"},
		},
		Source: model.SourceMock,
	}
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(0)

	missing, err := c.Get(ctx, "paris")
	gt.NoError(t, err)
	gt.Nil(t, missing)

	want := sampleResult("paris")
	gt.NoError(t, c.Set(ctx, "paris", want))

	got, err := c.Get(ctx, "paris")
	gt.NoError(t, err)
	gt.Equal(t, got, want)
}

func TestMemoryOverwrite(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(0)

	gt.NoError(t, c.Set(ctx, "paris", sampleResult("paris")))
	updated := sampleResult("paris updated")
	gt.NoError(t, c.Set(ctx, "paris", updated))

	got, err := c.Get(ctx, "paris")
	gt.NoError(t, err)
	gt.Equal(t, got.Query, "paris updated")
	gt.Equal(t, c.Len(), 1)
}

func TestMemoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory(3)

	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("query-%d", i)
		gt.NoError(t, c.Set(ctx, key, sampleResult(key)))
	}

	gt.Equal(t, c.Len(), 3)

	// The first inserted entry is gone, the newest survives
	oldest, err := c.Get(ctx, "query-0")
	gt.NoError(t, err)
	gt.Nil(t, oldest)

	newest, err := c.Get(ctx, "query-3")
	gt.NoError(t, err)
	gt.NotNil(t, newest)
}
