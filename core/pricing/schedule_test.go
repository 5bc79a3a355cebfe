package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evtariff/core/clock"
	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricecache"
)

func nightDaySource() *fakeSource {
	src := newFakeSource()
	src.stations["S1"] = &model.Station{ID: "S1", TariffPlanID: "p"}
	src.rules["p"] = []model.TariffRule{
		{ID: "night", Name: "Night", ConnectorType: model.ConnectorAll, TimeStart: tod("22:00:00"), TimeEnd: tod("06:00:00"), Price: 5, Priority: 10},
		{ID: "day", Name: "Day", ConnectorType: model.ConnectorAll, Price: 10, Priority: 1},
	}
	return src
}

func TestProjectSamplesDay(t *testing.T) {
	clk := clock.NewMock(at("14:20:00"))
	store := newMemStore()
	cache := pricecache.New(store, pricecache.DefaultConfig(), clk, nil)
	r := newTestResolver(t, nightDaySource(), cache, clk)
	ctx := context.Background()

	cache.PutPricing(ctx, pricecache.Key{StationID: "S1"}, model.PricingResult{RatePerKWh: 99})
	puts := store.writes()

	sched := NewProjector(r, nil).Project(ctx, Request{StationID: "S1"})
	require.Len(t, sched.Slots, len(DefaultSampleHours))

	want := []float64{5, 5, 10, 10, 10, 10, 10}
	assert.Equal(t, want, sched.Rates())
	assert.Equal(t, "00:00", sched.Slots[0].Time)
	assert.Equal(t, "Night (00:00)", sched.Slots[0].Label)
	assert.Equal(t, "Night", sched.Slots[0].ActiveRule)
	assert.Equal(t, "Late evening (21:00)", sched.Slots[6].Label)
	assert.Equal(t, time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC), sched.Slots[6].At)

	assert.Equal(t, puts, store.writes(), "preview writes nothing")
	_, tier, ok := cache.GetPricing(ctx, pricecache.Key{StationID: "S1"})
	require.True(t, ok)
	assert.Equal(t, pricecache.TierPersistent, tier, "memory entry evicted")
}

func TestProjectCustomHours(t *testing.T) {
	r := newTestResolver(t, nightDaySource(), nil, clock.NewMock(at("08:00:00")))
	sched := NewProjector(r, []SampleHour{{23, "Late"}}).Project(context.Background(), Request{StationID: "S1"})
	require.Len(t, sched.Slots, 1)
	assert.Equal(t, 5.0, sched.Slots[0].Rate)
	assert.Equal(t, model.DefaultCurrency, sched.Slots[0].Currency)
}

func TestScheduleSummary(t *testing.T) {
	s := Schedule{Slots: []Slot{{Rate: 5}, {Rate: 10}, {Rate: 15}}}
	sum := s.Summary()
	assert.Equal(t, 5.0, sum.Min)
	assert.Equal(t, 15.0, sum.Max)
	assert.InDelta(t, 10.0, sum.Mean, 1e-9)
	assert.InDelta(t, 5.0, sum.StdDev, 1e-9)

	assert.Equal(t, Summary{}, Schedule{}.Summary())
	assert.Equal(t, Summary{Min: 3, Max: 3, Mean: 3}, Schedule{Slots: []Slot{{Rate: 3}}}.Summary())
}
