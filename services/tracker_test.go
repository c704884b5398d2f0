package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olx-monitor/models"
)

func offer(id string, date time.Time) models.Offer {
	return models.Offer{
		ID:       id,
		Title:    "offer " + id,
		Price:    "100 zł",
		Location: "Warszawa - Dzisiaj 10:00",
		URL:      "https://www.olx.pl/d/oferta/offer-" + id,
		Date:     date,
	}
}

func ids(offers []models.Offer) []string {
	out := make([]string, 0, len(offers))
	for _, o := range offers {
		out = append(out, o.ID)
	}
	return out
}

func TestComputeNewDetectsOnlyNewOffers(t *testing.T) {
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	state := RestoreTrackerState([]string{"1"}, older)

	newOffers, next := ComputeNew([]models.Offer{offer("1", older), offer("2", newer)}, state)

	assert.Equal(t, []string{"2"}, ids(newOffers))
	latest, ok := next.LatestDate()
	require.True(t, ok)
	assert.Equal(t, newer, latest)
	assert.True(t, next.Seen("1"))
	assert.True(t, next.Seen("2"))
}

func TestComputeNewFirstRunReturnsEverything(t *testing.T) {
	now := time.Now()
	batch := []models.Offer{offer("a", now), offer("b", now.Add(-48*time.Hour))}

	newOffers, next := ComputeNew(batch, NewTrackerState())

	assert.Equal(t, []string{"a", "b"}, ids(newOffers))
	assert.Equal(t, 2, next.Len())
}

func TestComputeNewIsIdempotent(t *testing.T) {
	now := time.Now()
	batch := []models.Offer{offer("a", now), offer("b", now)}

	_, once := ComputeNew(batch, NewTrackerState())
	again, twice := ComputeNew(batch, once)

	assert.Empty(t, again)
	assert.Equal(t, once.Len(), twice.Len())
}

func TestComputeNewRecencyFilter(t *testing.T) {
	mark := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	state := RestoreTrackerState(nil, mark)

	batch := []models.Offer{
		offer("old", mark.Add(-time.Minute)),
		offer("boundary", mark),
		offer("fresh", mark.Add(time.Minute)),
	}

	newOffers, _ := ComputeNew(batch, state)

	assert.Equal(t, []string{"boundary", "fresh"}, ids(newOffers))
}

func TestComputeNewKeepsInputOrder(t *testing.T) {
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	batch := []models.Offer{
		offer("c", base.Add(time.Hour)),
		offer("a", base),
		offer("b", base.Add(2*time.Hour)),
	}

	newOffers, _ := ComputeNew(batch, NewTrackerState())

	assert.Equal(t, []string{"c", "a", "b"}, ids(newOffers))
}

func TestComputeNewMergesDuplicateIDsInBatch(t *testing.T) {
	now := time.Now()
	first := offer("dup", now)
	second := offer("dup", now)
	second.URL = "https://www.olx.pl/d/oferta/other"

	newOffers, _ := ComputeNew([]models.Offer{first, second}, NewTrackerState())

	require.Len(t, newOffers, 1)
	assert.Equal(t, first.URL, newOffers[0].URL)
}

func TestComputeNewLeavesInputStateUntouched(t *testing.T) {
	mark := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	state := RestoreTrackerState([]string{"1"}, mark)

	_, next := ComputeNew([]models.Offer{offer("2", mark.Add(time.Hour))}, state)

	assert.False(t, state.Seen("2"))
	latest, _ := state.LatestDate()
	assert.Equal(t, mark, latest)
	assert.True(t, next.Seen("2"))
}

func TestComputeNewMonotonicity(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	state := NewTrackerState()

	batches := [][]models.Offer{
		{offer("1", base), offer("2", base.Add(time.Hour))},
		{offer("3", base.Add(-time.Hour)), offer("2", base.Add(time.Hour))},
		{offer("4", base.Add(3*time.Hour))},
		{},
	}

	for _, batch := range batches {
		_, next := ComputeNew(batch, state)

		for _, id := range state.IDs() {
			assert.True(t, next.Seen(id), "id %q lost", id)
		}
		prev, hadPrev := state.LatestDate()
		cur, hasCur := next.LatestDate()
		if hadPrev {
			require.True(t, hasCur)
			assert.False(t, cur.Before(prev), "latest date went backwards")
		}
		state = next
	}

	assert.Equal(t, 3, state.Len())
}

func TestZeroTrackerStateIsUsable(t *testing.T) {
	var state TrackerState

	newOffers, next := ComputeNew([]models.Offer{offer("1", time.Now())}, state)

	assert.Len(t, newOffers, 1)
	assert.True(t, next.Seen("1"))
	assert.Equal(t, 0, state.Len())
}
