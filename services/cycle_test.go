package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olx-monitor/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRunCycleEmptyExtractionLeavesStateAlone(t *testing.T) {
	c := NewController(newTestLogger(), fixedClock(refNow))
	state := RestoreTrackerState([]string{"1"}, refNow)

	result := c.RunCycle(nil, state)

	assert.True(t, result.Empty)
	assert.Empty(t, result.NewOffers)
	assert.Equal(t, 1, result.State.Len())
	latest, _ := result.State.LatestDate()
	assert.Equal(t, refNow, latest)
}

func TestRunCycleParsesResolvesAndFilters(t *testing.T) {
	c := NewController(newTestLogger(), fixedClock(refNow))

	raw := []*models.RawCandidate{
		{
			Title:    "Rower górski",
			Price:    "1 200 zł",
			Location: "Warszawa - Dzisiaj 12:34",
			URL:      "https://www.olx.pl/d/oferta/rower-gorski-1234567890/",
		},
		{
			Title:    "",
			Price:    "50 zł",
			Location: "Kraków - 3 lipca 2020",
			URL:      "https://www.olx.pl/d/oferta/lampa-7654321/",
		},
		{
			Title:    "Szafa",
			Price:    "Za darmo",
			Location: "Gdańsk - 3 lipca 2020",
			URL:      "https://www.olx.pl/d/oferta/szafa",
		},
	}

	result := c.RunCycle(raw, NewTrackerState())

	require.False(t, result.Empty)
	assert.NotEqual(t, uuid.Nil, result.ID)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "title", result.Warnings[0].Err.Field)

	require.Len(t, result.NewOffers, 2)
	first := result.NewOffers[0]
	assert.Equal(t, "1234567890", first.ID)
	assert.Equal(t, time.Date(2024, time.May, 10, 12, 34, 0, 0, time.UTC), first.Date)

	second := result.NewOffers[1]
	assert.Equal(t, Fingerprint("Szafa", "Za darmo", "Gdańsk - 3 lipca 2020"), second.ID)
	assert.Equal(t, time.Date(2020, time.July, 3, 0, 0, 0, 0, time.UTC), second.Date)

	assert.True(t, result.State.Seen("1234567890"))
	latest, ok := result.State.LatestDate()
	require.True(t, ok)
	assert.Equal(t, first.Date, latest)
}

func TestRunCycleSecondPassOnlyReportsNewListings(t *testing.T) {
	c := NewController(newTestLogger(), fixedClock(refNow))

	firstPage := []*models.RawCandidate{
		{Title: "A", Price: "1 zł", Location: "Opole - Dzisiaj 10:00", URL: "https://www.olx.pl/d/oferta/a-111111/"},
	}
	first := c.RunCycle(firstPage, NewTrackerState())
	require.Len(t, first.NewOffers, 1)

	secondPage := []*models.RawCandidate{
		{Title: "B", Price: "2 zł", Location: "Opole - Dzisiaj 11:00", URL: "https://www.olx.pl/d/oferta/b-222222/"},
		firstPage[0],
		{Title: "Old", Price: "3 zł", Location: "Opole - 1 stycznia 2020", URL: "https://www.olx.pl/d/oferta/old-333333/"},
	}
	second := c.RunCycle(secondPage, first.State)

	assert.Equal(t, []string{"222222"}, ids(second.NewOffers))
	assert.Equal(t, 2, second.State.Len())
}

func TestRunCycleKeepsPreParsedFields(t *testing.T) {
	c := NewController(newTestLogger(), fixedClock(refNow))
	date := time.Date(2023, 3, 3, 3, 3, 0, 0, time.UTC)

	raw := []*models.RawCandidate{{
		ID:       "custom",
		Title:    "T",
		Price:    "1 zł",
		Location: "Opole - Dzisiaj 10:00",
		URL:      "https://www.olx.pl/d/oferta/t-999999/",
		Date:     &date,
	}}

	result := c.RunCycle(raw, NewTrackerState())

	require.Len(t, result.NewOffers, 1)
	assert.Equal(t, "custom", result.NewOffers[0].ID)
	assert.Equal(t, date, result.NewOffers[0].Date)
}

func TestRunCycleDoesNotMutateCandidates(t *testing.T) {
	c := NewController(newTestLogger(), fixedClock(refNow))
	raw := []*models.RawCandidate{
		{Title: "A", Price: "1 zł", Location: "Opole - Dzisiaj 10:00", URL: "https://www.olx.pl/d/oferta/a-111111/"},
	}

	c.RunCycle(raw, NewTrackerState())

	assert.Empty(t, raw[0].ID)
	assert.Nil(t, raw[0].Date)
}
