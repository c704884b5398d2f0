package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olx-monitor/models"
)

var (
	day1 = time.Date(2024, time.May, 9, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, time.May, 10, 14, 5, 0, 0, time.UTC)
)

func sampleOffers() []models.Offer {
	return []models.Offer{
		{ID: "111111", Title: "Rower", Price: "500 zł", Location: "Gdańsk - Dzisiaj o 14:05", URL: "https://www.olx.pl/d/oferta/rower-ID111111.html", Date: day2},
		{ID: "222222", Title: "Biurko", Price: "120 zł", Location: "Poznań - 09 maja 2024", URL: "https://www.olx.pl/d/oferta/biurko-ID222222.html", Date: day1},
	}
}

func TestSnapshotWriterSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	w, err := NewSnapshotWriter(dir)
	require.NoError(t, err)
	w.now = func() time.Time { return time.UnixMilli(1715349900123) }

	path, err := w.Save(sampleOffers(), PrefixInitial)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "olx_offers_1715349900123.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"111111\"")

	var got []models.Offer
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Biurko", got[1].Title)
	assert.True(t, got[0].Date.Equal(day2))
}

func TestSnapshotWriterEmptyBatch(t *testing.T) {
	w, err := NewSnapshotWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.Save(nil, PrefixNew)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
	assert.Contains(t, filepath.Base(path), "olx_new_offers_")
}

func TestCSVWriterAppendsWithSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "candidates.csv")
	scraped := time.Date(2024, time.May, 10, 15, 0, 0, 0, time.UTC)

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw([]*models.RawCandidate{
		{Title: "Rower", Price: "500 zł", Location: "Gdańsk", URL: "https://www.olx.pl/a-ID1.html", ScrapedAt: scraped},
		nil,
	}))
	require.NoError(t, w.Close())

	w, err = NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw([]*models.RawCandidate{
		{ID: "2", Title: "Biurko", Date: &day1},
	}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, rawHeader, rows[0])
	assert.Equal(t, []string{"", "Rower", "500 zł", "Gdańsk", "https://www.olx.pl/a-ID1.html", "", "2024-05-10T15:00:00Z"}, rows[1])
	assert.Equal(t, "2024-05-09T00:00:00Z", rows[2][5])
	assert.Equal(t, "", rows[2][6])
}

func TestSQLWriterSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "offers.db")

	w, err := NewSQLWriter(DriverSQLite, dsn)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(ctx, sampleOffers()))

	// Re-archiving an id keeps the first row.
	dup := sampleOffers()[:1]
	dup[0].Title = "changed"
	require.NoError(t, w.Write(ctx, dup))

	got, err := w.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "111111", got[0].ID)
	assert.Equal(t, "Rower", got[0].Title)
	assert.True(t, got[0].Date.Equal(day2))
	assert.Equal(t, "222222", got[1].ID)
}

func TestSQLWriterLargeBatch(t *testing.T) {
	ctx := context.Background()
	w, err := NewSQLWriter(DriverSQLite, filepath.Join(t.TempDir(), "offers.db"))
	require.NoError(t, err)
	defer w.Close()

	offers := make([]models.Offer, 0, 120)
	for i := 0; i < 120; i++ {
		offers = append(offers, models.Offer{
			ID: string(rune('A'+i/26)) + string(rune('a'+i%26)), Title: "t", Price: "1 zł",
			Location: "Łódź", URL: "https://www.olx.pl/x", Date: day1.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, w.Write(ctx, offers))

	got, err := w.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 120)
}

func TestNewSQLWriterUnknownDriver(t *testing.T) {
	_, err := NewSQLWriter("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported driver")
}
