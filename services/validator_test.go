package services

import (
	"testing"
	"time"

	"olx-monitor/models"
	"olx-monitor/utils"
)

func newTestLogger() *utils.Logger { return utils.Discard() }

func validCandidate() *models.RawCandidate {
	d := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	return &models.RawCandidate{
		ID:       "1",
		Title:    "Rower górski",
		Price:    "1 200 zł",
		Location: "Warszawa - Dzisiaj 10:00",
		URL:      "https://www.olx.pl/d/oferta/rower-1",
		Date:     &d,
	}
}

func TestValidatorRejectsMissingFields(t *testing.T) {
	v := NewValidator(newTestLogger())
	now := time.Now()

	tests := []struct {
		name   string
		mutate func(c *models.RawCandidate)
		field  string
	}{
		{"empty title", func(c *models.RawCandidate) { c.Title = "" }, "title"},
		{"blank title", func(c *models.RawCandidate) { c.Title = "   \t" }, "title"},
		{"empty price", func(c *models.RawCandidate) { c.Price = " " }, "price"},
		{"empty location", func(c *models.RawCandidate) { c.Location = "" }, "location"},
		{"relative url", func(c *models.RawCandidate) { c.URL = "/d/oferta/rower-1" }, "url"},
		{"invalid url", func(c *models.RawCandidate) { c.URL = "invalid" }, "url"},
		{"bad escape", func(c *models.RawCandidate) { c.URL = "https://www.olx.pl/%zz" }, "url"},
		{"empty id", func(c *models.RawCandidate) { c.ID = "" }, "id"},
	}

	for _, tt := range tests {
		c := validCandidate()
		tt.mutate(c)
		_, err := v.Validate(c, now)
		if err == nil {
			t.Errorf("%s: expected an error", tt.name)
			continue
		}
		verr, ok := err.(*ValidationError)
		if !ok {
			t.Errorf("%s: got %T, want *ValidationError", tt.name, err)
			continue
		}
		if verr.Field != tt.field {
			t.Errorf("%s: field = %q; want %q", tt.name, verr.Field, tt.field)
		}
	}
}

func TestValidatorDefaultsDateToNow(t *testing.T) {
	v := NewValidator(newTestLogger())
	now := time.Date(2024, time.June, 2, 8, 0, 0, 0, time.UTC)

	c := validCandidate()
	c.Date = nil

	offer, err := v.Validate(c, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !offer.Date.Equal(now) {
		t.Errorf("date = %v; want %v", offer.Date, now)
	}
}

func TestValidatorNormalisesText(t *testing.T) {
	v := NewValidator(newTestLogger())

	c := validCandidate()
	c.Title = "  Rower \n górski  "
	c.Price = " 1 200 zł\t"
	c.Location = "Warszawa - Dzisiaj 10:00 "

	offer, err := v.Validate(c, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.Title != "Rower górski" {
		t.Errorf("title = %q", offer.Title)
	}
	if offer.Price != "1 200 zł" {
		t.Errorf("price = %q", offer.Price)
	}
	if offer.Location != c.Location {
		t.Errorf("location should be kept verbatim, got %q", offer.Location)
	}
}

func TestValidateAllSkipsInvalidOffers(t *testing.T) {
	v := NewValidator(newTestLogger())

	bad := validCandidate()
	bad.ID = "2"
	bad.Title = ""
	bad.URL = "invalid"
	bad.Date = nil

	offers, warnings := v.ValidateAll([]*models.RawCandidate{validCandidate(), bad}, time.Now())

	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}
	if offers[0].ID != "1" {
		t.Errorf("id = %q; want %q", offers[0].ID, "1")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Index != 1 || warnings[0].Err.Field != "title" {
		t.Errorf("unexpected warning: %s", warnings[0])
	}
}

func TestValidateAllHandlesNilCandidate(t *testing.T) {
	v := NewValidator(newTestLogger())

	offers, warnings := v.ValidateAll([]*models.RawCandidate{nil, validCandidate()}, time.Now())

	if len(offers) != 1 || len(warnings) != 1 {
		t.Errorf("got %d offers and %d warnings; want 1 and 1", len(offers), len(warnings))
	}
}
