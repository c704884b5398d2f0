package services

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"olx-monitor/models"
	"olx-monitor/utils"
)

// ValidationError names the field a candidate failed on.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationWarning describes one rejected candidate of a batch.
type ValidationWarning struct {
	Index int
	Title string
	URL   string
	Err   *ValidationError
}

func (w ValidationWarning) String() string {
	return fmt.Sprintf("candidate #%d %q: %v", w.Index, w.Title, w.Err)
}

// Validator turns resolved RawCandidates into canonical Offers.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate checks a single candidate. A nil Date defaults to now.
func (v *Validator) Validate(c *models.RawCandidate, now time.Time) (models.Offer, error) {
	if c == nil {
		return models.Offer{}, &ValidationError{Field: "candidate", Reason: "missing"}
	}

	title := normaliseText(c.Title)
	if title == "" {
		return models.Offer{}, &ValidationError{Field: "title", Reason: "empty"}
	}
	price := normaliseText(c.Price)
	if price == "" {
		return models.Offer{}, &ValidationError{Field: "price", Reason: "empty"}
	}
	if strings.TrimSpace(c.Location) == "" {
		return models.Offer{}, &ValidationError{Field: "location", Reason: "empty"}
	}

	link := strings.TrimSpace(c.URL)
	if err := checkAbsoluteURL(link); err != nil {
		return models.Offer{}, &ValidationError{Field: "url", Reason: err.Error()}
	}

	if strings.TrimSpace(c.ID) == "" {
		return models.Offer{}, &ValidationError{Field: "id", Reason: "empty"}
	}

	date := now
	if c.Date != nil {
		date = *c.Date
	}

	return models.Offer{
		ID:       strings.TrimSpace(c.ID),
		Title:    title,
		Price:    price,
		Location: c.Location,
		URL:      link,
		Date:     date,
	}, nil
}

// ValidateAll validates every candidate independently. Rejected candidates
// are logged and returned as warnings; they never stop the batch.
func (v *Validator) ValidateAll(raw []*models.RawCandidate, now time.Time) ([]models.Offer, []ValidationWarning) {
	offers := make([]models.Offer, 0, len(raw))
	var warnings []ValidationWarning

	for i, c := range raw {
		offer, err := v.Validate(c, now)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				verr = &ValidationError{Field: "candidate", Reason: err.Error()}
			}
			w := ValidationWarning{Index: i, Err: verr}
			if c != nil {
				w.Title = c.Title
				w.URL = c.URL
			}
			v.logger.Warn("[validator] Skipping invalid offer: %s", w)
			warnings = append(warnings, w)
			continue
		}
		offers = append(offers, offer)
	}

	if len(warnings) > 0 {
		v.logger.Warn("[validator] %d of %d offers failed validation and were ignored",
			len(warnings), len(raw))
	}
	return offers, warnings
}

func checkAbsoluteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("not an absolute URL")
	}
	return nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
