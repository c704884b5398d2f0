package services

import (
	"time"

	"github.com/google/uuid"

	"olx-monitor/models"
	"olx-monitor/utils"
)

// CycleResult is the outcome of one scan pass.
type CycleResult struct {
	ID        uuid.UUID
	StartedAt time.Time
	// Empty is set when extraction produced no candidates at all; State is
	// then the input state.
	Empty     bool
	Total     int
	Valid     int
	NewOffers []models.Offer
	State     TrackerState
	Warnings  []ValidationWarning
}

// Controller runs scan cycles: resolve, validate, dedup.
type Controller struct {
	logger    *utils.Logger
	validator *Validator
	now       func() time.Time
}

// NewController creates a Controller. A nil now defaults to time.Now.
func NewController(logger *utils.Logger, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		logger:    logger,
		validator: NewValidator(logger),
		now:       now,
	}
}

// RunCycle processes the raw candidates of one page snapshot against state.
// The returned state is a new value; the input is never modified.
func (c *Controller) RunCycle(raw []*models.RawCandidate, state TrackerState) CycleResult {
	now := c.now()
	result := CycleResult{
		ID:        uuid.New(),
		StartedAt: now,
		Total:     len(raw),
		State:     state,
	}

	if len(raw) == 0 {
		result.Empty = true
		c.logger.Info("[cycle] %s: no listings found", result.ID)
		return result
	}

	resolved := make([]*models.RawCandidate, 0, len(raw))
	for _, r := range raw {
		resolved = append(resolved, c.resolve(r, now))
	}

	offers, warnings := c.validator.ValidateAll(resolved, now)
	result.Valid = len(offers)
	result.Warnings = warnings

	result.NewOffers, result.State = ComputeNew(offers, state)

	c.logger.Info("[cycle] %s: %d candidates, %d valid, %d new",
		result.ID, result.Total, result.Valid, len(result.NewOffers))
	return result
}

// resolve fills in id and date on a copy of r.
func (c *Controller) resolve(r *models.RawCandidate, now time.Time) *models.RawCandidate {
	if r == nil {
		return nil
	}
	trial := *r

	if trial.Date == nil {
		date, source := ParseDateDetailed(trial.Location, now)
		switch source {
		case DateUnknownMonth:
			c.logger.Debug("[parser] Unknown month in %q, assuming January", trial.Location)
		case DateDefaulted:
			c.logger.Debug("[parser] No date in %q, using now", trial.Location)
		}
		if IsRefreshed(trial.Location) {
			c.logger.Debug("[parser] Refreshed listing: %s", trial.Title)
		}
		trial.Date = &date
	}

	trial.ID = ResolveID(trial.ID, trial.URL, trial.Title, trial.Price, trial.Location)
	return &trial
}
