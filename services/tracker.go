package services

import (
	"time"

	"olx-monitor/models"
)

// TrackerState is the dedup memory of one monitoring session: every id seen
// so far plus the newest offer date. It is a plain value threaded through
// ComputeNew; it has no locking of its own.
type TrackerState struct {
	seenIDs    map[string]struct{}
	latestDate time.Time
	hasLatest  bool
}

// NewTrackerState returns the empty first-run state.
func NewTrackerState() TrackerState {
	return TrackerState{seenIDs: make(map[string]struct{})}
}

// RestoreTrackerState builds a state from known ids and a high-water mark. A
// zero latest means no mark yet.
func RestoreTrackerState(ids []string, latest time.Time) TrackerState {
	s := NewTrackerState()
	for _, id := range ids {
		s.seenIDs[id] = struct{}{}
	}
	if !latest.IsZero() {
		s.latestDate = latest
		s.hasLatest = true
	}
	return s
}

// Seen reports whether id has been recorded.
func (s TrackerState) Seen(id string) bool {
	_, ok := s.seenIDs[id]
	return ok
}

// Len returns the number of recorded ids.
func (s TrackerState) Len() int {
	return len(s.seenIDs)
}

// LatestDate returns the high-water mark and whether one exists yet.
func (s TrackerState) LatestDate() (time.Time, bool) {
	return s.latestDate, s.hasLatest
}

// IDs returns a copy of the recorded ids.
func (s TrackerState) IDs() []string {
	ids := make([]string, 0, len(s.seenIDs))
	for id := range s.seenIDs {
		ids = append(ids, id)
	}
	return ids
}

func (s TrackerState) clone() TrackerState {
	c := TrackerState{
		seenIDs:    make(map[string]struct{}, len(s.seenIDs)),
		latestDate: s.latestDate,
		hasLatest:  s.hasLatest,
	}
	for id := range s.seenIDs {
		c.seenIDs[id] = struct{}{}
	}
	return c
}

func (s *TrackerState) record(o models.Offer) {
	if s.seenIDs == nil {
		s.seenIDs = make(map[string]struct{})
	}
	s.seenIDs[o.ID] = struct{}{}
	if !s.hasLatest || o.Date.After(s.latestDate) {
		s.latestDate = o.Date
		s.hasLatest = true
	}
}

// ComputeNew returns the offers not seen before, in input order, and the state
// that records them. The input state is left untouched.
//
// Offers older than the state's high-water mark are dropped before the id
// lookup; an offer exactly at the mark is kept. Within one batch the first
// offer carrying an id wins.
func ComputeNew(offers []models.Offer, state TrackerState) ([]models.Offer, TrackerState) {
	next := state.clone()
	ref, hasRef := state.LatestDate()

	newOffers := make([]models.Offer, 0)
	for _, o := range offers {
		if hasRef && o.Date.Before(ref) {
			continue
		}
		if next.Seen(o.ID) {
			continue
		}
		next.record(o)
		newOffers = append(newOffers, o)
	}
	return newOffers, next
}
