package storage

import (
	"context"

	"olx-monitor/models"
)

// OfferWriter is the interface any archive backend must satisfy.
type OfferWriter interface {
	Write(ctx context.Context, offers []models.Offer) error
	Close() error
}

// RawCandidateWriter is the interface for persisting unprocessed scraped data.
type RawCandidateWriter interface {
	WriteRaw(candidates []*models.RawCandidate) error
	Close() error
}

// SnapshotSaver writes one batch of offers to its own file and returns the path.
type SnapshotSaver interface {
	Save(offers []models.Offer, prefix string) (string, error)
}
