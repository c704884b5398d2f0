package scraper

import (
	"context"
	"fmt"

	"olx-monitor/models"
)

// Extractor produces the raw candidates of one page snapshot.
type Extractor interface {
	Extract(ctx context.Context, targetURL string) ([]*models.RawCandidate, error)
}

// ExtractionError is a batch-level failure: navigation failed or the page
// no longer has the expected structure. The whole cycle is lost; the next
// scheduled cycle tries again.
type ExtractionError struct {
	Op  string
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Op, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
