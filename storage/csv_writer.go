package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"olx-monitor/models"
)

var rawHeader = []string{"id", "title", "price", "location", "url", "date", "scraped_at"}

// CSVWriter appends raw (unvalidated) candidates to a CSV file, one row per
// card per cycle. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens the CSV file at the given path for appending and writes
// the header row if the file is new. Intermediate directories are created
// automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if info.Size() == 0 {
		if err := w.Write(rawHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends the candidates as they came off the page.
func (c *CSVWriter) WriteRaw(candidates []*models.RawCandidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rc := range candidates {
		if rc == nil {
			continue
		}
		date := ""
		if rc.Date != nil {
			date = rc.Date.Format(time.RFC3339)
		}
		scrapedAt := ""
		if !rc.ScrapedAt.IsZero() {
			scrapedAt = rc.ScrapedAt.Format(time.RFC3339)
		}
		row := []string{rc.ID, rc.Title, rc.Price, rc.Location, rc.URL, date, scrapedAt}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
