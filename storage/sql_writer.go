package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"olx-monitor/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const insertBatchSize = 50

var schemas = map[string]string{
	DriverPostgres: `
		CREATE TABLE IF NOT EXISTS offers (
			id         TEXT        PRIMARY KEY,
			title      TEXT        NOT NULL,
			price      TEXT        NOT NULL,
			location   TEXT        NOT NULL,
			url        TEXT        NOT NULL,
			date       TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_offers_date ON offers(date);
	`,
	DriverSQLite: `
		CREATE TABLE IF NOT EXISTS offers (
			id         TEXT     PRIMARY KEY,
			title      TEXT     NOT NULL,
			price      TEXT     NOT NULL,
			location   TEXT     NOT NULL,
			url        TEXT     NOT NULL,
			date       DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_offers_date ON offers(date);
	`,
}

// SQLWriter archives new offers in PostgreSQL or SQLite. Offers already in
// the table are left as they are.
type SQLWriter struct {
	db     *sql.DB
	driver string
}

// NewSQLWriter opens the database, waits for it to answer and creates the
// offers table.
func NewSQLWriter(driver, dsn string) (*SQLWriter, error) {
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("archive: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", driver, err)
	}

	attempts := 1
	if driver == DriverPostgres {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: ping %s failed after %d attempts: %w", driver, attempts, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}

	return &SQLWriter{db: db, driver: driver}, nil
}

// Write batch-inserts offers, skipping ids that are already archived.
func (w *SQLWriter) Write(ctx context.Context, offers []models.Offer) error {
	for i := 0; i < len(offers); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(offers) {
			end = len(offers)
		}
		if err := w.insertBatch(ctx, offers[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (w *SQLWriter) insertBatch(ctx context.Context, batch []models.Offer) error {
	const cols = 6
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, o := range batch {
		ph := make([]string, cols)
		for c := range ph {
			ph[c] = w.placeholder(idx*cols + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, o.ID, o.Title, o.Price, o.Location, o.URL, o.Date.UTC())
	}

	query := fmt.Sprintf(`
		INSERT INTO offers (id, title, price, location, url, date)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := w.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("archive: insert: %w", err)
	}
	return nil
}

func (w *SQLWriter) placeholder(n int) string {
	if w.driver == DriverSQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// FetchAll returns every archived offer, newest first.
func (w *SQLWriter) FetchAll(ctx context.Context) ([]models.Offer, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, title, price, location, url, date
		FROM offers
		ORDER BY date DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("archive: fetch all: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.Title, &o.Price, &o.Location, &o.URL, &o.Date); err != nil {
			return nil, fmt.Errorf("archive: scan row: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}
