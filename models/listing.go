package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawCandidate holds unvalidated card data straight from the listing page.
// Every field is optional; the validator is the only place that enforces
// presence. ID and Date are usually empty at extraction time and filled in by
// the identity resolver and the date parser.
type RawCandidate struct {
	ID        string
	Title     string
	Price     string
	Location  string
	URL       string
	Date      *time.Time
	ScrapedAt time.Time
}

// Offer is the canonical, validated listing record.
type Offer struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Price    string    `json:"price"`
	Location string    `json:"location"`
	URL      string    `json:"url"`
	Date     time.Time `json:"date"`
}

// Locality returns the place part of Location, i.e. everything before the
// last " - " separator.
func (o *Offer) Locality() string {
	return SplitLocation(o.Location)
}

// NotifyItem is the subset of an Offer the notification layer needs.
type NotifyItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// InsightReport holds per-batch statistics for display.
type InsightReport struct {
	TotalOffers      int
	PricedOffers     int
	AveragePrice     decimal.Decimal
	MinPrice         decimal.Decimal
	MaxPrice         decimal.Decimal
	Cheapest         *Offer
	MostExpensive    *Offer
	Newest           *Offer
	OffersByLocality map[string]int
}
