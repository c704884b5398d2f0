package services

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"olx-monitor/models"
	"olx-monitor/utils"
)

var (
	// priceRegexp captures "1 200" or "1 200,50" style amounts, including
	// non-breaking space thousand separators.
	priceRegexp = regexp.MustCompile(`\d[\d \x{00a0}]*(?:,\d{1,2})?`)
)

const freeMarker = "za darmo"

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(offers []models.Offer) *models.InsightReport {
	report := &models.InsightReport{
		OffersByLocality: make(map[string]int),
	}

	if len(offers) == 0 {
		return report
	}

	report.TotalOffers = len(offers)

	var total decimal.Decimal
	for i := range offers {
		o := &offers[i]

		if loc := o.Locality(); loc != "" {
			report.OffersByLocality[loc]++
		}
		if report.Newest == nil || o.Date.After(report.Newest.Date) {
			report.Newest = o
		}

		price, ok := parsePrice(o.Price)
		if !ok {
			continue
		}
		report.PricedOffers++
		total = total.Add(price)

		if report.Cheapest == nil || price.LessThan(report.MinPrice) {
			report.MinPrice = price
			report.Cheapest = o
		}
		if report.MostExpensive == nil || price.GreaterThan(report.MaxPrice) {
			report.MaxPrice = price
			report.MostExpensive = o
		}
	}

	if report.PricedOffers > 0 {
		report.AveragePrice = total.Div(decimal.NewFromInt(int64(report.PricedOffers))).Round(2)
	}

	s.logger.Debug("[insights] %d offers, %d with a numeric price", report.TotalOffers, report.PricedOffers)
	return report
}

// parsePrice extracts the amount from free-text prices such as
// "1 200,50 zł do negocjacji". "Za darmo" is zero; text without digits has
// no price.
func parsePrice(raw string) (decimal.Decimal, bool) {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, freeMarker) {
		return decimal.Zero, true
	}

	match := priceRegexp.FindString(lower)
	if match == "" {
		return decimal.Decimal{}, false
	}

	cleaned := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(match))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
