package olx

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"olx-monitor/models"
)

// Selectors of the OLX search results page.
const (
	GridSelector     = `[data-testid="listing-grid"]`
	CardSelector     = `[data-testid="l-card"]`
	TitleSelector    = `[data-cy="ad-card-title"] h4, [data-cy="ad-card-title"] h6`
	PriceSelector    = `[data-testid="ad-price"]`
	LocationSelector = `[data-testid="location-date"]`
	LinkSelector     = `a[href]`
	NextPageSelector = `a[data-testid="pagination-forward"]`
)

// ErrGridNotFound means the page does not have the listing grid at all, which
// usually means the page structure changed.
var ErrGridNotFound = errors.New("listing grid not found")

// ParseListingPage extracts raw cards from a rendered results page. Relative
// links are resolved against pageURL. nextURL is "" on the last page.
func ParseListingPage(html, pageURL string, scrapedAt time.Time) (cards []*models.RawCandidate, nextURL string, err error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}

	grid := doc.Find(GridSelector)
	if grid.Length() == 0 {
		return nil, "", ErrGridNotFound
	}

	grid.Find(CardSelector).Each(func(_ int, card *goquery.Selection) {
		href, _ := card.Find(LinkSelector).First().Attr("href")
		cards = append(cards, &models.RawCandidate{
			Title:     text(card, TitleSelector),
			Price:     text(card, PriceSelector),
			Location:  text(card, LocationSelector),
			URL:       resolve(base, href),
			ScrapedAt: scrapedAt,
		})
	})

	if href, ok := doc.Find(NextPageSelector).First().Attr("href"); ok {
		nextURL = resolve(base, href)
	}
	return cards, nextURL, nil
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		// Leave it for the validator to reject.
		return href
	}
	return base.ResolveReference(ref).String()
}
