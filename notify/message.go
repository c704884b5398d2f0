package notify

import (
	"fmt"
	"strings"

	"olx-monitor/models"
)

// MaxListed is how many offers a message lists by name.
const MaxListed = 5

// Summary returns the headline of a notification, e.g. "3 new OLX offers".
func Summary(n int) string {
	if n == 1 {
		return "1 new OLX offer"
	}
	return fmt.Sprintf("%d new OLX offers", n)
}

// Lines renders the first MaxListed items as "title - url", followed by a
// count of the rest.
func Lines(items []models.NotifyItem, format func(models.NotifyItem) string) []string {
	n := len(items)
	if n > MaxListed {
		n = MaxListed
	}
	lines := make([]string, 0, n+1)
	for _, it := range items[:n] {
		lines = append(lines, format(it))
	}
	if rest := len(items) - n; rest > 0 {
		lines = append(lines, fmt.Sprintf("...and %d more", rest))
	}
	return lines
}

func plainLine(it models.NotifyItem) string {
	return it.Title + " - " + it.URL
}

// PlainBody is the message body without markup.
func PlainBody(items []models.NotifyItem) string {
	return strings.Join(Lines(items, plainLine), "\n")
}

// Items converts offers to the fields notifiers need.
func Items(offers []models.Offer) []models.NotifyItem {
	items := make([]models.NotifyItem, 0, len(offers))
	for _, o := range offers {
		items = append(items, models.NotifyItem{Title: o.Title, URL: o.URL})
	}
	return items
}
