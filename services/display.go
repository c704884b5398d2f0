package services

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"olx-monitor/models"
)

const displayDateLayout = "02.01.2006 15:04"

// Display renders offer batches and insight reports for the terminal.
type Display struct {
	out io.Writer
}

func NewDisplay(out io.Writer) *Display {
	return &Display{out: out}
}

// PrintOffers prints offers newest first. The input slice is not reordered.
func (d *Display) PrintOffers(offers []models.Offer) {
	if len(offers) == 0 {
		fmt.Fprintf(d.out, "  No offers to display\n")
		return
	}

	sorted := make([]models.Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	// Colour codes stay outside the tabwriter so they do not count as cell width.
	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Title\tPrice\tLocation\tDate\tLink\n")
	for _, o := range sorted {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			truncate(o.Title, 40),
			truncate(o.Price, 15),
			truncate(o.Locality(), 25),
			o.Date.Format(displayDateLayout),
			o.URL,
		)
	}
	tw.Flush()

	header, rows, _ := bytes.Cut(table.Bytes(), []byte("\n"))
	fmt.Fprintf(d.out, "\033[1;36m%s\033[0m\n", header)
	d.out.Write(rows)
}

func (d *Display) PrintInsights(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(d.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(d.out, "\033[1;35m  📊 OFFER INSIGHTS\033[0m\n")
	fmt.Fprintf(d.out, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(d.out, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(d.out, "  %s\n", thin)
	fmt.Fprintf(d.out, "  Offers          : \033[1m%d\033[0m\n", r.TotalOffers)
	fmt.Fprintf(d.out, "  With a price   : \033[1m%d\033[0m\n", r.PricedOffers)
	if r.Newest != nil {
		fmt.Fprintf(d.out, "  Newest          : %s (%s)\n",
			truncate(r.Newest.Title, 36), r.Newest.Date.Format(displayDateLayout))
	}
	fmt.Fprintln(d.out)

	// Price Stats
	fmt.Fprintf(d.out, "\033[1;33m  Price Statistics\033[0m\n")
	fmt.Fprintf(d.out, "  %s\n", thin)
	if r.PricedOffers > 0 {
		fmt.Fprintf(d.out, "  Average price : \033[1;32m%s zł\033[0m\n", r.AveragePrice.StringFixed(2))
		fmt.Fprintf(d.out, "  Minimum price : \033[1;32m%s zł\033[0m  %s\n", r.MinPrice.StringFixed(2), truncate(r.Cheapest.Title, 30))
		fmt.Fprintf(d.out, "  Maximum price : \033[1;31m%s zł\033[0m  %s\n", r.MaxPrice.StringFixed(2), truncate(r.MostExpensive.Title, 30))
	} else {
		fmt.Fprintf(d.out, "  No price data available\n")
	}
	fmt.Fprintln(d.out)

	// Offers by Locality
	fmt.Fprintf(d.out, "\033[1;33m  Offers by Locality\033[0m\n")
	fmt.Fprintf(d.out, "  %s\n", thin)
	if len(r.OffersByLocality) == 0 {
		fmt.Fprintf(d.out, "  No locality data\n")
	} else {
		type locCount struct {
			loc   string
			count int
		}
		var locs []locCount
		for loc, cnt := range r.OffersByLocality {
			locs = append(locs, locCount{loc, cnt})
		}
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].count != locs[j].count {
				return locs[i].count > locs[j].count
			}
			return locs[i].loc < locs[j].loc
		})
		for _, lc := range locs {
			bar := strings.Repeat("█", lc.count)
			fmt.Fprintf(d.out, "  %-30s %s (%d)\n", truncate(lc.loc, 28), bar, lc.count)
		}
	}

	fmt.Fprintf(d.out, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
