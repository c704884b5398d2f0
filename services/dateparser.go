package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"olx-monitor/models"
)

const (
	todayMarker     = "Dzisiaj"
	refreshedMarker = "Odświeżono"
)

var (
	// timeOfDayRegexp captures "HH:MM" after the today marker.
	timeOfDayRegexp = regexp.MustCompile(`(\d{2}):(\d{2})`)
	// absoluteDateRegexp captures "<day> <month name> <4-digit year>".
	absoluteDateRegexp = regexp.MustCompile(`(\d{1,2}) (\p{L}+) (\d{4})`)
)

// polishMonths holds genitive month names as they appear in listing dates.
var polishMonths = [12]string{
	"stycznia",
	"lutego",
	"marca",
	"kwietnia",
	"maja",
	"czerwca",
	"lipca",
	"sierpnia",
	"września",
	"października",
	"listopada",
	"grudnia",
}

// DateSource tells how a timestamp was recovered from a location string.
type DateSource string

const (
	DateFromTodayTime DateSource = "today"
	DateFromToday     DateSource = "today-no-time"
	DateFromAbsolute  DateSource = "absolute"
	// DateUnknownMonth marks a low-confidence parse: the month name was not in
	// the table and January was assumed.
	DateUnknownMonth DateSource = "unknown-month"
	DateDefaulted    DateSource = "default"
)

// ParseDate converts a "<place> - <date>" location string into a timestamp.
// It never fails; referenceNow is returned when no date can be recovered.
func ParseDate(location string, referenceNow time.Time) time.Time {
	t, _ := ParseDateDetailed(location, referenceNow)
	return t
}

// ParseDateDetailed is ParseDate that also reports how the date was found.
func ParseDateDetailed(location string, referenceNow time.Time) (time.Time, DateSource) {
	expr := models.DateExpression(location)
	if expr == "" {
		return referenceNow, DateDefaulted
	}

	if strings.Contains(expr, todayMarker) {
		m := timeOfDayRegexp.FindStringSubmatch(expr)
		if m == nil {
			return referenceNow, DateFromToday
		}
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		y, mo, d := referenceNow.Date()
		return time.Date(y, mo, d, hours, minutes, 0, 0, referenceNow.Location()), DateFromTodayTime
	}

	// Refreshed listings carry the same absolute date format as the general
	// case, so both go through one matcher.
	m := absoluteDateRegexp.FindStringSubmatch(expr)
	if m == nil {
		return referenceNow, DateDefaulted
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	month, known := monthIndex(m[2])

	source := DateFromAbsolute
	if !known {
		source = DateUnknownMonth
	}
	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, referenceNow.Location()), source
}

// IsRefreshed reports whether the location's date expression carries the
// "refreshed" marker.
func IsRefreshed(location string) bool {
	return strings.Contains(models.DateExpression(location), refreshedMarker)
}

// monthIndex maps a month name to its zero-based index. Unknown names map to
// 0 and known=false.
func monthIndex(name string) (index int, known bool) {
	lower := cases.Lower(language.Polish).String(name)
	for i, m := range polishMonths {
		if m == lower {
			return i, true
		}
	}
	return 0, false
}
