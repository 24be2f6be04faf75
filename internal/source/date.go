package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/academic-radar/internal/listing"
)

// rocEpochOffset converts Republic of China calendar years to Gregorian years.
const rocEpochOffset = 1911

var datePattern = regexp.MustCompile(`^(\d{2,4})\s*[/\-.年]\s*(\d{1,2})\s*[/\-.月]\s*(\d{1,2})\s*日?$`)

// ParseDate normalizes an upstream date cell into YYYY-MM-DD. Gregorian and
// ROC-calendar years are both accepted; a trailing time component is ignored.
func ParseDate(raw string) (string, error) {
	raw = CleanText(raw)
	if i := strings.IndexByte(raw, ' '); i > 0 && !strings.ContainsAny(raw, "年月") {
		raw = raw[:i]
	}
	m := datePattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("unrecognized date %q", raw)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < 1000 {
		year += rocEpochOffset
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("invalid calendar date %q", raw)
	}
	return t.Format(listing.DateLayout), nil
}

// ParseDeadline behaves like ParseDate but maps empty or unparseable cells
// to listing.NoDeadline.
func ParseDeadline(raw string) string {
	raw = CleanText(raw)
	if raw == "" || raw == listing.NoDeadline {
		return listing.NoDeadline
	}
	d, err := ParseDate(raw)
	if err != nil {
		return listing.NoDeadline
	}
	return d
}

// WithinWindow reports whether the calendar day of published lies within
// lookbackDays of now's calendar day in loc, in either direction.
func WithinWindow(published string, now time.Time, loc *time.Location, lookbackDays int) bool {
	pub, err := time.ParseInLocation(listing.DateLayout, published, loc)
	if err != nil {
		return false
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	diff := today.Sub(pub)
	if diff < 0 {
		diff = -diff
	}
	days := int((diff + 12*time.Hour) / (24 * time.Hour))
	return days <= lookbackDays
}
