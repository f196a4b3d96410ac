package conform

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Accepted date and timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
}

func parseInt(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// CSV writers emit integer columns holding nulls as floats ("4.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseTimestamp returns the instant in UTC. Values with an offset are
// converted; naive values are read as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	t, ok := parseTimestamp(s)
	if !ok {
		return time.Time{}, false
	}
	return types.Day(t), true
}

// titleCase upper-cases the first letter of each word and lower-cases the
// rest ("united kingdom" -> "United Kingdom", "UK" -> "Uk").
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

func lowerCase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func upperCase(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
