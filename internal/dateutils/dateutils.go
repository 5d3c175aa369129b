// Package dateutils parses the date formats found in bank exports and
// computes lookback windows.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common date layouts
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// CommonFormats is the ordered list of layouts ParseDate tries. Numeric
// dates are read day-first.
var CommonFormats = []string{
	DateLayoutISO,
	time.RFC3339,
	DateLayoutFull,
	DateLayoutEuropean,
	"2.1.2006",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate parses dateStr with the first matching layout of CommonFormats.
// The result is in UTC.
func ParseDate(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range CommonFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a date as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// LookbackCutoff returns the first day included in a window of days ending
// on reference.
func LookbackCutoff(reference time.Time, days int) time.Time {
	return StartOfDay(reference).AddDate(0, 0, -days)
}

// InWindow reports whether date falls within [cutoff, reference]. Dates after
// the reference day are excluded.
func InWindow(date, cutoff, reference time.Time) bool {
	end := StartOfDay(reference).AddDate(0, 0, 1)
	return !date.Before(cutoff) && date.Before(end)
}
