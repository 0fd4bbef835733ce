package util

import (
    "strconv"
    "strings"
    "time"
)

// dateLayouts are tried in order by ParseTime. Numeric day/month dates are
// month-first whatever the separator.
var dateLayouts = []string{
    time.RFC3339,
    time.RFC3339Nano,
    "2006-01-02",
    "2006-01-02 15:04:05",
    "2006-01-02T15:04:05",
    "2006-01-02 15:04",
    "2006/01/02",
    "01/02/2006",
    "1/2/2006",
    "01/02/2006 15:04",
    "01-02-2006",
    "1-2-2006",
    "2006-01",
    "Jan 2, 2006",
    "2 Jan 2006",
    "January 2, 2006",
}

// ParseTime tries the known date layouts, then unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, false
    }
    for _, layout := range dateLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t, true
        }
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        if ts > 1e11 { // ms
            ts /= 1000
        }
        return time.Unix(ts, 0).UTC(), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// ParseDay parses s and truncates it to a UTC calendar day.
func ParseDay(s string) (time.Time, bool) {
    t, ok := ParseTime(s)
    if !ok {
        return time.Time{}, false
    }
    return Day(t), true
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns t shifted by n calendar days.
func AddDays(t time.Time, n int) time.Time {
    return t.AddDate(0, 0, n)
}

// DaysBetween returns the whole days from a to b.
func DaysBetween(a, b time.Time) int {
    return int(Day(b).Sub(Day(a)).Hours() / 24)
}
