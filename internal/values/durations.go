package values

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Duration is a JSCalendar duration split into nominal days and an exact
// clock part, so that adding it to a local date-time respects calendar days.
type Duration struct {
	Days     int
	Clock    time.Duration
	Negative bool
}

// IsZero reports whether the duration spans no time at all.
func (d Duration) IsZero() bool {
	return d.Days == 0 && d.Clock == 0
}

// String renders the duration in the ISO 8601 grammar JSCalendar uses.
// Zero renders as PT0S.
func (d Duration) String() string {
	clock := d.Clock
	iso := duration.Duration{
		Days:     float64(d.Days),
		Negative: d.Negative && !d.IsZero(),
	}
	if h := clock / time.Hour; h > 0 {
		iso.Hours = float64(h)
		clock -= h * time.Hour
	}
	if m := clock / time.Minute; m > 0 {
		iso.Minutes = float64(m)
		clock -= m * time.Minute
	}
	iso.Seconds = math.Floor(clock.Seconds())
	return iso.String()
}

// AddTo adds the duration to t, counting days on the calendar.
func (d Duration) AddTo(t time.Time) time.Time {
	if d.Negative {
		return t.AddDate(0, 0, -d.Days).Add(-d.Clock)
	}
	return t.AddDate(0, 0, d.Days).Add(d.Clock)
}

// ParseDuration parses an ISO 8601 / RFC 5545 duration such as P1D, PT1H30M,
// P2W or -PT15M. Years and months are rejected because neither grammar
// allows them.
func ParseDuration(value string) (Duration, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "+") {
		value = value[1:]
	}

	iso, err := duration.Parse(value)
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if iso.Years != 0 || iso.Months != 0 {
		return Duration{}, fmt.Errorf("invalid duration %q: years and months are not allowed", value)
	}

	clock := time.Duration(iso.Hours*float64(time.Hour)) +
		time.Duration(iso.Minutes*float64(time.Minute)) +
		time.Duration(iso.Seconds*float64(time.Second))

	return Duration{
		Days:     int(iso.Weeks)*7 + int(iso.Days),
		Clock:    clock,
		Negative: iso.Negative,
	}, nil
}

// DurationBetween returns the duration from start to end. For date-only
// values the difference is expressed in whole days. ok is false when end is
// before start.
func DurationBetween(start, end time.Time, dateOnly bool) (Duration, bool) {
	if end.Before(start) {
		return Duration{}, false
	}
	if dateOnly {
		days := int(end.Sub(start).Hours() / 24)
		return Duration{Days: days}, true
	}

	diff := end.Sub(start)
	days := int(diff / (24 * time.Hour))
	return Duration{Days: days, Clock: diff - time.Duration(days)*24*time.Hour}, true
}
