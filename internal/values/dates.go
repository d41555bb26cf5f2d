package values

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

// Date and time layouts used on both sides of the mapping.
const (
	// DateLayout is the JSON full-date grammar.
	DateLayout = "2006-01-02"
	// LocalDateTimeLayout is the JSCalendar LocalDateTime grammar.
	LocalDateTimeLayout = "2006-01-02T15:04:05"
	// UTCDateTimeLayout is the JSContact/JSCalendar UTCDateTime grammar.
	UTCDateTimeLayout = "2006-01-02T15:04:05Z"

	legacyDateLayout     = "20060102"
	legacyDateTimeLayout = "20060102T150405"
	legacyUTCLayout      = "20060102T150405Z"
)

// UnknownDate is written into a JSON date when the legacy value could not be
// understood.
const UnknownDate = "0000-00-00"

// noYear is the year used in JSON dates for legacy dates without a year.
const noYear = "0000"

var (
	basicDatePattern    = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	extendedDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	noYearBasicPattern  = regexp.MustCompile(`^--(\d{2})(\d{2})$`)
	noYearExtPattern    = regexp.MustCompile(`^--(\d{2})-(\d{2})$`)
)

// VCardDateToJSON converts a vCard date (BDAY, ANNIVERSARY, DEATHDATE) into
// the JSON YYYY-MM-DD grammar. Supported inputs are the basic (19950505) and
// extended (1995-05-05) forms, year-less forms (--0505, --05-05) which yield
// year 0000, and date-times whose date part is one of those. ok is false for
// anything else.
func VCardDateToJSON(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, 'T'); i > 0 {
		value = value[:i]
	}

	var year, month, day string
	switch {
	case basicDatePattern.MatchString(value):
		m := basicDatePattern.FindStringSubmatch(value)
		year, month, day = m[1], m[2], m[3]
	case extendedDatePattern.MatchString(value):
		m := extendedDatePattern.FindStringSubmatch(value)
		year, month, day = m[1], m[2], m[3]
	case noYearBasicPattern.MatchString(value):
		m := noYearBasicPattern.FindStringSubmatch(value)
		year, month, day = noYear, m[1], m[2]
	case noYearExtPattern.MatchString(value):
		m := noYearExtPattern.FindStringSubmatch(value)
		year, month, day = noYear, m[1], m[2]
	default:
		return "", false
	}

	if !validMonthDay(month, day) {
		return "", false
	}
	return year + "-" + month + "-" + day, true
}

// JSONDateToVCard converts a JSON YYYY-MM-DD date back into the vCard basic
// grammar. Year 0000 produces the year-less form --MMDD.
func JSONDateToVCard(value string) (string, error) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, 'T'); i > 0 {
		value = value[:i]
	}

	m := extendedDatePattern.FindStringSubmatch(value)
	if m == nil {
		return "", fmt.Errorf("invalid date %q", value)
	}
	if !validMonthDay(m[2], m[3]) {
		return "", fmt.Errorf("invalid date %q", value)
	}
	if m[1] == noYear {
		return "--" + m[2] + m[3], nil
	}
	return m[1] + m[2] + m[3], nil
}

func validMonthDay(month, day string) bool {
	// 2000 is a leap year, so --0229 stays valid.
	_, err := time.Parse(DateLayout, "2000-"+month+"-"+day)
	return err == nil
}

// LegacyTimestampToJSON converts a UTC timestamp such as vCard REV or
// iCalendar CREATED/LAST-MODIFIED into the UTCDateTime grammar. Both the
// basic (20220101T120000Z) and extended (2022-01-01T12:00:00Z) forms are
// accepted, as well as RFC 3339 values with an offset.
func LegacyTimestampToJSON(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{legacyUTCLayout, time.RFC3339, legacyDateTimeLayout, LocalDateTimeLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format(UTCDateTimeLayout), true
		}
	}
	if t, err := time.Parse(legacyDateLayout, value); err == nil {
		return t.UTC().Format(UTCDateTimeLayout), true
	}
	return "", false
}

// JSONTimestampToLegacy converts a UTCDateTime (or any RFC 3339 value) into
// the basic legacy grammar 20060102T150405Z.
func JSONTimestampToLegacy(value string) (string, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC().Format(legacyUTCLayout), nil
}

// DateTime is an iCalendar DATE or DATE-TIME value split into the parts
// JSCalendar keeps apart.
type DateTime struct {
	// Local is the wall clock time in LocalDateTimeLayout.
	Local string
	// UTC is set when the legacy value carried a trailing Z.
	UTC bool
	// DateOnly is set for VALUE=DATE values.
	DateOnly bool
}

// Time returns the wall clock time as a time.Time in UTC. It is used for
// duration arithmetic only, where both ends share a zone.
func (d DateTime) Time() time.Time {
	t, _ := time.Parse(LocalDateTimeLayout, d.Local)
	return t
}

// ParseICalDateTime parses an iCalendar DATE (20200101) or DATE-TIME
// (20200101T100000, 20200101T100000Z) value.
func ParseICalDateTime(value string) (DateTime, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(legacyDateLayout, value); err == nil {
		return DateTime{Local: t.Format(LocalDateTimeLayout), DateOnly: true}, nil
	}

	utc := strings.HasSuffix(value, "Z")
	t, err := time.Parse(legacyDateTimeLayout, strings.TrimSuffix(value, "Z"))
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid date-time %q", value)
	}
	return DateTime{Local: t.Format(LocalDateTimeLayout), UTC: utc}, nil
}

// FormatICalDateTime renders a JSCalendar LocalDateTime as an iCalendar
// value. dateOnly drops the time part; utc appends the Z suffix.
func FormatICalDateTime(local string, dateOnly, utc bool) (string, error) {
	t, err := ParseLocalDateTime(local)
	if err != nil {
		return "", err
	}
	if dateOnly {
		return t.Format(legacyDateLayout), nil
	}
	if utc {
		return t.Format(legacyUTCLayout), nil
	}
	return t.Format(legacyDateTimeLayout), nil
}

// ParseLocalDateTime parses a JSCalendar LocalDateTime. A bare date is
// accepted and read as midnight.
func ParseLocalDateTime(local string) (time.Time, error) {
	local = strings.TrimSpace(local)
	if t, err := time.Parse(LocalDateTimeLayout, local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateLayout, local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid local date-time %q", local)
}

// IsTimeZone reports whether name is an IANA time zone identifier known to
// the runtime.
func IsTimeZone(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
