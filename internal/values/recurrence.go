package values

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/teambition/rrule-go"
)

// RRulePart is one NAME=VALUE pair of an RRULE value.
type RRulePart struct {
	Name  string
	Value string
}

// SplitRRule splits an RRULE value into its parts, keeping their order.
// Names are upper-cased. An "RRULE:" prefix is tolerated.
func SplitRRule(value string) ([]RRulePart, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "RRULE:")
	if value == "" {
		return nil, fmt.Errorf("empty recurrence rule")
	}

	var parts []RRulePart
	for _, attr := range strings.Split(value, ";") {
		if attr == "" {
			continue
		}
		name, val, ok := strings.Cut(attr, "=")
		if !ok || name == "" || val == "" {
			return nil, fmt.Errorf("invalid recurrence rule part %q", attr)
		}
		parts = append(parts, RRulePart{Name: strings.ToUpper(strings.TrimSpace(name)), Value: strings.TrimSpace(val)})
	}
	return parts, nil
}

// JoinRRule renders parts back into an RRULE value.
func JoinRRule(parts []RRulePart) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Name+"="+p.Value)
	}
	return strings.Join(out, ";")
}

// rscaleOnly lists parts rrule-go does not understand. They are stripped
// before validation.
var rscaleOnly = map[string]bool{
	"RSCALE": true,
	"SKIP":   true,
}

// ValidateRRule checks an RRULE value with rrule-go. RFC 7529 parts are
// ignored.
func ValidateRRule(value string) error {
	parts, err := SplitRRule(value)
	if err != nil {
		return err
	}
	kept := parts[:0:0]
	for _, p := range parts {
		if !rscaleOnly[p.Name] {
			kept = append(kept, p)
		}
	}

	opt, err := rrule.StrToROption(JoinRRule(kept))
	if err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", value, err)
	}
	if _, err := rrule.NewRRule(*opt); err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", value, err)
	}
	return nil
}

// Frequencies lists the RRULE FREQ tokens. JSCalendar uses their lower-case
// form.
var Frequencies = []string{"YEARLY", "MONTHLY", "WEEKLY", "DAILY", "HOURLY", "MINUTELY", "SECONDLY"}

// FrequencyToJSON converts an RRULE FREQ token.
func FrequencyToJSON(freq string) (string, bool) {
	return lookupUpper(Frequencies, freq)
}

// FrequencyToICal converts a JSCalendar frequency.
func FrequencyToICal(freq string) (string, bool) {
	token, ok := lookupUpper(Frequencies, freq)
	if !ok {
		return "", false
	}
	return strings.ToUpper(token), true
}

// Weekdays lists the RRULE day codes in week order.
var Weekdays = []string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// DayToJSON converts an RRULE weekday code such as "MO" into "mo".
func DayToJSON(day string) (string, bool) {
	return lookupUpper(Weekdays, day)
}

// DayToICal converts a JSCalendar day such as "mo" into "MO".
func DayToICal(day string) (string, bool) {
	token, ok := lookupUpper(Weekdays, day)
	if !ok {
		return "", false
	}
	return strings.ToUpper(token), true
}

// Skips lists the RFC 7529 SKIP tokens.
var Skips = []string{"OMIT", "BACKWARD", "FORWARD"}

// SkipToJSON converts an RRULE SKIP token.
func SkipToJSON(skip string) (string, bool) {
	return lookupUpper(Skips, skip)
}

// SkipToICal converts a JSCalendar skip value.
func SkipToICal(skip string) (string, bool) {
	token, ok := lookupUpper(Skips, skip)
	if !ok {
		return "", false
	}
	return strings.ToUpper(token), true
}

func lookupUpper(table []string, token string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(token))
	for _, t := range table {
		if t == upper {
			return strings.ToLower(t), true
		}
	}
	return "", false
}

// ByDay is one decomposed BYDAY entry. Nth is zero when no ordinal was given.
type ByDay struct {
	Day string
	Nth int
}

var byDayPattern = regexp.MustCompile(`^([+-]?)(\d{0,2})(MO|TU|WE|TH|FR|SA|SU)$`)

// ParseByDay decomposes a BYDAY value such as "1MO,-1FR,TU" into day codes
// (JSCalendar form) and signed ordinals. Every entry is returned.
func ParseByDay(value string) ([]ByDay, error) {
	var out []ByDay
	for _, token := range SplitList(value, ",") {
		m := byDayPattern.FindStringSubmatch(strings.ToUpper(token))
		if m == nil {
			return nil, fmt.Errorf("invalid BYDAY entry %q", token)
		}
		entry := ByDay{Day: strings.ToLower(m[3])}
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil || n == 0 || n > 53 {
				return nil, fmt.Errorf("invalid BYDAY ordinal in %q", token)
			}
			if m[1] == "-" {
				n = -n
			}
			entry.Nth = n
		}
		out = append(out, entry)
	}
	return out, nil
}

// FormatByDay renders decomposed entries back into a BYDAY value.
func FormatByDay(days []ByDay) (string, error) {
	out := make([]string, 0, len(days))
	for _, d := range days {
		code, ok := DayToICal(d.Day)
		if !ok {
			return "", fmt.Errorf("invalid day %q", d.Day)
		}
		if d.Nth != 0 {
			code = strconv.Itoa(d.Nth) + code
		}
		out = append(out, code)
	}
	return strings.Join(out, ","), nil
}

// ParseIntList converts a comma separated list of signed integers.
func ParseIntList(value string) ([]int, error) {
	var out []int
	for _, token := range SplitList(value, ",") {
		n, err := strconv.Atoi(strings.TrimPrefix(token, "+"))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", token)
		}
		out = append(out, n)
	}
	return out, nil
}

// FormatIntList renders integers as a comma separated list.
func FormatIntList(list []int) string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, strconv.Itoa(n))
	}
	return strings.Join(out, ",")
}

var byMonthPattern = regexp.MustCompile(`^(\d{1,2})(L?)$`)

// ParseByMonth converts a BYMONTH value into JSCalendar month strings. The
// RFC 7529 leap month suffix "L" is kept.
func ParseByMonth(value string) ([]string, error) {
	var out []string
	for _, token := range SplitList(value, ",") {
		m := byMonthPattern.FindStringSubmatch(strings.ToUpper(token))
		if m == nil {
			return nil, fmt.Errorf("invalid BYMONTH entry %q", token)
		}
		n, _ := strconv.Atoi(m[1])
		if n < 1 || n > 13 {
			return nil, fmt.Errorf("invalid BYMONTH entry %q", token)
		}
		out = append(out, strconv.Itoa(n)+m[2])
	}
	return out, nil
}

// FormatByMonth renders JSCalendar month strings as a BYMONTH value.
func FormatByMonth(months []string) (string, error) {
	out := make([]string, 0, len(months))
	for _, month := range months {
		if !byMonthPattern.MatchString(strings.ToUpper(month)) {
			return "", fmt.Errorf("invalid month %q", month)
		}
		out = append(out, strings.ToUpper(month))
	}
	return strings.Join(out, ","), nil
}
