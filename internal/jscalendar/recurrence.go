package jscalendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

var recurrenceRuleRule = Rule{
	Field:       "recurrenceRule",
	LegacyNames: []string{ical.PropRecurrenceRule},
	Master:      true,
	Get: func(a *Adapter, event *models.CalendarEvent) {
		raw := a.value(ical.PropRecurrenceRule)
		if raw == "" {
			return
		}
		if err := values.ValidateRRule(raw); err != nil {
			a.warn(ical.PropRecurrenceRule, "Recurrence rule failed validation", logging.String("value", raw), logging.Err(err))
		}
		rule, err := a.readRRule(raw, event.TimeZone)
		if err != nil {
			a.warn(ical.PropRecurrenceRule, "Unparseable RRULE dropped", logging.String("value", raw), logging.Err(err))
			return
		}
		event.RecurrenceRule = rule
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if event.RecurrenceRule == nil {
			return nil
		}
		value, err := writeRRule(event.RecurrenceRule, event)
		if err != nil {
			return errors.MappingErrorf("recurrenceRule: %v", err)
		}
		if err := values.ValidateRRule(value); err != nil {
			return errors.MappingErrorf("recurrenceRule: %v", err)
		}
		a.add(ical.PropRecurrenceRule, value, nil)
		return nil
	},
}

func (a *Adapter) readRRule(raw, timeZone string) (*models.RecurrenceRule, error) {
	parts, err := values.SplitRRule(raw)
	if err != nil {
		return nil, err
	}
	rule := models.NewRecurrenceRule("")
	for _, part := range parts {
		if err := readRRulePart(rule, part, timeZone); err != nil {
			a.warn(ical.PropRecurrenceRule, "Recurrence rule part dropped",
				logging.String("part", part.Name), logging.Err(err))
		}
	}
	if rule.Frequency == "" {
		return nil, fmt.Errorf("missing FREQ")
	}
	return rule, nil
}

func readRRulePart(rule *models.RecurrenceRule, part values.RRulePart, timeZone string) error {
	var err error
	switch part.Name {
	case "FREQ":
		freq, ok := values.FrequencyToJSON(part.Value)
		if !ok {
			return fmt.Errorf("unknown frequency %q", part.Value)
		}
		rule.Frequency = freq
	case "INTERVAL":
		rule.Interval, err = positiveInt(part.Value)
	case "COUNT":
		rule.Count, err = positiveInt(part.Value)
	case "UNTIL":
		rule.Until, err = localDateTime(part.Value, timeZone)
	case "RSCALE":
		rule.RScale = strings.ToLower(part.Value)
	case "SKIP":
		skip, ok := values.SkipToJSON(part.Value)
		if !ok {
			return fmt.Errorf("unknown skip %q", part.Value)
		}
		rule.Skip = skip
	case "WKST":
		day, ok := values.DayToJSON(part.Value)
		if !ok {
			return fmt.Errorf("unknown weekday %q", part.Value)
		}
		rule.FirstDayOfWeek = day
	case "BYDAY":
		var days []values.ByDay
		days, err = values.ParseByDay(part.Value)
		for _, d := range days {
			rule.ByDay = append(rule.ByDay, models.NewNDay(d.Day, d.Nth))
		}
	case "BYMONTH":
		rule.ByMonth, err = values.ParseByMonth(part.Value)
	case "BYMONTHDAY":
		rule.ByMonthDay, err = values.ParseIntList(part.Value)
	case "BYYEARDAY":
		rule.ByYearDay, err = values.ParseIntList(part.Value)
	case "BYWEEKNO":
		rule.ByWeekNo, err = values.ParseIntList(part.Value)
	case "BYHOUR":
		rule.ByHour, err = values.ParseIntList(part.Value)
	case "BYMINUTE":
		rule.ByMinute, err = values.ParseIntList(part.Value)
	case "BYSECOND":
		rule.BySecond, err = values.ParseIntList(part.Value)
	case "BYSETPOS":
		rule.BySetPosition, err = values.ParseIntList(part.Value)
	default:
		return fmt.Errorf("unknown part %q", part.Name)
	}
	return err
}

func writeRRule(rule *models.RecurrenceRule, event *models.CalendarEvent) (string, error) {
	freq, ok := values.FrequencyToICal(rule.Frequency)
	if !ok {
		return "", fmt.Errorf("unknown frequency %q", rule.Frequency)
	}
	parts := []values.RRulePart{{Name: "FREQ", Value: freq}}
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, values.RRulePart{Name: name, Value: value})
		}
	}

	if rule.RScale != "" {
		add("RSCALE", strings.ToUpper(rule.RScale))
	}
	if rule.Skip != "" {
		skip, ok := values.SkipToICal(rule.Skip)
		if !ok {
			return "", fmt.Errorf("unknown skip %q", rule.Skip)
		}
		add("SKIP", skip)
	}
	if rule.Interval < 0 || rule.Count < 0 {
		return "", fmt.Errorf("interval and count must not be negative")
	}
	if rule.Interval > 1 {
		add("INTERVAL", strconv.Itoa(rule.Interval))
	}
	if rule.Count > 0 && rule.Until != "" {
		return "", fmt.Errorf("count and until are mutually exclusive")
	}
	if rule.Count > 0 {
		add("COUNT", strconv.Itoa(rule.Count))
	}
	if rule.Until != "" {
		until, err := untilToICal(rule.Until, event)
		if err != nil {
			return "", err
		}
		add("UNTIL", until)
	}
	if rule.FirstDayOfWeek != "" {
		day, ok := values.DayToICal(rule.FirstDayOfWeek)
		if !ok {
			return "", fmt.Errorf("unknown weekday %q", rule.FirstDayOfWeek)
		}
		add("WKST", day)
	}

	if len(rule.ByDay) > 0 {
		days := make([]values.ByDay, 0, len(rule.ByDay))
		for _, nday := range rule.ByDay {
			if nday == nil {
				continue
			}
			days = append(days, values.ByDay{Day: nday.Day, Nth: nday.NthOfPeriod})
		}
		byDay, err := values.FormatByDay(days)
		if err != nil {
			return "", err
		}
		add("BYDAY", byDay)
	}
	if len(rule.ByMonth) > 0 {
		byMonth, err := values.FormatByMonth(rule.ByMonth)
		if err != nil {
			return "", err
		}
		add("BYMONTH", byMonth)
	}
	add("BYMONTHDAY", values.FormatIntList(rule.ByMonthDay))
	add("BYYEARDAY", values.FormatIntList(rule.ByYearDay))
	add("BYWEEKNO", values.FormatIntList(rule.ByWeekNo))
	add("BYHOUR", values.FormatIntList(rule.ByHour))
	add("BYMINUTE", values.FormatIntList(rule.ByMinute))
	add("BYSECOND", values.FormatIntList(rule.BySecond))
	add("BYSETPOS", values.FormatIntList(rule.BySetPosition))

	return values.JoinRRule(parts), nil
}

func positiveInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid positive integer %q", value)
	}
	return n, nil
}

// localDateTime converts an iCalendar DATE or DATE-TIME into a
// LocalDateTime. UTC values are moved into timeZone when it is known.
func localDateTime(value, timeZone string) (string, error) {
	dt, err := values.ParseICalDateTime(value)
	if err != nil {
		return "", err
	}
	if !dt.UTC || timeZone == "" || timeZone == utcZone {
		return dt.Local, nil
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return dt.Local, nil
	}
	return dt.Time().In(loc).Format(values.LocalDateTimeLayout), nil
}

// untilToICal renders until in the form RFC 5545 requires for the event's
// DTSTART: a DATE for all-day events, UTC for zoned events and floating
// otherwise.
func untilToICal(until string, event *models.CalendarEvent) (string, error) {
	local, err := values.ParseLocalDateTime(until)
	if err != nil {
		return "", err
	}
	if event.ShowWithoutTime {
		return local.Format("20060102"), nil
	}
	if event.TimeZone == "" {
		return local.Format("20060102T150405"), nil
	}
	loc, err := time.LoadLocation(event.TimeZone)
	if err != nil {
		return "", fmt.Errorf("unknown time zone %q", event.TimeZone)
	}
	zoned := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), 0, loc)
	return zoned.UTC().Format("20060102T150405Z"), nil
}

// excludedRule reads EXDATE values as excluded recurrence overrides and
// writes excluded overrides back as EXDATE. Other overrides are handled by
// the record mapper, which emits them as separate VEVENTs.
var excludedRule = Rule{
	Field:       "recurrenceOverrides",
	LegacyNames: []string{ical.PropExceptionDates},
	Master:      true,
	Get: func(a *Adapter, event *models.CalendarEvent) {
		for _, prop := range a.props(ical.PropExceptionDates) {
			for _, raw := range strings.Split(prop.Value, ",") {
				p := prop
				p.Value = strings.TrimSpace(raw)
				if p.Value == "" {
					continue
				}
				key, err := occurrenceKey(p, event.TimeZone)
				if err != nil {
					a.warn(ical.PropExceptionDates, "Unparseable EXDATE dropped", logging.String("value", p.Value))
					continue
				}
				if event.RecurrenceOverrides == nil {
					event.RecurrenceOverrides = make(map[string]*models.CalendarEvent)
				}
				override := models.NewOverride()
				override.Excluded = true
				event.RecurrenceOverrides[key] = override
			}
		}
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		for _, key := range values.SortedKeys(event.RecurrenceOverrides) {
			override := event.RecurrenceOverrides[key]
			if override == nil || !override.Excluded {
				continue
			}
			value, params, err := recurrenceValue(event, key)
			if err != nil {
				return errors.MappingErrorf("recurrenceOverrides/%s: %v", key, err)
			}
			a.add(ical.PropExceptionDates, value, params)
		}
		return nil
	},
}
