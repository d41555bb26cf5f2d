package jscalendar

import (
	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// Default durations when neither DTEND nor DURATION is given (RFC 5545
// 3.6.1).
const (
	defaultDateDuration     = "P1D"
	defaultDateTimeDuration = "PT0S"
)

// startRule maps DTSTART onto start, timeZone and showWithoutTime.
var startRule = Rule{
	Field:       "start",
	LegacyNames: []string{ical.PropDateTimeStart},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		prop := a.prop(ical.PropDateTimeStart)
		if prop == nil {
			return
		}
		dt, tz, err := a.dateTime(*prop)
		if err != nil {
			a.warn(ical.PropDateTimeStart, "Unparseable DTSTART dropped", logging.String("value", prop.Value))
			return
		}
		event.Start = dt.Local
		event.ShowWithoutTime = dt.DateOnly
		event.TimeZone = tz
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if !values.HasText(event.Start) {
			return errors.MappingError("start: missing")
		}
		if event.TimeZone != "" && !values.IsTimeZone(event.TimeZone) {
			return errors.MappingErrorf("timeZone: unknown time zone %q", event.TimeZone)
		}
		value, err := values.FormatICalDateTime(event.Start, event.ShowWithoutTime, event.TimeZone == utcZone)
		if err != nil {
			return errors.MappingErrorf("start: %v", err)
		}
		a.add(ical.PropDateTimeStart, value, dateTimeParams(event.ShowWithoutTime, event.TimeZone))
		return nil
	},
}

// durationRule reads DURATION, or the distance from DTSTART to DTEND, and
// always writes DURATION.
var durationRule = Rule{
	Field:       "duration",
	LegacyNames: []string{ical.PropDuration, ical.PropDateTimeEnd},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		startProp := a.prop(ical.PropDateTimeStart)
		if startProp == nil {
			return
		}
		start, _, err := a.dateTime(*startProp)
		if err != nil {
			return
		}

		if raw := a.value(ical.PropDuration); raw != "" {
			d, err := values.ParseDuration(raw)
			if err == nil {
				event.Duration = d.String()
				return
			}
			a.warn(ical.PropDuration, "Unparseable DURATION dropped", logging.String("value", raw))
		}

		if endProp := a.prop(ical.PropDateTimeEnd); endProp != nil {
			end, _, err := a.dateTime(*endProp)
			if err == nil {
				if d, ok := values.DurationBetween(start.Time(), end.Time(), start.DateOnly); ok {
					event.Duration = d.String()
					return
				}
			}
			a.warn(ical.PropDateTimeEnd, "Unusable DTEND dropped", logging.String("value", endProp.Value))
		}

		if start.DateOnly {
			event.Duration = defaultDateDuration
		} else {
			event.Duration = defaultDateTimeDuration
		}
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if !values.HasText(event.Duration) {
			return nil
		}
		d, err := values.ParseDuration(event.Duration)
		if err != nil {
			return errors.MappingErrorf("duration: %v", err)
		}
		if d.Negative {
			return errors.MappingErrorf("duration: negative duration %q", event.Duration)
		}
		a.add(ical.PropDuration, d.String(), nil)
		return nil
	},
}

// recurrenceIDRule maps RECURRENCE-ID. On overrides the record mapper moves
// the value into the recurrenceOverrides key.
var recurrenceIDRule = Rule{
	Field:       "recurrenceId",
	LegacyNames: []string{ical.PropRecurrenceID},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		prop := a.prop(ical.PropRecurrenceID)
		if prop == nil {
			return
		}
		dt, _, err := a.dateTime(*prop)
		if err != nil {
			a.warn(ical.PropRecurrenceID, "Unparseable RECURRENCE-ID dropped", logging.String("value", prop.Value))
			return
		}
		event.RecurrenceID = dt.Local
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if !values.HasText(event.RecurrenceID) {
			return nil
		}
		value, params, err := recurrenceValue(event, event.RecurrenceID)
		if err != nil {
			return errors.MappingErrorf("recurrenceId: %v", err)
		}
		a.add(ical.PropRecurrenceID, value, params)
		return nil
	},
}

// recurrenceValue renders an occurrence date-time in the zone and form of
// the event's start.
func recurrenceValue(event *models.CalendarEvent, local string) (string, map[string]string, error) {
	value, err := values.FormatICalDateTime(local, event.ShowWithoutTime, event.TimeZone == utcZone)
	if err != nil {
		return "", nil, err
	}
	return value, dateTimeParams(event.ShowWithoutTime, event.TimeZone), nil
}

// occurrenceKey reads an EXDATE or RECURRENCE-ID value into the
// LocalDateTime used as recurrenceOverrides key, in the series' time zone.
func occurrenceKey(prop ical.Prop, timeZone string) (string, error) {
	return localDateTime(prop.Value, timeZone)
}

// OccurrenceKey returns the recurrenceOverrides key of the RECURRENCE-ID of
// event, for a series in timeZone.
func OccurrenceKey(event *ical.Component, timeZone string) (string, bool) {
	prop := legacy.ICalProp(event.Props, ical.PropRecurrenceID)
	if prop == nil {
		return "", false
	}
	key, err := occurrenceKey(*prop, timeZone)
	if err != nil {
		return "", false
	}
	return key, true
}
