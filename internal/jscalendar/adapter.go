// Package jscalendar maps iCalendar VEVENT properties onto JSCalendar events
// and back.
//
// Like the contact mapping it is a table of rules keyed by JSCalendar
// property. Rules marked Master describe the whole recurring series (UID,
// RRULE, EXDATE) and are not applied to recurrence overrides.
package jscalendar

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// Rule maps one JSCalendar property. Get and Set follow the same contract
// as the contact rules: Get leaves the event untouched when nothing is
// present, Set is a no-op for absent values and returns a mapping error for
// values iCalendar cannot express.
type Rule struct {
	Field       string
	LegacyNames []string
	Master      bool
	Get         func(a *Adapter, event *models.CalendarEvent)
	Set         func(a *Adapter, event *models.CalendarEvent) error
}

// Adapter binds one VEVENT and the VCALENDAR it belongs to.
type Adapter struct {
	rules    []Rule
	calendar *ical.Calendar
	event    *ical.Component
	logger   logging.Logger
	now      func() time.Time
}

// NewAdapter returns an adapter bound to an empty event. A nil logger is
// replaced by a no-op logger.
func NewAdapter(logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &Adapter{
		rules:  eventRules,
		logger: logger,
		now:    time.Now,
	}
	a.Bind(nil, nil)
	return a
}

// Rules returns the rule table in mapping order.
func (a *Adapter) Rules() []Rule {
	return a.rules
}

// Bind makes event the adapter's VEVENT. A nil event binds a fresh one; a
// nil calendar binds an empty VCALENDAR.
func (a *Adapter) Bind(calendar *ical.Calendar, event *ical.Component) {
	if calendar == nil {
		calendar = ical.NewCalendar()
	}
	if event == nil {
		event = ical.NewComponent(ical.CompEvent)
	}
	if event.Props == nil {
		event.Props = make(ical.Props)
	}
	a.calendar = calendar
	a.event = event
}

// Event returns the bound VEVENT.
func (a *Adapter) Event() *ical.Component {
	return a.event
}

// Calendar returns the bound VCALENDAR.
func (a *Adapter) Calendar() *ical.Calendar {
	return a.calendar
}

// SetClock replaces the clock used for DTSTAMP.
func (a *Adapter) SetClock(now func() time.Time) {
	a.now = now
}

// Logger returns the adapter's logger.
func (a *Adapter) Logger() logging.Logger {
	return a.logger
}

// Empty reports whether the bound VEVENT has no properties.
func (a *Adapter) Empty() bool {
	for _, props := range a.event.Props {
		if len(props) > 0 {
			return false
		}
	}
	return true
}

func (a *Adapter) props(name string) []ical.Prop {
	if a.Empty() {
		return nil
	}
	var out []ical.Prop
	for _, prop := range legacy.ICalProps(a.event.Props, name) {
		a.checkParams(name, prop)
		if values.HasText(prop.Value) {
			out = append(out, prop)
		}
	}
	return out
}

func (a *Adapter) prop(name string) *ical.Prop {
	props := a.props(name)
	if len(props) == 0 {
		return nil
	}
	return &props[0]
}

func (a *Adapter) value(name string) string {
	if prop := a.prop(name); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

func (a *Adapter) text(name string) string {
	if prop := a.prop(name); prop != nil {
		return legacy.UnescapeText(prop.Value)
	}
	return ""
}

func (a *Adapter) checkParams(name string, prop ical.Prop) {
	for _, param := range legacy.UnsupportedParams(prop.Params) {
		a.logger.Info("Unsupported iCalendar parameter dropped",
			logging.Property(name),
			logging.String("parameter", param),
		)
	}
}

func (a *Adapter) add(name, value string, params map[string]string) {
	legacy.AddICalValue(a.event.Props, name, value, params)
}

func (a *Adapter) addText(name, text string, params map[string]string) {
	legacy.AddICalText(a.event.Props, name, text, params)
}

func (a *Adapter) warn(property, msg string, fields ...logging.Field) {
	a.logger.Warn(msg, append([]logging.Field{logging.Property(property)}, fields...)...)
}

// dateTime reads a DATE or DATE-TIME property together with its zone.
// timeZone is "Etc/UTC" for UTC values and the TZID parameter otherwise.
func (a *Adapter) dateTime(prop ical.Prop) (values.DateTime, string, error) {
	dt, err := values.ParseICalDateTime(prop.Value)
	if err != nil {
		return values.DateTime{}, "", err
	}
	tz := legacy.Param(prop.Params, "TZID")
	if dt.UTC {
		tz = utcZone
	}
	return dt, tz, nil
}

const utcZone = "Etc/UTC"

// dateTimeParams returns the VALUE and TZID parameters for a local
// date-time in timeZone.
func dateTimeParams(dateOnly bool, timeZone string) map[string]string {
	params := map[string]string{}
	if dateOnly {
		params["VALUE"] = "DATE"
		return params
	}
	if timeZone != "" && timeZone != utcZone {
		params["TZID"] = timeZone
	}
	return params
}
