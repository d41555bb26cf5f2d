package jscalendar

import (
	"strconv"
	"strings"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// RFC 7986
const propColor = "COLOR"

// eventRules is the VEVENT table, in mapping order.
var eventRules = []Rule{
	uidRule,
	prodIDRule,
	createdRule,
	updatedRule,
	sequenceRule,
	titleRule,
	descriptionRule,
	startRule,
	durationRule,
	statusRule,
	freeBusyRule,
	privacyRule,
	priorityRule,
	colorRule,
	keywordsRule,
	locationsRule,
	linksRule,
	participantsRule,
	alertsRule,
	recurrenceIDRule,
	recurrenceRuleRule,
	excludedRule,
}

var uidRule = Rule{
	Field:       "uid",
	LegacyNames: []string{ical.PropUID},
	Master:      true,
	Get: func(a *Adapter, event *models.CalendarEvent) {
		event.UID = a.value(ical.PropUID)
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if !values.HasText(event.UID) {
			return errors.MappingError("uid: missing")
		}
		legacy.SetICalValue(a.event.Props, ical.PropUID, event.UID)
		return nil
	},
}

var prodIDRule = Rule{
	Field:       "prodId",
	LegacyNames: []string{ical.PropProductID},
	Master:      true,
	Get: func(a *Adapter, event *models.CalendarEvent) {
		if a.Empty() {
			return
		}
		event.ProdID = legacy.ICalValue(a.calendar.Props, ical.PropProductID)
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if values.HasText(event.ProdID) {
			legacy.SetICalValue(a.calendar.Props, ical.PropProductID, event.ProdID)
		}
		return nil
	},
}

func timestampRule(field, property string, get func(*models.CalendarEvent) *string) Rule {
	return Rule{
		Field:       field,
		LegacyNames: []string{property},
		Get: func(a *Adapter, event *models.CalendarEvent) {
			raw := a.value(property)
			if raw == "" {
				return
			}
			ts, ok := values.LegacyTimestampToJSON(raw)
			if !ok {
				a.warn(property, "Unparseable timestamp dropped", logging.String("value", raw))
				return
			}
			*get(event) = ts
		},
		Set: func(a *Adapter, event *models.CalendarEvent) error {
			ts := *get(event)
			if !values.HasText(ts) {
				return nil
			}
			legacyTS, err := values.JSONTimestampToLegacy(ts)
			if err != nil {
				return errors.MappingErrorf("%s: %v", field, err)
			}
			a.add(property, legacyTS, nil)
			return nil
		},
	}
}

var createdRule = timestampRule("created", ical.PropCreated, func(e *models.CalendarEvent) *string { return &e.Created })

var lastModifiedRule = timestampRule("updated", ical.PropLastModified, func(e *models.CalendarEvent) *string { return &e.Updated })

// updatedRule reads LAST-MODIFIED with DTSTAMP as fallback and always writes
// DTSTAMP.
var updatedRule = Rule{
	Field:       "updated",
	LegacyNames: []string{ical.PropLastModified, ical.PropDateTimeStamp},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		lastModifiedRule.Get(a, event)
		if event.Updated != "" {
			return
		}
		if raw := a.value(ical.PropDateTimeStamp); raw != "" {
			if ts, ok := values.LegacyTimestampToJSON(raw); ok {
				event.Updated = ts
			}
		}
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if err := lastModifiedRule.Set(a, event); err != nil {
			return err
		}
		stamp := a.now().UTC().Format("20060102T150405Z")
		if values.HasText(event.Updated) {
			stamp, _ = values.JSONTimestampToLegacy(event.Updated)
		}
		legacy.SetICalValue(a.event.Props, ical.PropDateTimeStamp, stamp)
		return nil
	},
}

var sequenceRule = Rule{
	Field:       "sequence",
	LegacyNames: []string{ical.PropSequence},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		raw := a.value(ical.PropSequence)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.warn(ical.PropSequence, "Invalid SEQUENCE dropped", logging.String("value", raw))
			return
		}
		event.Sequence = n
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if event.Sequence < 0 {
			return errors.MappingErrorf("sequence: negative value %d", event.Sequence)
		}
		if event.Sequence > 0 {
			a.add(ical.PropSequence, strconv.Itoa(event.Sequence), nil)
		}
		return nil
	},
}

func textRule(field, property string, get func(*models.CalendarEvent) *string) Rule {
	return Rule{
		Field:       field,
		LegacyNames: []string{property},
		Get: func(a *Adapter, event *models.CalendarEvent) {
			*get(event) = a.text(property)
		},
		Set: func(a *Adapter, event *models.CalendarEvent) error {
			if text := *get(event); values.HasText(text) {
				a.addText(property, text, nil)
			}
			return nil
		},
	}
}

var titleRule = textRule("title", ical.PropSummary, func(e *models.CalendarEvent) *string { return &e.Title })

var descriptionRule = textRule("description", ical.PropDescription, func(e *models.CalendarEvent) *string { return &e.Description })

var colorRule = textRule("color", propColor, func(e *models.CalendarEvent) *string { return &e.Color })

// enumRule maps a property with a closed vocabulary. table maps iCalendar
// tokens onto JSCalendar values.
func enumRule(field, property string, table map[string]string, get func(*models.CalendarEvent) *string) Rule {
	return Rule{
		Field:       field,
		LegacyNames: []string{property},
		Get: func(a *Adapter, event *models.CalendarEvent) {
			raw := a.value(property)
			if raw == "" {
				return
			}
			v, ok := table[strings.ToUpper(raw)]
			if !ok {
				a.warn(property, "Unknown value dropped", logging.String("value", raw))
				return
			}
			*get(event) = v
		},
		Set: func(a *Adapter, event *models.CalendarEvent) error {
			v := *get(event)
			if v == "" {
				return nil
			}
			for token, jsonValue := range table {
				if jsonValue == v {
					a.add(property, token, nil)
					return nil
				}
			}
			return errors.MappingErrorf("%s: unknown value %q", field, v)
		},
	}
}

var statusRule = enumRule("status", ical.PropStatus, map[string]string{
	"CONFIRMED": models.StatusConfirmed,
	"TENTATIVE": models.StatusTentative,
	"CANCELLED": models.StatusCancelled,
}, func(e *models.CalendarEvent) *string { return &e.Status })

var freeBusyRule = enumRule("freeBusyStatus", ical.PropTransparency, map[string]string{
	"OPAQUE":      "busy",
	"TRANSPARENT": "free",
}, func(e *models.CalendarEvent) *string { return &e.FreeBusyStatus })

var privacyRule = enumRule("privacy", ical.PropClass, map[string]string{
	"PUBLIC":       "public",
	"PRIVATE":      "private",
	"CONFIDENTIAL": "secret",
}, func(e *models.CalendarEvent) *string { return &e.Privacy })

var priorityRule = Rule{
	Field:       "priority",
	LegacyNames: []string{ical.PropPriority},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		raw := a.value(ical.PropPriority)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 9 {
			a.warn(ical.PropPriority, "Invalid PRIORITY dropped", logging.String("value", raw))
			return
		}
		event.Priority = n
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		if event.Priority < 0 || event.Priority > 9 {
			return errors.MappingErrorf("priority: %d is out of range", event.Priority)
		}
		if event.Priority > 0 {
			a.add(ical.PropPriority, strconv.Itoa(event.Priority), nil)
		}
		return nil
	},
}

var keywordsRule = Rule{
	Field:       "keywords",
	LegacyNames: []string{ical.PropCategories},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		keywords := make(map[string]bool)
		for _, prop := range a.props(ical.PropCategories) {
			for _, k := range legacy.SplitText(prop.Value) {
				keywords[k] = true
			}
		}
		event.Keywords = values.NilIfEmpty(keywords)
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		var escaped []string
		for _, k := range values.SortedKeys(event.Keywords) {
			if event.Keywords[k] && values.HasText(k) {
				escaped = append(escaped, legacy.EscapeText(k))
			}
		}
		if len(escaped) > 0 {
			a.add(ical.PropCategories, strings.Join(escaped, ","), nil)
		}
		return nil
	},
}
