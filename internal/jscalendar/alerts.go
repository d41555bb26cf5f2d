package jscalendar

import (
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

const (
	compAlarm     = "VALARM"
	propAction    = "ACTION"
	propTrigger   = "TRIGGER"
	propAlarmUID  = "X-WR-ALARMUID"
	defaultReason = "Reminder"
)

// Alert actions
const (
	ActionDisplay = "display"
	ActionEmail   = "email"
)

// Trigger anchors
const (
	RelativeToStart = "start"
	RelativeToEnd   = "end"
)

// alertsRule maps VALARM sub-components. Alerts are keyed by their alarm
// UID when one is present.
var alertsRule = Rule{
	Field:       "alerts",
	LegacyNames: []string{compAlarm},
	Get: func(a *Adapter, event *models.CalendarEvent) {
		alerts := make(map[string]*models.Alert)
		for _, alarm := range legacy.Children(a.event, compAlarm) {
			alert, ok := a.readAlarm(alarm)
			if !ok {
				continue
			}
			key := legacy.ICalValue(alarm.Props, propAlarmUID)
			if key == "" {
				key = legacy.ICalValue(alarm.Props, ical.PropUID)
			}
			if key == "" {
				key = values.ContentKey(compAlarm, legacy.ICalValue(alarm.Props, propTrigger)+alert.Action)
			}
			alerts[values.UniqueKey(alerts, key)] = alert
		}
		event.Alerts = values.NilIfEmpty(alerts)
	},
	Set: func(a *Adapter, event *models.CalendarEvent) error {
		for _, key := range values.SortedKeys(event.Alerts) {
			alert := event.Alerts[key]
			if alert == nil {
				continue
			}
			alarm, err := writeAlarm(alert, event.Title)
			if err != nil {
				return errors.MappingErrorf("alerts/%s: %v", key, err)
			}
			legacy.SetICalValue(alarm.Props, ical.PropUID, key)
			a.event.Children = append(a.event.Children, alarm)
		}
		return nil
	},
}

func (a *Adapter) readAlarm(alarm *ical.Component) (*models.Alert, bool) {
	trigger := legacy.ICalProp(alarm.Props, propTrigger)
	if trigger == nil || !values.HasText(trigger.Value) {
		a.warn(compAlarm, "Alarm without TRIGGER dropped")
		return nil, false
	}

	alert := models.NewAlert()
	switch action := strings.ToUpper(legacy.ICalValue(alarm.Props, propAction)); action {
	case "EMAIL":
		alert.Action = ActionEmail
	case "DISPLAY", "AUDIO", "":
		alert.Action = ActionDisplay
	default:
		a.warn(compAlarm, "Unknown alarm action read as display", logging.String("value", action))
		alert.Action = ActionDisplay
	}

	if strings.EqualFold(legacy.Param(trigger.Params, "VALUE"), "DATE-TIME") {
		when, ok := values.LegacyTimestampToJSON(trigger.Value)
		if !ok {
			a.warn(propTrigger, "Unparseable absolute TRIGGER dropped", logging.String("value", trigger.Value))
			return nil, false
		}
		alert.Trigger = models.NewAbsoluteTrigger(when)
		return alert, true
	}

	offset, err := values.ParseDuration(trigger.Value)
	if err != nil {
		a.warn(propTrigger, "Unparseable TRIGGER dropped", logging.String("value", trigger.Value))
		return nil, false
	}
	relativeTo := RelativeToStart
	if strings.EqualFold(legacy.Param(trigger.Params, "RELATED"), "END") {
		relativeTo = RelativeToEnd
	}
	alert.Trigger = models.NewOffsetTrigger(offset.String(), relativeTo)
	return alert, true
}

func writeAlarm(alert *models.Alert, title string) (*ical.Component, error) {
	if alert.Trigger == nil {
		return nil, fmt.Errorf("missing trigger")
	}
	alarm := ical.NewComponent(compAlarm)
	if alarm.Props == nil {
		alarm.Props = make(ical.Props)
	}

	switch alert.Action {
	case "", ActionDisplay:
		legacy.AddICalValue(alarm.Props, propAction, "DISPLAY", nil)
	case ActionEmail:
		legacy.AddICalValue(alarm.Props, propAction, "EMAIL", nil)
	default:
		return nil, fmt.Errorf("unknown action %q", alert.Action)
	}

	switch alert.Trigger.AtType {
	case models.TypeAbsoluteTrigger:
		when, err := values.JSONTimestampToLegacy(alert.Trigger.When)
		if err != nil {
			return nil, fmt.Errorf("trigger: %v", err)
		}
		legacy.AddICalValue(alarm.Props, propTrigger, when, map[string]string{"VALUE": "DATE-TIME"})
	case models.TypeOffsetTrigger, "":
		offset, err := values.ParseDuration(alert.Trigger.Offset)
		if err != nil {
			return nil, fmt.Errorf("trigger: %v", err)
		}
		params := map[string]string{}
		switch alert.Trigger.RelativeTo {
		case "", RelativeToStart:
		case RelativeToEnd:
			params["RELATED"] = "END"
		default:
			return nil, fmt.Errorf("trigger: unknown relativeTo %q", alert.Trigger.RelativeTo)
		}
		legacy.AddICalValue(alarm.Props, propTrigger, offset.String(), params)
	default:
		return nil, fmt.Errorf("trigger: unknown type %q", alert.Trigger.AtType)
	}

	if !values.HasText(title) {
		title = defaultReason
	}
	legacy.AddICalText(alarm.Props, ical.PropDescription, title, nil)
	if alert.Action == ActionEmail {
		legacy.AddICalText(alarm.Props, ical.PropSummary, title, nil)
	}
	return alarm, nil
}
