package mapper

import (
	"encoding/json"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/jscalendar"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// CalendarMapper converts iCalendar objects and JSCalendar events. One
// iCalendar object may carry several events; recurrence exceptions are
// folded into their master's recurrenceOverrides.
type CalendarMapper struct {
	opts Options
}

// NewCalendarMapper returns a calendar mapper.
func NewCalendarMapper(opts Options) *CalendarMapper {
	return &CalendarMapper{opts: opts.withDefaults()}
}

type parsedCalendar struct {
	id         string
	calendar   *ical.Calendar
	masters    []*ical.Component
	exceptions []*ical.Component
}

// MapToJSON converts every input into its events, in input order.
// Exceptions are matched to masters by UID across the whole batch; an
// exception without a master is returned as a standalone event of the
// record it came from.
func (m *CalendarMapper) MapToJSON(inputs []LegacyInput) ([]Record[[]*models.CalendarEvent], error) {
	parsed := make([]parsedCalendar, 0, len(inputs))
	for _, in := range inputs {
		cal, err := legacy.ParseCalendar(in.Data)
		if err != nil {
			return nil, parseFailure(in.ID, err)
		}
		p := parsedCalendar{id: in.ID, calendar: cal}
		for _, comp := range legacy.Events(cal) {
			if legacy.ICalProp(comp.Props, ical.PropRecurrenceID) != nil {
				p.exceptions = append(p.exceptions, comp)
			} else {
				p.masters = append(p.masters, comp)
			}
		}
		parsed = append(parsed, p)
	}

	out := make([]Record[[]*models.CalendarEvent], len(parsed))
	masters := make(map[string]*models.CalendarEvent)
	for i, p := range parsed {
		logger := m.opts.Logger.WithFields(logging.Record(p.id))
		events := make([]*models.CalendarEvent, 0, len(p.masters))
		for _, comp := range p.masters {
			event := m.readEvent(logger, p.calendar, comp, true)
			if _, dup := masters[event.UID]; event.UID != "" && !dup {
				masters[event.UID] = event
			}
			events = append(events, event)
		}
		out[i] = Record[[]*models.CalendarEvent]{ID: p.id, Data: events}
	}

	for i, p := range parsed {
		logger := m.opts.Logger.WithFields(logging.Record(p.id))
		for _, comp := range p.exceptions {
			uid := legacy.ICalValue(comp.Props, ical.PropUID)
			master := masters[uid]
			var key string
			if master != nil {
				key, _ = jscalendar.OccurrenceKey(comp, master.TimeZone)
			}
			if master == nil || key == "" {
				logger.Warn("Recurrence exception without master kept as standalone event", logging.String("uid", uid))
				out[i].Data = append(out[i].Data, m.readEvent(logger, p.calendar, comp, true))
				continue
			}

			override := m.readEvent(logger, p.calendar, comp, false)
			override.RecurrenceID = ""
			if master.RecurrenceOverrides == nil {
				master.RecurrenceOverrides = make(map[string]*models.CalendarEvent)
			}
			master.RecurrenceOverrides[key] = override
		}
	}
	return out, nil
}

// readEvent maps one VEVENT. Overrides skip the master-only rules and carry
// no "@type".
func (m *CalendarMapper) readEvent(logger logging.Logger, cal *ical.Calendar, comp *ical.Component, master bool) *models.CalendarEvent {
	a := jscalendar.NewAdapter(logger)
	a.Bind(cal, comp)
	event := models.NewOverride()
	if master {
		event = models.NewCalendarEvent()
	}
	for _, rule := range a.Rules() {
		if rule.Master && !master {
			continue
		}
		rule.Get(a, event)
	}
	return event
}

// MapFromJSON converts every event into an iCalendar object. Each request
// gets its own Result, in input order; an event that cannot be expressed
// fails alone.
func (m *CalendarMapper) MapFromJSON(requests []CreateRequest[*models.CalendarEvent]) []Result {
	results := make([]Result, 0, len(requests))
	for _, req := range requests {
		results = append(results, m.mapOne(req))
	}
	return results
}

func (m *CalendarMapper) mapOne(req CreateRequest[*models.CalendarEvent]) Result {
	logger := m.opts.Logger.WithFields(logging.Record(req.ID))
	if req.Data == nil {
		return failed(logger, req.ID, errMissingRecord)
	}

	event := *req.Data
	if !values.HasText(event.UID) {
		event.UID = uuid.NewString()
		logger.Debug("Synthesized uid", logging.String("uid", event.UID))
	}

	cal := legacy.NewCalendar(m.opts.ProdID)
	a := jscalendar.NewAdapter(logger)
	a.SetClock(m.opts.Now)
	a.Bind(cal, nil)
	for _, rule := range a.Rules() {
		if err := rule.Set(a, &event); err != nil {
			return failed(logger, req.ID, err)
		}
	}
	cal.Children = append(cal.Children, a.Event())

	for _, key := range values.SortedKeys(event.RecurrenceOverrides) {
		patch := event.RecurrenceOverrides[key]
		if patch == nil || patch.Excluded {
			continue
		}
		occurrence, err := applyOverride(&event, key, patch)
		if err != nil {
			return failed(logger, req.ID, errors.MappingErrorf("recurrenceOverrides/%s: %v", key, err))
		}
		occurrence.RecurrenceID = key

		a.Bind(cal, nil)
		legacy.SetICalValue(a.Event().Props, ical.PropUID, event.UID)
		for _, rule := range a.Rules() {
			if rule.Master {
				continue
			}
			if err := rule.Set(a, occurrence); err != nil {
				return failed(logger, req.ID, errors.MappingErrorf("recurrenceOverrides/%s: %v", key, err))
			}
		}
		cal.Children = append(cal.Children, a.Event())
	}

	text, err := legacy.SerializeCalendar(cal)
	if err != nil {
		return failed(logger, req.ID, err)
	}
	return Result{ID: req.ID, Data: text}
}

// applyOverride returns the occurrence described by patch: the master moved
// to recurrenceID with every property present in patch replaced.
func applyOverride(master *models.CalendarEvent, recurrenceID string, patch *models.CalendarEvent) (*models.CalendarEvent, error) {
	base := *master
	base.Start = recurrenceID
	base.RecurrenceRule = nil
	base.RecurrenceOverrides = nil
	base.RecurrenceID = ""

	merged, err := toFields(&base)
	if err != nil {
		return nil, err
	}
	changes, err := toFields(patch)
	if err != nil {
		return nil, err
	}
	for name, value := range changes {
		switch name {
		case "@type", "uid", "recurrenceRule", "recurrenceOverrides":
			continue
		}
		merged[name] = value
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	occurrence := models.NewCalendarEvent()
	if err := json.Unmarshal(data, occurrence); err != nil {
		return nil, err
	}
	return occurrence, nil
}

func toFields(event *models.CalendarEvent) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
