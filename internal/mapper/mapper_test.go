package mapper

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/jscontact"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
)

var testOptions = Options{
	ProdID: "-//Test//EN",
	Now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
}

const gumpCard = "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:urn:uuid:forrest\r\nFN:Forrest Gump\r\n" +
	"N:Gump;Forrest;;Mr.;\r\nTEL;TYPE=home,pager,blabla,blabla2:123-other\r\n" +
	"BDAY:19950505\r\nANNIVERSARY:20051010\r\nEND:VCARD\r\n"

func TestContactMapToJSON(t *testing.T) {
	m := NewContactMapper(jscontact.Standard, testOptions)
	records, err := m.MapToJSON([]LegacyInput{{ID: "a", Data: gumpCard}, {ID: "b", Data: gumpCard}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	card := records[0].Data
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "Forrest Gump", card.FullName)
	require.NotNil(t, card.Name)
	require.Len(t, card.Name.Components, 3)
	assert.Equal(t, "prefix", card.Name.Components[0].Type)
	require.Len(t, card.Phones, 1)
	assert.Len(t, card.Anniversaries, 2)

	// identical input, identical keys
	assert.Equal(t, keys(records[0].Data.Phones), keys(records[1].Data.Phones))
	assert.Equal(t, keys(records[0].Data.Anniversaries), keys(records[1].Data.Anniversaries))
}

func keys[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func TestContactMapToJSONParseError(t *testing.T) {
	m := NewContactMapper(jscontact.Standard, testOptions)
	_, err := m.MapToJSON([]LegacyInput{{ID: "ok", Data: gumpCard}, {ID: "broken", Data: "BEGIN:VCARD\r\nFN;broken\r\n"}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))
	assert.Contains(t, err.Error(), "record_id=broken")
}

func TestContactBatchIsolation(t *testing.T) {
	m := NewContactMapper(jscontact.Standard, testOptions)

	good := func(name string) *models.Card {
		card := models.NewCard()
		card.FullName = name
		return card
	}
	bad := good("Bad")
	bad.SpeakToAs = &models.SpeakToAs{AtType: models.TypeSpeakToAs, GrammaticalGender: "inanimate"}

	results := m.MapFromJSON([]CreateRequest[*models.Card]{
		{ID: "c1", Data: good("Forrest")},
		{ID: "c2", Data: bad},
		{ID: "c3", Data: good("Jenny")},
		{ID: "c4", Data: nil},
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, errors.IsType(results[1].Err, errors.ErrTypeMapping))
	assert.Empty(t, results[1].Data)
	assert.True(t, results[2].OK())
	assert.False(t, results[3].OK())
	for i, id := range []string{"c1", "c2", "c3", "c4"} {
		assert.Equal(t, id, results[i].ID)
	}

	assert.Contains(t, results[0].Data, "FN:Forrest")
	assert.Contains(t, results[0].Data, "UID:urn:uuid:")
	assert.Contains(t, results[0].Data, "PRODID:-//Test//EN")
	assert.Contains(t, results[2].Data, "FN:Jenny")

	nextcloud := NewContactMapper(jscontact.Nextcloud, testOptions)
	assert.True(t, nextcloud.MapFromJSON([]CreateRequest[*models.Card]{{ID: "c2", Data: bad}})[0].OK())
}

func TestContactUIDNotMutated(t *testing.T) {
	card := models.NewCard()
	card.FullName = "Dan"
	m := NewContactMapper(jscontact.Roundcube, testOptions)

	results := m.MapFromJSON([]CreateRequest[*models.Card]{{ID: "x", Data: card}})
	require.True(t, results[0].OK())
	assert.Empty(t, card.UID)
	assert.Contains(t, results[0].Data, "VERSION:3.0")
}

func TestContactRoundTrip(t *testing.T) {
	for _, dialect := range []jscontact.Dialect{jscontact.Standard, jscontact.Nextcloud, jscontact.Roundcube} {
		t.Run(string(dialect), func(t *testing.T) {
			m := NewContactMapper(dialect, testOptions)
			records, err := m.MapToJSON([]LegacyInput{{ID: "a", Data: gumpCard}})
			require.NoError(t, err)

			results := m.MapFromJSON([]CreateRequest[*models.Card]{{ID: "a", Data: records[0].Data}})
			require.True(t, results[0].OK(), "%v", results[0].Err)

			again, err := m.MapToJSON([]LegacyInput{{ID: "a", Data: results[0].Data}})
			require.NoError(t, err)
			assert.Equal(t, "urn:uuid:forrest", again[0].Data.UID)
			assert.Equal(t, records[0].Data.FullName, again[0].Data.FullName)
			assert.Equal(t, records[0].Data.Name, again[0].Data.Name)
		})
	}
}

func calendarText(events ...string) string {
	return "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Test//EN\r\n" + strings.Join(events, "") + "END:VCALENDAR\r\n"
}

func vevent(lines ...string) string {
	return "BEGIN:VEVENT\r\n" + strings.Join(lines, "\r\n") + "\r\nEND:VEVENT\r\n"
}

var weeklyLunch = vevent(
	"UID:lunch",
	"DTSTAMP:20240301T120000Z",
	"DTSTART;TZID=Europe/Berlin:20240310T120000",
	"DURATION:PT1H",
	"SUMMARY:Lunch",
	"RRULE:FREQ=WEEKLY",
	"EXDATE;TZID=Europe/Berlin:20240324T120000",
)

var movedLunch = vevent(
	"UID:lunch",
	"DTSTAMP:20240301T120000Z",
	"RECURRENCE-ID;TZID=Europe/Berlin:20240317T120000",
	"DTSTART;TZID=Europe/Berlin:20240317T130000",
	"DURATION:PT1H",
	"SUMMARY:Late lunch",
)

func TestCalendarMapToJSONOverrides(t *testing.T) {
	m := NewCalendarMapper(testOptions)
	records, err := m.MapToJSON([]LegacyInput{{ID: "cal", Data: calendarText(weeklyLunch, movedLunch)}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Data, 1)

	master := records[0].Data[0]
	assert.Equal(t, "lunch", master.UID)
	assert.Equal(t, "Lunch", master.Title)
	require.NotNil(t, master.RecurrenceRule)
	require.Len(t, master.RecurrenceOverrides, 2)

	assert.True(t, master.RecurrenceOverrides["2024-03-24T12:00:00"].Excluded)

	moved := master.RecurrenceOverrides["2024-03-17T12:00:00"]
	require.NotNil(t, moved)
	assert.Empty(t, moved.AtType)
	assert.Empty(t, moved.UID)
	assert.Empty(t, moved.RecurrenceID)
	assert.Nil(t, moved.RecurrenceRule)
	assert.Equal(t, "Late lunch", moved.Title)
	assert.Equal(t, "2024-03-17T13:00:00", moved.Start)
}

func TestCalendarExceptionsAcrossBatch(t *testing.T) {
	m := NewCalendarMapper(testOptions)
	records, err := m.MapToJSON([]LegacyInput{
		{ID: "exception", Data: calendarText(movedLunch)},
		{ID: "master", Data: calendarText(weeklyLunch)},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, records[0].Data)
	require.Len(t, records[1].Data, 1)
	assert.Contains(t, records[1].Data[0].RecurrenceOverrides, "2024-03-17T12:00:00")
}

func TestCalendarOrphanException(t *testing.T) {
	m := NewCalendarMapper(testOptions)
	records, err := m.MapToJSON([]LegacyInput{{ID: "cal", Data: calendarText(movedLunch)}})
	require.NoError(t, err)
	require.Len(t, records[0].Data, 1)

	orphan := records[0].Data[0]
	assert.Equal(t, models.TypeEvent, orphan.AtType)
	assert.Equal(t, "lunch", orphan.UID)
	assert.Equal(t, "2024-03-17T12:00:00", orphan.RecurrenceID)
}

func TestCalendarMapToJSONParseError(t *testing.T) {
	m := NewCalendarMapper(testOptions)
	_, err := m.MapToJSON([]LegacyInput{{ID: "empty", Data: ""}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))
	assert.Contains(t, err.Error(), "record_id=empty")
}

func TestCalendarMapFromJSONOverrides(t *testing.T) {
	m := NewCalendarMapper(testOptions)
	records, err := m.MapToJSON([]LegacyInput{{ID: "cal", Data: calendarText(weeklyLunch, movedLunch)}})
	require.NoError(t, err)

	results := m.MapFromJSON([]CreateRequest[*models.CalendarEvent]{{ID: "cal", Data: records[0].Data[0]}})
	require.Len(t, results, 1)
	require.True(t, results[0].OK(), "%v", results[0].Err)

	cal, err := legacy.ParseCalendar(results[0].Data)
	require.NoError(t, err)
	events := legacy.Events(cal)
	require.Len(t, events, 2)

	master, exception := events[0], events[1]
	assert.Equal(t, "lunch", legacy.ICalValue(master.Props, "UID"))
	assert.Equal(t, "FREQ=WEEKLY", legacy.ICalValue(master.Props, "RRULE"))
	assert.Equal(t, "20240324T120000", legacy.ICalValue(master.Props, "EXDATE"))
	assert.Nil(t, legacy.ICalProp(master.Props, "RECURRENCE-ID"))

	assert.Equal(t, "lunch", legacy.ICalValue(exception.Props, "UID"))
	assert.Equal(t, "20240317T120000", legacy.ICalValue(exception.Props, "RECURRENCE-ID"))
	assert.Equal(t, "20240317T130000", legacy.ICalValue(exception.Props, "DTSTART"))
	assert.Equal(t, "Late lunch", legacy.ICalText(exception.Props, "SUMMARY"))
	assert.Nil(t, legacy.ICalProp(exception.Props, "RRULE"))
	assert.Nil(t, legacy.ICalProp(exception.Props, "EXDATE"))
}

func TestCalendarOverrideInheritsMaster(t *testing.T) {
	event := models.NewCalendarEvent()
	event.UID = "standup"
	event.Title = "Standup"
	event.Start = "2024-03-11T09:00:00"
	event.TimeZone = "Europe/Berlin"
	event.Duration = "PT15M"
	event.RecurrenceRule = models.NewRecurrenceRule("daily")
	event.RecurrenceOverrides = map[string]*models.CalendarEvent{
		"2024-03-12T09:00:00": {Start: "2024-03-12T10:00:00"},
	}

	results := NewCalendarMapper(testOptions).MapFromJSON([]CreateRequest[*models.CalendarEvent]{{ID: "s", Data: event}})
	require.True(t, results[0].OK(), "%v", results[0].Err)

	cal, err := legacy.ParseCalendar(results[0].Data)
	require.NoError(t, err)
	events := legacy.Events(cal)
	require.Len(t, events, 2)
	assert.Equal(t, "Standup", legacy.ICalText(events[1].Props, "SUMMARY"))
	assert.Equal(t, "PT15M", legacy.ICalValue(events[1].Props, "DURATION"))
	assert.Equal(t, "20240312T100000", legacy.ICalValue(events[1].Props, "DTSTART"))
	assert.Equal(t, "-//Test//EN", legacy.ICalValue(cal.Props, "PRODID"))
}

func TestCalendarOverrideStartsAtOccurrence(t *testing.T) {
	tests := []struct {
		name      string
		patch     *models.CalendarEvent
		wantStart string
		wantBack  string
	}{
		{
			name:      "patch without start",
			patch:     &models.CalendarEvent{Title: "Changed"},
			wantStart: "20240108T100000",
			wantBack:  "2024-01-08T10:00:00",
		},
		{
			name:      "patch start wins",
			patch:     &models.CalendarEvent{Title: "Changed", Start: "2024-01-08T15:00:00"},
			wantStart: "20240108T150000",
			wantBack:  "2024-01-08T15:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := models.NewCalendarEvent()
			event.UID = "weekly"
			event.Title = "Weekly"
			event.Start = "2024-01-01T10:00:00"
			event.TimeZone = "Europe/Berlin"
			event.RecurrenceRule = models.NewRecurrenceRule("weekly")
			event.RecurrenceOverrides = map[string]*models.CalendarEvent{"2024-01-08T10:00:00": tt.patch}

			m := NewCalendarMapper(testOptions)
			results := m.MapFromJSON([]CreateRequest[*models.CalendarEvent]{{ID: "w", Data: event}})
			require.True(t, results[0].OK(), "%v", results[0].Err)

			cal, err := legacy.ParseCalendar(results[0].Data)
			require.NoError(t, err)
			events := legacy.Events(cal)
			require.Len(t, events, 2)
			assert.Equal(t, "20240101T100000", legacy.ICalValue(events[0].Props, "DTSTART"))
			assert.Equal(t, "20240108T100000", legacy.ICalValue(events[1].Props, "RECURRENCE-ID"))
			assert.Equal(t, tt.wantStart, legacy.ICalValue(events[1].Props, "DTSTART"))
			assert.Equal(t, "Europe/Berlin", legacy.ICalProp(events[1].Props, "DTSTART").Params.Get("TZID"))

			records, err := m.MapToJSON([]LegacyInput{{ID: "w", Data: results[0].Data}})
			require.NoError(t, err)
			require.Len(t, records[0].Data, 1)
			override := records[0].Data[0].RecurrenceOverrides["2024-01-08T10:00:00"]
			require.NotNil(t, override)
			assert.Equal(t, tt.wantBack, override.Start)
			assert.Equal(t, "Changed", override.Title)
		})
	}
}

func TestCalendarBatchIsolation(t *testing.T) {
	event := func(title, status string) *models.CalendarEvent {
		e := models.NewCalendarEvent()
		e.Title = title
		e.Start = "2024-03-10T09:00:00"
		e.Status = status
		return e
	}

	badOverride := event("Override", "")
	badOverride.UID = "with-override"
	badOverride.RecurrenceRule = models.NewRecurrenceRule("daily")
	badOverride.RecurrenceOverrides = map[string]*models.CalendarEvent{
		"2024-03-11T09:00:00": {Status: "postponed"},
	}

	results := NewCalendarMapper(testOptions).MapFromJSON([]CreateRequest[*models.CalendarEvent]{
		{ID: "e1", Data: event("One", "confirmed")},
		{ID: "e2", Data: event("Two", "postponed")},
		{ID: "e3", Data: event("Three", "")},
		{ID: "e4", Data: badOverride},
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, errors.IsType(results[1].Err, errors.ErrTypeMapping))
	assert.True(t, results[2].OK())
	assert.False(t, results[3].OK())
	assert.True(t, errors.IsType(results[3].Err, errors.ErrTypeMapping))

	assert.Contains(t, results[0].Data, "SUMMARY:One")
	assert.Contains(t, results[0].Data, "DTSTAMP:20240301T120000Z")
	assert.Contains(t, results[2].Data, "SUMMARY:Three")
}
