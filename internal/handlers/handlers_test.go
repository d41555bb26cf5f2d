package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jmap-bridge/internal/common/cache"
	"jmap-bridge/internal/config"
	"jmap-bridge/internal/models"
)

const forrestCard = "BEGIN:VCARD\r\nVERSION:4.0\r\nUID:urn:uuid:forrest\r\nFN:Forrest Gump\r\n" +
	"N:Gump;Forrest;;Mr.;\r\nEMAIL;TYPE=work:forrest@example.com\r\nEND:VCARD\r\n"

const lunchCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//Test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:lunch\r\nDTSTAMP:20240301T120000Z\r\n" +
	"DTSTART;TZID=Europe/Berlin:20240310T120000\r\nDURATION:PT1H\r\nSUMMARY:Lunch\r\n" +
	"RRULE:FREQ=WEEKLY\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:lunch\r\nDTSTAMP:20240301T120000Z\r\n" +
	"RECURRENCE-ID;TZID=Europe/Berlin:20240317T120000\r\n" +
	"DTSTART;TZID=Europe/Berlin:20240317T130000\r\nDURATION:PT1H\r\nSUMMARY:Late lunch\r\n" +
	"END:VEVENT\r\nEND:VCALENDAR\r\n"

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		DefaultDialect: "standard",
		ProdID:         "-//Test//EN",
		MaxBatchSize:   10,
		CacheTTL:       time.Minute,
	}
}

func newTestHandlers(c cache.Cache, checks map[string]HealthCheck) *Handlers {
	h := New(testConfig(), c, checks)
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func post(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	switch v := body.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		data, err = json.Marshal(v)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestContactsToJSON(t *testing.T) {
	h := newTestHandlers(nil, nil)

	w := post(t, h.ContactsToJSON, "/api/contacts/to-json", models.ToJSONRequest{
		Records: []models.LegacyRecord{{ID: "forrest", Data: forrestCard}},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("X-Cache"))

	resp := decode[models.ContactToJSONResponse](t, w)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "forrest", resp.List[0].ID)
	card := resp.List[0].Card
	require.NotNil(t, card)
	assert.Equal(t, "Card", card.AtType)
	assert.Equal(t, "urn:uuid:forrest", card.UID)
	assert.Equal(t, "Forrest Gump", card.FullName)
	require.Len(t, card.Emails, 1)
	for _, email := range card.Emails {
		assert.Equal(t, "forrest@example.com", email.Address)
	}
}

func TestContactsToJSON_Errors(t *testing.T) {
	h := newTestHandlers(nil, nil)

	tooMany := models.ToJSONRequest{}
	for i := 0; i < 11; i++ {
		tooMany.Records = append(tooMany.Records, models.LegacyRecord{ID: fmt.Sprint(i), Data: forrestCard})
	}

	tests := []struct {
		name      string
		target    string
		body      interface{}
		wantError string
		wantID    string
	}{
		{
			name:      "invalid JSON",
			target:    "/api/contacts/to-json",
			body:      "{not json",
			wantError: "validation",
		},
		{
			name:      "unknown dialect",
			target:    "/api/contacts/to-json?dialect=outlook",
			body:      models.ToJSONRequest{Records: []models.LegacyRecord{{ID: "a", Data: forrestCard}}},
			wantError: "validation",
		},
		{
			name:      "empty batch",
			target:    "/api/contacts/to-json",
			body:      models.ToJSONRequest{},
			wantError: "validation",
		},
		{
			name:      "batch over the limit",
			target:    "/api/contacts/to-json",
			body:      tooMany,
			wantError: "validation",
		},
		{
			name:   "unparseable vCard aborts the batch",
			target: "/api/contacts/to-json",
			body: models.ToJSONRequest{Records: []models.LegacyRecord{
				{ID: "ok", Data: forrestCard},
				{ID: "broken", Data: "BEGIN:VCARD\r\nFN;broken\r\n"},
			}},
			wantError: "parse",
			wantID:    "broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h.ContactsToJSON, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[models.ErrorResponse](t, w)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, tt.wantID, resp.ID)
		})
	}
}

func TestContactsFromJSON(t *testing.T) {
	h := newTestHandlers(nil, nil)

	good := models.NewCard()
	good.UID = "urn:uuid:jenny"
	good.FullName = "Jenny Curran"

	inanimate := models.NewCard()
	inanimate.FullName = "Rock"
	inanimate.SpeakToAs = &models.SpeakToAs{AtType: models.TypeSpeakToAs, GrammaticalGender: "inanimate"}

	body := models.ContactFromJSONRequest{Create: []models.ContactEntry{
		{ID: "jenny", Card: good},
		{ID: "rock", Card: inanimate},
	}}

	t.Run("standard dialect rejects inanimate gender", func(t *testing.T) {
		w := post(t, h.ContactsFromJSON, "/api/contacts/from-json", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[models.SetResponse](t, w)
		require.Contains(t, resp.Created, "jenny")
		assert.Contains(t, resp.Created["jenny"], "FN:Jenny Curran")
		assert.Contains(t, resp.Created["jenny"], "UID:urn:uuid:jenny")
		assert.Contains(t, resp.Created["jenny"], "PRODID:-//Test//EN")

		require.Contains(t, resp.NotCreated, "rock")
		assert.Equal(t, models.SetErrorInvalidProperties, resp.NotCreated["rock"].Type)
		assert.NotEmpty(t, resp.NotCreated["rock"].Description)
	})

	t.Run("nextcloud dialect accepts it", func(t *testing.T) {
		w := post(t, h.ContactsFromJSON, "/api/contacts/from-json?dialect=nextcloud", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[models.SetResponse](t, w)
		assert.Len(t, resp.Created, 2)
		assert.Empty(t, resp.NotCreated)
	})

	t.Run("missing card is reported per record", func(t *testing.T) {
		w := post(t, h.ContactsFromJSON, "/api/contacts/from-json", models.ContactFromJSONRequest{
			Create: []models.ContactEntry{{ID: "jenny", Card: good}, {ID: "empty"}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[models.SetResponse](t, w)
		assert.Contains(t, resp.Created, "jenny")
		assert.Contains(t, resp.NotCreated, "empty")
	})

	t.Run("duplicate ids are rejected", func(t *testing.T) {
		w := post(t, h.ContactsFromJSON, "/api/contacts/from-json", models.ContactFromJSONRequest{
			Create: []models.ContactEntry{{ID: "x", Card: good}, {ID: "x", Card: good}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate record id")
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		w := post(t, h.ContactsFromJSON, "/api/contacts/from-json", models.ContactFromJSONRequest{
			Create: []models.ContactEntry{{Card: good}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCalendarsToJSON(t *testing.T) {
	h := newTestHandlers(nil, nil)

	w := post(t, h.CalendarsToJSON, "/api/calendars/to-json", models.ToJSONRequest{
		Records: []models.LegacyRecord{{ID: "cal", Data: lunchCalendar}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.CalendarToJSONResponse](t, w)
	require.Len(t, resp.List, 1)
	require.Len(t, resp.List[0].Events, 1)

	event := resp.List[0].Events[0]
	assert.Equal(t, "lunch", event.UID)
	assert.Equal(t, "2024-03-10T12:00:00", event.Start)
	assert.Equal(t, "Europe/Berlin", event.TimeZone)
	require.Contains(t, event.RecurrenceOverrides, "2024-03-17T12:00:00")
	assert.Equal(t, "Late lunch", event.RecurrenceOverrides["2024-03-17T12:00:00"].Title)
}

func TestCalendarsToJSON_ParseError(t *testing.T) {
	h := newTestHandlers(nil, nil)

	w := post(t, h.CalendarsToJSON, "/api/calendars/to-json", models.ToJSONRequest{
		Records: []models.LegacyRecord{{ID: "garbage", Data: ""}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, "parse", resp.Error)
	assert.Equal(t, "garbage", resp.ID)
}

func TestCalendarsFromJSON(t *testing.T) {
	h := newTestHandlers(nil, nil)

	event := models.NewCalendarEvent()
	event.UID = "standup"
	event.Title = "Standup"
	event.Start = "2024-03-11T09:30:00"
	event.TimeZone = "Europe/Berlin"
	event.Duration = "PT15M"

	bad := models.NewCalendarEvent()
	bad.Title = "Broken"
	bad.Start = "2024-03-11T09:30:00"
	bad.Status = "postponed"

	w := post(t, h.CalendarsFromJSON, "/api/calendars/from-json", models.CalendarFromJSONRequest{
		Create: []models.CalendarCreate{{ID: "standup", Event: event}, {ID: "bad", Event: bad}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.SetResponse](t, w)
	require.Contains(t, resp.Created, "standup")
	ics := resp.Created["standup"]
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Contains(t, ics, "UID:standup")
	assert.Contains(t, ics, "DTSTART;TZID=Europe/Berlin:20240311T093000")
	assert.Contains(t, ics, "DTSTAMP:20240301T120000Z")

	require.Contains(t, resp.NotCreated, "bad")
	assert.Equal(t, models.SetErrorInvalidProperties, resp.NotCreated["bad"].Type)
}

func TestToJSON_Cache(t *testing.T) {
	c := cache.NewLocalCache(time.Minute, time.Minute)
	h := newTestHandlers(c, nil)

	body := models.ToJSONRequest{Records: []models.LegacyRecord{{ID: "forrest", Data: forrestCard}}}

	first := post(t, h.ContactsToJSON, "/api/contacts/to-json", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, 1, c.Len())

	second := post(t, h.ContactsToJSON, "/api/contacts/to-json", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// A different dialect is a different entry.
	third := post(t, h.ContactsToJSON, "/api/contacts/to-json?dialect=roundcube", body)
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, c.Len())

	// Parse failures are never cached.
	broken := models.ToJSONRequest{Records: []models.LegacyRecord{{ID: "b", Data: "BEGIN:VCARD\r\nFN;broken\r\n"}}}
	post(t, h.ContactsToJSON, "/api/contacts/to-json", broken)
	assert.Equal(t, 2, c.Len())
}

func TestHealth(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		h := newTestHandlers(nil, nil)
		w := httptest.NewRecorder()
		h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, []string{"standard", "nextcloud", "roundcube"}, resp.Dialects)
		assert.False(t, resp.Cache)
		assert.Empty(t, resp.Checks)
	})

	t.Run("failing dependency", func(t *testing.T) {
		h := newTestHandlers(cache.NewLocalCache(time.Minute, time.Minute), map[string]HealthCheck{
			"redis": func(ctx context.Context) error { return fmt.Errorf("connection refused") },
		})
		w := httptest.NewRecorder()
		h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		resp := decode[HealthResponse](t, w)
		assert.Equal(t, "degraded", resp.Status)
		assert.True(t, resp.Cache)
		assert.Equal(t, "unavailable", resp.Checks["redis"])
	})
}
