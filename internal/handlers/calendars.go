package handlers

import (
	"net/http"

	"jmap-bridge/internal/common/cache"
	"jmap-bridge/internal/mapper"
	"jmap-bridge/internal/models"
)

// CalendarsToJSON converts iCalendar objects into JSCalendar events
// @Summary Convert iCalendar to JSCalendar
// @Description Recurrence exceptions are folded into their master's recurrenceOverrides across the whole request.
// @Tags calendars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ToJSONRequest true "iCalendar texts keyed by caller id"
// @Success 200 {object} models.CalendarToJSONResponse
// @Failure 400 {object} models.ErrorResponse "Malformed request or unparseable iCalendar"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Router /api/calendars/to-json [post]
func (h *Handlers) CalendarsToJSON(w http.ResponseWriter, r *http.Request) {
	var req models.ToJSONRequest
	body, err := readBody(w, r, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Records)); err != nil {
		h.writeError(w, r, err)
		return
	}

	key := cache.Key("calendars", "", body)
	if h.fromCache(w, r, key) {
		return
	}

	m := mapper.NewCalendarMapper(h.mapperOptions(r))
	records, err := m.MapToJSON(legacyInputs(req.Records))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := models.CalendarToJSONResponse{List: make([]models.CalendarEntry, 0, len(records))}
	for _, rec := range records {
		resp.List = append(resp.List, models.CalendarEntry{ID: rec.ID, Events: rec.Data})
	}
	h.respondCached(w, r, key, resp)
}

// CalendarsFromJSON converts JSCalendar events into iCalendar objects
// @Summary Convert JSCalendar to iCalendar
// @Description Events that cannot be expressed as iCalendar are reported under notCreated.
// @Tags calendars
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CalendarFromJSONRequest true "Events keyed by caller id"
// @Success 200 {object} models.SetResponse
// @Failure 400 {object} models.ErrorResponse "Malformed request"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Router /api/calendars/from-json [post]
func (h *Handlers) CalendarsFromJSON(w http.ResponseWriter, r *http.Request) {
	var req models.CalendarFromJSONRequest
	if _, err := readBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Create)); err != nil {
		h.writeError(w, r, err)
		return
	}

	ids := make([]string, 0, len(req.Create))
	requests := make([]mapper.CreateRequest[*models.CalendarEvent], 0, len(req.Create))
	for _, entry := range req.Create {
		ids = append(ids, entry.ID)
		requests = append(requests, mapper.CreateRequest[*models.CalendarEvent]{ID: entry.ID, Data: entry.Event})
	}
	if err := checkIDs(ids); err != nil {
		h.writeError(w, r, err)
		return
	}

	m := mapper.NewCalendarMapper(h.mapperOptions(r))
	writeJSON(w, http.StatusOK, setResponse(m.MapFromJSON(requests)))
}
