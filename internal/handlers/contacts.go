package handlers

import (
	"net/http"

	"jmap-bridge/internal/common/cache"
	"jmap-bridge/internal/mapper"
	"jmap-bridge/internal/models"
)

// ContactsToJSON converts vCards into JSContact cards
// @Summary Convert vCards to JSContact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dialect query string false "standard, nextcloud or roundcube"
// @Param request body models.ToJSONRequest true "vCard texts keyed by caller id"
// @Success 200 {object} models.ContactToJSONResponse
// @Failure 400 {object} models.ErrorResponse "Malformed request or unparseable vCard"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Router /api/contacts/to-json [post]
func (h *Handlers) ContactsToJSON(w http.ResponseWriter, r *http.Request) {
	dialect, err := h.dialect(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

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

	key := cache.Key("contacts", string(dialect), body)
	if h.fromCache(w, r, key) {
		return
	}

	m := mapper.NewContactMapper(dialect, h.mapperOptions(r))
	records, err := m.MapToJSON(legacyInputs(req.Records))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := models.ContactToJSONResponse{List: make([]models.ContactEntry, 0, len(records))}
	for _, rec := range records {
		resp.List = append(resp.List, models.ContactEntry{ID: rec.ID, Card: rec.Data})
	}
	h.respondCached(w, r, key, resp)
}

// ContactsFromJSON converts JSContact cards into vCards
// @Summary Convert JSContact to vCards
// @Description Cards that cannot be expressed as vCard are reported under notCreated.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param dialect query string false "standard, nextcloud or roundcube"
// @Param request body models.ContactFromJSONRequest true "Cards keyed by caller id"
// @Success 200 {object} models.SetResponse
// @Failure 400 {object} models.ErrorResponse "Malformed request"
// @Failure 401 {object} models.ErrorResponse "Missing or invalid token"
// @Failure 429 {object} models.ErrorResponse "Rate limit exceeded"
// @Router /api/contacts/from-json [post]
func (h *Handlers) ContactsFromJSON(w http.ResponseWriter, r *http.Request) {
	dialect, err := h.dialect(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req models.ContactFromJSONRequest
	if _, err := readBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.checkBatch(len(req.Create)); err != nil {
		h.writeError(w, r, err)
		return
	}

	ids := make([]string, 0, len(req.Create))
	requests := make([]mapper.CreateRequest[*models.Card], 0, len(req.Create))
	for _, entry := range req.Create {
		ids = append(ids, entry.ID)
		requests = append(requests, mapper.CreateRequest[*models.Card]{ID: entry.ID, Data: entry.Card})
	}
	if err := checkIDs(ids); err != nil {
		h.writeError(w, r, err)
		return
	}

	m := mapper.NewContactMapper(dialect, h.mapperOptions(r))
	writeJSON(w, http.StatusOK, setResponse(m.MapFromJSON(requests)))
}

func legacyInputs(records []models.LegacyRecord) []mapper.LegacyInput {
	inputs := make([]mapper.LegacyInput, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, mapper.LegacyInput{ID: rec.ID, Data: rec.Data})
	}
	return inputs
}
