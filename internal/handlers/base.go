package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jmap-bridge/internal/common/cache"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/config"
	"jmap-bridge/internal/jscontact"
	"jmap-bridge/internal/mapper"
	"jmap-bridge/internal/models"
)

// maxBodyBytes bounds a request body.
const maxBodyBytes = 32 << 20

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	config *config.Config
	cache  cache.Cache
	checks map[string]HealthCheck
	logger logging.Logger
	now    func() time.Time
}

// New builds the HTTP handlers. c may be nil to disable caching.
func New(cfg *config.Config, c cache.Cache, checks map[string]HealthCheck) *Handlers {
	return &Handlers{
		config: cfg,
		cache:  c,
		checks: checks,
		logger: logging.GetGlobalLogger().WithFields(logging.String("component", "handlers")),
		now:    time.Now,
	}
}

// mapperOptions scopes mapper logging to the request.
func (h *Handlers) mapperOptions(r *http.Request) mapper.Options {
	return mapper.Options{
		Logger: h.logger.WithContext(r.Context()),
		ProdID: h.config.ProdID,
		Now:    h.now,
	}
}

// dialect reads the dialect query parameter, falling back to the configured
// default.
func (h *Handlers) dialect(r *http.Request) (jscontact.Dialect, error) {
	name := r.URL.Query().Get("dialect")
	if name == "" {
		name = h.config.DefaultDialect
	}
	return jscontact.ParseDialect(name)
}

// readBody reads and decodes a JSON request body. The raw bytes are returned
// for cache keys.
func readBody(w http.ResponseWriter, r *http.Request, dest interface{}) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.ValidationError("failed to read request body")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return nil, errors.ValidationError("invalid JSON: " + err.Error())
	}
	return body, nil
}

func (h *Handlers) checkBatch(n int) error {
	if n == 0 {
		return errors.ValidationError("request contains no records")
	}
	if n > h.config.MaxBatchSize {
		return errors.ValidationError(fmt.Sprintf("request contains %d records, the limit is %d", n, h.config.MaxBatchSize))
	}
	return nil
}

// checkIDs rejects empty and repeated record identifiers.
func checkIDs(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return errors.ValidationError("every record needs an id")
		}
		if seen[id] {
			return errors.ValidationError(fmt.Sprintf("duplicate record id %q", id))
		}
		seen[id] = true
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// writeError maps an AppError to a status code and an ErrorResponse.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := models.ErrorResponse{Error: string(errors.GetType(err)), Message: describe(err)}

	status := http.StatusInternalServerError
	switch errors.GetType(err) {
	case errors.ErrTypeValidation:
		status = http.StatusBadRequest
	case errors.ErrTypeParse:
		status = http.StatusBadRequest
		if appErr, ok := err.(*errors.AppError); ok {
			if id, ok := appErr.Context["record_id"].(string); ok {
				resp.ID = id
			}
			if appErr.Cause != nil {
				resp.Message += ": " + appErr.Cause.Error()
			}
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).Error("Request failed", err)
		resp.Message = "internal server error"
	}
	writeJSON(w, status, resp)
}

// fromCache serves a cached response. It reports whether it did.
func (h *Handlers) fromCache(w http.ResponseWriter, r *http.Request, key string) bool {
	if h.cache == nil {
		return false
	}
	data, ok := h.cache.Get(r.Context(), key)
	if !ok {
		return false
	}
	h.logger.WithContext(r.Context()).Debug("Served from cache", logging.String("key", key))
	w.Header().Set("X-Cache", "HIT")
	writeRaw(w, data)
	return true
}

// respondCached encodes v, stores it under key and writes it.
func (h *Handlers) respondCached(w http.ResponseWriter, r *http.Request, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.writeError(w, r, errors.InternalError("failed to encode response", err))
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, data, h.config.CacheTTL); err != nil {
			h.logger.WithContext(r.Context()).Warn("Failed to cache response", logging.Err(err))
		}
		w.Header().Set("X-Cache", "MISS")
	}
	writeRaw(w, data)
}

// setResponse collects mapper results into the JMAP /set shape.
func setResponse(results []mapper.Result) models.SetResponse {
	resp := models.SetResponse{
		Created:    make(map[string]string),
		NotCreated: make(map[string]*models.SetError),
	}
	for _, res := range results {
		if res.OK() {
			resp.Created[res.ID] = res.Data
			continue
		}
		resp.NotCreated[res.ID] = &models.SetError{
			Type:        models.SetErrorInvalidProperties,
			Description: describe(res.Err),
		}
	}
	return resp
}

func describe(err error) string {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr.Message
	}
	return err.Error()
}
