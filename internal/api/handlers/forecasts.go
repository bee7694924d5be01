// Package handlers contains the HTTP handler implementations for the geoforecast API.
//
// This file implements the Forecast handler. It covers:
//   - Creating forecast runs (POST /api/forecasts)
//   - Listing runs with model/variable filters (GET /api/forecasts)
//   - Single-run retrieval by identifier (GET /api/forecasts/{id})
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"geoforecast/internal/core"
	"geoforecast/internal/db"
	"geoforecast/internal/types"
)

// errCodeInvalidQueryParam classifies query parameters that fail to parse.
// The validation_ prefix maps it to a 400 at the response boundary.
const errCodeInvalidQueryParam types.ErrorCode = "validation_invalid_query_parameter"

// insertResponse is the body returned by every record-creating endpoint.
type insertResponse struct {
	ID string `json:"id"`
}

// errStoreUnavailable reports that the API is running without a configured
// document store (DATABASE_URL unset), so persistence endpoints cannot serve.
func errStoreUnavailable() *types.AppError {
	return types.NewAppError(
		types.ErrCodeStorageUnavailable,
		"document store is not configured",
		nil,
	)
}

// ForecastStoreInterface defines the persistence contract for the forecast
// handler. Matches the DocumentStore methods but is defined locally to avoid
// tight coupling per the handler injection pattern.
type ForecastStoreInterface interface {
	Insert(ctx context.Context, collection types.Collection, record any) (string, error)
	Query(ctx context.Context, collection types.Collection, filter map[string]any, limit int) ([]db.Document, error)
	GetByID(ctx context.Context, collection types.Collection, id string) (*db.Document, error)
}

// ForecastHandler maps HTTP requests to document store operations on the
// forecast collection.
type ForecastHandler struct {
	store     ForecastStoreInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewForecastHandler creates a new ForecastHandler with the provided
// dependencies. A nil store is valid: every persistence endpoint then fails
// with a storage error while the rest of the API keeps serving.
func NewForecastHandler(
	store ForecastStoreInterface,
	val *core.Validator,
	logger *slog.Logger,
) *ForecastHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastHandler{
		store:     store,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the forecast endpoints onto the mux.
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
}

// HandleCreate handles POST /api/forecasts.
//  1. Decode and normalize the payload (defaults materialized before
//     validation, so the stored document carries resolved values).
//  2. Validate.
//  3. Insert into the forecast collection.
//  4. Return 201 with the assigned identifier.
func (h *ForecastHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		core.Error(w, r, errStoreUnavailable())
		return
	}

	var payload types.Forecast
	if err := core.DecodeJSON(w, r, &payload); err != nil {
		core.Error(w, r, err)
		return
	}

	payload.Normalize()
	if err := h.validator.ValidateStruct(payload); err != nil {
		core.Error(w, r, err)
		return
	}

	id, err := h.store.Insert(r.Context(), types.CollectionForecasts, payload)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, insertResponse{ID: id})
}

// HandleList handles GET /api/forecasts.
// Optional exact-match filters `model` and `variable` are applied only when
// the parameter is non-empty. The result count is bounded by `limit`
// (default 20, clamped to [1,200]). The response is a bare JSON array,
// possibly empty.
func (h *ForecastHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		core.Error(w, r, errStoreUnavailable())
		return
	}

	q := r.URL.Query()

	filter := map[string]any{}
	if model := q.Get("model"); model != "" {
		filter["model"] = model
	}
	if variable := q.Get("variable"); variable != "" {
		filter["variable"] = variable
	}

	limit := types.DefaultForecastListLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			core.Error(w, r, types.NewAppError(
				errCodeInvalidQueryParam,
				"limit must be an integer",
				nil,
			))
			return
		}
		limit = parsed
	}
	limit = types.ClampLimit(limit, types.MaxForecastListLimit)

	docs, err := h.store.Query(r.Context(), types.CollectionForecasts, filter, limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records := make([]types.ForecastRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := forecastFromDocument(d)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		records = append(records, rec)
	}

	core.JSON(w, r, http.StatusOK, records)
}

// HandleGet handles GET /api/forecasts/{id}.
// A malformed identifier yields a 400-class validation error; a well-formed
// identifier with no matching record yields 404 "Forecast not found".
func (h *ForecastHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		core.Error(w, r, errStoreUnavailable())
		return
	}

	id := chi.URLParam(r, "id")

	doc, err := h.store.GetByID(r.Context(), types.CollectionForecasts, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := forecastFromDocument(*doc)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, rec)
}

// forecastFromDocument merges a stored forecast payload with its assigned
// identifier into the outward-facing record shape.
func forecastFromDocument(d db.Document) (types.ForecastRecord, error) {
	var rec types.ForecastRecord
	if err := json.Unmarshal(d.Doc, &rec.Forecast); err != nil {
		return types.ForecastRecord{}, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to decode stored forecast",
			err,
		)
	}
	rec.ID = d.ID
	return rec, nil
}
