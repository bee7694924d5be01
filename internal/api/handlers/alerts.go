// Package handlers contains the HTTP handler implementations for the geoforecast API.
//
// This file implements the Alert handler. It covers:
//   - Creating threshold rules (POST /api/alerts)
//   - Listing rules with an active filter (GET /api/alerts)
//   - Single-rule retrieval, plain or as a GeoJSON Feature
//     (GET /api/alerts/{id}?format=geojson)
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	geojson "github.com/paulmach/go.geojson"

	"geoforecast/internal/core"
	"geoforecast/internal/db"
	"geoforecast/internal/types"
)

// AlertStoreInterface defines the persistence contract for the alert handler.
// Matches the DocumentStore methods but is defined locally to avoid tight
// coupling per the handler injection pattern.
type AlertStoreInterface interface {
	Insert(ctx context.Context, collection types.Collection, record any) (string, error)
	Query(ctx context.Context, collection types.Collection, filter map[string]any, limit int) ([]db.Document, error)
	GetByID(ctx context.Context, collection types.Collection, id string) (*db.Document, error)
}

// AlertHandler maps HTTP requests to document store operations on the alert
// collection.
type AlertHandler struct {
	store     AlertStoreInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewAlertHandler creates a new AlertHandler with the provided dependencies.
// A nil store is valid: every persistence endpoint then fails with a storage
// error while the rest of the API keeps serving.
func NewAlertHandler(
	store AlertStoreInterface,
	val *core.Validator,
	logger *slog.Logger,
) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertHandler{
		store:     store,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the alert endpoints onto the mux.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate)
	r.Get("/", h.HandleList)
	r.Get("/{id}", h.HandleGet)
}

// HandleCreate handles POST /api/alerts.
// Decode, normalize defaults (variable t2m, comparison >=, active true),
// validate, insert, return 201 with the assigned identifier.
func (h *AlertHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		core.Error(w, r, errStoreUnavailable())
		return
	}

	var payload types.Alert
	if err := core.DecodeJSON(w, r, &payload); err != nil {
		core.Error(w, r, err)
		return
	}

	payload.Normalize()
	if err := h.validator.ValidateStruct(payload); err != nil {
		core.Error(w, r, err)
		return
	}

	id, err := h.store.Insert(r.Context(), types.CollectionAlerts, payload)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, insertResponse{ID: id})
}

// HandleList handles GET /api/alerts.
// The `active` filter is applied only when the parameter is present, parsed
// as a boolean. The result count is bounded by `limit` (default 50, clamped
// to [1,500]). The response is a bare JSON array, possibly empty.
func (h *AlertHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		core.Error(w, r, errStoreUnavailable())
		return
	}

	q := r.URL.Query()

	filter := map[string]any{}
	if activeStr := q.Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			core.Error(w, r, types.NewAppError(
				errCodeInvalidQueryParam,
				"active must be a boolean",
				nil,
			))
			return
		}
		filter["active"] = active
	}

	limit := types.DefaultAlertListLimit
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
	limit = types.ClampLimit(limit, types.MaxAlertListLimit)

	docs, err := h.store.Query(r.Context(), types.CollectionAlerts, filter, limit)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	records := make([]types.AlertRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := alertFromDocument(d)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		records = append(records, rec)
	}

	core.JSON(w, r, http.StatusOK, records)
}

// HandleGet handles GET /api/alerts/{id}.
// A malformed identifier yields a 400-class validation error; a well-formed
// identifier with no matching record yields 404 "Alert not found". With
// ?format=geojson the record is rendered as a GeoJSON Feature whose geometry
// is the alert polygon, for direct map-overlay use.
func (h *AlertHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		core.Error(w, r, errStoreUnavailable())
		return
	}

	id := chi.URLParam(r, "id")

	doc, err := h.store.GetByID(r.Context(), types.CollectionAlerts, id)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := alertFromDocument(*doc)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		core.JSON(w, r, http.StatusOK, alertFeature(rec))
		return
	}

	core.JSON(w, r, http.StatusOK, rec)
}

// alertFromDocument merges a stored alert payload with its assigned
// identifier into the outward-facing record shape.
func alertFromDocument(d db.Document) (types.AlertRecord, error) {
	var rec types.AlertRecord
	if err := json.Unmarshal(d.Doc, &rec.Alert); err != nil {
		return types.AlertRecord{}, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to decode stored alert",
			err,
		)
	}
	rec.ID = d.ID
	return rec, nil
}

// alertFeature renders an alert as a GeoJSON Feature. The stored polygon is
// an open or closed ring of [lon, lat] pairs; GeoJSON requires a closed ring,
// so the first vertex is appended when the input left it open.
func alertFeature(rec types.AlertRecord) *geojson.Feature {
	ring := make([][]float64, len(rec.Polygon))
	copy(ring, rec.Polygon)

	if n := len(ring); n > 0 {
		first, last := ring[0], ring[n-1]
		if len(first) == 2 && len(last) == 2 && (first[0] != last[0] || first[1] != last[1]) {
			ring = append(ring, []float64{first[0], first[1]})
		}
	}

	feature := geojson.NewPolygonFeature([][][]float64{ring})
	feature.ID = rec.ID
	feature.SetProperty("name", rec.Name)
	feature.SetProperty("variable", string(rec.Variable))
	feature.SetProperty("comparison", string(rec.Comparison))
	if rec.Threshold != nil {
		feature.SetProperty("threshold", *rec.Threshold)
	}
	if rec.Active != nil {
		feature.SetProperty("active", *rec.Active)
	}
	return feature
}
