// Package handlers contains the HTTP handler implementations for the geoforecast API.
//
// This file implements the Meteogram handler: POST /api/meteogram validates a
// point request and returns a synthetic hourly series. Nothing is persisted;
// the compute path never touches the document store.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"geoforecast/internal/core"
	"geoforecast/internal/meteogram"
	"geoforecast/internal/types"
)

// MeteogramHandler maps HTTP requests to the synthetic series generator.
type MeteogramHandler struct {
	validator *core.Validator
	logger    *slog.Logger
}

// NewMeteogramHandler creates a new MeteogramHandler with the provided
// dependencies.
func NewMeteogramHandler(val *core.Validator, logger *slog.Logger) *MeteogramHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeteogramHandler{
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the meteogram endpoint onto the mux.
func (h *MeteogramHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleGenerate)
}

// HandleGenerate handles POST /api/meteogram.
// Decode, normalize the variable default, validate, then compute the series.
// The forecast_id field is accepted and ignored; generation depends only on
// the request coordinates, the variable, and the wall clock.
func (h *MeteogramHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.MeteogramRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	req.Normalize()
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, meteogram.Generate(req))
}
