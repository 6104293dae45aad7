package server

import (
	"encoding/json"
	"net/http"

	"github.com/foodifind/foodifind/pkg/agent"
	"github.com/foodifind/foodifind/pkg/model"
	"github.com/foodifind/foodifind/pkg/utils/logging"
)

type handler struct {
	pipeline *agent.Pipeline
	tiles    TileSources
}

type discoverRequest struct {
	Query string  `json:"query"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type stateResponse struct {
	Stage  model.Stage            `json:"stage"`
	Result *model.DiscoveryResult `json:"result"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) config(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"tiles": h.tiles})
}

// discover runs the full agent pipeline for one query. Upstream failures
// never surface here: the pipeline always commits a result, mock or not.
func (h *handler) discover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}

	result := h.pipeline.Run(r.Context(), req.Query, model.Coordinates{Lat: req.Lat, Lng: req.Lng})
	respondWithJSON(w, http.StatusOK, result)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	result := h.pipeline.WeeklyRefresh(r.Context())
	if result == nil {
		respondWithError(w, http.StatusNotFound, "no discovery result to refresh")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *handler) logs(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.pipeline.Log().Entries())
}

func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, stateResponse{
		Stage:  h.pipeline.Stage(),
		Result: h.pipeline.Result(),
	})
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Default().Warn("failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}
