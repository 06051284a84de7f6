package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hogarfin/hogarfin/internal/rates"
	"github.com/hogarfin/hogarfin/internal/store"
	"github.com/hogarfin/hogarfin/internal/websocket"
)

type RateHandler struct {
	service *rates.Service
	rates   *store.RateStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewRateHandler(svc *rates.Service, rs *store.RateStore, hub *websocket.Hub, logger *slog.Logger) *RateHandler {
	return &RateHandler{service: svc, rates: rs, hub: hub, logger: logger}
}

// Latest handles GET /api/rates/latest. The fallback entry is served when
// nothing has been entered yet, so the response always carries a usable rate.
func (h *RateHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.service.LatestSaved()
	if err != nil {
		h.logger.Error("latest rate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get latest rate")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// ForDate handles GET /api/rates/{date}. Exact-date lookup; 404 when no
// entry exists for that day.
func (h *RateHandler) ForDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	entry, err := h.rates.GetForDate(date)
	if err != nil {
		h.logger.Error("rate for date", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get rate")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "no rate for that date")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type saveRateRequest struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`
}

// Save handles PUT /api/rates. Saving a date that already has a rate
// overwrites it.
func (h *RateHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.Rate <= 0 {
		writeError(w, http.StatusBadRequest, "rate must be positive")
		return
	}

	entry, err := h.service.Save(req.Date, req.Rate)
	if err != nil {
		h.logger.Error("save rate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save rate")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityRate, websocket.ActionUpdated, 0, map[string]any{"date": entry.Date}))
	}
	writeJSON(w, http.StatusOK, entry)
}

// Fetch handles POST /api/rates/fetch. The upstream source is a stub for
// now; the fetched value is returned for review, never persisted here.
func (h *RateHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.FetchLatest(r.Context())
	if err != nil {
		h.logger.Error("fetch rate", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch rate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rate": rate,
		"date": time.Now().UTC().Format("2006-01-02"),
	})
}
