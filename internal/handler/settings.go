package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hogarfin/hogarfin/internal/store"
)

// Settings keys clients may write. The passphrase salt is managed by the
// backup handler only.
var writableSettings = map[string]func(string) bool{
	"backup_enabled":        isBool,
	"backup_schedule_hour":  isHour,
	"backup_retention_days": isPositiveInt,
	"rate_reminder_enabled": isBool,
	"rate_reminder_hour":    isHour,
}

func isBool(v string) bool { return v == "true" || v == "false" }

func isHour(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= 0 && n <= 23
}

func isPositiveInt(v string) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewSettingsHandler(ss *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: ss, logger: logger}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.GetAll()
	if err != nil {
		h.logger.Error("get settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}
	// The salt is server-internal
	delete(all, "backup_passphrase_salt")
	writeJSON(w, http.StatusOK, all)
}

// Update handles PUT /api/settings with a partial key/value map.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	for key, value := range req {
		validate, ok := writableSettings[key]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
		if !validate(value) {
			writeError(w, http.StatusBadRequest, "invalid value for "+key)
			return
		}
	}

	for key, value := range req {
		if err := h.settings.Set(key, value); err != nil {
			h.logger.Error("save setting", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
