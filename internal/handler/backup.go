package handler

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hogarfin/hogarfin/internal/backup"
	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/store"
)

const backupHistoryLimit = 50

type BackupHandler struct {
	manager  *backup.Manager
	backups  *store.BackupStore
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, ss *store.SettingsStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backups: bs, settings: ss, logger: logger}
}

// Status handles GET /api/backups/status.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// List handles GET /api/backups.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(backupHistoryLimit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

type runBackupRequest struct {
	Passphrase string `json:"passphrase"`
}

// Run handles POST /api/backups/run. The first run establishes the
// passphrase salt; the passphrase itself is cached in memory so scheduled
// backups keep working until restart.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req runBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Passphrase) < 8 {
		writeError(w, http.StatusBadRequest, "passphrase must be at least 8 characters")
		return
	}

	saltHex, err := h.settings.Get("backup_passphrase_salt")
	if err != nil || saltHex == "" {
		salt, err := backup.GenerateSalt()
		if err != nil {
			h.logger.Error("generate salt", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to run backup")
			return
		}
		saltHex = hex.EncodeToString(salt)
		if err := h.settings.Set("backup_passphrase_salt", saltHex); err != nil {
			h.logger.Error("store salt", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to run backup")
			return
		}
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		h.logger.Error("decode salt", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to run backup")
		return
	}
	h.manager.CacheKey(req.Passphrase, salt)

	id, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil || record == nil {
		writeError(w, http.StatusInternalServerError, "backup ran but record missing")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Download handles GET /api/backups/{id}/download, streaming the encrypted
// snapshot as stored.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("download backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to download backup")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%d.db.enc"`, id))
	io.Copy(w, body)
}

type restoreRequest struct {
	Passphrase string `json:"passphrase"`
}

// Restore handles POST /api/backups/{id}/restore. On success the process
// exits and comes back up on the restored database.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Passphrase == "" {
		writeError(w, http.StatusBadRequest, "passphrase is required")
		return
	}

	if err := h.manager.Restore(r.Context(), id, req.Passphrase); err != nil {
		h.logger.Error("restore backup", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Unreachable on success: Restore exits the process.
}
