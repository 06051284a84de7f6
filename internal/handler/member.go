package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hogarfin/hogarfin/internal/auth"
	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/store"
	"github.com/hogarfin/hogarfin/internal/websocket"
)

type MemberHandler struct {
	households *store.HouseholdStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewMemberHandler(hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{households: hs, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.households.ListMembers(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.HouseholdMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

type replaceMembersRequest struct {
	Members []string `json:"members"`
}

// Replace swaps the member list for the given names. Names that already
// exist keep their member id so their transaction history stays attributed.
func (h *MemberHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req replaceMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var names []string
	for _, name := range req.Members {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "at least one member name is required")
		return
	}

	members, err := h.households.ReplaceMembers(auth.HouseholdID(r.Context()), names)
	if err != nil {
		h.logger.Error("replace members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update members")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, 0, nil))
	writeJSON(w, http.StatusOK, members)
}

type updatePINRequest struct {
	PIN string `json:"pin"`
}

func (h *MemberHandler) UpdatePIN(w http.ResponseWriter, r *http.Request) {
	var req updatePINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	pinHash, err := auth.HashPIN(req.PIN)
	if err != nil {
		writeError(w, http.StatusBadRequest, auth.ErrInvalidPIN.Error())
		return
	}

	if err := h.households.UpdatePINHash(auth.HouseholdID(r.Context()), pinHash); err != nil {
		h.logger.Error("update pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update pin")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "pin updated"})
}
