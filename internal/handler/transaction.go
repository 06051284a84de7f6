package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hogarfin/hogarfin/internal/auth"
	"github.com/hogarfin/hogarfin/internal/ledger"
	"github.com/hogarfin/hogarfin/internal/model"
	"github.com/hogarfin/hogarfin/internal/rates"
	"github.com/hogarfin/hogarfin/internal/store"
	"github.com/hogarfin/hogarfin/internal/websocket"
)

// memberNameFallback labels transactions whose member row no longer exists.
const memberNameFallback = "Anon"

type TransactionHandler struct {
	transactions *store.TransactionStore
	households   *store.HouseholdStore
	rates        *rates.Service
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewTransactionHandler(
	ts *store.TransactionStore,
	hs *store.HouseholdStore,
	rs *rates.Service,
	hub *websocket.Hub,
	logger *slog.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transactions: ts,
		households:   hs,
		rates:        rs,
		hub:          hub,
		logger:       logger,
	}
}

func (h *TransactionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// transactionView is a Transaction with the member name resolved for
// display. Orphaned member ids resolve to "Anon".
type transactionView struct {
	model.Transaction
	MemberName string `json:"member_name"`
}

func (h *TransactionHandler) memberNames(householdID int64) (map[int64]string, error) {
	members, err := h.households.ListMembers(householdID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names, nil
}

func (h *TransactionHandler) toView(t model.Transaction, names map[int64]string) transactionView {
	name, ok := names[t.MemberID]
	if !ok {
		name = memberNameFallback
	}
	return transactionView{Transaction: t, MemberName: name}
}

// List handles GET /api/transactions?month=YYYY-MM&type=...
// Results come back newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.List()
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	month := r.URL.Query().Get("month")
	typeFilter := r.URL.Query().Get("type")

	var filtered []model.Transaction
	for _, t := range txs {
		if month != "" && !strings.HasPrefix(t.Date.UTC().Format(time.RFC3339), month) {
			continue
		}
		if typeFilter != "" && string(t.Type) != typeFilter {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].Date.Equal(filtered[j].Date) {
			return filtered[i].Date.After(filtered[j].Date)
		}
		return filtered[i].ID > filtered[j].ID
	})

	names, err := h.memberNames(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("resolve member names", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	views := make([]transactionView, 0, len(filtered))
	for _, t := range filtered {
		views = append(views, h.toView(t, names))
	}
	writeJSON(w, http.StatusOK, views)
}

// build resolves the effective rate for the input's date and runs the
// validation rules. Validation failures map to 400 responses.
func (h *TransactionHandler) build(w http.ResponseWriter, in ledger.Input) (*model.Transaction, bool) {
	rate, err := h.rates.EffectiveRate(in.Date)
	if err != nil {
		h.logger.Error("effective rate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve exchange rate")
		return nil, false
	}

	t, err := ledger.Build(in, rate)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrMissingMember),
			errors.Is(err, ledger.ErrInvalidPurchaseAmounts),
			errors.Is(err, ledger.ErrInvalidAmount),
			errors.Is(err, ledger.ErrInvalidDate):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("build transaction", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to build transaction")
		}
		return nil, false
	}
	return t, true
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in ledger.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	t, ok := h.build(w, in)
	if !ok {
		return
	}

	created, err := h.transactions.Create(t)
	if err != nil {
		h.logger.Error("create transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTransaction, websocket.ActionCreated, created.ID, nil))

	names, _ := h.memberNames(auth.HouseholdID(r.Context()))
	writeJSON(w, http.StatusCreated, h.toView(*created, names))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.transactions.GetByID(id)
	if err != nil {
		h.logger.Error("get transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	var in ledger.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	t, ok := h.build(w, in)
	if !ok {
		return
	}
	t.ID = id

	updated, err := h.transactions.Update(t)
	if err != nil {
		h.logger.Error("update transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update transaction")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTransaction, websocket.ActionUpdated, id, nil))

	names, _ := h.memberNames(auth.HouseholdID(r.Context()))
	writeJSON(w, http.StatusOK, h.toView(*updated, names))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.transactions.GetByID(id)
	if err != nil {
		h.logger.Error("get transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}

	if err := h.transactions.Delete(id); err != nil {
		h.logger.Error("delete transaction", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityTransaction, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}
