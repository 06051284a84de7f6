package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/hogarfin/hogarfin/internal/ledger"
	"github.com/hogarfin/hogarfin/internal/rates"
	"github.com/hogarfin/hogarfin/internal/store"
)

var monthRegexp = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type BalanceHandler struct {
	transactions *store.TransactionStore
	rates        *rates.Service
	logger       *slog.Logger
}

func NewBalanceHandler(ts *store.TransactionStore, rs *rates.Service, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{transactions: ts, rates: rs, logger: logger}
}

// Get handles GET /api/balances?month=YYYY-MM. The month defaults to
// everything; conversion uses the latest saved rate.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" && !monthRegexp.MatchString(month) {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	txs, err := h.transactions.List()
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	latest, err := h.rates.LatestSaved()
	if err != nil {
		h.logger.Error("latest rate", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve rate")
		return
	}

	balances, err := ledger.ComputeBalances(txs, month, latest.Rate)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidRate) {
			writeError(w, http.StatusConflict, "no valid exchange rate available")
			return
		}
		h.logger.Error("compute balances", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute balances")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":    month,
		"rate":     latest.Rate,
		"balances": balances,
	})
}
