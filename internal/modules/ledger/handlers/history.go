package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mgalanis/folio/internal/modules/history"
	"github.com/mgalanis/folio/internal/modules/ledger"
)

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := idParam(r, "portfolioID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	symbols, err := h.ledger.SymbolsWithTransactions(portfolioID, h.userID(r))
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load symbols")
		writeError(w, http.StatusInternalServerError, "Failed to load symbols")
		return
	}

	positions := make([]history.Position, 0, len(symbols))
	for _, sym := range symbols {
		positions = append(positions, history.Position{
			Ticker:       sym.Ticker,
			Transactions: sym.Transactions,
		})
	}

	rng := history.NormalizeRange(r.URL.Query().Get("range"))
	window, _ := strconv.Atoi(r.URL.Query().Get("window"))

	result, err := h.history.PortfolioValue(r.Context(), positions, rng, window)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to reconstruct history")
		writeError(w, http.StatusInternalServerError, "Failed to reconstruct history")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
