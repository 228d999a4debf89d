package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mgalanis/folio/internal/modules/ledger"
	"github.com/mgalanis/folio/internal/modules/valuation"
)

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.ledger.UserPortfolios(h.userID(r))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		writeError(w, http.StatusInternalServerError, "Failed to list portfolios")
		return
	}
	if portfolios == nil {
		portfolios = []ledger.Portfolio{}
	}
	writeJSON(w, http.StatusOK, portfolios)
}

type createPortfolioRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.ledger.CreatePortfolio(h.userID(r), req.Name)
	if errors.Is(err, ledger.ErrInvalidTransaction) {
		writeError(w, http.StatusBadRequest, "Portfolio name must not be empty")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create portfolio")
		writeError(w, http.StatusInternalServerError, "Failed to create portfolio")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"portfolio_id": id})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := idParam(r, "portfolioID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	deleted, err := h.ledger.DeletePortfolio(portfolioID, h.userID(r))
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to delete portfolio")
		writeError(w, http.StatusInternalServerError, "Failed to delete portfolio")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// portfolioDetail is the full dashboard view: every symbol with its derived
// metrics plus the aggregate summary.
type portfolioDetail struct {
	Portfolio ledger.Portfolio           `json:"portfolio"`
	Symbols   []valuation.SymbolMetrics  `json:"symbols"`
	Summary   valuation.PortfolioMetrics `json:"summary"`
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := idParam(r, "portfolioID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	metrics, portfolio, ok := h.portfolioMetrics(w, r, portfolioID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, portfolioDetail{
		Portfolio: *portfolio,
		Symbols:   metrics,
		Summary:   valuation.Aggregate(metrics),
	})
}

func (h *Handler) handleExposure(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := idParam(r, "portfolioID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	metrics, _, ok := h.portfolioMetrics(w, r, portfolioID)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, valuation.SectorExposure(metrics))
}

// portfolioMetrics hydrates every symbol of the portfolio with a quote and
// computes its metrics. Writes the error response itself on failure.
func (h *Handler) portfolioMetrics(w http.ResponseWriter, r *http.Request, portfolioID int64) ([]valuation.SymbolMetrics, *ledger.Portfolio, bool) {
	userID := h.userID(r)

	portfolio, err := h.ledger.Portfolio(portfolioID, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return nil, nil, false
	}
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load portfolio")
		writeError(w, http.StatusInternalServerError, "Failed to load portfolio")
		return nil, nil, false
	}

	symbols, err := h.ledger.SymbolsWithTransactions(portfolioID, userID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load symbols")
		writeError(w, http.StatusInternalServerError, "Failed to load symbols")
		return nil, nil, false
	}

	metrics := make([]valuation.SymbolMetrics, 0, len(symbols))
	for _, sym := range symbols {
		quote := h.quotes.GetQuote(r.Context(), sym.Ticker)
		metrics = append(metrics, valuation.Compute(sym.Symbol, sym.Transactions, quote))
	}
	return metrics, portfolio, true
}
