package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mgalanis/folio/internal/modules/ledger"
)

type addSymbolRequest struct {
	Ticker string `json:"ticker"`
	Sector string `json:"sector"`
}

func (h *Handler) handleAddSymbol(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := idParam(r, "portfolioID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid portfolio id")
		return
	}

	var req addSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	// Reject tickers the quote provider has never heard of before they
	// pollute the ledger.
	if quote := h.quotes.GetQuote(r.Context(), req.Ticker); !quote.OK() {
		writeError(w, http.StatusBadRequest, "Unknown ticker: "+req.Ticker)
		return
	}

	id, err := h.ledger.AddSymbol(h.userID(r), portfolioID, req.Ticker, req.Sector)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	case errors.Is(err, ledger.ErrDuplicateTicker):
		writeError(w, http.StatusConflict, "Ticker already exists in portfolio")
		return
	case errors.Is(err, ledger.ErrInvalidTransaction):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Str("ticker", req.Ticker).Msg("Failed to add symbol")
		writeError(w, http.StatusInternalServerError, "Failed to add symbol")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"symbol_id": id})
}

type addTransactionRequest struct {
	Type   string  `json:"transaction_type"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
	Fee    float64 `json:"fee"`
	Date   string  `json:"transaction_date"`
}

func (h *Handler) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := idParam(r, "symbolID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid symbol id")
		return
	}

	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.ledger.AddTransaction(
		h.userID(r), symbolID,
		ledger.TransactionType(req.Type),
		req.Shares, req.Price, req.Fee, req.Date,
	)
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, ledger.ErrUnknownSymbol):
		writeError(w, http.StatusNotFound, "Symbol not found")
		return
	case errors.Is(err, ledger.ErrInvalidTransaction):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Int64("symbol_id", symbolID).Msg("Failed to add transaction")
		writeError(w, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction_id": id})
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	symbolID, ok := idParam(r, "symbolID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid symbol id")
		return
	}

	txns, err := h.ledger.SymbolTransactions(symbolID, h.userID(r))
	if errors.Is(err, ledger.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Symbol not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("symbol_id", symbolID).Msg("Failed to list transactions")
		writeError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if txns == nil {
		txns = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}
