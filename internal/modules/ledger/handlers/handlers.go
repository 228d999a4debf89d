// Package handlers exposes the authenticated portfolio API: portfolio CRUD,
// symbol and transaction writes, and the derived valuation, exposure and
// history views.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mgalanis/folio/internal/auth"
	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/modules/history"
	"github.com/mgalanis/folio/internal/modules/ledger"
)

// Handler provides HTTP handlers for portfolio endpoints
type Handler struct {
	ledger  *ledger.Service
	quotes  domain.QuoteProvider
	history *history.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(ledgerService *ledger.Service, quotes domain.QuoteProvider, historyService *history.Service, log zerolog.Logger) *Handler {
	return &Handler{
		ledger:  ledgerService,
		quotes:  quotes,
		history: historyService,
		log:     log.With().Str("handler", "portfolios").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{portfolioID}", func(r chi.Router) {
			r.Get("/", h.handleDetail)
			r.Delete("/", h.handleDelete)
			r.Get("/exposure", h.handleExposure)
			r.Get("/history", h.handleHistory)
			r.Post("/symbols", h.handleAddSymbol)
		})
	})
	r.Route("/symbols/{symbolID}", func(r chi.Router) {
		r.Post("/transactions", h.handleAddTransaction)
		r.Get("/transactions", h.handleListTransactions)
	})
}

func (h *Handler) userID(r *http.Request) int64 {
	id, _ := auth.UserID(r.Context())
	return id
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
