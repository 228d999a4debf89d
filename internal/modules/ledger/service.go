package ledger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mgalanis/folio/internal/events"
)

// Service orchestrates ledger operations with ownership checks. Every
// operation that touches a portfolio or symbol verifies the caller owns it
// first; violations surface as ErrNotFound, never as a crash or an orphaned
// write.
type Service struct {
	portfolios   *PortfolioRepository
	symbols      *SymbolRepository
	transactions *TransactionRepository
	bus          *events.Bus
	log          zerolog.Logger
}

// NewService creates a new ledger service
func NewService(
	portfolios *PortfolioRepository,
	symbols *SymbolRepository,
	transactions *TransactionRepository,
	bus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios:   portfolios,
		symbols:      symbols,
		transactions: transactions,
		bus:          bus,
		log:          log.With().Str("service", "ledger").Logger(),
	}
}

// CreatePortfolio creates a new named portfolio for the user
func (s *Service) CreatePortfolio(userID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty portfolio name", ErrInvalidTransaction)
	}
	return s.portfolios.Create(userID, name)
}

// UserPortfolios returns all portfolios owned by the user
func (s *Service) UserPortfolios(userID int64) ([]Portfolio, error) {
	return s.portfolios.GetByUser(userID)
}

// Portfolio returns the portfolio when owned by the user, ErrNotFound otherwise
func (s *Service) Portfolio(portfolioID, userID int64) (*Portfolio, error) {
	return s.portfolios.GetOwned(portfolioID, userID)
}

// DeletePortfolio cascade-deletes the portfolio with all its symbols and
// transactions. Returns false when the portfolio is not owned by the caller.
func (s *Service) DeletePortfolio(portfolioID, userID int64) (bool, error) {
	deleted, err := s.portfolios.Delete(portfolioID, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.bus.Publish(events.PortfolioDeleted, map[string]interface{}{
			"portfolio_id": portfolioID,
		})
	}
	return deleted, nil
}

// AddSymbol adds a ticker to an owned portfolio
func (s *Service) AddSymbol(userID, portfolioID int64, ticker, sector string) (int64, error) {
	if _, err := s.portfolios.GetOwned(portfolioID, userID); err != nil {
		return 0, err
	}

	id, err := s.symbols.Add(portfolioID, ticker, sector)
	if err != nil {
		return 0, err
	}

	s.bus.Publish(events.SymbolAdded, map[string]interface{}{
		"portfolio_id": portfolioID,
		"symbol_id":    id,
		"ticker":       strings.ToUpper(strings.TrimSpace(ticker)),
	})
	return id, nil
}

// SymbolsWithTransactions returns all symbols of an owned portfolio
// hydrated with their ledgers in replay order.
func (s *Service) SymbolsWithTransactions(portfolioID, userID int64) ([]SymbolWithTransactions, error) {
	if _, err := s.portfolios.GetOwned(portfolioID, userID); err != nil {
		return nil, err
	}

	symbols, err := s.symbols.GetByPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}

	result := make([]SymbolWithTransactions, 0, len(symbols))
	for _, sym := range symbols {
		txns, err := s.transactions.GetBySymbol(sym.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transactions for %s: %w", sym.Ticker, err)
		}
		result = append(result, SymbolWithTransactions{Symbol: sym, Transactions: txns})
	}
	return result, nil
}

// OwnedSymbol returns the symbol when its portfolio belongs to the user
func (s *Service) OwnedSymbol(symbolID, userID int64) (*Symbol, error) {
	sym, err := s.symbols.GetByID(symbolID)
	if err != nil {
		return nil, err
	}
	if _, err := s.portfolios.GetOwned(sym.PortfolioID, userID); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddTransaction appends a ledger entry to an owned symbol
func (s *Service) AddTransaction(userID, symbolID int64, txType TransactionType, shares, price, fee float64, date string) (int64, error) {
	sym, err := s.OwnedSymbol(symbolID, userID)
	if err != nil {
		return 0, err
	}

	id, err := s.transactions.Add(symbolID, txType, shares, price, fee, date)
	if err != nil {
		return 0, err
	}

	s.bus.Publish(events.TransactionRecorded, map[string]interface{}{
		"symbol_id": symbolID,
		"ticker":    sym.Ticker,
		"type":      string(txType),
		"shares":    shares,
		"price":     price,
	})
	return id, nil
}

// SymbolTransactions returns the ledger of an owned symbol in replay order
func (s *Service) SymbolTransactions(symbolID, userID int64) ([]Transaction, error) {
	if _, err := s.OwnedSymbol(symbolID, userID); err != nil {
		return nil, err
	}
	return s.transactions.GetBySymbol(symbolID)
}

// DistinctTickers returns every ticker known to the ledger
func (s *Service) DistinctTickers() ([]string, error) {
	return s.symbols.DistinctTickers()
}
