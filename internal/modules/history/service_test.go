package history

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/modules/ledger"
)

// stubPriceProvider serves canned daily series per ticker
type stubPriceProvider struct {
	series map[string][]domain.DailyClose
	errs   map[string]error
}

func (s *stubPriceProvider) GetDailyCloses(_ context.Context, ticker, _ string) ([]domain.DailyClose, error) {
	if err, ok := s.errs[ticker]; ok {
		return nil, err
	}
	return s.series[ticker], nil
}

func TestPortfolioValueSkipsFailingTickers(t *testing.T) {
	provider := &stubPriceProvider{
		series: map[string][]domain.DailyClose{
			"AAPL": {
				{Date: "2024-01-02", Close: 100},
				{Date: "2024-01-03", Close: 110},
				{Date: "2024-01-04", Close: 120},
			},
		},
		errs: map[string]error{"DEAD": errors.New("provider down")},
	}
	svc := NewService(provider, zerolog.Nop())

	positions := []Position{
		{Ticker: "AAPL", Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 10, Price: 100, Date: "2024-01-02"},
		}},
		{Ticker: "DEAD", Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 5, Price: 10, Date: "2024-01-02"},
		}},
	}

	result, err := svc.PortfolioValue(context.Background(), positions, "1mo", 0)
	require.NoError(t, err)

	require.Len(t, result.Series, 3)
	assert.InDelta(t, 1000.0, result.Series[0].Value, 1e-9)
	assert.InDelta(t, 1200.0, result.Series[2].Value, 1e-9)
	assert.Empty(t, result.SMA)
}

func TestPortfolioValueAnalytics(t *testing.T) {
	provider := &stubPriceProvider{
		series: map[string][]domain.DailyClose{
			"AAPL": {
				{Date: "2024-01-02", Close: 100},
				{Date: "2024-01-03", Close: 110},
				{Date: "2024-01-04", Close: 99},
			},
		},
	}
	svc := NewService(provider, zerolog.Nop())

	positions := []Position{{Ticker: "AAPL", Transactions: []ledger.Transaction{
		{Type: ledger.Buy, Shares: 1, Price: 100, Date: "2024-01-02"},
	}}}

	result, err := svc.PortfolioValue(context.Background(), positions, "1mo", 0)
	require.NoError(t, err)

	// Returns: +10%, -10%
	assert.InDelta(t, 0.0, result.Analytics.MeanDailyReturn, 1e-9)
	assert.Greater(t, result.Analytics.Volatility, 0.0)
	assert.InDelta(t, -0.01, result.Analytics.CumulativeReturn, 1e-9)
	// Peak 110 -> trough 99
	assert.InDelta(t, 0.1, result.Analytics.MaxDrawdown, 1e-9)
}

func TestPortfolioValueSMAOverlay(t *testing.T) {
	closes := make([]domain.DailyClose, 0, 5)
	for i, d := range []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"} {
		closes = append(closes, domain.DailyClose{Date: d, Close: float64(100 + 10*i)})
	}
	provider := &stubPriceProvider{series: map[string][]domain.DailyClose{"AAPL": closes}}
	svc := NewService(provider, zerolog.Nop())

	positions := []Position{{Ticker: "AAPL", Transactions: []ledger.Transaction{
		{Type: ledger.Buy, Shares: 1, Price: 100, Date: "2024-01-02"},
	}}}

	result, err := svc.PortfolioValue(context.Background(), positions, "1mo", 3)
	require.NoError(t, err)

	// 5 points, window 3 -> 3 overlay points
	require.Len(t, result.SMA, 3)
	assert.Equal(t, "2024-01-04", result.SMA[0].Date)
	assert.InDelta(t, (100+110+120)/3.0, result.SMA[0].Value, 1e-9)
	assert.InDelta(t, (120+130+140)/3.0, result.SMA[2].Value, 1e-9)
}

func TestPortfolioValueEmptyPortfolio(t *testing.T) {
	svc := NewService(&stubPriceProvider{}, zerolog.Nop())

	result, err := svc.PortfolioValue(context.Background(), nil, "bogus", 0)
	require.NoError(t, err)

	assert.Equal(t, "1mo", result.Range)
	assert.Empty(t, result.Series)
	assert.Zero(t, result.Analytics)
}

func TestNormalizeRange(t *testing.T) {
	assert.Equal(t, "1y", NormalizeRange("1y"))
	assert.Equal(t, "1mo", NormalizeRange(""))
	assert.Equal(t, "1mo", NormalizeRange("2w"))
}
