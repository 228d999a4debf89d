package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgalanis/folio/internal/domain"
	"github.com/mgalanis/folio/internal/modules/ledger"
)

func flatCloses(dates []string, price float64) []domain.DailyClose {
	out := make([]domain.DailyClose, len(dates))
	for i, d := range dates {
		out[i] = domain.DailyClose{Date: d, Close: price}
	}
	return out
}

func TestReconstructEmptyInput(t *testing.T) {
	series := Reconstruct(nil, nil)
	assert.NotNil(t, series)
	assert.Empty(t, series)

	series = Reconstruct(
		[]Position{{Ticker: "AAPL", Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 10, Date: "2024-01-02"},
		}}},
		map[string][]domain.DailyClose{},
	)
	assert.Empty(t, series)
}

func TestReconstructSingleBuyFlatPrice(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}
	positions := []Position{{
		Ticker: "AAPL",
		Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 10, Price: 100, Date: "2024-01-02"},
		},
	}}
	closes := map[string][]domain.DailyClose{"AAPL": flatCloses(dates, 100)}

	series := Reconstruct(positions, closes)

	require.Len(t, series, 4)
	for _, p := range series {
		assert.InDelta(t, 1000.0, p.Value, 1e-9, "day %s", p.Date)
	}
}

func TestReconstructTransactionOnNonTradingDay(t *testing.T) {
	// Saturday buy takes effect on the following Monday
	dates := []string{"2024-01-05", "2024-01-08", "2024-01-09"}
	positions := []Position{{
		Ticker: "AAPL",
		Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 5, Price: 100, Date: "2024-01-06"},
		},
	}}
	closes := map[string][]domain.DailyClose{"AAPL": flatCloses(dates, 100)}

	series := Reconstruct(positions, closes)

	require.Len(t, series, 3)
	assert.Zero(t, series[0].Value)
	assert.InDelta(t, 500.0, series[1].Value, 1e-9)
	assert.InDelta(t, 500.0, series[2].Value, 1e-9)
}

func TestReconstructTransactionAfterWindowHasNoEffect(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03"}
	positions := []Position{{
		Ticker: "AAPL",
		Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 10, Price: 100, Date: "2024-01-02"},
			{Type: ledger.Buy, Shares: 99, Price: 100, Date: "2024-02-01"},
		},
	}}
	closes := map[string][]domain.DailyClose{"AAPL": flatCloses(dates, 10)}

	series := Reconstruct(positions, closes)

	require.Len(t, series, 2)
	assert.InDelta(t, 100.0, series[0].Value, 1e-9)
	assert.InDelta(t, 100.0, series[1].Value, 1e-9)
}

func TestReconstructSellStepsDown(t *testing.T) {
	dates := []string{"2024-01-02", "2024-01-03", "2024-01-04"}
	positions := []Position{{
		Ticker: "AAPL",
		Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 10, Price: 100, Date: "2024-01-02"},
			{Type: ledger.Sell, Shares: 4, Price: 100, Date: "2024-01-04"},
		},
	}}
	closes := map[string][]domain.DailyClose{"AAPL": flatCloses(dates, 50)}

	series := Reconstruct(positions, closes)

	require.Len(t, series, 3)
	assert.InDelta(t, 500.0, series[0].Value, 1e-9)
	assert.InDelta(t, 500.0, series[1].Value, 1e-9)
	assert.InDelta(t, 300.0, series[2].Value, 1e-9)
}

func TestReconstructSumsAcrossSymbolsWithDisjointDays(t *testing.T) {
	positions := []Position{
		{Ticker: "AAPL", Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 1, Price: 100, Date: "2024-01-02"},
		}},
		{Ticker: "MSFT", Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 2, Price: 100, Date: "2024-01-02"},
		}},
	}
	closes := map[string][]domain.DailyClose{
		"AAPL": flatCloses([]string{"2024-01-02", "2024-01-03"}, 100),
		// MSFT is missing 2024-01-03: contributes 0 that day
		"MSFT": flatCloses([]string{"2024-01-02", "2024-01-04"}, 50),
	}

	series := Reconstruct(positions, closes)

	require.Len(t, series, 3)
	assert.Equal(t, "2024-01-02", series[0].Date)
	assert.InDelta(t, 100+2*50.0, series[0].Value, 1e-9)
	assert.Equal(t, "2024-01-03", series[1].Date)
	assert.InDelta(t, 100.0, series[1].Value, 1e-9)
	assert.Equal(t, "2024-01-04", series[2].Date)
	assert.InDelta(t, 2*50.0, series[2].Value, 1e-9)
}

func TestReconstructUnsortedSeriesInput(t *testing.T) {
	positions := []Position{{
		Ticker: "AAPL",
		Transactions: []ledger.Transaction{
			{Type: ledger.Buy, Shares: 1, Price: 100, Date: "2024-01-02"},
		},
	}}
	closes := map[string][]domain.DailyClose{
		"AAPL": {
			{Date: "2024-01-04", Close: 120},
			{Date: "2024-01-02", Close: 100},
			{Date: "2024-01-03", Close: 110},
		},
	}

	series := Reconstruct(positions, closes)

	require.Len(t, series, 3)
	assert.InDelta(t, 100.0, series[0].Value, 1e-9)
	assert.InDelta(t, 110.0, series[1].Value, 1e-9)
	assert.InDelta(t, 120.0, series[2].Value, 1e-9)
}
