package history

import (
	"context"
	"fmt"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/mgalanis/folio/internal/domain"
)

// Analytics summarizes the reconstructed value series. Zeroed when the
// series has fewer than two points.
type Analytics struct {
	MeanDailyReturn  float64 `json:"mean_daily_return"`
	Volatility       float64 `json:"volatility"`
	CumulativeReturn float64 `json:"cumulative_return"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

// Result is the full history response: the value curve, its summary
// statistics, and an optional SMA overlay.
type Result struct {
	Range     string       `json:"range"`
	Series    []ValuePoint `json:"series"`
	Analytics Analytics    `json:"analytics"`
	SMA       []ValuePoint `json:"sma,omitempty"`
}

// validRanges are the supported history windows, matching what the price
// provider accepts.
var validRanges = map[string]bool{
	"1mo": true, "3mo": true, "6mo": true, "1y": true, "5y": true,
}

// NormalizeRange maps an empty or unknown range to the default 1mo window
func NormalizeRange(rng string) string {
	if validRanges[rng] {
		return rng
	}
	return "1mo"
}

// Service fetches price series and decorates reconstructed curves with
// analytics. The reconstruction itself stays a pure function.
type Service struct {
	prices domain.HistoricalPriceProvider
	log    zerolog.Logger
}

// NewService creates a new history service
func NewService(prices domain.HistoricalPriceProvider, log zerolog.Logger) *Service {
	return &Service{
		prices: prices,
		log:    log.With().Str("service", "history").Logger(),
	}
}

// PortfolioValue reconstructs the portfolio's value curve over the given
// range. Tickers whose price series cannot be fetched (or come back empty)
// are skipped, not fatal. smaWindow > 1 adds a simple-moving-average
// overlay when the series is long enough.
func (s *Service) PortfolioValue(ctx context.Context, positions []Position, rng string, smaWindow int) (Result, error) {
	rng = NormalizeRange(rng)

	closes := make(map[string][]domain.DailyClose, len(positions))
	for _, pos := range positions {
		series, err := s.prices.GetDailyCloses(ctx, pos.Ticker, rng)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", pos.Ticker).Msg("Skipping ticker without price history")
			continue
		}
		if len(series) == 0 {
			s.log.Debug().Str("ticker", pos.Ticker).Msg("Empty price history for ticker")
			continue
		}
		closes[pos.Ticker] = series
	}

	series := Reconstruct(positions, closes)

	result := Result{
		Range:     rng,
		Series:    series,
		Analytics: analyze(series),
	}

	if smaWindow > 1 && len(series) >= smaWindow {
		result.SMA = smaOverlay(series, smaWindow)
	}

	return result, nil
}

// analyze computes summary statistics over the daily value curve
func analyze(series []ValuePoint) Analytics {
	if len(series) < 2 {
		return Analytics{}
	}

	returns := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, series[i].Value/prev-1)
	}

	var a Analytics
	if len(returns) > 0 {
		a.MeanDailyReturn = stat.Mean(returns, nil)
	}
	if len(returns) > 1 {
		a.Volatility = stat.StdDev(returns, nil)
	}

	if first := series[0].Value; first > 0 {
		a.CumulativeReturn = series[len(series)-1].Value/first - 1
	}

	var peak float64
	for _, p := range series {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			if dd := (peak - p.Value) / peak; dd > a.MaxDrawdown {
				a.MaxDrawdown = dd
			}
		}
	}

	return a
}

// smaOverlay computes a simple moving average over the value curve.
// talib fills the first window-1 slots with zeros; those are dropped.
func smaOverlay(series []ValuePoint, window int) []ValuePoint {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	sma := talib.Sma(values, window)

	overlay := make([]ValuePoint, 0, len(series)-window+1)
	for i := window - 1; i < len(series); i++ {
		overlay = append(overlay, ValuePoint{Date: series[i].Date, Value: sma[i]})
	}
	return overlay
}

// String implements fmt.Stringer for log-friendly analytics output
func (a Analytics) String() string {
	return fmt.Sprintf("mean=%.4f vol=%.4f cum=%.4f mdd=%.4f",
		a.MeanDailyReturn, a.Volatility, a.CumulativeReturn, a.MaxDrawdown)
}
