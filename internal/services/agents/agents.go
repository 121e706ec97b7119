package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"TradeGuard/internal/domain/models"
	"TradeGuard/internal/domain/repository"
	"TradeGuard/internal/services/checks"
	"TradeGuard/internal/services/stations"
	"TradeGuard/pkg/logger"
)

// Agent names used in logs, metrics and the error map.
const (
	NameBehavioral = "behavioral"
	NameStructure  = "structure"
	NamePattern    = "pattern"
	NameStation    = "station"
)

// Config controls how much history each agent pulls.
type Config struct {
	Timezone          string          `yaml:"timezone" default:"Asia/Kolkata"`
	Benchmark         string          `yaml:"benchmark" default:"NIFTY 50"`
	BenchmarkExchange string          `yaml:"benchmark_exchange" default:"NSE"`
	IntradayBars      int             `yaml:"intraday_bars" default:"150"`
	DailyBars         int             `yaml:"daily_bars" default:"220"`
	WeeklyBars        int             `yaml:"weekly_bars" default:"40"`
	StationBars       int             `yaml:"station_bars" default:"220"`
	Stations          stations.Config `yaml:"stations"`
}

// DefaultConfig returns a Config populated from the default tags.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

// Deps are the collaborators shared by candle-driven agents.
type Deps struct {
	Feed    repository.CandleFeed
	Log     *logger.Logger
	Metrics repository.Metrics
}

func (d Deps) logger() *logger.Logger {
	if d.Log == nil {
		return logger.NewNop()
	}
	return d.Log
}

func (d Deps) runOptions() []checks.Option {
	opts := []checks.Option{checks.WithLogger(d.logger())}
	if d.Metrics != nil {
		opts = append(opts, checks.WithMetrics(d.Metrics))
	}
	return opts
}

// SourceErrors maps a data source (agent.timeframe) to its failure.
type SourceErrors map[string]error

func (s SourceErrors) add(source string, err error) {
	if err != nil {
		s[source] = err
	}
}

func (d Deps) candles(ctx context.Context, symbol, exchange string, n int, tf repository.Timeframe) ([]models.Candle, error) {
	if d.Feed == nil {
		return nil, fmt.Errorf("no candle feed configured")
	}
	cs, err := d.Feed.GetLatestNCandles(ctx, symbol, exchange, n, tf)
	if err != nil {
		return nil, fmt.Errorf("candles %s %s: %w", symbol, tf, err)
	}
	return cs, nil
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Reading is an indicator value that may be missing for short history.
type Reading struct {
	Value float64
	OK    bool
}

func read(v float64, ok bool) Reading { return Reading{Value: v, OK: ok} }

func againstBias(bias, other models.Bias) bool {
	return bias != models.BiasNeutral && other != models.BiasNeutral && bias != other
}

func lastClose(cs []models.Candle) float64 {
	if len(cs) == 0 {
		return 0
	}
	return cs[len(cs)-1].Close
}

func referencePrice(o models.Order, cs []models.Candle) float64 {
	if o.SpotPrice > 0 {
		return o.SpotPrice
	}
	return lastClose(cs)
}
