package stations

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"TradeGuard/internal/domain/models"
)

// Build gathers EMA and swing levels from every series, clusters them and
// scores each cluster as a station. Stations are returned sorted by price.
func Build(series []Series, ref float64, cfg Config) []models.Station {
	cfg = cfg.WithDefaults()

	var levels []Level
	for _, s := range series {
		if len(s.Candles) == 0 {
			continue
		}
		levels = append(levels, EMALevels(s.Candles, s.Timeframe, ref, cfg.EMAProximityPct)...)
		levels = append(levels, SwingLevels(s.Candles, s.Timeframe, cfg)...)
	}

	clusters := Cluster(levels, cfg.ClusterGapPct)
	out := make([]models.Station, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, stationFrom(c, ref))
	}
	return out
}

func stationFrom(members []Level, ref float64) models.Station {
	var weighted, weights float64
	var support, resistance, maxTests int
	factors := make([]string, 0, len(members))
	tfs := make(map[string]struct{})

	for _, m := range members {
		w := float64(m.Strength)
		if w <= 0 {
			w = 1
		}
		weighted += m.Price * w
		weights += w
		switch m.Type {
		case models.StationSupport:
			support++
		case models.StationResistance:
			resistance++
		}
		if m.Tests > maxTests {
			maxTests = m.Tests
		}
		factors = append(factors, m.Label)
		tfs[m.Timeframe] = struct{}{}
	}

	typ := models.StationPivot
	if support > resistance {
		typ = models.StationSupport
	} else if resistance > support {
		typ = models.StationResistance
	}

	timeframes := make([]string, 0, len(tfs))
	for tf := range tfs {
		timeframes = append(timeframes, tf)
	}
	sort.Strings(timeframes)

	price := weighted / weights
	return models.Station{
		Price:      price,
		Type:       typ,
		Quality:    Quality(len(members), len(timeframes), maxTests),
		Factors:    factors,
		Timeframes: timeframes,
		Tests:      maxTests,
		Distance:   Distance(price, ref),
	}
}

// Quality scores a cluster on 0..10 from its member count, timeframe spread
// and the most tests seen on any one member.
func Quality(members, timeframes, tests int) int {
	q := minInt(4, members) + minInt(3, timeframes)
	switch {
	case tests >= 5:
		q += 3
	case tests >= 3:
		q += 2
	case tests >= 1:
		q++
	}
	return minInt(10, q)
}

// Distance is the signed percent from ref to price, rounded to 2 places.
func Distance(price, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return decimal.NewFromFloat((price - ref) / ref * 100).Round(2).InexactFloat64()
}

// Nearest returns the station closest to price.
func Nearest(stations []models.Station, price float64) (models.Station, bool) {
	if len(stations) == 0 {
		return models.Station{}, false
	}
	best := 0
	for i := 1; i < len(stations); i++ {
		if math.Abs(stations[i].Price-price) < math.Abs(stations[best].Price-price) {
			best = i
		}
	}
	return stations[best], true
}
