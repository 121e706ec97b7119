package stations

import (
	"fmt"
	"math"

	"TradeGuard/internal/domain/models"
)

// EvaluateFit scores a trade against a station. Buying into support or
// selling into resistance within proximityPct lowers risk; trading into an
// opposing zone adds the zone's quality as risk.
func EvaluateFit(st models.Station, bias models.Bias, price, proximityPct float64) models.StationFit {
	if st.Price <= 0 {
		return models.StationFit{Suitable: true, Reason: "no station"}
	}
	dist := math.Abs(price-st.Price) / st.Price * 100
	if st.Type == models.StationPivot {
		return models.StationFit{Suitable: true, Reason: fmt.Sprintf("pivot zone at %.2f, no directional edge", st.Price)}
	}
	if dist > proximityPct {
		return models.StationFit{Suitable: true, Reason: fmt.Sprintf("%.2f%% from nearest %s zone", dist, st.Type)}
	}

	switch {
	case bias == models.BiasBullish && st.Type == models.StationSupport,
		bias == models.BiasBearish && st.Type == models.StationResistance:
		adj := st.Quality / 2
		if adj < 1 {
			adj = 1
		}
		return models.StationFit{
			Suitable:       true,
			RiskAdjustment: -adj,
			Reason:         fmt.Sprintf("%s trade at %s %.2f (quality %d)", bias, st.Type, st.Price, st.Quality),
		}
	case bias == models.BiasBullish && st.Type == models.StationResistance,
		bias == models.BiasBearish && st.Type == models.StationSupport:
		return models.StationFit{
			Suitable:       false,
			RiskAdjustment: st.Quality,
			Reason:         fmt.Sprintf("%s trade into %s %.2f (quality %d)", bias, st.Type, st.Price, st.Quality),
		}
	}
	return models.StationFit{Suitable: true, Reason: "neutral exposure"}
}
