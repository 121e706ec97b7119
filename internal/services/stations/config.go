package stations

import "github.com/creasty/defaults"

// Config tunes swing detection, level admission and clustering.
type Config struct {
	Lookback         int     `yaml:"lookback" default:"3"`
	MinRetracePct    float64 `yaml:"min_retrace_pct" default:"1.0"`
	TestTolerancePct float64 `yaml:"test_tolerance_pct" default:"0.3"`
	MinTestGap       int     `yaml:"min_test_gap" default:"3"`
	EMAProximityPct  float64 `yaml:"ema_proximity_pct" default:"2.0"`
	ClusterGapPct    float64 `yaml:"cluster_gap_pct" default:"0.5"`
	ZoneTolerancePct float64 `yaml:"zone_tolerance_pct" default:"0.5"`
	FitProximityPct  float64 `yaml:"fit_proximity_pct" default:"1.0"`
}

// DefaultConfig returns a Config populated from the default tags.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

// WithDefaults fills any zero field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if c.MinRetracePct <= 0 {
		c.MinRetracePct = d.MinRetracePct
	}
	if c.TestTolerancePct <= 0 {
		c.TestTolerancePct = d.TestTolerancePct
	}
	if c.MinTestGap <= 0 {
		c.MinTestGap = d.MinTestGap
	}
	if c.EMAProximityPct <= 0 {
		c.EMAProximityPct = d.EMAProximityPct
	}
	if c.ClusterGapPct <= 0 {
		c.ClusterGapPct = d.ClusterGapPct
	}
	if c.ZoneTolerancePct <= 0 {
		c.ZoneTolerancePct = d.ZoneTolerancePct
	}
	if c.FitProximityPct <= 0 {
		c.FitProximityPct = d.FitProximityPct
	}
	return c
}
