package models

// StationType is the role a clustered level plays.
type StationType string

const (
	StationSupport    StationType = "SUPPORT"
	StationResistance StationType = "RESISTANCE"
	StationPivot      StationType = "PIVOT"
)

// Station is a clustered price zone. It is recomputed on every evaluation.
type Station struct {
	Price      float64     `json:"price"`
	Type       StationType `json:"type"`
	Quality    int         `json:"quality"`
	Factors    []string    `json:"factors"`
	Timeframes []string    `json:"timeframes"`
	Tests      int         `json:"tests"`
	Distance   float64     `json:"distance"`
}

// ZoneState is the price/zone interaction classified by the station agent.
type ZoneState string

const (
	ZoneApproaching ZoneState = "APPROACHING"
	ZoneAtZone      ZoneState = "AT_ZONE"
	ZoneInside      ZoneState = "INSIDE_ZONE"
	ZoneBreakRetest ZoneState = "BREAK_RETEST"
	ZoneRejection   ZoneState = "REJECTION"
)

// StationFit is the trade-vs-station verdict.
type StationFit struct {
	Suitable       bool   `json:"suitable"`
	RiskAdjustment int    `json:"riskAdjustment"`
	Reason         string `json:"reason"`
}
