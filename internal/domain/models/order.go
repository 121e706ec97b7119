package models

import "strings"

// Bias is the directional exposure an order creates.
type Bias int

const (
	BiasBearish Bias = -1
	BiasNeutral Bias = 0
	BiasBullish Bias = 1
)

func (b Bias) String() string {
	switch b {
	case BiasBullish:
		return "BULLISH"
	case BiasBearish:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// ParseBias maps sentiment/sector labels onto a Bias.
func ParseBias(s string) Bias {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BULLISH", "BULL", "UP", "POSITIVE":
		return BiasBullish
	case "BEARISH", "BEAR", "DOWN", "NEGATIVE":
		return BiasBearish
	default:
		return BiasNeutral
	}
}

// Horizon is the holding period classification of a trade.
type Horizon string

const (
	HorizonIntraday Horizon = "intraday"
	HorizonSwing    Horizon = "swing"
)

const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// Order is the trade being evaluated.
type Order struct {
	Symbol          string  `json:"symbol"`
	Exchange        string  `json:"exchange"`
	InstrumentType  string  `json:"instrumentType"`
	TransactionType string  `json:"transactionType"`
	SpotPrice       float64 `json:"spotPrice"`
	ProductType     string  `json:"productType"`
}

// IsBuy reports whether the order buys the instrument.
func (o Order) IsBuy() bool { return strings.EqualFold(o.TransactionType, TransactionBuy) }

// IsOption reports whether the instrument is a call or put.
func (o Order) IsOption() bool {
	switch strings.ToUpper(o.InstrumentType) {
	case "CE", "PE", "CALL", "PUT":
		return true
	}
	return false
}

func (o Order) isPut() bool {
	switch strings.ToUpper(o.InstrumentType) {
	case "PE", "PUT":
		return true
	}
	return false
}

// Bias resolves the exposure on the underlying: buying a put or selling
// anything else is bearish.
func (o Order) Bias() Bias {
	bullish := o.IsBuy()
	if o.isPut() {
		bullish = !bullish
	}
	if bullish {
		return BiasBullish
	}
	return BiasBearish
}

// Horizon classifies MIS/INTRADAY products as intraday, everything else as swing.
func (o Order) Horizon() Horizon {
	switch strings.ToUpper(o.ProductType) {
	case "MIS", "INTRADAY", "BO", "CO":
		return HorizonIntraday
	default:
		return HorizonSwing
	}
}

// Position is a broker position snapshot row.
type Position struct {
	Symbol        string  `json:"symbol"`
	Exchange      string  `json:"exchange"`
	Product       string  `json:"product"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"averagePrice"`
	LastPrice     float64 `json:"lastPrice"`
	UnrealisedPnL float64 `json:"unrealisedPnl"`
	RealisedPnL   float64 `json:"realisedPnl"`
}

// IsOpen reports a non-zero net quantity.
func (p Position) IsOpen() bool { return p.Quantity != 0 }

// OrderSnapshot is a broker order book row.
type OrderSnapshot struct {
	OrderID         string  `json:"orderId"`
	Symbol          string  `json:"symbol"`
	TransactionType string  `json:"transactionType"`
	Status          string  `json:"status"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`
}

// IsPending reports whether the order still rests on the book.
func (o OrderSnapshot) IsPending() bool {
	switch strings.ToUpper(o.Status) {
	case "OPEN", "PENDING", "TRIGGER PENDING", "AMO REQ RECEIVED", "VALIDATION PENDING":
		return true
	}
	return false
}

// Breadth is the advance/decline count of the broad market.
type Breadth struct {
	Advances int `json:"advances"`
	Declines int `json:"declines"`
}

// Ratio is declines over advances; zero when advances is zero.
func (b Breadth) Ratio() float64 {
	if b.Advances == 0 {
		return 0
	}
	return float64(b.Declines) / float64(b.Advances)
}

// Sentiment summarises the broad market mood.
type Sentiment struct {
	Bias    string   `json:"bias"`
	Score   float64  `json:"score"` // -100..100
	Breadth *Breadth `json:"breadth,omitempty"`
}

// SectorSnapshot summarises the symbol's sector.
type SectorSnapshot struct {
	Name      string  `json:"name"`
	ChangePct float64 `json:"changePct"`
	Bias      string  `json:"bias"`
}
