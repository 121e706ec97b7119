package models

// Requests for risk HTTP endpoints. Defined in domain for consistency and reuse.

type EvaluateRequest struct {
	Symbol           string  `json:"symbol" validate:"required,symbol"`
	Exchange         string  `json:"exchange" default:"NSE" validate:"required"`
	InstrumentType   string  `json:"instrumentType" default:"EQ" validate:"oneof=EQ FUT CE PE"`
	TransactionType  string  `json:"transactionType" validate:"required,oneof=BUY SELL"`
	SpotPrice        float64 `json:"spotPrice" validate:"gte=0"`
	ProductType      string  `json:"productType" default:"MIS" validate:"oneof=MIS CNC NRML"`
	IncludeStructure bool    `json:"includeStructure"`
	IncludePattern   bool    `json:"includePattern"`
	IncludeStation   bool    `json:"includeStation"`
}

// Order converts the request into the domain order.
func (r EvaluateRequest) Order() Order {
	return Order{
		Symbol:          r.Symbol,
		Exchange:        r.Exchange,
		InstrumentType:  r.InstrumentType,
		TransactionType: r.TransactionType,
		SpotPrice:       r.SpotPrice,
		ProductType:     r.ProductType,
	}
}

type StationsRequest struct {
	Symbol   string  `query:"symbol" json:"symbol" validate:"required,symbol"`
	Exchange string  `query:"exchange" json:"exchange" default:"NSE"`
	TF       string  `query:"tf" json:"tf" default:"15m" validate:"oneof=5m 15m 60m day"`
	N        int     `query:"n" json:"n" default:"220" validate:"gte=30,lte=2000"`
	Price    float64 `query:"price" json:"price" validate:"gte=0"`
}

type EvaluationsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}
