package http

import (
	"context"
	"testing"
)

type sampleRequest struct {
	Symbol string  `json:"symbol" validate:"required,symbol"`
	Side   string  `json:"side" default:"BUY" validate:"oneof=BUY SELL"`
	N      int     `query:"n" default:"220" validate:"gte=30,lte=2000"`
	Price  float64 `json:"price" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	ok := sampleRequest{Symbol: "M&M"}
	if errs := ValidateStruct(context.Background(), &ok); errs != nil {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if ok.Side != "BUY" || ok.N != 220 {
		t.Fatalf("defaults not applied: %+v", ok)
	}

	cases := []struct {
		req   sampleRequest
		field string
		code  string
		msg   string
	}{
		{sampleRequest{Symbol: "NIFTY 50"}, "symbol", "ERR_SYMBOL", "symbol must be an exchange trading symbol"},
		{sampleRequest{}, "symbol", "ERR_REQUIRED", "symbol is required"},
		{sampleRequest{Symbol: "INFY", Side: "HOLD"}, "side", "ERR_ONEOF", "side must be one of: BUY, SELL"},
		{sampleRequest{Symbol: "INFY", N: 5}, "n", "ERR_GTE", "n must be greater than or equal to 30"},
	}
	for _, tc := range cases {
		req := tc.req
		errs, _ := ValidateStruct(context.Background(), &req).([]ValidationError)
		if len(errs) != 1 {
			t.Fatalf("%+v: want one error, got %+v", tc.req, errs)
		}
		if e := errs[0]; e.Field != tc.field || e.Code != tc.code || e.Message != tc.msg {
			t.Fatalf("%+v: got %+v", tc.req, e)
		}
	}
}
