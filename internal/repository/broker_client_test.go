package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/service/cache"
)

func newBrokerServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !strings.HasPrefix(r.Header.Get("Authorization"), "token key:") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/instruments/NSE/INFY":
			_, _ = w.Write([]byte(`{"status":"success","data":{"instrument_token":408065}}`))
		case r.URL.Path == "/instruments/NSE/NOPE":
			_, _ = w.Write([]byte(`{"status":"error","message":"unknown instrument"}`))
		case strings.HasPrefix(r.URL.Path, "/instruments/historical/408065/15minute"):
			if r.URL.Query().Get("from") == "" {
				t.Errorf("missing from")
			}
			_, _ = w.Write([]byte(`{"status":"success","data":{"candles":[
				["2024-10-10T09:15:00+0530",100,101,99,100.5,1000],
				["2024-10-10T09:30:00+0530",100.5,102,100,101.5,1500],
				["2024-10-10T09:45:00+0530",101.5,103,101,102.5,1200]]}}`))
		case r.URL.Path == "/portfolio/positions":
			_, _ = w.Write([]byte(`{"status":"success","data":{"net":[
				{"tradingsymbol":"INFY","exchange":"NSE","product":"MIS","quantity":10,"average_price":1800,"last_price":1790,"unrealised":-100,"realised":0}]}}`))
		case r.URL.Path == "/orders":
			_, _ = w.Write([]byte(`{"status":"success","data":[
				{"order_id":"1","tradingsymbol":"INFY","transaction_type":"BUY","status":"OPEN","quantity":5,"price":1780}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestBrokerCandlesAreCached(t *testing.T) {
	var hits int32
	srv := newBrokerServer(t, &hits)
	defer srv.Close()

	g := NewBrokerGateway(BrokerConfig{BaseURL: srv.URL, APIKey: "key", AccessToken: "tok"}, cache.NewTTLCache(), nil)
	cs, err := g.GetLatestNCandles(context.Background(), "INFY", "NSE", 2, domrepo.TF15m)
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(cs) != 2 || cs[0].Close != 101.5 || cs[1].Volume != 1200 {
		t.Fatalf("unexpected candles: %+v", cs)
	}
	if cs[0].Time != time.Date(2024, 10, 10, 4, 0, 0, 0, time.UTC).Unix() {
		t.Fatalf("bad timestamp %d", cs[0].Time)
	}
	before := atomic.LoadInt32(&hits)
	if before != 2 {
		t.Fatalf("expected instrument + history calls, got %d", before)
	}
	if _, err := g.GetLatestNCandles(context.Background(), "INFY", "NSE", 2, domrepo.TF15m); err != nil {
		t.Fatalf("cached candles: %v", err)
	}
	if atomic.LoadInt32(&hits) != before {
		t.Fatalf("second call should be served from cache")
	}
}

func TestBrokerErrorEnvelope(t *testing.T) {
	var hits int32
	srv := newBrokerServer(t, &hits)
	defer srv.Close()

	g := NewBrokerGateway(BrokerConfig{BaseURL: srv.URL, APIKey: "key"}, nil, nil)
	_, err := g.GetLatestNCandles(context.Background(), "NOPE", "NSE", 10, domrepo.TF15m)
	if err == nil || !strings.Contains(err.Error(), "unknown instrument") {
		t.Fatalf("expected envelope error, got %v", err)
	}
}

func TestBrokerPositionsAndOrders(t *testing.T) {
	var hits int32
	srv := newBrokerServer(t, &hits)
	defer srv.Close()

	g := NewBrokerGateway(BrokerConfig{BaseURL: srv.URL + "/", APIKey: "key"}, nil, nil)
	ps, err := g.Positions(context.Background())
	if err != nil || len(ps) != 1 || ps[0].UnrealisedPnL != -100 || !ps[0].IsOpen() {
		t.Fatalf("positions: %v %+v", err, ps)
	}
	ob, err := g.Orders(context.Background())
	if err != nil || len(ob) != 1 || !ob[0].IsPending() {
		t.Fatalf("orders: %v %+v", err, ob)
	}
}

func TestAggregateWeekly(t *testing.T) {
	day := func(y int, m time.Month, d int, o, h, l, c, v float64) models.Candle {
		return models.Candle{Time: time.Date(y, m, d, 3, 45, 0, 0, time.UTC).Unix(), Open: o, High: h, Low: l, Close: c, Volume: v}
	}
	daily := []models.Candle{
		day(2024, 10, 7, 100, 102, 99, 101, 10), // Mon
		day(2024, 10, 8, 101, 105, 100, 104, 10),
		day(2024, 10, 11, 104, 106, 98, 99, 10), // Fri
		day(2024, 10, 14, 99, 100, 97, 98, 5), // next Mon
	}
	w := AggregateWeekly(daily, time.UTC)
	if len(w) != 2 {
		t.Fatalf("weeks = %d, want 2", len(w))
	}
	if w[0].Open != 100 || w[0].High != 106 || w[0].Low != 98 || w[0].Close != 99 || w[0].Volume != 30 {
		t.Fatalf("week 1 = %+v", w[0])
	}
	if w[1].Close != 98 || w[1].Volume != 5 {
		t.Fatalf("week 2 = %+v", w[1])
	}
}

func TestParseBrokerCandleRejectsShortRows(t *testing.T) {
	if _, err := parseBrokerCandle([]interface{}{"2024-10-10T09:15:00+0530", 1.0}); err == nil {
		t.Fatalf("expected error")
	}
	c, err := parseBrokerCandle([]interface{}{1728531900.0, 1.0, 2.0, 0.5, 1.5, 10.0})
	if err != nil || c.Time != 1728531900 || c.High != 2 {
		t.Fatalf("numeric timestamp: %v %+v", err, c)
	}
}
