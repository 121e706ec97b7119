package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/service/cache"
	xhttp "TradeGuard/pkg/http"
	applogger "TradeGuard/pkg/logger"
	"TradeGuard/pkg/util"
)

// BrokerConfig configures the broker gateway adapter.
type BrokerConfig struct {
	BaseURL       string
	APIKey        string
	AccessToken   string
	Timeout       time.Duration
	InstrumentTTL time.Duration
	CandleTTL     time.Duration
	Location      *time.Location
}

// BrokerGateway serves candles, positions and orders from a broker REST
// gateway. It implements CandleFeed, PositionSource and OrderSource.
type BrokerGateway struct {
	cfg   BrokerConfig
	http  *xhttp.Client
	cache cache.BytesCache
	l     *applogger.Logger
	now   func() time.Time
}

// NewBrokerGateway builds the adapter. A nil cache disables caching.
func NewBrokerGateway(cfg BrokerConfig, c cache.BytesCache, l *applogger.Logger) *BrokerGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.InstrumentTTL <= 0 {
		cfg.InstrumentTTL = 24 * time.Hour
	}
	if cfg.CandleTTL <= 0 {
		cfg.CandleTTL = 5 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if c == nil {
		c = cache.Nop{}
	}
	if l == nil {
		l = applogger.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &BrokerGateway{
		cfg:   cfg,
		http:  xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithHeader("Authorization", "token "+cfg.APIKey+":"+cfg.AccessToken),
		),
		cache: c,
		l:     l,
		now:   time.Now,
	}
}

type brokerEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (g *BrokerGateway) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	var env brokerEnvelope
	err := g.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         g.cfg.BaseURL + path,
		QueryParams: query,
	}, &env)
	if err != nil {
		return err
	}
	if env.Status != "success" {
		return fmt.Errorf("broker %s: %s", path, env.Message)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// InstrumentToken resolves exchange:symbol to the broker's instrument token.
func (g *BrokerGateway) InstrumentToken(ctx context.Context, symbol, exchange string) (int64, error) {
	key := "inst:" + exchange + ":" + symbol
	var token int64
	if ok, _ := cache.GetJSON(g.cache, key, &token); ok {
		return token, nil
	}
	var data struct {
		InstrumentToken int64 `json:"instrument_token"`
	}
	path := "/instruments/" + url.PathEscape(exchange) + "/" + url.PathEscape(symbol)
	if err := g.get(ctx, path, nil, &data); err != nil {
		return 0, fmt.Errorf("instrument %s:%s: %w", exchange, symbol, err)
	}
	if data.InstrumentToken == 0 {
		return 0, fmt.Errorf("instrument %s:%s: not found", exchange, symbol)
	}
	if err := cache.SetJSON(g.cache, key, data.InstrumentToken, g.cfg.InstrumentTTL); err != nil {
		g.l.Warn("instrument cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return data.InstrumentToken, nil
}

func brokerInterval(tf domrepo.Timeframe) string {
	switch tf {
	case domrepo.TF5m:
		return "5minute"
	case domrepo.TF15m:
		return "15minute"
	case domrepo.TF60m:
		return "60minute"
	default:
		return "day"
	}
}

// GetLatestNCandles returns up to n ascending candles. Weekly bars are
// aggregated from daily history.
func (g *BrokerGateway) GetLatestNCandles(ctx context.Context, symbol, exchange string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	if n <= 0 {
		return []models.Candle{}, nil
	}
	start := time.Now()
	key := fmt.Sprintf("candles:%s:%s:%s:%d", exchange, symbol, tf, n)
	var cached []models.Candle
	if ok, _ := cache.GetJSON(g.cache, key, &cached); ok {
		return cached, nil
	}

	token, err := g.InstrumentToken(ctx, symbol, exchange)
	if err != nil {
		return nil, err
	}

	fetchTF := tf
	if tf == domrepo.TFWeek {
		fetchTF = domrepo.TFDay
	}
	to := g.now().In(g.cfg.Location)
	from := to.Add(-tf.Lookback(n))

	var data struct {
		Candles [][]interface{} `json:"candles"`
	}
	path := fmt.Sprintf("/instruments/historical/%d/%s", token, brokerInterval(fetchTF))
	err = g.get(ctx, path, map[string][]string{
		"from": {from.Format("2006-01-02 15:04:05")},
		"to":   {to.Format("2006-01-02 15:04:05")},
	}, &data)
	if err != nil {
		g.l.Error("broker candles error",
			applogger.String("symbol", symbol),
			applogger.String("exchange", exchange),
			applogger.String("tf", string(tf)),
			applogger.Int("limit", n),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}

	out := make([]models.Candle, 0, len(data.Candles))
	for i, row := range data.Candles {
		c, err := parseBrokerCandle(row)
		if err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		out = append(out, c)
	}
	if tf == domrepo.TFWeek {
		out = AggregateWeekly(out, g.cfg.Location)
	}
	out = models.LastN(out, n)
	if out == nil {
		out = []models.Candle{}
	}

	if err := cache.SetJSON(g.cache, key, out, g.cfg.CandleTTL); err != nil {
		g.l.Warn("candle cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	g.l.Debug("broker candles ok",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// parseBrokerCandle reads [timestamp, open, high, low, close, volume].
func parseBrokerCandle(row []interface{}) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("short row: %d fields", len(row))
	}
	ts, err := parseBrokerTime(row[0])
	if err != nil {
		return models.Candle{}, err
	}
	var vals [5]float64
	for i := range vals {
		f, ok := row[i+1].(float64)
		if !ok {
			return models.Candle{}, fmt.Errorf("field %d: not a number", i+1)
		}
		vals[i] = f
	}
	return models.Candle{Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]}, nil
}

func parseBrokerTime(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return util.UnixAuto(int64(t)).Unix(), nil
	case string:
		ts, ok := util.ParseTime(t)
		if !ok {
			return 0, fmt.Errorf("bad timestamp %q", t)
		}
		return ts.Unix(), nil
	default:
		return 0, fmt.Errorf("bad timestamp type %T", v)
	}
}

// AggregateWeekly folds ascending daily candles into ISO-week bars. Each
// bar is stamped with the time of its first session.
func AggregateWeekly(daily []models.Candle, loc *time.Location) []models.Candle {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]models.Candle, 0, len(daily)/5+1)
	lastYear, lastWeek := -1, -1
	for _, d := range daily {
		y, w := time.Unix(d.Time, 0).In(loc).ISOWeek()
		if y != lastYear || w != lastWeek {
			out = append(out, d)
			lastYear, lastWeek = y, w
			continue
		}
		cur := &out[len(out)-1]
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return out
}

type brokerPosition struct {
	TradingSymbol string  `json:"tradingsymbol"`
	Exchange      string  `json:"exchange"`
	Product       string  `json:"product"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
	LastPrice     float64 `json:"last_price"`
	Unrealised    float64 `json:"unrealised"`
	Realised      float64 `json:"realised"`
}

// Positions returns the net positions of the account.
func (g *BrokerGateway) Positions(ctx context.Context) ([]models.Position, error) {
	var data struct {
		Net []brokerPosition `json:"net"`
	}
	if err := g.get(ctx, "/portfolio/positions", nil, &data); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	out := make([]models.Position, 0, len(data.Net))
	for _, p := range data.Net {
		out = append(out, models.Position{
			Symbol:        p.TradingSymbol,
			Exchange:      p.Exchange,
			Product:       p.Product,
			Quantity:      p.Quantity,
			AveragePrice:  p.AveragePrice,
			LastPrice:     p.LastPrice,
			UnrealisedPnL: p.Unrealised,
			RealisedPnL:   p.Realised,
		})
	}
	return out, nil
}

type brokerOrder struct {
	OrderID         string  `json:"order_id"`
	TradingSymbol   string  `json:"tradingsymbol"`
	TransactionType string  `json:"transaction_type"`
	Status          string  `json:"status"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`
}

// Orders returns the day's order book.
func (g *BrokerGateway) Orders(ctx context.Context) ([]models.OrderSnapshot, error) {
	var data []brokerOrder
	if err := g.get(ctx, "/orders", nil, &data); err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}
	out := make([]models.OrderSnapshot, 0, len(data))
	for _, o := range data {
		out = append(out, models.OrderSnapshot{
			OrderID:         o.OrderID,
			Symbol:          o.TradingSymbol,
			TransactionType: o.TransactionType,
			Status:          o.Status,
			Quantity:        o.Quantity,
			Price:           o.Price,
		})
	}
	return out, nil
}

var (
	_ domrepo.CandleFeed     = (*BrokerGateway)(nil)
	_ domrepo.PositionSource = (*BrokerGateway)(nil)
	_ domrepo.OrderSource    = (*BrokerGateway)(nil)
)
