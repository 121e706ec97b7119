package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TradeGuard/internal/domain/models"
	domrepo "TradeGuard/internal/domain/repository"
	"TradeGuard/internal/service/cache"

	"github.com/go-resty/resty/v2"
)

// MarketContextConfig configures the market context client.
type MarketContextConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// MarketContextClient fetches sentiment, sector and VIX summaries over HTTP.
// Responses are cached briefly since every evaluation asks for them.
type MarketContextClient struct {
	client *resty.Client
	cache  cache.BytesCache
	ttl    time.Duration
}

func NewMarketContextClient(cfg MarketContextConfig, c cache.BytesCache) *MarketContextClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if c == nil {
		c = cache.Nop{}
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("X-API-Key", cfg.APIKey)
	}
	return &MarketContextClient{client: client, cache: c, ttl: cfg.CacheTTL}
}

func (m *MarketContextClient) fetch(ctx context.Context, key, path string, query map[string]string, dest interface{}) error {
	if ok, _ := cache.GetJSON(m.cache, key, dest); ok {
		return nil
	}
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return fmt.Errorf("market context %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("market context %s: status %d: %s", path, resp.StatusCode(), resp.String())
	}
	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	_ = cache.SetJSON(m.cache, key, dest, m.ttl)
	return nil
}

func (m *MarketContextClient) Sentiment(ctx context.Context) (*models.Sentiment, error) {
	var s models.Sentiment
	if err := m.fetch(ctx, "mkt:sentiment", "/sentiment", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MarketContextClient) Sector(ctx context.Context, symbol string) (*models.SectorSnapshot, error) {
	var s models.SectorSnapshot
	if err := m.fetch(ctx, "mkt:sector:"+symbol, "/sector", map[string]string{"symbol": symbol}, &s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		return nil, fmt.Errorf("no sector for %s", symbol)
	}
	return &s, nil
}

func (m *MarketContextClient) VIX(ctx context.Context) (float64, error) {
	var v struct {
		Value *float64 `json:"value"`
	}
	if err := m.fetch(ctx, "mkt:vix", "/vix", nil, &v); err != nil {
		return 0, err
	}
	if v.Value == nil {
		return 0, fmt.Errorf("vix missing from response")
	}
	return *v.Value, nil
}

var _ domrepo.MarketContextSource = (*MarketContextClient)(nil)
