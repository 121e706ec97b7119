package di

import (
	"context"
	"fmt"
	"time"

	"TradeGuard/internal/domain/repository"
	"TradeGuard/internal/handler/api"
	internalrepo "TradeGuard/internal/repository"
	"TradeGuard/internal/service/cache"
	"TradeGuard/internal/services/agents"
	"TradeGuard/internal/usecase"
	pkgch "TradeGuard/pkg/clickhouse"
	"TradeGuard/pkg/config"
	xhttp "TradeGuard/pkg/http"
	pkgkafka "TradeGuard/pkg/kafka"
	applogger "TradeGuard/pkg/logger"
	"TradeGuard/pkg/metrics"
	"TradeGuard/pkg/postgres"
	"TradeGuard/pkg/server"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the byte cache shared by the adapters. Redis sits
// behind a small in-process L1.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, func(), error) {
	local := cache.NewBoundedTTLCache(cfg.Cache.MaxEntries)
	if cfg.Cache.Type != "redis" {
		return local, func() {}, nil
	}

	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Timeout:  cfg.Cache.Redis.Timeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return cache.NewLayered(local, cache.Prefixed{Prefix: "tg:", Inner: rc}, 30*time.Second), cleanup, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the candle
// and audit tables exist. It returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if cfg.ClickHouse.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store := internalrepo.NewCHEvaluationStore(client.DB(), cfg.ClickHouse.EvaluationTable)
		if err := client.InitSchema(ctx, internalrepo.CandleSchema(internalrepo.DefaultCandleTables), store.Schema()); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvidePostgresPool opens the position book pool. It returns nil unless
// positions come from Postgres.
func ProvidePostgresPool(cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if cfg.Broker.PositionSource != "postgres" {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pc := postgres.DefaultPoolConfig()
	pc.MaxConns = cfg.Postgres.MaxConns
	pc.SSLMode = cfg.Postgres.SSLMode
	pool, err := postgres.NewPool(ctx, cfg.Postgres.URL, pc)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pool, pool.Close, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideBrokerGateway creates the broker adapter when a gateway is configured.
func ProvideBrokerGateway(cfg *config.Config, c cache.BytesCache, l *applogger.Logger) (*internalrepo.BrokerGateway, error) {
	if cfg.Broker.BaseURL == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(cfg.Engine.Agents.Timezone)
	if err != nil {
		return nil, fmt.Errorf("broker timezone: %w", err)
	}
	return internalrepo.NewBrokerGateway(internalrepo.BrokerConfig{
		BaseURL:       cfg.Broker.BaseURL,
		APIKey:        cfg.Broker.APIKey,
		AccessToken:   cfg.Broker.AccessToken,
		Timeout:       cfg.Broker.Timeout,
		InstrumentTTL: cfg.Broker.InstrumentTTL,
		CandleTTL:     cfg.Broker.CandleTTL,
		Location:      loc,
	}, c, l), nil
}

// ProvideCandleFeed selects the candle source.
func ProvideCandleFeed(cfg *config.Config, gw *internalrepo.BrokerGateway, ch *pkgch.Client, l *applogger.Logger) (repository.CandleFeed, error) {
	switch {
	case cfg.Broker.CandleSource == "clickhouse" && ch != nil:
		return internalrepo.NewCHCandleFeed(ch, l), nil
	case cfg.Broker.CandleSource == "broker" && gw != nil:
		return gw, nil
	default:
		return nil, fmt.Errorf("candle source %q is not available", cfg.Broker.CandleSource)
	}
}

// ProvidePositionSource selects where positions come from.
func ProvidePositionSource(cfg *config.Config, gw *internalrepo.BrokerGateway, pool *pgxpool.Pool) repository.PositionSource {
	if pool != nil {
		return internalrepo.NewPGPositionBook(pool, cfg.Postgres.AccountID)
	}
	if gw != nil {
		return gw
	}
	return nil
}

// ProvideOrderSource selects where the day's orders come from.
func ProvideOrderSource(cfg *config.Config, gw *internalrepo.BrokerGateway, pool *pgxpool.Pool) repository.OrderSource {
	if pool != nil {
		return internalrepo.NewPGPositionBook(pool, cfg.Postgres.AccountID)
	}
	if gw != nil {
		return gw
	}
	return nil
}

// ProvideMarketContext creates the market context client when configured.
func ProvideMarketContext(cfg *config.Config, c cache.BytesCache) repository.MarketContextSource {
	if cfg.MarketContext.BaseURL == "" {
		return nil
	}
	return internalrepo.NewMarketContextClient(internalrepo.MarketContextConfig{
		BaseURL:  cfg.MarketContext.BaseURL,
		APIKey:   cfg.MarketContext.APIKey,
		Timeout:  cfg.MarketContext.Timeout,
		CacheTTL: cfg.MarketContext.CacheTTL,
	}, c)
}

// ProvideEvaluationStore creates the ClickHouse audit store, or nil.
func ProvideEvaluationStore(cfg *config.Config, ch *pkgch.Client) *internalrepo.CHEvaluationStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHEvaluationStore(ch.DB(), cfg.ClickHouse.EvaluationTable)
}

// ProvideEvaluationPublisher fans evaluations out to Kafka and the audit
// store, whichever are enabled.
func ProvideEvaluationPublisher(cfg *config.Config, producer *pkgkafka.Producer, store *internalrepo.CHEvaluationStore) repository.EvaluationPublisher {
	var sinks internalrepo.FanoutPublisher
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaEvaluationPublisher(producer, cfg.Kafka.EvaluationTopic))
	}
	if store != nil {
		sinks = append(sinks, store)
	}
	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

// ProvideAgentDeps bundles the collaborators of the candle-driven agents.
func ProvideAgentDeps(feed repository.CandleFeed, l *applogger.Logger, m repository.Metrics) agents.Deps {
	return agents.Deps{Feed: feed, Log: l, Metrics: m}
}

func ProvideBehavioralAgent(d agents.Deps) *agents.BehavioralAgent {
	return agents.NewBehavioralAgent(d)
}

func ProvideStructureAgent(d agents.Deps, cfg *config.Config) *agents.StructureAgent {
	return agents.NewStructureAgent(d, cfg.Engine.Agents)
}

func ProvidePatternAgent(d agents.Deps, cfg *config.Config) *agents.PatternAgent {
	return agents.NewPatternAgent(d, cfg.Engine.Agents)
}

func ProvideStationAgent(d agents.Deps, cfg *config.Config) *agents.StationAgent {
	return agents.NewStationAgent(d, cfg.Engine.Agents)
}

// ProvideRiskOrchestrator creates the evaluation use case.
func ProvideRiskOrchestrator(
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
	positions repository.PositionSource,
	orders repository.OrderSource,
	market repository.MarketContextSource,
	pub repository.EvaluationPublisher,
	behavioral *agents.BehavioralAgent,
	structure *agents.StructureAgent,
	pattern *agents.PatternAgent,
	station *agents.StationAgent,
) *usecase.RiskOrchestrator {
	return usecase.NewRiskOrchestrator(usecase.RiskOrchestratorDeps{
		Positions:  positions,
		Orders:     orders,
		Market:     market,
		Publisher:  pub,
		Metrics:    m,
		Log:        l,
		Behavioral: behavioral,
		Structure:  structure,
		Pattern:    pattern,
		Station:    station,
		Timeout:    cfg.Engine.Timeout,
	})
}

func ProvideStationsUseCase(station *agents.StationAgent) *usecase.StationsUseCase {
	return usecase.NewStationsUseCase(station)
}

// ProvideHistory serves /api/evaluations when the audit store exists.
func ProvideHistory(store *internalrepo.CHEvaluationStore) api.HistoryService {
	if store == nil {
		return nil
	}
	return usecase.NewEvaluationHistoryUseCase(store)
}

// ProvideRiskHandler creates the HTTP handler for the risk endpoints.
func ProvideRiskHandler(
	cfg *config.Config,
	l *applogger.Logger,
	orch *usecase.RiskOrchestrator,
	stations *usecase.StationsUseCase,
	history api.HistoryService,
	c cache.BytesCache,
) *api.RiskEchoHandler {
	return api.NewRiskEchoHandler(l, api.RiskHandlerDeps{
		Evaluator: orch,
		Stations:  stations,
		History:   history,
		Cache:     c,
		CacheTTL:  cfg.Server.StationsCacheTTL,
		Limit: api.RateLimit{
			Capacity:     cfg.Server.RateLimit.Capacity,
			RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
		},
	})
}

// ProvideKafkaConsumer creates the intake consumer, or nil when no request
// topic is configured.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RequestTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(1, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TracingHook(l),
		pkgkafka.MaxSizeHook(64<<10),
	))
	return consumer, nil
}

// ProvideIntakeHandler consumes evaluation requests from Kafka.
func ProvideIntakeHandler(cfg *config.Config, orch *usecase.RiskOrchestrator, m repository.Metrics, l *applogger.Logger) *usecase.EvaluationIntakeHandler {
	if cfg.Kafka.RequestTopic == "" {
		return nil
	}
	return usecase.NewEvaluationIntakeHandler(cfg.Kafka.RequestTopic, orch, m, l)
}

// ProvideApp creates the application server and attaches the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.RiskEchoHandler,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	intake *usecase.EvaluationIntakeHandler,
	pub repository.EvaluationPublisher,
) *server.App {
	if producer != nil && cfg.Log.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.FlushInterval,
			CountThreshold: cfg.Log.FlushCount,
			Topic:          cfg.Log.Topic,
			Service:        "tradeguard",
			Publisher:      producer,
		})
	}

	opts := server.Options{Consumer: consumer, Sweeper: handler.Limiter()}
	if intake != nil {
		opts.Intake = intake
	}
	if pub != nil {
		opts.Publisher = pub
	}
	return server.New(cfg, l, []xhttp.Handler{handler}, opts)
}
