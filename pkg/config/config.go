package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"TradeGuard/internal/services/agents"
	"TradeGuard/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment   string              `yaml:"environment" default:"development"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Broker        BrokerConfig        `yaml:"broker"`
	MarketContext MarketContextConfig `yaml:"market_context"`
	Cache         CacheConfig         `yaml:"cache"`
	ClickHouse    ClickHouseConfig    `yaml:"clickhouse"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Engine        EngineConfig        `yaml:"engine"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RateLimit       struct {
		Capacity     float64 `yaml:"capacity" default:"20"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
	} `yaml:"rate_limit"`
	StationsCacheTTL time.Duration `yaml:"stations_cache_ttl" default:"15s"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"json"`
	Output string `yaml:"output" default:"stdout"`
	// Topic receives deduplicated warn/error entries when Kafka is enabled.
	Topic         string        `yaml:"topic"`
	FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
	FlushCount    int           `yaml:"flush_count" default:"100"`
}

// BrokerConfig points at the broker REST gateway. Candles come from the
// gateway unless CandleSource is "clickhouse".
type BrokerConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	AccessToken   string        `yaml:"access_token"`
	Timeout       time.Duration `yaml:"timeout" default:"5s"`
	InstrumentTTL time.Duration `yaml:"instrument_ttl" default:"24h"`
	CandleTTL     time.Duration `yaml:"candle_ttl" default:"5m"`
	CandleSource  string        `yaml:"candle_source" default:"broker"`
	// PositionSource is "broker" or "postgres".
	PositionSource string `yaml:"position_source" default:"broker"`
}

type MarketContextConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout" default:"3s"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"1m"`
}

type CacheConfig struct {
	// Type is "memory" or "redis".
	Type       string `yaml:"type" default:"memory"`
	MaxEntries int    `yaml:"max_entries" default:"10000"`
	Redis      struct {
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout" default:"200ms"`
	} `yaml:"redis"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"market"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert" default:"true"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	EvaluationTable  string        `yaml:"evaluation_table" default:"risk_evaluations"`
	InitSchema       bool          `yaml:"init_schema" default:"true"`
}

type PostgresConfig struct {
	URL       string `yaml:"url"`
	AccountID string `yaml:"account_id"`
	MaxConns  int32  `yaml:"max_conns" default:"10"`
	SSLMode   string `yaml:"ssl_mode"`
	Migrate   bool   `yaml:"migrate" default:"true"`
}

type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	EvaluationTopic string   `yaml:"evaluation_topic" default:"risk.evaluations"`
	RequestTopic    string   `yaml:"request_topic"`
	RequiredAcks    int      `yaml:"required_acks" default:"1"`
	Compression     string   `yaml:"compression" default:"snappy"`
	Producer        struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"tradeguard"`
		Workers    int           `yaml:"workers" default:"4"`
		BufferSize int           `yaml:"buffer_size" default:"64"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic"`
		MaxBytes   int           `yaml:"max_bytes" default:"1048576"`
	} `yaml:"consumer"`
}

type EngineConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"10s"`
	Agents  agents.Config `yaml:"agents"`
}

// Default returns a Config populated from the default tags.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads a .env file if present, then the YAML config, then
// applies environment overrides. An empty path skips the file.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path != "" {
		var err error
		if c, err = Load(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
			*dst = v
		}
	}

	str("APP_ENV", &c.Environment)
	c.Server.Port = util.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	str("BROKER_BASE_URL", &c.Broker.BaseURL)
	str("BROKER_API_KEY", &c.Broker.APIKey)
	str("BROKER_ACCESS_TOKEN", &c.Broker.AccessToken)
	str("CANDLE_SOURCE", &c.Broker.CandleSource)
	str("POSITION_SOURCE", &c.Broker.PositionSource)

	str("MARKET_CONTEXT_URL", &c.MarketContext.BaseURL)
	str("MARKET_CONTEXT_API_KEY", &c.MarketContext.APIKey)

	str("CACHE_TYPE", &c.Cache.Type)
	str("REDIS_ADDR", &c.Cache.Redis.Addr)
	str("REDIS_PASSWORD", &c.Cache.Redis.Password)
	c.Cache.Redis.DB = util.ParseIntDefault(os.Getenv("REDIS_DB"), c.Cache.Redis.DB)

	boolean("CLICKHOUSE_ENABLED", &c.ClickHouse.Enabled)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	c.ClickHouse.Port = util.ParseIntDefault(os.Getenv("CLICKHOUSE_PORT"), c.ClickHouse.Port)
	str("CLICKHOUSE_USER", &c.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)

	str("POSTGRES_URL", &c.Postgres.URL)
	str("ACCOUNT_ID", &c.Postgres.AccountID)

	boolean("KAFKA_ENABLED", &c.Kafka.Enabled)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	str("KAFKA_EVALUATION_TOPIC", &c.Kafka.EvaluationTopic)
	str("KAFKA_REQUEST_TOPIC", &c.Kafka.RequestTopic)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Broker.CandleSource {
	case "broker":
		if c.Broker.BaseURL == "" {
			errs = append(errs, errors.New("broker.base_url is required when candles come from the broker"))
		}
	case "clickhouse":
		if !c.ClickHouse.Enabled {
			errs = append(errs, errors.New("clickhouse.enabled must be true when candle_source is clickhouse"))
		}
	default:
		errs = append(errs, fmt.Errorf("broker.candle_source must be 'broker' or 'clickhouse', got '%s'", c.Broker.CandleSource))
	}
	switch c.Broker.PositionSource {
	case "broker":
		if c.Broker.BaseURL == "" {
			errs = append(errs, errors.New("broker.base_url is required when positions come from the broker"))
		}
	case "postgres":
		if c.Postgres.URL == "" || c.Postgres.AccountID == "" {
			errs = append(errs, errors.New("postgres.url and postgres.account_id are required when position_source is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("broker.position_source must be 'broker' or 'postgres', got '%s'", c.Broker.PositionSource))
	}
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		errs = append(errs, fmt.Errorf("cache.type must be 'memory' or 'redis', got '%s'", c.Cache.Type))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Kafka.RequestTopic != "" && !c.Kafka.Enabled {
		errs = append(errs, errors.New("kafka.request_topic needs kafka.enabled"))
	}
	if _, err := time.LoadLocation(c.Engine.Agents.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("engine.agents.timezone: %w", err))
	}
	return errors.Join(errs...)
}
