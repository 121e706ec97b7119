package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	p := writeConfig(t, `
broker:
  base_url: http://gw:9100
  timeout: 2s
engine:
  agents:
    timezone: UTC
    stations:
      lookback: 5
`)
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Broker.Timeout != 2*time.Second || c.Broker.CandleTTL != 5*time.Minute {
		t.Fatalf("broker = %+v", c.Broker)
	}
	if c.Server.Port != 8080 || c.Cache.Type != "memory" || c.Kafka.Consumer.Workers != 4 {
		t.Fatalf("defaults lost: %+v", c)
	}
	st := c.Engine.Agents.Stations
	if st.Lookback != 5 || st.ClusterGapPct != 0.5 || c.Engine.Agents.DailyBars != 220 {
		t.Fatalf("engine = %+v", c.Engine.Agents)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	p := writeConfig(t, "broker:\n  base_url: http://gw:9100\n")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TYPE", "redis")

	c, err := LoadWithEnv(p)
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 || c.Server.Port != 9090 || c.Cache.Type != "redis" {
		t.Fatalf("env not applied: %+v %+v", c.Kafka, c.Server)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "broker.base_url") {
		t.Fatalf("missing gateway should fail: %v", err)
	}

	c.Broker.BaseURL = "http://gw"
	if err := c.Validate(); err != nil {
		t.Fatalf("minimal config should validate: %v", err)
	}

	c.Broker.CandleSource = "clickhouse"
	c.Broker.PositionSource = "postgres"
	c.Kafka.RequestTopic = "risk.requests"
	err = c.Validate()
	for _, want := range []string{"clickhouse.enabled", "postgres.url", "kafka.request_topic"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
