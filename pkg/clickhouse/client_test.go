package clickhouse

import (
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	cfg := ClientConfig{
		Host: "ch", Port: 9000, Database: "market", User: "svc", Password: "pw",
		DialTimeout: 5 * time.Second, MaxExecTime: 30 * time.Second,
		AsyncInsert: true, WaitForAsync: true,
	}
	want := "clickhouse://svc:pw@ch:9000/market?dial_timeout=5s&max_execution_time=30&async_insert=1&wait_for_async_insert=1"
	if got := buildDSN(cfg); got != want {
		t.Fatalf("dsn = %s", got)
	}

	cfg = ClientConfig{Host: "ch", Port: 8123, Database: "market", UseHTTP: true}
	if got := buildDSN(cfg); got != "clickhouse+http://:@ch:8123/market" {
		t.Fatalf("http dsn = %s", got)
	}
}

func TestBuildDSNEscapesCredentials(t *testing.T) {
	cfg := ClientConfig{Host: "ch", Port: 9000, Database: "market", User: "svc", Password: "p@ss/w:rd"}
	want := "clickhouse://svc:p%40ss%2Fw%3Ard@ch:9000/market"
	if got := buildDSN(cfg); got != want {
		t.Fatalf("dsn = %s, want %s", got, want)
	}
}
