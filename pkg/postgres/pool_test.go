package postgres

import (
	"strings"
	"testing"
)

func TestWithSSLMode(t *testing.T) {
	got := withSSLMode("postgres://u:p@db:5432/book", "require")
	if !strings.Contains(got, "sslmode=require") {
		t.Fatalf("sslmode not added: %s", got)
	}
	kept := withSSLMode("postgres://u:p@db:5432/book?sslmode=disable", "require")
	if !strings.Contains(kept, "sslmode=disable") || strings.Contains(kept, "require") {
		t.Fatalf("explicit sslmode overwritten: %s", kept)
	}
	if withSSLMode("postgres://db/book", "") != "postgres://db/book" {
		t.Fatalf("empty mode should leave url untouched")
	}
}

func TestNormalize(t *testing.T) {
	c := PoolConfig{MaxConns: 0, MinConns: 5}.normalize()
	if c.MaxConns != 1 || c.MinConns != 1 {
		t.Fatalf("normalize = %+v", c)
	}
}
