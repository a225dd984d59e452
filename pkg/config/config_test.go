package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Searcher.DefaultLimit != 1 {
		t.Errorf("Searcher.DefaultLimit = %d, want 1", cfg.Searcher.DefaultLimit)
	}
	if cfg.Searcher.UnionFallback {
		t.Error("Searcher.UnionFallback should default to false")
	}
	if cfg.Indexer.BuildWorkers != 4 {
		t.Errorf("Indexer.BuildWorkers = %d, want 4", cfg.Indexer.BuildWorkers)
	}
	if cfg.Kafka.Topics.DocumentUpsert != "document-upsert" {
		t.Errorf("Topics.DocumentUpsert = %q", cfg.Kafka.Topics.DocumentUpsert)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	content := `
server:
  port: 9999
  readTimeout: 5s
searcher:
  defaultLimit: 3
  unionFallback: true
postgres:
  host: db.internal
`
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Searcher.DefaultLimit != 3 {
		t.Errorf("Searcher.DefaultLimit = %d, want 3", cfg.Searcher.DefaultLimit)
	}
	if !cfg.Searcher.UnionFallback {
		t.Error("Searcher.UnionFallback not read from file")
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("Postgres.Host = %q, want db.internal", cfg.Postgres.Host)
	}
	// Untouched fields keep their defaults.
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port = %d, want default 5432", cfg.Postgres.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DR_SERVER_PORT", "7070")
	t.Setenv("DR_POSTGRES_HOST", "pg.env")
	t.Setenv("DR_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DR_SEARCHER_UNION_FALLBACK", "true")
	t.Setenv("DR_INDEXER_BUILD_WORKERS", "16")
	t.Setenv("DR_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "pg.env" {
		t.Errorf("Postgres.Host = %q, want pg.env", cfg.Postgres.Host)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if !cfg.Searcher.UnionFallback {
		t.Error("DR_SEARCHER_UNION_FALLBACK not applied")
	}
	if cfg.Indexer.BuildWorkers != 16 {
		t.Errorf("Indexer.BuildWorkers = %d, want 16", cfg.Indexer.BuildWorkers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}
	want := "host=h port=5432 user=u password=p dbname=d sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
