package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AGDC_DATABASE", "datacube")
	t.Setenv("AGDC_USER", "cube_user")
	t.Setenv("AGDC_PASSWORD", "GAcube0")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchPath != "gis,topology,ztmp,public" {
		t.Errorf("unexpected search path %q", cfg.SearchPath)
	}
	if cfg.FetchSize != 100 {
		t.Errorf("unexpected fetch size %d", cfg.FetchSize)
	}
	if cfg.QueryTimeout != 0 {
		t.Errorf("expected no statement timeout, got %s", cfg.QueryTimeout)
	}
	if cfg.CellCacheTTL != 5*time.Minute {
		t.Errorf("unexpected cache TTL %s", cfg.CellCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("QUERY_FETCH_SIZE", "500")
	t.Setenv("QUERY_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchSize != 500 {
		t.Errorf("unexpected fetch size %d", cfg.FetchSize)
	}
	if cfg.QueryTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %s", cfg.QueryTimeout)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DatabaseName:     "datacube",
		DatabaseUser:     "cube_user",
		DatabasePassword: "GAcube0",
	}
	if got := cfg.DSN(); got != "dbname=datacube user=cube_user password=GAcube0" {
		t.Errorf("unexpected DSN %q", got)
	}

	cfg.DatabaseHost = "db.example.org"
	cfg.DatabasePort = 6432
	want := "host=db.example.org port=6432 dbname=datacube user=cube_user password=GAcube0"
	if got := cfg.DSN(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
