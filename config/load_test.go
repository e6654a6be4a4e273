package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
env: prod
engine:
  limits:
    maxPositionValue: 500000
    maxOrderNotional: 50000
    maxDailyLoss: 25000
  lookback: 200
feed:
  mode: ws
  url: wss://feed.test/ticks
instruments:
  - symbol: BTC-USD
    bid: 50000
    ask: 50001
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "prod" {
		t.Fatalf("env not loaded: %q", cfg.Env)
	}
	if cfg.Engine.Limits.MaxDailyLoss != 25000 || cfg.Engine.Lookback != 200 {
		t.Fatalf("engine section not loaded: %+v", cfg.Engine)
	}
	// 未给出的字段保留默认值
	if cfg.Engine.SignalThreshold != 0.0002 || cfg.Engine.RiskMs != 100 {
		t.Fatalf("defaults not preserved: %+v", cfg.Engine)
	}
	if len(cfg.Instruments) != 1 || cfg.Instruments[0].Symbol != "BTC-USD" {
		t.Fatalf("instruments not loaded: %+v", cfg.Instruments)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
api:
  addr: ":8080"
`)
	t.Setenv("HFT_ENV", "prod")
	t.Setenv("HFT_API_ADDR", ":9999")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != "prod" || cfg.API.Addr != ":9999" {
		t.Fatalf("env overrides not applied: env=%q api=%q", cfg.Env, cfg.API.Addr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/cfg.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeTempConfig(t, "engine: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"defaults pass", func(c *AppConfig) {}, false},
		{"empty env", func(c *AppConfig) { c.Env = "" }, true},
		{"bad limit", func(c *AppConfig) { c.Engine.Limits.MaxDailyLoss = 0 }, true},
		{"bad lookback", func(c *AppConfig) { c.Engine.Lookback = 0 }, true},
		{"bad threshold", func(c *AppConfig) { c.Engine.SignalThreshold = -1 }, true},
		{"ws without url", func(c *AppConfig) { c.Feed.Mode = "ws" }, true},
		{"unknown feed mode", func(c *AppConfig) { c.Feed.Mode = "replay" }, true},
		{"instrument without symbol", func(c *AppConfig) {
			c.Instruments = []InstrumentSeed{{Bid: 1, Ask: 2}}
		}, true},
		{"instrument bad seed price", func(c *AppConfig) {
			c.Instruments = []InstrumentSeed{{Symbol: "X", Bid: 0, Ask: 2}}
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := Validate(cfg)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
