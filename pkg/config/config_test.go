package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("expected redis backend default, got %s", cfg.Store.Backend)
	}
	if cfg.Trading.MinSpread != 2.0 || cfg.Trading.MaxSpread != 3.0 {
		t.Errorf("unexpected spread defaults %+v", cfg.Trading)
	}
	if cfg.Trading.AutoTrading {
		t.Errorf("auto trading must default to off")
	}
	if len(cfg.Trading.ActiveBlockchains) != 3 {
		t.Errorf("unexpected blockchain defaults %v", cfg.Trading.ActiveBlockchains)
	}
	if cfg.Notifier.SignalTopic != "chainpulse.signals" {
		t.Errorf("unexpected topic default %s", cfg.Notifier.SignalTopic)
	}
}

func TestLoadIgnoresDurationKeysInFile(t *testing.T) {
	// Duration fields are not file-settable; a file carrying duration
	// strings must still load with the defaults intact.
	path := writeConfig(t, `
server:
  read_timeout: 10s
feed:
  timeout: 60s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("expected default read timeout 10s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Feed.Timeout != 10*time.Second {
		t.Errorf("expected default feed timeout 10s, got %v", cfg.Feed.Timeout)
	}
	if cfg.Trading.EngineInterval != 5*time.Second {
		t.Errorf("expected default engine interval 5s, got %v", cfg.Trading.EngineInterval)
	}
}

func TestLoadRejectsInvertedSpreadWindow(t *testing.T) {
	path := writeConfig(t, `
trading:
  min_spread: 5.0
  max_spread: 3.0
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for min_spread > max_spread")
	}
}

func TestLoadRejectsActiveVenueWithoutCredentials(t *testing.T) {
	path := writeConfig(t, `
trading:
  active_exchanges: [bybit]
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for active venue without credentials")
	}
}

func TestLoadAcceptsActiveVenueWithCredentials(t *testing.T) {
	path := writeConfig(t, `
trading:
  active_exchanges: [bybit]
venues:
  bybit:
    api_key: k
    api_secret: s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Venues.Bybit.Configured() {
		t.Fatalf("expected bybit to be configured")
	}
}

func TestLoadRejectsEnabledNotifierWithoutBrokers(t *testing.T) {
	path := writeConfig(t, `
notifier:
  enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for enabled notifier without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("KAFKA_BROKERS", "kafka1:9092,kafka2:9092")
	t.Setenv("ACTIVE_BLOCKCHAINS", "ethereum,base")
	t.Setenv("ALLOW_LIVE_TRADING", "true")
	t.Setenv("OKX_API_KEY", "key")
	t.Setenv("OKX_API_SECRET", "secret")
	t.Setenv("OKX_PASSPHRASE", "phrase")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Redis.Host != "redis.internal" || cfg.Store.Redis.Port != 6380 {
		t.Errorf("redis override not applied: %+v", cfg.Store.Redis)
	}
	if !cfg.Notifier.Enabled || len(cfg.Notifier.Brokers) != 2 {
		t.Errorf("kafka override not applied: %+v", cfg.Notifier)
	}
	if len(cfg.Trading.ActiveBlockchains) != 2 || cfg.Trading.ActiveBlockchains[1] != "base" {
		t.Errorf("blockchain override not applied: %v", cfg.Trading.ActiveBlockchains)
	}
	if !cfg.Trading.AutoTrading {
		t.Errorf("live trading override not applied")
	}
	if cfg.Venues.OKX.APIKey != "key" || cfg.Venues.OKX.Passphrase != "phrase" {
		t.Errorf("okx credentials override not applied: %+v", cfg.Venues.OKX)
	}
}

func TestVenueCredentialsConfigured(t *testing.T) {
	if (VenueCredentials{APIKey: "k"}).Configured() {
		t.Errorf("key alone is not configured")
	}
	if (VenueCredentials{APISecret: "s"}).Configured() {
		t.Errorf("secret alone is not configured")
	}
	if !(VenueCredentials{APIKey: "k", APISecret: "s"}).Configured() {
		t.Errorf("key plus secret is configured")
	}
}
