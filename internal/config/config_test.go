package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEnvOnlyDefaults(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_API_SECRET", "s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeTestnet {
		t.Fatalf("Mode = %s, want testnet", cfg.Mode)
	}
	if cfg.DefaultSymbol != "BTCUSDT" {
		t.Fatalf("DefaultSymbol = %s, want BTCUSDT", cfg.DefaultSymbol)
	}
	if cfg.Exchange.RestBaseURL != "https://testnet.binance.vision" {
		t.Fatalf("RestBaseURL = %s", cfg.Exchange.RestBaseURL)
	}
	if cfg.Exchange.WSBaseURL != "wss://stream.testnet.binance.vision" {
		t.Fatalf("WSBaseURL = %s", cfg.Exchange.WSBaseURL)
	}
	if cfg.Exchange.APIKey != "k" || cfg.Exchange.APISecret != "s" {
		t.Fatalf("credentials not taken from env: %+v", cfg.Exchange)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "bot.log" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("Load() error = %v, want credentials error", err)
	}
}

func TestLoadDebugModeEnv(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_API_SECRET", "s")
	t.Setenv("DEBUG_MODE", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")
	path := writeConfig(t, `
mode: live
default_symbol: ethusdt
default_qty: "0.05"
exchange:
  api_key: file-key
  api_secret: file-secret
  recv_window_ms: 10000
logging:
  level: warn
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mode != ModeLive {
		t.Fatalf("Mode = %s, want live", cfg.Mode)
	}
	if cfg.DefaultSymbol != "ETHUSDT" {
		t.Fatalf("DefaultSymbol = %s, want ETHUSDT", cfg.DefaultSymbol)
	}
	if !cfg.DefaultQty.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("DefaultQty = %s, want 0.05", cfg.DefaultQty)
	}
	if cfg.Exchange.RestBaseURL != "https://api.binance.com" {
		t.Fatalf("RestBaseURL = %s, want live default", cfg.Exchange.RestBaseURL)
	}
	if cfg.Exchange.RecvWindowMs != 10000 {
		t.Fatalf("RecvWindowMs = %d, want 10000", cfg.Exchange.RecvWindowMs)
	}
}

func TestLoadEnvOverridesFileCredentials(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("BINANCE_API_SECRET", "env-secret")
	path := writeConfig(t, `
exchange:
  api_key: file-key
  api_secret: file-secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Exchange.APIKey != "env-key" || cfg.Exchange.APISecret != "env-secret" {
		t.Fatalf("env should win over file: %+v", cfg.Exchange)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_API_SECRET", "s")
	path := writeConfig(t, "grid_levels: 10\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("Load() should reject unknown fields")
	}
}

func TestLoadKeepForeverRetention(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "k")
	t.Setenv("BINANCE_API_SECRET", "s")
	path := writeConfig(t, `
logging:
  max_backups: -1
  max_age_days: -1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.MaxBackups != -1 {
		t.Fatalf("MaxBackups = %d, want -1 preserved", cfg.Logging.MaxBackups)
	}
	if cfg.Logging.MaxAgeDays != -1 {
		t.Fatalf("MaxAgeDays = %d, want -1 preserved", cfg.Logging.MaxAgeDays)
	}

	// Unset retention still picks up the defaults.
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.MaxBackups != 5 || cfg.Logging.MaxAgeDays != 30 {
		t.Fatalf("unexpected retention defaults: %+v", cfg.Logging)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Config{
			Exchange: ExchangeConfig{APIKey: "k", APISecret: "s"},
		}
		cfg.applyDefaults()
		return cfg
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg = base()
	cfg.Mode = "paper"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() should reject unknown mode")
	}

	cfg = base()
	cfg.DefaultSymbol = "btc-usdt"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() should reject malformed symbol")
	}

	cfg = base()
	cfg.Exchange.RecvWindowMs = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() should reject out-of-range recv window")
	}

	cfg = base()
	cfg.Exchange.RestBaseURL = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() should reject non-http rest url")
	}

	cfg = base()
	cfg.Alerts.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() should require telegram credentials when enabled")
	}

	cfg = base()
	cfg.Logging.MaxBackups = -2
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate() should reject max_backups below -1")
	}
}
