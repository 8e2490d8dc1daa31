package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults should load: %v", err)
	}
	if cfg.Window.Size != 10 {
		t.Fatalf("expected window size 10, got %d", cfg.Window.Size)
	}
	if cfg.Refresh.Interval != 12*time.Second {
		t.Fatalf("expected 12s refresh, got %s", cfg.Refresh.Interval)
	}
	if cfg.TrackToken() {
		t.Fatal("no token should be tracked by default")
	}
	if cfg.ResolveOutputDir("") != "charts" || cfg.ResolveOutputDir("out") != "out" {
		t.Fatal("output dir override not applied")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dash.yaml")
	content := []byte(`
ethereum:
  rpc_url: http://localhost:8545
  token_address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
window:
  size: 20
refresh:
  interval: 30s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHAINDASH_WINDOW_SIZE", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("config should load: %v", err)
	}
	if cfg.Ethereum.RPCURL != "http://localhost:8545" {
		t.Fatalf("unexpected rpc url %q", cfg.Ethereum.RPCURL)
	}
	if cfg.Window.Size != 5 {
		t.Fatalf("env should override file, got %d", cfg.Window.Size)
	}
	if cfg.Refresh.Interval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %s", cfg.Refresh.Interval)
	}
	if !cfg.TrackToken() || cfg.Token().Hex() != "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48" {
		t.Fatalf("unexpected token %s", cfg.Token().Hex())
	}
}

func validConfig() Config {
	return Config{
		Window:  WindowConfig{Size: 10},
		Refresh: RefreshConfig{Interval: 12 * time.Second},
		Render:  RenderConfig{Width: 800, Height: 400},
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"zero window":      func(c *Config) { c.Window.Size = 0 },
		"huge window":      func(c *Config) { c.Window.Size = MaxWindowSize + 1 },
		"zero interval":    func(c *Config) { c.Refresh.Interval = 0 },
		"negative delay":   func(c *Config) { c.Refresh.StartupDelay = -time.Second },
		"bad token":        func(c *Config) { c.Ethereum.TokenAddress = "0x123" },
		"zero width":       func(c *Config) { c.Render.Width = 0 },
		"telegram no chat": func(c *Config) { c.Alerting.Telegram = TelegramConfig{Enabled: true, BotToken: "t"} },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
