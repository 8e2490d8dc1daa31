package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"chain-dashboard/internal/logging"
)

// MaxWindowSize caps the number of blocks fetched per refresh.
const MaxWindowSize = 256

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Ethereum EthereumConfig `mapstructure:"ethereum"`
	Window   WindowConfig   `mapstructure:"window"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Render   RenderConfig   `mapstructure:"render"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Alerting AlertingConfig `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// EthereumConfig covers on-chain data access.
type EthereumConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	TokenAddress   string        `mapstructure:"token_address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// WindowConfig sizes the block window.
type WindowConfig struct {
	Size int `mapstructure:"size"`
}

// RefreshConfig governs the polling cadence.
type RefreshConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	StartupDelay   time.Duration `mapstructure:"startup_delay"`
	RunImmediately bool          `mapstructure:"run_immediately"`
}

// RenderConfig controls chart, CSV and console output.
type RenderConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
	PNG       bool   `mapstructure:"png"`
	CSV       bool   `mapstructure:"csv"`
	Table     bool   `mapstructure:"table"`
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Listen    string `mapstructure:"listen"`
	Namespace string `mapstructure:"namespace"`
}

// AlertingConfig routes refresh failure notifications.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram notifier.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHAINDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chaindash")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("ethereum.rpc_url", "")
	v.SetDefault("ethereum.token_address", "")
	v.SetDefault("ethereum.request_timeout", "10s")

	v.SetDefault("window.size", 10)

	v.SetDefault("refresh.interval", "12s")
	v.SetDefault("refresh.startup_delay", "0s")
	v.SetDefault("refresh.run_immediately", true)

	v.SetDefault("render.output_dir", "charts")
	v.SetDefault("render.width", 1280)
	v.SetDefault("render.height", 480)
	v.SetDefault("render.png", true)
	v.SetDefault("render.csv", true)
	v.SetDefault("render.table", true)

	v.SetDefault("metrics.listen", "")
	v.SetDefault("metrics.namespace", "chaindash")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.bot_token", "")
	v.SetDefault("alerting.telegram.chat_id", "")
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Window.Size <= 0 || c.Window.Size > MaxWindowSize {
		return fmt.Errorf("window.size must be between 1 and %d", MaxWindowSize)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be greater than zero")
	}
	if c.Refresh.StartupDelay < 0 {
		return fmt.Errorf("refresh.startup_delay cannot be negative")
	}
	if c.Ethereum.TokenAddress != "" && !common.IsHexAddress(c.Ethereum.TokenAddress) {
		return fmt.Errorf("ethereum.token_address %q is not a valid address", c.Ethereum.TokenAddress)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// TrackToken reports whether a token address is configured for volume tracking.
func (c *Config) TrackToken() bool {
	return c.Ethereum.TokenAddress != ""
}

// Token returns the configured token address.
func (c *Config) Token() common.Address {
	return common.HexToAddress(c.Ethereum.TokenAddress)
}

// ResolveOutputDir returns either the CLI override or config default.
func (c *Config) ResolveOutputDir(override string) string {
	if override != "" {
		return override
	}
	return c.Render.OutputDir
}
