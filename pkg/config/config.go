package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the full runtime configuration. Duration fields are not
// file-settable (yaml.v3 cannot decode duration strings); they take their
// values from the default tags.
type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"-" default:"10s"`
		WriteTimeout    time.Duration `yaml:"-" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"-" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Store struct {
		Backend string `yaml:"backend" default:"redis" validate:"oneof=redis memory"`
		Redis   struct {
			Host         string        `yaml:"host" default:"localhost"`
			Port         int           `yaml:"port" default:"6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			PoolSize     int           `yaml:"pool_size" default:"10"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"5"`
			PoolTimeout  time.Duration `yaml:"-" default:"30s"`
			Prefix       string        `yaml:"prefix" default:"chainpulse"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Feed struct {
		BaseURL           string        `yaml:"base_url" default:"https://api.dexscreener.com/latest/dex" validate:"url"`
		Timeout           time.Duration `yaml:"-" default:"10s"`
		TrendingInterval  time.Duration `yaml:"-" default:"60s"`
		NewPairsInterval  time.Duration `yaml:"-" default:"120s"`
		InterNetworkDelay time.Duration `yaml:"-" default:"2s"`
		MaxPairAge        time.Duration `yaml:"-" default:"24h"`
	} `yaml:"feed"`
	Trading struct {
		MinSpread         float64       `yaml:"min_spread" default:"2.0" validate:"gte=0"`
		MaxSpread         float64       `yaml:"max_spread" default:"3.0" validate:"gte=0"`
		MinLiquidity      float64       `yaml:"min_liquidity" default:"10000" validate:"gte=0"`
		MinVolume24h      float64       `yaml:"min_volume_24h" default:"50000" validate:"gte=0"`
		TradeAmount       float64       `yaml:"trade_amount" default:"100" validate:"gt=0"`
		AutoTrading       bool          `yaml:"auto_trading"`
		DefaultSymbol     string        `yaml:"default_symbol" default:"BTC/USDT"`
		MaxAttempts       int           `yaml:"max_attempts" default:"5" validate:"gt=0"`
		EngineInterval    time.Duration `yaml:"-" default:"5s"`
		HeartbeatInterval time.Duration `yaml:"-" default:"1h"`
		ActiveExchanges   []string      `yaml:"active_exchanges"`
		ActiveBlockchains []string      `yaml:"active_blockchains" default:"[\"ethereum\",\"bsc\",\"solana\"]"`
	} `yaml:"trading"`
	Venues struct {
		Bybit VenueCredentials `yaml:"bybit"`
		BingX VenueCredentials `yaml:"bingx"`
		Gate  VenueCredentials `yaml:"gate"`
		OKX   VenueCredentials `yaml:"okx"`
		XT    VenueCredentials `yaml:"xt"`
	} `yaml:"venues"`
	Notifier struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		SignalTopic string   `yaml:"signal_topic" default:"chainpulse.signals"`
		TradeTopic  string   `yaml:"trade_topic" default:"chainpulse.trades"`
		StatusTopic string   `yaml:"status_topic" default:"chainpulse.status"`
		Compression string   `yaml:"compression" default:"gzip"`
		Acks        int      `yaml:"required_acks" default:"-1"`
		MaxAttempts int      `yaml:"max_attempts" default:"3"`
	} `yaml:"notifier"`
	Journal struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"9000"`
		Database string        `yaml:"database" default:"chainpulse"`
		User     string        `yaml:"user" default:"default"`
		Password string        `yaml:"password"`
		Timeout  time.Duration `yaml:"-" default:"10s"`
	} `yaml:"journal"`
}

// VenueCredentials holds API credentials for a single trading venue.
// A venue is considered configured when both key and secret are present.
type VenueCredentials struct {
	APIKey     string `yaml:"api_key"`
	APISecret  string `yaml:"api_secret"`
	Passphrase string `yaml:"passphrase"` // OKX only
	Testnet    bool   `yaml:"testnet"`
}

// Configured reports whether credentials are usable.
func (v VenueCredentials) Configured() bool {
	return v.APIKey != "" && v.APISecret != ""
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Fill defaults before validation so optional sections pass
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Venue credentials are taken from the environment only, never from the file on
// shared deployments.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			c.Store.Redis.Host = host
			c.Store.Redis.Port = atoiDefault(port, c.Store.Redis.Port)
		} else {
			c.Store.Redis.Host = v
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Notifier.Brokers = strings.Split(v, ",")
		c.Notifier.Enabled = true
	}
	if v := os.Getenv("ACTIVE_BLOCKCHAINS"); v != "" {
		c.Trading.ActiveBlockchains = strings.Split(v, ",")
	}
	if v := os.Getenv("ALLOW_LIVE_TRADING"); v != "" {
		c.Trading.AutoTrading = strings.EqualFold(v, "true")
	}

	overrideCreds := func(dst *VenueCredentials, prefix string) {
		if v := os.Getenv(prefix + "_API_KEY"); v != "" {
			dst.APIKey = v
		}
		if v := os.Getenv(prefix + "_API_SECRET"); v != "" {
			dst.APISecret = v
		}
	}
	overrideCreds(&c.Venues.Bybit, "BYBIT")
	overrideCreds(&c.Venues.BingX, "BINGX")
	overrideCreds(&c.Venues.Gate, "GATE")
	overrideCreds(&c.Venues.OKX, "OKX")
	overrideCreds(&c.Venues.XT, "XT")
	if v := os.Getenv("OKX_PASSPHRASE"); v != "" {
		c.Venues.OKX.Passphrase = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks structural tags plus cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Trading.MinSpread > c.Trading.MaxSpread {
		return fmt.Errorf("trading.min_spread %.2f exceeds trading.max_spread %.2f",
			c.Trading.MinSpread, c.Trading.MaxSpread)
	}
	if len(c.Trading.ActiveBlockchains) == 0 {
		return fmt.Errorf("trading.active_blockchains cannot be empty")
	}
	for _, name := range c.Trading.ActiveExchanges {
		if !c.venueCreds(name).Configured() {
			return fmt.Errorf("venue %q is active but has no credentials", name)
		}
	}
	if c.Notifier.Enabled && len(c.Notifier.Brokers) == 0 {
		return fmt.Errorf("notifier.brokers required when notifier is enabled")
	}
	return nil
}

func (c *Config) venueCreds(name string) VenueCredentials {
	switch name {
	case "bybit":
		return c.Venues.Bybit
	case "bingx":
		return c.Venues.BingX
	case "gate":
		return c.Venues.Gate
	case "okx":
		return c.Venues.OKX
	case "xt":
		return c.Venues.XT
	default:
		return VenueCredentials{}
	}
}

func atoiDefault(s string, def int) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return def
	}
	return n
}
