package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tradedesk/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultReadTimeoutSec  = 60
	defaultPingIntervalSec = 30
	defaultInboxSize       = 1024
	defaultDepthWidth      = 640
	defaultDepthHeight     = 320
)

var defaultImproveTick = decimal.New(1, -2)

// Config holds every application setting.
// After LoadConfig reads the file, sensitive values may be overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Venue struct {
		WSURL           string `yaml:"ws_url"`
		AuthToken       string `yaml:"auth_token"`
		ActAs           string `yaml:"act_as"`
		ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
		PingIntervalSec int    `yaml:"ping_interval_sec"`
		InboxSize       int    `yaml:"inbox_size"`
	} `yaml:"venue"`

	Storage struct {
		Enabled     bool   `yaml:"enabled"`
		JournalPath string `yaml:"journal_path"`
	} `yaml:"storage"`

	UI struct {
		ImproveTick decimal.Decimal `yaml:"improve_tick"`
		DepthWidth  int             `yaml:"depth_width"`
		DepthHeight int             `yaml:"depth_height"`
	} `yaml:"ui"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Secrets come from the environment when present. A .env file beside the
	// config fills in variables the process environment does not already set.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Venue.ReadTimeoutSec == 0 {
		cfg.Venue.ReadTimeoutSec = defaultReadTimeoutSec
	}
	if cfg.Venue.PingIntervalSec == 0 {
		cfg.Venue.PingIntervalSec = defaultPingIntervalSec
	}
	if cfg.Venue.InboxSize == 0 {
		cfg.Venue.InboxSize = defaultInboxSize
	}
	if cfg.UI.ImproveTick.IsZero() {
		cfg.UI.ImproveTick = defaultImproveTick
	}
	if cfg.UI.DepthWidth == 0 {
		cfg.UI.DepthWidth = defaultDepthWidth
	}
	if cfg.UI.DepthHeight == 0 {
		cfg.UI.DepthHeight = defaultDepthHeight
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Storage.JournalPath == "" {
		cfg.Storage.JournalPath = "data/journal.db"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Venue.WSURL == "" || (!strings.HasPrefix(c.Venue.WSURL, "ws://") && !strings.HasPrefix(c.Venue.WSURL, "wss://")) {
		return &domain.ConfigError{Field: "venue.ws_url", Err: fmt.Errorf("invalid websocket URL %q", c.Venue.WSURL)}
	}
	if c.Venue.ReadTimeoutSec <= 0 {
		return &domain.ConfigError{Field: "venue.read_timeout_sec", Err: fmt.Errorf("must be positive")}
	}
	if c.Venue.PingIntervalSec <= 0 || c.Venue.PingIntervalSec >= c.Venue.ReadTimeoutSec {
		return &domain.ConfigError{Field: "venue.ping_interval_sec", Err: fmt.Errorf("must be positive and below read timeout")}
	}
	if c.Venue.InboxSize <= 0 {
		return &domain.ConfigError{Field: "venue.inbox_size", Err: fmt.Errorf("must be positive")}
	}
	if !c.UI.ImproveTick.IsPositive() {
		return &domain.ConfigError{Field: "ui.improve_tick", Err: fmt.Errorf("must be positive")}
	}
	if c.UI.DepthWidth <= 0 || c.UI.DepthHeight <= 0 {
		return &domain.ConfigError{Field: "ui.depth", Err: fmt.Errorf("dimensions must be positive")}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// overrideWithEnv replaces values with environment variables when they are set.
func overrideWithEnv(cfg *Config) {
	if token := os.Getenv("TRADEDESK_TOKEN"); token != "" {
		cfg.Venue.AuthToken = token
	}
	if url := os.Getenv("TRADEDESK_WS_URL"); url != "" {
		cfg.Venue.WSURL = url
	}
	if actAs := os.Getenv("TRADEDESK_ACT_AS"); actAs != "" {
		cfg.Venue.ActAs = actAs
	}
}
