package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Cache      CacheConfig      `yaml:"cache"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Sources    []SourceConfig   `yaml:"sources"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"` // CORS; empty means "*"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`   // optional second sink, always JSON
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite (default) or postgres
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

type CacheConfig struct {
	Backend  string        `yaml:"backend"` // memory (default), file or redis
	TTL      time.Duration `yaml:"ttl"`
	Path     string        `yaml:"path"`      // file backend
	RedisURL string        `yaml:"redis_url"` // redis backend
	Key      string        `yaml:"key"`       // redis key
}

type AggregatorConfig struct {
	Timezone      string        `yaml:"timezone"`       // game days and start times are rendered in this zone
	ScrapeDelay   time.Duration `yaml:"scrape_delay"`   // pause between consecutive scrape sources
	SourceTimeout time.Duration `yaml:"source_timeout"` // upper bound for one source fetch
	RefreshCron   string        `yaml:"refresh_cron"`   // background refresh schedule; empty disables it
	EventDays     int           `yaml:"event_days"`     // horizon for background event refresh
}

type ScheduleConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Groups  string        `yaml:"groups"`
}

// SourceConfig describes one upstream. Type selects the adapter from the
// sources registry; Name is the source identifier stored with every line.
type SourceConfig struct {
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type"` // espn_api, html_table, browser
	Priority  int           `yaml:"priority"`
	Disabled  bool          `yaml:"disabled"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	MinDelay  time.Duration `yaml:"min_delay"`

	// espn_api
	Provider string `yaml:"provider"` // odds provider name; empty takes the first one
	Groups   string `yaml:"groups"`

	// html_table and browser
	RowSelector   string            `yaml:"row_selector"`
	ReadySelector string            `yaml:"ready_selector"` // browser only
	Selectors     map[string]string `yaml:"selectors"`      // browser field -> CSS selector within a row
	Headless      *bool             `yaml:"headless"`       // browser only, default true
}

type TelegramConfig struct {
	BotToken    string        `yaml:"bot_token"`
	ChatID      int64         `yaml:"chat_id"`
	MinInterval time.Duration `yaml:"min_interval"`
}

const (
	defaultPort          = 8080
	defaultCacheTTL      = 5 * time.Minute
	defaultScrapeDelay   = 2 * time.Second
	defaultSourceTimeout = 15 * time.Second
	defaultTimezone      = "America/New_York"
	defaultScheduleURL   = "https://site.api.espn.com/apis/site/v2/sports/football/college-football/scoreboard"
)

// Load reads the YAML config at configPath. A .env file in the working
// directory is loaded first; secrets in the environment override the file.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	applyDefaults(&config)
	if err := validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// a cache miss runs a full acquisition cycle inside the request
		c.Server.WriteTimeout = 2 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/ncaaf.db"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/gamelines_cache.json"
	}
	if c.Cache.Key == "" {
		c.Cache.Key = "ncaaf:gamelines"
	}
	if c.Aggregator.Timezone == "" {
		c.Aggregator.Timezone = defaultTimezone
	}
	if c.Aggregator.ScrapeDelay == 0 {
		c.Aggregator.ScrapeDelay = defaultScrapeDelay
	}
	if c.Aggregator.SourceTimeout == 0 {
		c.Aggregator.SourceTimeout = defaultSourceTimeout
	}
	if c.Aggregator.EventDays == 0 {
		c.Aggregator.EventDays = 7
	}
	if c.Schedule.URL == "" {
		c.Schedule.URL = defaultScheduleURL
	}
	if c.Schedule.Timeout == 0 {
		c.Schedule.Timeout = defaultSourceTimeout
	}
	if c.Telegram.MinInterval == 0 {
		c.Telegram.MinInterval = 30 * time.Minute
	}
	for i := range c.Sources {
		if c.Sources[i].Timeout == 0 {
			c.Sources[i].Timeout = c.Aggregator.SourceTimeout
		}
	}
}

func validate(c *Config) error {
	if _, err := time.LoadLocation(c.Aggregator.Timezone); err != nil {
		return fmt.Errorf("invalid aggregator timezone %q: %w", c.Aggregator.Timezone, err)
	}
	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Cache.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url is required for the redis backend")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" || s.Type == "" {
			return fmt.Errorf("source entries need a name and a type")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Location returns the configured aggregator time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Aggregator.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
