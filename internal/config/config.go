package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the grid engine.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Grid    GridConfig    `yaml:"grid"`
	Store   StoreConfig   `yaml:"store"`
	Payroll PayrollConfig `yaml:"payroll"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls gRPC listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// GridConfig sizes the synthetic record set and the paging window.
type GridConfig struct {
	Records   int           `yaml:"records"`
	PageSize  int           `yaml:"pageSize"`
	PageDelay time.Duration `yaml:"pageDelay"`
	Seed      uint64        `yaml:"seed"`
}

// StoreConfig selects the annotation persistence backend.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	Key      string         `yaml:"key"`
	Timeout  time.Duration  `yaml:"timeout"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
	Badger   BadgerConfig   `yaml:"badger"`
}

// ValkeyConfig configures the Valkey/Redis backend.
type ValkeyConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Prefix       string        `yaml:"prefix"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// BadgerConfig configures the embedded Badger backend.
type BadgerConfig struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"inMemory"`
	SyncWrites bool   `yaml:"syncWrites"`
}

// PayrollConfig configures salary reconciliation. An empty BaseURL selects
// the logging mock.
type PayrollConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	Path      string        `yaml:"path"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queueSize"`
	Workers   int           `yaml:"workers"`
	MockDelay time.Duration `yaml:"mockDelay"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("DATAGRID_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Grid.PageSize <= 0 {
		return fmt.Errorf("grid.pageSize must be positive, got %d", c.Grid.PageSize)
	}
	if c.Grid.Records < 0 {
		return fmt.Errorf("grid.records must not be negative, got %d", c.Grid.Records)
	}
	if c.Payroll.Workers <= 0 || c.Payroll.QueueSize <= 0 {
		return errors.New("payroll.workers and payroll.queueSize must be positive")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Grid: GridConfig{
			Records:   1000,
			PageSize:  20,
			PageDelay: 800 * time.Millisecond,
			Seed:      1,
		},
		Store: StoreConfig{
			Driver:  "memory",
			Key:     "gridComments",
			Timeout: 2 * time.Second,
			Valkey: ValkeyConfig{
				Prefix:       "datagrid:",
				DialTimeout:  2 * time.Second,
				ReadTimeout:  500 * time.Millisecond,
				WriteTimeout: 500 * time.Millisecond,
				MaxRetries:   2,
			},
			SQLite: SQLiteConfig{Path: "data/datagrid.db"},
			Badger: BadgerConfig{Path: "data/badger", SyncWrites: true},
		},
		Payroll: PayrollConfig{
			Path:      "/v1/api/updatesalary",
			Timeout:   5 * time.Second,
			QueueSize: 64,
			Workers:   2,
			MockDelay: time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Address, "DATAGRID_SERVER_ADDRESS")
	setString(&cfg.Server.MetricsAddress, "DATAGRID_METRICS_ADDRESS")
	setDuration(&cfg.Server.GracefulTimeout, "DATAGRID_GRACEFUL_TIMEOUT")

	setInt(&cfg.Grid.Records, "DATAGRID_RECORDS")
	setInt(&cfg.Grid.PageSize, "DATAGRID_PAGE_SIZE")
	setDuration(&cfg.Grid.PageDelay, "DATAGRID_PAGE_DELAY")
	if v := os.Getenv("DATAGRID_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Grid.Seed = seed
		}
	}

	setString(&cfg.Store.Driver, "DATAGRID_STORE_DRIVER")
	setString(&cfg.Store.Key, "DATAGRID_STORE_KEY")
	setString(&cfg.Store.Valkey.Addr, "DATAGRID_VALKEY_ADDR")
	setString(&cfg.Store.Valkey.Username, "DATAGRID_VALKEY_USERNAME")
	setString(&cfg.Store.Valkey.Password, "DATAGRID_VALKEY_PASSWORD")
	setInt(&cfg.Store.Valkey.DB, "DATAGRID_VALKEY_DB")
	setBool(&cfg.Store.Valkey.TLS, "DATAGRID_VALKEY_TLS")
	setString(&cfg.Store.SQLite.Path, "DATAGRID_SQLITE_PATH")
	setString(&cfg.Store.Postgres.DSN, "DATAGRID_POSTGRES_DSN")
	setString(&cfg.Store.Badger.Path, "DATAGRID_BADGER_PATH")

	setString(&cfg.Payroll.BaseURL, "DATAGRID_PAYROLL_BASE_URL")
	setDuration(&cfg.Payroll.Timeout, "DATAGRID_PAYROLL_TIMEOUT")
	setDuration(&cfg.Payroll.MockDelay, "DATAGRID_PAYROLL_MOCK_DELAY")

	setString(&cfg.Logging.Level, "DATAGRID_LOG_LEVEL")
	if v := os.Getenv("DATAGRID_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}
