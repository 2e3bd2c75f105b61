package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers accepted by Config.Storage.Driver.
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the analysis service, the local
// stores, the HTTP server, the database connection and graceful shutdown.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the level implied by Environment when set
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// Backend configures the remote analysis service
	Backend struct {
		// BaseURL is prepended to the analysis endpoint path
		BaseURL string `env:"BACKEND_BASE_URL" env-default:"http://localhost:8080/api" yaml:"baseURL"`
		// FallbackToSynthetic serves a synthetic result when the service cannot be reached
		FallbackToSynthetic bool `env:"BACKEND_FALLBACK_TO_SYNTHETIC" env-default:"false" yaml:"fallbackToSynthetic"`
	} `yaml:"backend"`

	// Cache configures the result cache
	Cache struct {
		// TTL is the lifetime of a cached analysis
		TTL time.Duration `env:"CACHE_TTL" env-default:"30m" yaml:"ttl"`
	} `yaml:"cache"`

	// History configures the analysis history
	History struct {
		// MaxEntries is the number of most recent entries kept
		MaxEntries int `env:"HISTORY_MAX_ENTRIES" env-default:"1000" yaml:"maxEntries"`
		// AutoCleanDays drops entries older than this many days at startup, a negative value disables it
		AutoCleanDays int `env:"HISTORY_AUTO_CLEAN_DAYS" env-default:"7" yaml:"autoCleanDays"`
		// RetentionDays drops entries older than this many days on every maintenance run, 0 or less disables it
		RetentionDays int `env:"HISTORY_RETENTION_DAYS" env-default:"0" yaml:"retentionDays"`
	} `yaml:"history"`

	// Comparison configures the comparison store
	Comparison struct {
		// ListLimit is the number of comparisons returned when listing
		ListLimit int `env:"COMPARISON_LIST_LIMIT" env-default:"20" yaml:"listLimit"`
		// MaxEntries caps the stored comparisons, a negative value disables the cap
		MaxEntries int `env:"COMPARISON_MAX_ENTRIES" env-default:"100" yaml:"maxEntries"`
	} `yaml:"comparison"`

	// Storage selects where the stores persist their data
	Storage struct {
		// Driver is either bolt or postgres
		Driver string `env:"STORAGE_DRIVER" env-default:"bolt" yaml:"driver"`
		// Path is the bolt database file
		Path string `env:"STORAGE_PATH" env-default:"ipinsight.db" yaml:"path"`
		// Timeout bounds how long opening the bolt file waits for its lock
		Timeout time.Duration `env:"STORAGE_TIMEOUT" env-default:"1s" yaml:"timeout"`
	} `yaml:"storage"`

	// Maintenance configures the background janitor of the serve command
	Maintenance struct {
		// Interval between two maintenance runs
		Interval time.Duration `env:"MAINTENANCE_INTERVAL" env-default:"10m" yaml:"interval"`
		// MaxWorkers is the size of the River worker pool with the postgres driver
		MaxWorkers int `env:"MAINTENANCE_MAX_WORKERS" env-default:"1" yaml:"maxWorkers"`
	} `yaml:"maintenance"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8081" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"1m" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"ipinsight" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
// A missing file is not an error: the config is then read from the environment.
func Load(configPath string) (*Config, error) {
	var cfg Config

	var err error
	if _, statErr := os.Stat(configPath); errors.Is(statErr, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverBolt, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.maxEntries must be positive, got %d", c.History.MaxEntries)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Maintenance.Interval <= 0 {
		return errors.New("maintenance.interval must be positive")
	}

	return nil
}
