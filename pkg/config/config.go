// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// dictionary source, the solver, the HTTP service and its backing stores.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Dictionary source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Solver     SolverConfig     `yaml:"solver"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is the number of requests per minute allowed per client IP.
	// Zero disables limiting.
	RateLimit int `yaml:"rateLimit"`
}

// DictionaryConfig selects where the word list is read from. For the file
// source Path names a text file with one word per line; for the postgres
// source words are read from Table, filtered by Lexicon when it is set.
type DictionaryConfig struct {
	Source  string `yaml:"source"`
	Path    string `yaml:"path"`
	Table   string `yaml:"table"`
	Lexicon string `yaml:"lexicon"`
}

// SolverConfig controls sub-anagram enumeration.
type SolverConfig struct {
	// MaxQueryLength rejects longer query words at the service edge.
	// Zero disables the limit.
	MaxQueryLength int           `yaml:"maxQueryLength"`
	Timeout        time.Duration `yaml:"timeout"`
	Prune          bool          `yaml:"prune"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SolveEvents string `yaml:"solveEvents"`
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// AnalyticsConfig controls solve-event publishing and aggregation.
type AnalyticsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	BufferSize       int           `yaml:"bufferSize"`
	BatchSize        int           `yaml:"batchSize"`
	FlushInterval    time.Duration `yaml:"flushInterval"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
	// Port is where the analytics service serves its HTTP API.
	Port int `yaml:"port"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults. The result is validated before it is
// returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Dictionary: DictionaryConfig{
			Source: SourceFile,
			Path:   "data/word_list.txt",
			Table:  "dictionary_words",
		},
		Solver: SolverConfig{
			MaxQueryLength: 24,
			Timeout:        10 * time.Second,
			Prune:          true,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "jumble",
			User:            "jumble",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "jumble-analytics",
			Topics: KafkaTopics{
				SolveEvents: "jumble.solve-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			BatchSize:        100,
			FlushInterval:    time.Second,
			SnapshotInterval: time.Minute,
			Port:             8081,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	switch c.Dictionary.Source {
	case SourceFile:
		if c.Dictionary.Path == "" {
			return fmt.Errorf("dictionary.path is required for the %q source", SourceFile)
		}
	case SourcePostgres:
		if c.Dictionary.Table == "" {
			return fmt.Errorf("dictionary.table is required for the %q source", SourcePostgres)
		}
		if !c.Postgres.Enabled {
			return fmt.Errorf("dictionary source %q requires postgres.enabled", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown dictionary source %q", c.Dictionary.Source)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rateLimit must not be negative")
	}
	if c.Solver.MaxQueryLength < 0 {
		return fmt.Errorf("solver.maxQueryLength must not be negative")
	}
	if c.Analytics.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("analytics requires at least one kafka broker")
	}
	return nil
}

// applyEnvOverrides reads JUMBLE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JUMBLE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JUMBLE_SERVER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("JUMBLE_DICTIONARY_SOURCE"); v != "" {
		cfg.Dictionary.Source = v
	}
	if v := os.Getenv("JUMBLE_DICTIONARY_PATH"); v != "" {
		cfg.Dictionary.Path = v
	}
	if v := os.Getenv("JUMBLE_DICTIONARY_LEXICON"); v != "" {
		cfg.Dictionary.Lexicon = v
	}
	if v := os.Getenv("JUMBLE_SOLVER_MAX_QUERY_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Solver.MaxQueryLength = n
		}
	}
	if v := os.Getenv("JUMBLE_SOLVER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Solver.Timeout = d
		}
	}
	if v := os.Getenv("JUMBLE_POSTGRES_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Postgres.Enabled = b
		}
	}
	if v := os.Getenv("JUMBLE_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("JUMBLE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("JUMBLE_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("JUMBLE_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("JUMBLE_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("JUMBLE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("JUMBLE_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("JUMBLE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("JUMBLE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JUMBLE_ANALYTICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Analytics.Enabled = b
		}
	}
	if v := os.Getenv("JUMBLE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JUMBLE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
