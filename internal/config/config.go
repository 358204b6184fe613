package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		ENV  string `yaml:"env"`
		Name string `yaml:"name"`
	} `yaml:"app"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Component string `yaml:"component"`
		Source    bool   `yaml:"source"`
	} `yaml:"log"`

	DB struct {
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"db"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	HTTP struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"http"`

	GRPC struct {
		Host string `yaml:"host"`
		Port string `yaml:"port"`
	} `yaml:"grpc"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	Discovery struct {
		CandidateCap int   `yaml:"candidate_cap"`
		Seed         int64 `yaml:"seed"`
	} `yaml:"discovery"`

	Notify struct {
		Driver       string        `yaml:"driver"`
		AMQPURL      string        `yaml:"amqp_url"`
		AMQPExchange string        `yaml:"amqp_exchange"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"notify"`

	Tracing struct {
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`

	Sentry struct {
		DSN string `yaml:"dsn"`
	} `yaml:"sentry"`
}

// New builds the config from CONFIG_FILE (when set) and the environment.
// A broken config file is ignored here; use Load to surface the error.
func New() *Config {
	cfg, err := Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		cfg, _ = Load("")
	}
	return cfg
}

// Load reads an optional YAML file and then applies environment overrides.
// Precedence: env > file > defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", orDefault(cfg.App.ENV, "development"))
	cfg.App.Name = getEnvDefault("APP_NAME", orDefault(cfg.App.Name, "h1bee-match"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", orDefault(cfg.Log.Level, "info"))
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", orDefault(cfg.Log.Format, "text"))
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", orDefault(cfg.Log.Component, "h1bee_match"))
	if v, ok := os.LookupEnv("LOG_SOURCE"); ok {
		cfg.Log.Source = isTruthy(v)
	}

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", orDefault(cfg.DB.Driver, "mysql")))
	cfg.DB.LogLevel = getEnvDefault("DB_LOG_LEVEL", orDefault(cfg.DB.LogLevel, "warn"))
	cfg.DB.DSN = getEnvDefault("DB_DSN", getEnvDefault("MYSQL_DSN", cfg.DB.DSN))
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", orDefault(cfg.DB.Host, "localhost"))
		cfg.DB.User = getEnvDefault("DB_USER", orDefault(cfg.DB.User, "root"))
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", orDefault(cfg.DB.Password, "root"))
		cfg.DB.Name = getEnvDefault("DB_NAME", orDefault(cfg.DB.Name, "h1bee"))

		switch cfg.DB.Driver {
		case "postgres":
			cfg.DB.Port = getEnvDefault("DB_PORT", orDefault(cfg.DB.Port, "5432"))
			cfg.DB.DSN = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
				cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port,
			)
		case "sqlite":
			cfg.DB.DSN = "file:" + cfg.DB.Name + ".db?_foreign_keys=on"
		default:
			cfg.DB.Port = getEnvDefault("DB_PORT", orDefault(cfg.DB.Port, "3306"))
			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", orDefault(cfg.Redis.Addr, "localhost:6379"))
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	if dbStr := getEnvDefault("REDIS_DB", ""); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", orDefault(cfg.HTTP.Host, "0.0.0.0"))
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", orDefault(cfg.HTTP.Port, "3001"))

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", orDefault(cfg.GRPC.Host, "127.0.0.1"))
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", orDefault(cfg.GRPC.Port, "50051"))

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", cfg.Auth.JWTSecret)

	// Discovery
	cfg.Discovery.CandidateCap = getEnvInt("DISCOVERY_CANDIDATE_CAP", cfg.Discovery.CandidateCap)
	if cfg.Discovery.CandidateCap <= 0 {
		cfg.Discovery.CandidateCap = 50
	}
	if v := getEnvDefault("DISCOVERY_SEED", ""); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Discovery.Seed = seed
		}
	}

	// Notifications
	cfg.Notify.Driver = strings.ToLower(getEnvDefault("NOTIFY_DRIVER", orDefault(cfg.Notify.Driver, "redis")))
	cfg.Notify.AMQPURL = getEnvDefault("AMQP_URL", cfg.Notify.AMQPURL)
	cfg.Notify.AMQPExchange = getEnvDefault("AMQP_EXCHANGE", orDefault(cfg.Notify.AMQPExchange, "h1bee.events"))
	if v := getEnvDefault("NOTIFY_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Notify.Timeout = d
		}
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = 2 * time.Second
	}

	// Tracing
	cfg.Tracing.Endpoint = getEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.ServiceName = getEnvDefault("OTEL_SERVICE_NAME", orDefault(cfg.Tracing.ServiceName, cfg.App.Name))

	// Sentry
	cfg.Sentry.DSN = getEnvDefault("SENTRY_DSN", cfg.Sentry.DSN)

	return cfg, nil
}

// Validate reports settings that must be present outside development.
func (c *Config) Validate() error {
	if c.App.ENV != "development" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in %s", c.App.ENV)
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	switch c.Notify.Driver {
	case "redis", "amqp", "none":
	default:
		return fmt.Errorf("unsupported NOTIFY_DRIVER %q", c.Notify.Driver)
	}
	return nil
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
