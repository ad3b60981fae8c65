package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var (
	ErrEmptyBotToken   = errors.New("telegram bot token is required")
	ErrEmptyDBPassword = errors.New("database password is required")
	ErrUnknownDriver   = errors.New("unknown storage driver")
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	App     AppConfig     `yaml:"app" env-prefix:"APP_"`
	API     APIConfig     `yaml:"api" env-prefix:"API_"`
	Storage StorageConfig `yaml:"storage" env-prefix:"STORAGE_"`
	Bot     BotConfig     `yaml:"bot" env-prefix:"BOT_"`
	NATS    NATSConfig    `yaml:"nats" env-prefix:"NATS_"`
	HTTP    HTTPConfig    `yaml:"http" env-prefix:"HTTP_"`
}

type AppConfig struct {
	Name        string `yaml:"name" env:"NAME" env-default:"joke-browser"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"production"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL" env-default:"https://official-joke-api.appspot.com"`
	Path    string        `yaml:"path" env:"PATH" env-default:"/jokes/random/250"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"10s"`
}

func (a APIConfig) URL() string {
	return a.BaseURL + a.Path
}

type StorageConfig struct {
	Driver       string         `yaml:"driver" env:"DRIVER" env-default:"sqlite"`
	FavoritesKey string         `yaml:"favorites_key" env:"FAVORITES_KEY" env-default:"favoriteJokes"`
	File         FileConfig     `yaml:"file" env-prefix:"FILE_"`
	SQLite       SQLiteConfig   `yaml:"sqlite" env-prefix:"SQLITE_"`
	Postgres     DatabaseConfig `yaml:"postgres" env-prefix:"DB_"`
}

type FileConfig struct {
	Path string `yaml:"path" env:"PATH" env-default:"data/favorites.json"`
}

type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH" env-default:"data/jokes.db"`
}

type DatabaseConfig struct {
	Host           string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PORT" env-default:"5432"`
	User           string `yaml:"user" env:"USER" env-default:"jokes"`
	Password       string `yaml:"password" env:"PASSWORD"`
	Name           string `yaml:"name" env:"NAME" env-default:"jokes"`
	MaxConnections int    `yaml:"max_connections" env:"MAX_CONNECTIONS" env-default:"10"`
	MinConnections int    `yaml:"min_connections" env:"MIN_CONNECTIONS" env-default:"1"`
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

type BotConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Token        string        `yaml:"token" env:"TOKEN"`
	ParseMode    string        `yaml:"parse_mode" env:"PARSE_MODE" env-default:"Markdown"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL" env-default:"10s"`
}

type NATSConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
	URL        string `yaml:"url" env:"URL" env-default:"nats://localhost:4222"`
	StreamName string `yaml:"stream_name" env:"STREAM_NAME" env-default:"JOKES"`
}

type HTTPConfig struct {
	Enabled            bool     `yaml:"enabled" env:"ENABLED" env-default:"true"`
	Port               int      `yaml:"port" env:"PORT" env-default:"8080"`
	HealthEndpoint     string   `yaml:"health_endpoint" env:"HEALTH_ENDPOINT" env-default:"/healthz"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	var cfg Config

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Storage.Postgres.Password == "" {
			return ErrEmptyDBPassword
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}

	if c.Bot.Enabled && c.Bot.Token == "" {
		return ErrEmptyBotToken
	}

	return nil
}
