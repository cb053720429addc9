package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Datacube database credentials. Host and port are optional and omitted
	// from the connection string when unset, letting libpq defaults apply.
	DatabaseName     string `env:"AGDC_DATABASE,required"`
	DatabaseUser     string `env:"AGDC_USER,required"`
	DatabasePassword string `env:"AGDC_PASSWORD,required"`
	DatabaseHost     string `env:"AGDC_HOST"`
	DatabasePort     int    `env:"AGDC_PORT"`

	// SearchPath is applied to every connection; the datacube schema lives
	// outside the public schema.
	SearchPath string `env:"AGDC_SEARCH_PATH" envDefault:"gis,topology,ztmp,public"`

	// FetchSize is the number of rows an iterator buffers per batch.
	FetchSize int `env:"QUERY_FETCH_SIZE" envDefault:"100"`

	// QueryTimeout sets a server-side statement timeout. Zero disables it.
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT" envDefault:"0s"`

	// RedisAddr enables the cell-list cache when set (redis URL).
	RedisAddr    string        `env:"REDIS_ADDR"`
	CellCacheTTL time.Duration `env:"CELL_CACHE_TTL" envDefault:"5m"`

	APIServerAddr   string `env:"API_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr string `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN builds a keyword/value connection string from the credentials.
func (c *Config) DSN() string {
	parts := []string{}

	if c.DatabaseHost != "" {
		parts = append(parts, "host="+c.DatabaseHost)
	}
	if c.DatabasePort != 0 {
		parts = append(parts, fmt.Sprintf("port=%d", c.DatabasePort))
	}

	parts = append(parts,
		"dbname="+c.DatabaseName,
		"user="+c.DatabaseUser,
		"password="+c.DatabasePassword,
	)

	return strings.Join(parts, " ")
}
