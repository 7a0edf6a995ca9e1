package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		APIKey          string        `yaml:"apiKey"`
		RateLimit       int           `yaml:"rateLimit" validate:"min=0"` // scan requests per minute, 0 disables
		MaxUploadMB     int           `yaml:"maxUploadMB" validate:"min=1"`
	} `yaml:"server"`

	AI struct {
		Mode      string `yaml:"mode" validate:"omitempty,oneof=live demo auto"`
		APIKey    string `yaml:"apiKey"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"baseURL" validate:"omitempty,url"`
		MaxTokens int    `yaml:"maxTokens" validate:"min=0"`
		MaxRows   int    `yaml:"maxRows" validate:"min=0"`
		Currency  string `yaml:"currency"`
	} `yaml:"ai"`

	Store struct {
		Driver string `yaml:"driver" validate:"oneof=memory sqlite mysql postgres"`
		DSN    string `yaml:"dsn"`
		Path   string `yaml:"path"` // sqlite file

		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"store"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint" validate:"required_if=Enabled true"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName" validate:"required_if=Enabled true"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		Prefix     string `yaml:"prefix"`
	} `yaml:"minio"`

	Log struct {
		Level      string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
		Format     string `yaml:"format" validate:"omitempty,oneof=json console"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMB" validate:"min=0"`
		MaxBackups int    `yaml:"maxBackups" validate:"min=0"`
	} `yaml:"log"`
}

// Default returns a config that runs locally with a sqlite store and
// auto-selected AI mode.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 5 * time.Minute
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.CORSOrigins = []string{"*"}
	c.Server.RateLimit = 30
	c.Server.MaxUploadMB = 10
	c.AI.Mode = "auto"
	c.AI.Model = "gpt-4o-mini"
	c.AI.MaxTokens = 2048
	c.AI.MaxRows = 200
	c.AI.Currency = "RM"
	c.Store.Driver = "sqlite"
	c.Store.Path = "data/ledger.db"
	c.Log.Level = "info"
	c.Log.Format = "json"
	return &c
}

// Load baca file config.yaml di atas default. File yang tidak ada bukan error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("LEDGER_OPENAI_API_KEY", &c.AI.APIKey)
	str("LEDGER_AI_MODE", &c.AI.Mode)
	str("LEDGER_STORE_DRIVER", &c.Store.Driver)
	str("LEDGER_STORE_DSN", &c.Store.DSN)
	str("LEDGER_API_KEY", &c.Server.APIKey)
	if v, ok := lookup("LEDGER_SERVER_PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEDGER_SERVER_PORT: %w", err)
		}
		c.Server.Port = p
	}
	c.AI.Mode = strings.ToLower(strings.TrimSpace(c.AI.Mode))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Store.User,
		c.Store.Password,
		c.Store.Host,
		c.Store.Port,
		c.Store.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Store.User, c.Store.Password),
		Host:     fmt.Sprintf("%s:%d", c.Store.Host, c.Store.Port),
		Path:     "/" + c.Store.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SQLitePath prefers the DSN when one is set.
func (c *Config) SQLitePath() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return c.Store.Path
}
