package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port         int           `yaml:"port"`
		Timeout      time.Duration `yaml:"timeout"`
		RateLimit    float64       `yaml:"rate_limit"`
		RateBurst    int           `yaml:"rate_burst"`
		MaxBodyBytes int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Model struct {
		Source    string `yaml:"source"`
		Path      string `yaml:"path"`
		Database  string `yaml:"database"`
		Name      string `yaml:"name"`
		Watch     bool   `yaml:"watch"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"model"`
	UI struct {
		Title    string   `yaml:"title"`
		Subtitle string   `yaml:"subtitle"`
		Project  string   `yaml:"project"`
		Members  []string `yaml:"members"`
	} `yaml:"ui"`
}

const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Load reads path, fills defaults and applies environment overrides. A missing
// file is not an error; the defaults are used instead.
func Load(path string) (*Config, error) {
	config := &Config{}
	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			if err := yaml.NewDecoder(file).Decode(config); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	config.applyDefaults()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyDefaults fills unset (zero) settings. A negative http.timeout,
// http.rate_limit or model.cache_size is kept and turns that feature off.
func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 8080
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if c.Http.RateLimit == 0 {
		c.Http.RateLimit = 20
	}
	if c.Http.RateBurst == 0 {
		c.Http.RateBurst = 40
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = 64 << 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.Model.Source == "" {
		c.Model.Source = SourceFile
	}
	if c.Model.Path == "" {
		c.Model.Path = "models/classifier.json"
	}
	if c.Model.Name == "" {
		c.Model.Name = "classifier"
	}
	if c.Model.CacheSize == 0 {
		c.Model.CacheSize = 1024
	}
	if c.UI.Title == "" {
		c.UI.Title = "Bank Term Deposit Prediction"
	}
	if c.UI.Subtitle == "" {
		c.UI.Subtitle = "Welcome to the Term Deposit Predictor App"
	}
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Http.Port = p
	}
	if path := os.Getenv("MODEL_PATH"); path != "" {
		c.Model.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("http.port %d out of range", c.Http.Port))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Model.Source {
	case SourceFile:
		if c.Model.Path == "" {
			err = multierr.Append(err, errors.New("model.path is required for file source"))
		}
	case SourceSQLite:
		if c.Model.Database == "" {
			err = multierr.Append(err, errors.New("model.database is required for sqlite source"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("model.source %q is not one of file, sqlite", c.Model.Source))
	}
	return err
}
