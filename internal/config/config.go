package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultContentModel generates the product text
	DefaultContentModel = "gemini-2.5-flash"
	// DefaultImageModel generates the cover
	DefaultImageModel = "gemini-2.5-flash-image"
	// DefaultConfigPath is read when PRODUCT_STUDIO_CONFIG is unset; a missing file is not an error
	DefaultConfigPath = "config.yaml"
)

// ErrConfiguration means the service cannot start
var ErrConfiguration = errors.New("configuration error")

// Config holds everything the server needs at startup
type Config struct {
	APIKey string `yaml:"-"`
	Env    string `yaml:"env"`
	Port   string `yaml:"port"`

	ContentModel       string  `yaml:"content_model"`
	ImageModel         string  `yaml:"image_model"`
	ContentTemperature float32 `yaml:"content_temperature"`
	CoverAspectRatio   string  `yaml:"cover_aspect_ratio"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	SessionTTL        time.Duration `yaml:"session_ttl"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"` // 0 disables
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`
	RateLimitBurst    int           `yaml:"rate_limit_burst"`
	DailyQuota        int64         `yaml:"daily_quota"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Port:               "8080",
		ContentModel:       DefaultContentModel,
		ImageModel:         DefaultImageModel,
		ContentTemperature: 0.9,
		CoverAspectRatio:   "3:4",
		SessionTTL:         2 * time.Hour,
		RateLimitInterval:  10 * time.Second,
		RateLimitBurst:     1,
		DailyQuota:         500,
	}
}

// IsProduction reports whether ENV=production
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load builds the config from defaults, the optional YAML file and the environment.
// A missing API key is a fatal ErrConfiguration.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	path := getenv("PRODUCT_STUDIO_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return Config{}, err
	}

	if err := cfg.mergeEnv(getenv); err != nil {
		return Config{}, err
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrConfiguration)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: failed to parse config file %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) error {
	c.APIKey = getenv("GEMINI_API_KEY")
	if c.APIKey == "" {
		c.APIKey = getenv("API_KEY")
	}

	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString("ENV", &c.Env)
	setString("PORT", &c.Port)
	setString("CONTENT_MODEL", &c.ContentModel)
	setString("IMAGE_MODEL", &c.ImageModel)

	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}
	if v := getenv("CLOUD_RUN_URL"); v != "" {
		c.AllowedOrigins = append(c.AllowedOrigins, v)
	}

	for key, dst := range map[string]*time.Duration{
		"SESSION_TTL":         &c.SessionTTL,
		"GENERATION_TIMEOUT":  &c.GenerationTimeout,
		"RATE_LIMIT_INTERVAL": &c.RateLimitInterval,
	} {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfiguration, key, err)
		}
		*dst = d
	}

	if v := getenv("DAILY_QUOTA"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: DAILY_QUOTA: %v", ErrConfiguration, err)
		}
		c.DailyQuota = n
	}
	return nil
}

func (c Config) validate() error {
	switch {
	case c.ContentModel == "" || c.ImageModel == "":
		return fmt.Errorf("%w: model names must not be empty", ErrConfiguration)
	case c.SessionTTL <= 0:
		return fmt.Errorf("%w: session_ttl must be positive", ErrConfiguration)
	case c.GenerationTimeout < 0:
		return fmt.Errorf("%w: generation_timeout must not be negative", ErrConfiguration)
	case c.RateLimitInterval <= 0 || c.RateLimitBurst < 1:
		return fmt.Errorf("%w: rate limit must allow at least one request", ErrConfiguration)
	case c.DailyQuota < 1:
		return fmt.Errorf("%w: daily_quota must be positive", ErrConfiguration)
	}
	return nil
}
