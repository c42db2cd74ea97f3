package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the folio service
type Config struct {
	Server struct {
		Host                 string        `mapstructure:"host"`
		Port                 int           `mapstructure:"port" validate:"min=1,max=65535"`
		TLS                  bool          `mapstructure:"tls"`
		CertFile             string        `mapstructure:"cert_file"`
		KeyFile              string        `mapstructure:"key_file"`
		TrustProxy           bool          `mapstructure:"trust_proxy"`
		TrustedProxyNetworks []string      `mapstructure:"trusted_proxy_networks" validate:"dive,cidr|ip"`
		ReadTimeout          time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
		WriteTimeout         time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
		ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
		RateLimit            struct {
			RequestsPerSecond int `mapstructure:"requests_per_second" validate:"gte=0"`
			Burst             int `mapstructure:"burst" validate:"gte=0"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"server"`

	App struct {
		Title           string `mapstructure:"title" validate:"required,max=128"`
		MountSelector   string `mapstructure:"mount_selector" validate:"required,startswith=#"`
		Base            string `mapstructure:"base" validate:"required,startswith=/"`
		RenderCacheSize int    `mapstructure:"render_cache_size" validate:"gte=0"`
	} `mapstructure:"app"`

	Security struct {
		EnableCSP  bool `mapstructure:"enable_csp"`
		EnableHSTS bool `mapstructure:"enable_hsts"`
	} `mapstructure:"security"`

	Logging struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=console json"`
	} `mapstructure:"logging"`
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_file", "server.crt")
	v.SetDefault("server.key_file", "server.key")
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("server.trusted_proxy_networks", []string{})
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.rate_limit.requests_per_second", 50)
	v.SetDefault("server.rate_limit.burst", 100)

	v.SetDefault("app.title", "Folio")
	v.SetDefault("app.mount_selector", "#app")
	v.SetDefault("app.base", "/")
	v.SetDefault("app.render_cache_size", 32)

	v.SetDefault("security.enable_csp", true)
	v.SetDefault("security.enable_hsts", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// loadFromEnv sets up environment variable loading. A .env file in the
// working directory is applied first without overriding the real environment.
func loadFromEnv(v *viper.Viper) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "FOLIO_PORT", "PORT")
	_ = v.BindEnv("app.base", "FOLIO_BASE")
	_ = v.BindEnv("logging.level", "FOLIO_LOG_LEVEL")
	return nil
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches for config.yaml in . and ./config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	if err := loadFromEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, will use defaults and env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

var validate = validator.New()

// validateConfig validates struct tags and the rules tags cannot express
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	if config.Server.TLS {
		if config.Server.CertFile == "" || config.Server.KeyFile == "" {
			return fmt.Errorf("server.tls requires cert_file and key_file")
		}
		if _, err := os.Stat(config.Server.CertFile); err != nil {
			return fmt.Errorf("server.cert_file %s: %w", config.Server.CertFile, err)
		}
		if _, err := os.Stat(config.Server.KeyFile); err != nil {
			return fmt.Errorf("server.key_file %s: %w", config.Server.KeyFile, err)
		}
	}

	if config.Server.RateLimit.RequestsPerSecond > 0 && config.Server.RateLimit.Burst == 0 {
		return fmt.Errorf("server.rate_limit.burst must be positive when requests_per_second is set")
	}

	if strings.ContainsAny(config.App.Base, "?#") {
		return fmt.Errorf("app.base must be a plain path, got %q", config.App.Base)
	}

	if strings.ContainsAny(config.App.MountSelector[1:], " .[]:>") {
		return fmt.Errorf("app.mount_selector must be an id selector, got %q", config.App.MountSelector)
	}

	return nil
}
