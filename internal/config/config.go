package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Token store backends
const (
	TokenBackendFile   = "file"
	TokenBackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	MerchantAPI MerchantAPIConfig `mapstructure:"merchant_api"`
	Tokens      TokensConfig      `mapstructure:"tokens"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// WebhookConfig holds the inbound endpoint paths
type WebhookConfig struct {
	Path        string `mapstructure:"path"`
	AuthPath    string `mapstructure:"auth_path"`
	EchoPayload bool   `mapstructure:"echo_payload"`
}

// MerchantAPIConfig holds the REST API used for detail lookups
type MerchantAPIConfig struct {
	Server  string        `mapstructure:"server"` // e.g. https://apidev1.dev.clover.com:443
	Timeout time.Duration `mapstructure:"timeout"`
}

// TokensConfig selects and locates the access token store
type TokensConfig struct {
	Backend  string `mapstructure:"backend"`
	DirEnv   string `mapstructure:"dir_env"` // name of an env var holding the token directory, e.g. OPENSHIFT_DATA_DIR
	FileName string `mapstructure:"file_name"`
	DBPath   string `mapstructure:"db_path"`
}

// DispatchConfig controls handler fan-out
type DispatchConfig struct {
	Concurrent bool `mapstructure:"concurrent"`
	Async      bool `mapstructure:"async"` // acknowledge before handlers finish
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML file, a .env file and the environment.
// An empty configPath or a missing file falls back to defaults and environment.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding variables already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Webhook defaults
	v.SetDefault("webhook.path", "/webhook")
	v.SetDefault("webhook.auth_path", "/auth")
	v.SetDefault("webhook.echo_payload", true)

	// Merchant API defaults
	v.SetDefault("merchant_api.server", "")
	v.SetDefault("merchant_api.timeout", 10*time.Second)

	// Token store defaults
	v.SetDefault("tokens.backend", TokenBackendFile)
	v.SetDefault("tokens.dir_env", "")
	v.SetDefault("tokens.file_name", "access_tokens.json")
	v.SetDefault("tokens.db_path", "data/tokens.db")

	v.SetDefault("dispatch.concurrent", false)
	v.SetDefault("dispatch.async", false)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("merchant_api.server", "MERCHANT_API_SERVER")
	v.BindEnv("tokens.backend", "TOKENS_BACKEND")
	v.BindEnv("tokens.dir_env", "ACCESS_TOKEN_DIRECTORY_ENV_VAR")
	v.BindEnv("tokens.file_name", "ACCESS_TOKEN_FILE_NAME")
	v.BindEnv("logger.level", "LOG_LEVEL")
}

// TokenFilePath resolves the token file location.
// When DirEnv names an environment variable its value is used as a prefix.
func (c *Config) TokenFilePath() string {
	if c.Tokens.DirEnv == "" {
		return c.Tokens.FileName
	}
	return os.Getenv(c.Tokens.DirEnv) + c.Tokens.FileName
}

// DetailResolutionEnabled reports whether a merchant API server is configured
func (c *Config) DetailResolutionEnabled() bool {
	return c.MerchantAPI.Server != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if !strings.HasPrefix(c.Webhook.Path, "/") {
		return fmt.Errorf("webhook.path must start with /")
	}
	if c.Webhook.AuthPath != "" && !strings.HasPrefix(c.Webhook.AuthPath, "/") {
		return fmt.Errorf("webhook.auth_path must start with /")
	}
	if c.Webhook.AuthPath == c.Webhook.Path {
		return fmt.Errorf("webhook.auth_path must differ from webhook.path")
	}

	if c.MerchantAPI.Server != "" {
		if !strings.HasPrefix(c.MerchantAPI.Server, "http://") && !strings.HasPrefix(c.MerchantAPI.Server, "https://") {
			return fmt.Errorf("merchant_api.server must be an http(s) URL")
		}
		c.MerchantAPI.Server = strings.TrimSuffix(c.MerchantAPI.Server, "/")
	}
	if c.MerchantAPI.Timeout <= 0 {
		return fmt.Errorf("merchant_api.timeout must be positive")
	}

	switch c.Tokens.Backend {
	case TokenBackendFile:
		if c.Tokens.FileName == "" {
			return fmt.Errorf("tokens.file_name is required for the file backend")
		}
	case TokenBackendSQLite:
		if c.Tokens.DBPath == "" {
			return fmt.Errorf("tokens.db_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown tokens.backend %q", c.Tokens.Backend)
	}

	return nil
}
