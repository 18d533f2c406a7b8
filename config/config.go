// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.StringP("config", "c", "config.toml", "Path to the TOML config file")

	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validEnvs      = []string{"development", "production", "test"}
	validDrivers   = []string{"memory", "sqlite", "postgres"}
	validAlgs      = []string{"HS256", "HS384", "HS512"}
)

type Config struct {
	App       AppConfig
	Host      HostConfig
	JWT       JWTConfig
	MagicLink MagicLinkConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Mail      MailConfig
	Storage   StorageConfig
	Security  SecurityConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type HostConfig struct {
	Port               int
	CORS               []string
	SSLEnabled         bool
	CertificatePath    string
	CertificateKeyPath string
	MaxBodySize        int64
}

type JWTConfig struct {
	Secret    string
	Algorithm string
	Expiry    time.Duration
	// Set when no secret was configured and one was generated for this process
	Generated bool
}

type MagicLinkConfig struct {
	BaseURL         string
	Expiry          time.Duration
	CleanupInterval time.Duration
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StorageConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

type SecurityConfig struct {
	RateLimit            float64
	RateBurst            int
	TurnstileEnabled     bool
	TurnstileSecretToken string
}

// IsDevelopment reports whether the app runs with development fallbacks
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup parses the command line flags and loads the config file the
// -config flag points to. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() (*Config, error) {
	pflag.Parse()

	vp := v.New()
	vp.BindPFlags(pflag.CommandLine)

	return Load(vp, *configPath)
}

// Load reads the configuration from the file at path and the environment.
// A missing file isn't an error, every setting has an env binding.
func Load(vp *v.Viper, path string) (*Config, error) {
	vp.SetConfigFile(path)
	vp.SetConfigType("toml")

	//
	// ENVS
	//
	vp.BindEnv("app.name", "APP_NAME")
	vp.BindEnv("app.version", "APP_VERSION")
	vp.BindEnv("app.env", "APP_ENV")
	vp.BindEnv("app.log_level", "APP_LOG_LEVEL")

	vp.BindEnv("host.port", "HOST_PORT")
	vp.BindEnv("host.cors", "HOST_CORS", "ALLOWED_ORIGINS")
	vp.BindEnv("host.max_body_size", "HOST_MAX_BODY_SIZE")

	vp.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	vp.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	vp.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	vp.BindEnv("jwt.secret", "JWT_SECRET", "SECRET_KEY")
	vp.BindEnv("jwt.algorithm", "JWT_ALGORITHM", "ALGORITHM")
	vp.BindEnv("jwt.expiry", "JWT_EXPIRY")

	vp.BindEnv("magic_link.base_url", "MAGIC_LINK_BASE_URL", "FRONTEND_URL")
	vp.BindEnv("magic_link.expiry", "MAGIC_LINK_EXPIRY")
	vp.BindEnv("magic_link.cleanup_interval", "MAGIC_LINK_CLEANUP_INTERVAL")

	vp.BindEnv("database.driver", "DATABASE_DRIVER")
	vp.BindEnv("database.path", "DATABASE_PATH")
	vp.BindEnv("database.url", "DATABASE_URL")

	vp.BindEnv("redis.addr", "REDIS_ADDR")
	vp.BindEnv("redis.password", "REDIS_PASSWORD")
	vp.BindEnv("redis.db", "REDIS_DB")

	vp.BindEnv("mail.enabled", "MAIL_ENABLED")
	vp.BindEnv("mail.host", "MAIL_HOST")
	vp.BindEnv("mail.port", "MAIL_PORT")
	vp.BindEnv("mail.username", "MAIL_USERNAME")
	vp.BindEnv("mail.password", "MAIL_PASSWORD")
	vp.BindEnv("mail.from", "MAIL_FROM")

	vp.BindEnv("storage.enabled", "STORAGE_ENABLED")
	vp.BindEnv("storage.bucket", "STORAGE_BUCKET")
	vp.BindEnv("storage.region", "STORAGE_REGION")
	vp.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	vp.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	vp.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	vp.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	vp.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	vp.BindEnv("security.rate_burst", "SECURITY_RATE_BURST")
	vp.BindEnv("security.turnstile.enabled", "TURNSTILE_ENABLED")
	vp.BindEnv("security.turnstile.secret_token", "TURNSTILE_SECRET_TOKEN")

	//
	// Defaults
	//
	vp.SetDefault("app.name", "Hungry Panda API")
	vp.SetDefault("app.version", "1.0.0")
	vp.SetDefault("app.env", "development")
	vp.SetDefault("app.log_level", "info")

	vp.SetDefault("host.port", 8080)
	vp.SetDefault("host.cors", []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:3000"})
	vp.SetDefault("host.max_body_size", 1<<20)
	vp.SetDefault("host.ssl.enabled", false)

	vp.SetDefault("jwt.algorithm", "HS256")
	vp.SetDefault("jwt.expiry", 7*24*time.Hour)

	vp.SetDefault("magic_link.base_url", "http://localhost:5173/")
	vp.SetDefault("magic_link.expiry", 15*time.Minute)
	vp.SetDefault("magic_link.cleanup_interval", 5*time.Minute)

	vp.SetDefault("database.driver", "memory")
	vp.SetDefault("database.path", "database.db")

	vp.SetDefault("mail.port", 587)

	vp.SetDefault("storage.region", "auto")

	vp.SetDefault("security.rate_limit", 5)
	vp.SetDefault("security.rate_burst", 10)
	vp.SetDefault("security.turnstile.enabled", false)

	if err := vp.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}

		fmt.Printf("[WARNING]: %s not found, using environment and defaults\n", path)
	}

	c := &Config{
		App: AppConfig{
			Name:     vp.GetString("app.name"),
			Version:  vp.GetString("app.version"),
			Env:      vp.GetString("app.env"),
			LogLevel: vp.GetString("app.log_level"),
		},
		Host: HostConfig{
			Port:               vp.GetInt("host.port"),
			CORS:               splitList(vp.GetStringSlice("host.cors")),
			SSLEnabled:         vp.GetBool("host.ssl.enabled"),
			CertificatePath:    vp.GetString("host.ssl.certificate_path"),
			CertificateKeyPath: vp.GetString("host.ssl.certificate_key_path"),
			MaxBodySize:        vp.GetInt64("host.max_body_size"),
		},
		JWT: JWTConfig{
			Secret:    vp.GetString("jwt.secret"),
			Algorithm: strings.ToUpper(vp.GetString("jwt.algorithm")),
			Expiry:    vp.GetDuration("jwt.expiry"),
		},
		MagicLink: MagicLinkConfig{
			BaseURL:         vp.GetString("magic_link.base_url"),
			Expiry:          vp.GetDuration("magic_link.expiry"),
			CleanupInterval: vp.GetDuration("magic_link.cleanup_interval"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(vp.GetString("database.driver")),
			Path:   vp.GetString("database.path"),
			URL:    vp.GetString("database.url"),
		},
		Redis: RedisConfig{
			Addr:     vp.GetString("redis.addr"),
			Password: vp.GetString("redis.password"),
			DB:       vp.GetInt("redis.db"),
		},
		Mail: MailConfig{
			Enabled:  vp.GetBool("mail.enabled"),
			Host:     vp.GetString("mail.host"),
			Port:     vp.GetInt("mail.port"),
			Username: vp.GetString("mail.username"),
			Password: vp.GetString("mail.password"),
			From:     vp.GetString("mail.from"),
		},
		Storage: StorageConfig{
			Enabled:         vp.GetBool("storage.enabled"),
			Bucket:          vp.GetString("storage.bucket"),
			Region:          vp.GetString("storage.region"),
			Endpoint:        vp.GetString("storage.endpoint"),
			AccessKeyID:     vp.GetString("storage.access_key_id"),
			SecretAccessKey: vp.GetString("storage.secret_access_key"),
			PublicURL:       vp.GetString("storage.public_url"),
		},
		Security: SecurityConfig{
			RateLimit:            vp.GetFloat64("security.rate_limit"),
			RateBurst:            vp.GetInt("security.rate_burst"),
			TurnstileEnabled:     vp.GetBool("security.turnstile.enabled"),
			TurnstileSecretToken: vp.GetString("security.turnstile.secret_token"),
		},
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if !slices.Contains(validEnvs, c.App.Env) {
		return fmt.Errorf("invalid app.env %q", c.App.Env)
	}

	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		return errors.New("invalid port provided")
	}

	if c.Host.MaxBodySize <= 0 {
		return errors.New("host.max_body_size must be bigger than 0")
	}

	if c.Host.SSLEnabled {
		if c.Host.CertificatePath == "" {
			return errors.New("no ssl certificate path provided")
		}

		if c.Host.CertificateKeyPath == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if c.JWT.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("jwt.secret must be set outside of development")
		}

		fmt.Println("[WARNING]: You haven't set a JWT secret, a random one has been generated for this process. Tokens won't survive a restart.")
		c.JWT.Secret = genSecret()
		c.JWT.Generated = true
	}

	if !slices.Contains(validAlgs, c.JWT.Algorithm) {
		return fmt.Errorf("unsupported jwt algorithm %q", c.JWT.Algorithm)
	}

	if c.JWT.Expiry <= 0 {
		return errors.New("jwt.expiry must be bigger than 0")
	}

	if c.MagicLink.Expiry <= 0 {
		return errors.New("magic_link.expiry must be bigger than 0")
	}

	if c.MagicLink.CleanupInterval < 0 {
		return errors.New("magic_link.cleanup_interval can't be negative")
	}

	u, err := url.Parse(c.MagicLink.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid magic_link.base_url %q", c.MagicLink.BaseURL)
	}

	if !slices.Contains(validDrivers, c.Database.Driver) {
		return fmt.Errorf("invalid database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return errors.New("database.url is required for postgres")
	}

	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		return errors.New("database.path is required for sqlite")
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return errors.New("mail host can't be empty")
		}
		if c.Mail.From == "" {
			return errors.New("mail sender can't be empty")
		}
	}

	if c.Storage.Enabled {
		if c.Storage.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
		if c.Storage.AccessKeyID == "" {
			return errors.New("access key id can't be empty")
		}
		if c.Storage.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
	}

	if c.Security.RateLimit <= 0 || c.Security.RateBurst <= 0 {
		return errors.New("rate limit and burst must be bigger than 0")
	}

	if !c.Security.TurnstileEnabled {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	} else if c.Security.TurnstileSecretToken == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}

// splitList accepts both proper lists and comma separated strings, which
// is what list values look like when they come from the environment
func splitList(in []string) []string {
	out := []string{}

	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
