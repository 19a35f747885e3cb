package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "BANK"

type Config interface {
	EnvConfig
	ClientConfig
	StorageConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogFile() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Storage
	Cors
}

// Option customises how Load builds the configuration.
type Option func(*viper.Viper) error

// WithFile reads an additional config file (any format viper understands).
func WithFile(path string) Option {
	return func(v *viper.Viper) error {
		if strings.TrimSpace(path) == "" {
			return nil
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	}
}

// WithOverride sets a value that wins over files and environment variables.
func WithOverride(key string, value any) Option {
	return func(v *viper.Viper) error {
		v.Set(key, value)
		return nil
	}
}

// New returns the configuration built from defaults and BANK_* environment variables.
func New() Config {
	return newMainConfig(newViper())
}

// Load builds and validates the configuration.
func Load(opts ...Option) (Config, error) {
	v := newViper()
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("[config Load] %w", err)
		}
	}
	c := newMainConfig(v)
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setEnvDefaults(v)
	setClientDefaults(v)
	setStorageDefaults(v)
	setCorsDefaults(v)
	return v
}

func newMainConfig(v *viper.Viper) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{v: v},
		Client:  Client{v: v},
		Storage: Storage{v: v},
		Cors:    Cors{v: v},
	}
}

type settings struct {
	BaseURL        string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gt=0"`
	QueueTimeout   time.Duration `validate:"gt=0"`
	RefreshPath    string        `validate:"required,startswith=/"`
	LoginPath      string        `validate:"required,startswith=/"`
	LogoutPath     string        `validate:"required,startswith=/"`
	LoginRoute     string        `validate:"required"`
	Backend        string        `validate:"oneof=memory file redis"`
	TokenFile      string        `validate:"required_if=Backend file"`
	RedisAddr      string        `validate:"required_if=Backend redis"`
	LogLevel       string        `validate:"oneof=trace debug info warn error"`
}

var validate = validator.New()

// Validate checks the values a client needs before it can issue requests.
func Validate(c Config) error {
	s := settings{
		BaseURL:        c.GetBaseURL(),
		RequestTimeout: c.GetRequestTimeout(),
		QueueTimeout:   c.GetQueueTimeout(),
		RefreshPath:    c.GetRefreshPath(),
		LoginPath:      c.GetLoginPath(),
		LogoutPath:     c.GetLogoutPath(),
		LoginRoute:     c.GetLoginRoute(),
		Backend:        c.GetStorageBackend(),
		TokenFile:      c.GetTokenFile(),
		RedisAddr:      c.GetRedisAddr(),
		LogLevel:       c.GetLogLevel(),
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("[config Validate] invalid configuration: %w", err)
	}
	return nil
}
