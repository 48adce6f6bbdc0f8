// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/dropgate/internal/storage"
)

type Config struct {
	Watch      WatchConfig
	Storage    storage.Config
	Pipeline   PipelineConfig
	Alert      AlertConfig
	Supervisor SupervisorConfig
	Journal    JournalConfig
	Status     StatusConfig
	Log        LogConfig
}

type WatchConfig struct {
	Root              string
	QuarantineLogName string
	Debounce          time.Duration
	EventBuffer       int
}

type PipelineConfig struct {
	Workers         int
	UploadAttempts  int
	RetryBackoff    time.Duration
	SettleDelay     time.Duration
	MaxSettleChecks int
	ShutdownTimeout time.Duration
}

type AlertConfig struct {
	Backend      string
	RedisChannel string
	Redis        RedisConfig
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

type SupervisorConfig struct {
	MaxRestarts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

type JournalConfig struct {
	DatabaseURL string
}

type StatusConfig struct {
	Addr           string
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Alert backends. AlertAuto picks console when stdin is a terminal and log
// otherwise.
const (
	AlertAuto    = "auto"
	AlertLog     = "log"
	AlertConsole = "console"
	AlertDialog  = "dialog"
	AlertRedis   = "redis"
)

// ConfigError is a fatal configuration problem: the process cannot start
// (or restart) until it is fixed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// Load reads .env (if present) and the environment through the global viper
// instance. Values set on viper before the first call (CLI overrides) win.
func Load() (*Config, error) {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		SetDefaults(v)
		v.AutomaticEnv()

		instance, loadErr = FromViper(v)
	})

	return instance, loadErr
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("WATCH_ROOT", "")
	v.SetDefault("QUARANTINE_LOG_NAME", "wrong_convention_names.txt")
	v.SetDefault("WATCH_DEBOUNCE_MS", 500)
	v.SetDefault("EVENT_BUFFER", 1024)
	v.SetDefault("STORAGE_DRIVER", storage.DriverS3)
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PATH_STYLE", false)
	v.SetDefault("PIPELINE_WORKERS", 1)
	v.SetDefault("UPLOAD_ATTEMPTS", 3)
	v.SetDefault("RETRY_BACKOFF_SECONDS", 3)
	v.SetDefault("SETTLE_DELAY_SECONDS", 3)
	v.SetDefault("MAX_SETTLE_CHECKS", 1)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 30)
	v.SetDefault("ALERT_BACKEND", AlertAuto)
	v.SetDefault("ALERT_REDIS_CHANNEL", "dropgate:alerts")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SUPERVISOR_MAX_RESTARTS", 5)
	v.SetDefault("SUPERVISOR_BACKOFF_SECONDS", 1)
	v.SetDefault("SUPERVISOR_MAX_BACKOFF_SECONDS", 60)
	v.SetDefault("JOURNAL_DATABASE_URL", "")
	v.SetDefault("STATUS_ADDR", "")
	v.SetDefault("STATUS_ALLOWED_ORIGINS", []string{})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Watch: WatchConfig{
			Root:              strings.TrimSpace(v.GetString("WATCH_ROOT")),
			QuarantineLogName: v.GetString("QUARANTINE_LOG_NAME"),
			Debounce:          time.Duration(v.GetInt("WATCH_DEBOUNCE_MS")) * time.Millisecond,
			EventBuffer:       v.GetInt("EVENT_BUFFER"),
		},
		Storage: storage.Config{
			Driver:    v.GetString("STORAGE_DRIVER"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			PathStyle: v.GetBool("STORAGE_PATH_STYLE"),
		},
		Pipeline: PipelineConfig{
			Workers:         v.GetInt("PIPELINE_WORKERS"),
			UploadAttempts:  v.GetInt("UPLOAD_ATTEMPTS"),
			RetryBackoff:    time.Duration(v.GetInt("RETRY_BACKOFF_SECONDS")) * time.Second,
			SettleDelay:     time.Duration(v.GetInt("SETTLE_DELAY_SECONDS")) * time.Second,
			MaxSettleChecks: v.GetInt("MAX_SETTLE_CHECKS"),
			ShutdownTimeout: time.Duration(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Alert: AlertConfig{
			Backend:      strings.ToLower(v.GetString("ALERT_BACKEND")),
			RedisChannel: v.GetString("ALERT_REDIS_CHANNEL"),
			Redis: RedisConfig{
				URL:      v.GetString("REDIS_URL"),
				Host:     v.GetString("REDIS_HOST"),
				Port:     v.GetString("REDIS_PORT"),
				Password: v.GetString("REDIS_PASSWORD"),
				DB:       v.GetInt("REDIS_DB"),
			},
		},
		Supervisor: SupervisorConfig{
			MaxRestarts: v.GetInt("SUPERVISOR_MAX_RESTARTS"),
			Backoff:     time.Duration(v.GetInt("SUPERVISOR_BACKOFF_SECONDS")) * time.Second,
			MaxBackoff:  time.Duration(v.GetInt("SUPERVISOR_MAX_BACKOFF_SECONDS")) * time.Second,
		},
		Journal: JournalConfig{
			DatabaseURL: v.GetString("JOURNAL_DATABASE_URL"),
		},
		Status: StatusConfig{
			Addr:           v.GetString("STATUS_ADDR"),
			AllowedOrigins: v.GetStringSlice("STATUS_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and returns the first problem as a
// *ConfigError.
func (c *Config) Validate() error {
	if err := CheckRoot(c.Watch.Root); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return &ConfigError{Field: "STORAGE", Err: err}
	}
	if c.Pipeline.Workers < 1 {
		return &ConfigError{Field: "PIPELINE_WORKERS", Err: fmt.Errorf("must be at least 1, got %d", c.Pipeline.Workers)}
	}
	if c.Pipeline.UploadAttempts < 1 {
		return &ConfigError{Field: "UPLOAD_ATTEMPTS", Err: fmt.Errorf("must be at least 1, got %d", c.Pipeline.UploadAttempts)}
	}
	if c.Pipeline.MaxSettleChecks < 0 {
		return &ConfigError{Field: "MAX_SETTLE_CHECKS", Err: fmt.Errorf("must not be negative")}
	}
	switch c.Alert.Backend {
	case AlertAuto, AlertLog, AlertConsole, AlertDialog, AlertRedis:
	default:
		return &ConfigError{Field: "ALERT_BACKEND", Err: fmt.Errorf("unknown backend %q", c.Alert.Backend)}
	}
	if c.Supervisor.MaxRestarts < 0 {
		return &ConfigError{Field: "SUPERVISOR_MAX_RESTARTS", Err: fmt.Errorf("must not be negative")}
	}
	return nil
}

// CheckRoot verifies that the watched root exists and is a directory.
func CheckRoot(root string) error {
	if root == "" {
		return &ConfigError{Field: "WATCH_ROOT", Err: errors.New("must be provided")}
	}
	info, err := os.Stat(root)
	if err != nil {
		return &ConfigError{Field: "WATCH_ROOT", Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Field: "WATCH_ROOT", Err: fmt.Errorf("%s is not a directory", root)}
	}
	return nil
}
