package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = "TASKFLOW"
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Notifications NotificationsConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TASKFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"TASKFLOW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"TASKFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TASKFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TASKFLOW_DB_DSN"`
	Driver string `envconfig:"TASKFLOW_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"TASKFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TASKFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TASKFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TASKFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TASKFLOW_REDIS_URL"`
	Address      string        `envconfig:"TASKFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"TASKFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"TASKFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TASKFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TASKFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TASKFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TASKFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TASKFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type NotificationsConfig struct {
	// GroupWindow bounds how far apart two notifications on the same post may
	// be while still collapsing into one visual group.
	GroupWindow time.Duration `envconfig:"TASKFLOW_NOTIFY_GROUP_WINDOW" default:"5m"`
	// MaxGroups caps the number of post-groups retained per user in the cache.
	MaxGroups int `envconfig:"TASKFLOW_NOTIFY_MAX_GROUPS" default:"10"`
	// RecentLimit bounds the durable-store read used to prime the cache.
	RecentLimit int `envconfig:"TASKFLOW_NOTIFY_RECENT_LIMIT" default:"50"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TASKFLOW_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"TASKFLOW_CRON_LOCK_TTL" default:"25h"`
	// NotificationRetention bounds how long seen notification rows are kept.
	NotificationRetention time.Duration `envconfig:"TASKFLOW_CRON_NOTIFICATION_RETENTION" default:"720h"`
	// DigestHorizon is how far ahead the deadline digest looks and how far
	// back the done-this-week digest reaches.
	DigestHorizon time.Duration `envconfig:"TASKFLOW_CRON_DIGEST_HORIZON" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TASKFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TASKFLOW_AUTO_MIGRATE" default:"false"`
}
