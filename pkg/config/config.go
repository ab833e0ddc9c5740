package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "DRIVNCOOK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DRIVNCOOK_APP_ENV" required:"true"`
	Port         string `envconfig:"DRIVNCOOK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DRIVNCOOK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DRIVNCOOK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DRIVNCOOK_DB_DSN"`
	Driver string `envconfig:"DRIVNCOOK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DRIVNCOOK_DB_HOST"`
	Port     int    `envconfig:"DRIVNCOOK_DB_PORT" default:"5432"`
	User     string `envconfig:"DRIVNCOOK_DB_USER"`
	Password string `envconfig:"DRIVNCOOK_DB_PASSWORD"`
	Name     string `envconfig:"DRIVNCOOK_DB_NAME"`
	SSLMode  string `envconfig:"DRIVNCOOK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DRIVNCOOK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DRIVNCOOK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DRIVNCOOK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DRIVNCOOK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from the discrete fields when one was not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either DRIVNCOOK_DB_DSN or host/user/name must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"DRIVNCOOK_REDIS_URL"`
	Address      string        `envconfig:"DRIVNCOOK_REDIS_ADDR"`
	Password     string        `envconfig:"DRIVNCOOK_REDIS_PASSWORD"`
	DB           int           `envconfig:"DRIVNCOOK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DRIVNCOOK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DRIVNCOOK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DRIVNCOOK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DRIVNCOOK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DRIVNCOOK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"DRIVNCOOK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"DRIVNCOOK_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DRIVNCOOK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DRIVNCOOK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"DRIVNCOOK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"DRIVNCOOK_PUBSUB_ORDERS_TOPIC" default:"supply-orders"`
	StockTopic  string `envconfig:"DRIVNCOOK_PUBSUB_STOCK_TOPIC" default:"supply-stock"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"DRIVNCOOK_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"DRIVNCOOK_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"DRIVNCOOK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
