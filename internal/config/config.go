package config

import (
	"time"

	pkgconfig "github.com/railroadmedia/customer-io/pkg/config"
)

const ServiceName = "customer-io"

type Config struct {
	Service    ServiceConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Remote     RemoteConfig
	Settle     SettleConfig
	Reconciler ReconcilerConfig
	// CatalogPath points at the account and form catalog, see LoadCatalog.
	CatalogPath string
}

type ServiceConfig struct {
	Name        string
	Environment string
}

type LogConfig struct {
	Level       string
	Format      string
	Output      string
	FilePath    string
	Development bool
}

// RedisConfig configures forwarding of domain events to Redis pub/sub.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

type RemoteConfig struct {
	TrackBaseURL string
	AppBaseURL   string
	Timeout      time.Duration
}

// SettleConfig bounds the retries around a remote call that follows the
// creation of a customer, while the remote is still catching up.
type SettleConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

type ReconcilerConfig struct {
	Enabled     bool
	Schedule    string
	BatchSize   int
	MaxAttempts int
	// Timeout bounds a single run.
	Timeout time.Duration
}

func setDefaults(c pkgconfig.Config) {
	c.SetDefault("service.name", ServiceName)
	c.SetDefault("service.environment", "dev")
	c.SetDefault("server.http.host", "0.0.0.0")
	c.SetDefault("server.http.port", 8080)
	c.SetDefault("server.http.shutdown_timeout", 10*time.Second)
	c.SetDefault("database.host", "localhost")
	c.SetDefault("database.port", 5432)
	c.SetDefault("database.name", "customer_io")
	c.SetDefault("database.user", "postgres")
	c.SetDefault("database.ssl_mode", "disable")
	c.SetDefault("database.data_mode", "host")
	c.SetDefault("database.max_open_conns", 25)
	c.SetDefault("database.max_idle_conns", 5)
	c.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	c.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	c.SetDefault("redis.channel", "customer-io.events")
	c.SetDefault("log.level", "info")
	c.SetDefault("log.format", "json")
	c.SetDefault("log.output", "stdout")
	c.SetDefault("remote.track_base_url", "https://track.customer.io/api/v1")
	c.SetDefault("remote.app_base_url", "https://api.customer.io/v1")
	c.SetDefault("remote.timeout", 15*time.Second)
	c.SetDefault("settle.max_attempts", 5)
	c.SetDefault("settle.initial_interval", time.Second)
	c.SetDefault("settle.max_interval", 8*time.Second)
	c.SetDefault("settle.multiplier", 2.0)
	c.SetDefault("reconciler.enabled", true)
	c.SetDefault("reconciler.schedule", "@every 1m")
	c.SetDefault("reconciler.batch_size", 100)
	c.SetDefault("reconciler.max_attempts", 10)
	c.SetDefault("reconciler.timeout", 5*time.Minute)
	c.SetDefault("catalog_path", "configs/customer-io-catalog.yaml")
}

// Load reads service settings through viper. Every key can be overridden
// from the environment, e.g. CUSTOMERIO_DATABASE_HOST.
func Load() (*Config, error) {
	c, err := pkgconfig.Load(ServiceName, true)
	if err != nil {
		return nil, err
	}
	setDefaults(c)

	return &Config{
		Service: ServiceConfig{
			Name:        c.GetString("service.name"),
			Environment: c.GetString("service.environment"),
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Host:            c.GetString("server.http.host"),
				Port:            c.GetInt("server.http.port"),
				ShutdownTimeout: c.GetDuration("server.http.shutdown_timeout"),
			},
		},
		Database: DatabaseConfig{
			Host:            c.GetString("database.host"),
			Port:            c.GetInt("database.port"),
			Name:            c.GetString("database.name"),
			User:            c.GetString("database.user"),
			Password:        c.GetString("database.password"),
			SSLMode:         c.GetString("database.ssl_mode"),
			DataMode:        c.GetString("database.data_mode"),
			MaxOpenConns:    c.GetInt("database.max_open_conns"),
			MaxIdleConns:    c.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: c.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: c.GetDuration("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  c.GetBool("redis.enabled"),
			Addr:     c.GetString("redis.addr"),
			Password: c.GetString("redis.password"),
			DB:       c.GetInt("redis.db"),
			Channel:  c.GetString("redis.channel"),
		},
		Log: LogConfig{
			Level:       c.GetString("log.level"),
			Format:      c.GetString("log.format"),
			Output:      c.GetString("log.output"),
			FilePath:    c.GetString("log.file_path"),
			Development: c.GetBool("log.development"),
		},
		Remote: RemoteConfig{
			TrackBaseURL: c.GetString("remote.track_base_url"),
			AppBaseURL:   c.GetString("remote.app_base_url"),
			Timeout:      c.GetDuration("remote.timeout"),
		},
		Settle: SettleConfig{
			MaxAttempts:     c.GetInt("settle.max_attempts"),
			InitialInterval: c.GetDuration("settle.initial_interval"),
			MaxInterval:     c.GetDuration("settle.max_interval"),
			Multiplier:      c.GetFloat64("settle.multiplier"),
		},
		Reconciler: ReconcilerConfig{
			Enabled:     c.GetBool("reconciler.enabled"),
			Schedule:    c.GetString("reconciler.schedule"),
			BatchSize:   c.GetInt("reconciler.batch_size"),
			MaxAttempts: c.GetInt("reconciler.max_attempts"),
			Timeout:     c.GetDuration("reconciler.timeout"),
		},
		CatalogPath: c.GetString("catalog_path"),
	}, nil
}
