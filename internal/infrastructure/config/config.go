package config

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/stock"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Event     EventConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Order     OrderConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level     string // debug, info, warn, error
	Format    string // json, console
	Output    string // stdout, stderr, or file path
	GormLevel string // silent, error, warn, info
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	Isolation       string // read_committed, repeatable_read, serializable
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EventConfig holds event delivery configuration
type EventConfig struct {
	IdempotencyTTL time.Duration
	UseRedis       bool // back the idempotency store with Redis instead of memory
	NotifyOverdue  bool
	PluginsEnabled bool
	HandlerTimeout time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled              bool
	OverdueCheckInterval time.Duration
	JobTimeout           time.Duration
}

// OrderConfig holds order behaviour settings
type OrderConfig struct {
	PurchaseOrderReferencePattern string
	SalesOrderReferencePattern    string
	ReturnOrderReferencePattern   string
	PurchaseOrderAutoComplete     bool
	SalesOrderShipComplete        bool
	SalesOrderDefaultShipment     bool
	ReturnOrderReceivedStatus     int
}

// TelemetryConfig holds OpenTelemetry metrics and tracing configuration
type TelemetryConfig struct {
	Enabled           bool // metrics
	CollectorEndpoint string // OTEL Collector endpoint (e.g., "localhost:4317")
	ServiceName       string
	Insecure          bool // development only
	ExportInterval    time.Duration
	CollectInterval   time.Duration // open order gauge refresh

	TracingEnabled     bool
	SamplingRatio      float64
	DBTracing          bool
	DBLogFullSQL       bool
	SlowQueryThreshold time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with INVENTREE_ prefix (e.g., INVENTREE_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/inventree")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetDefault("telemetry.sampling_ratio", 1.0)

	v.SetEnvPrefix("INVENTREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			Isolation:       v.GetString("database.isolation"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:     v.GetString("log.level"),
			Format:    v.GetString("log.format"),
			Output:    v.GetString("log.output"),
			GormLevel: v.GetString("log.gorm_level"),
		},
		Event: EventConfig{
			IdempotencyTTL: v.GetDuration("event.idempotency_ttl"),
			UseRedis:       v.GetBool("event.use_redis"),
			NotifyOverdue:  v.GetBool("event.notify_overdue"),
			PluginsEnabled: v.GetBool("event.plugins_enabled"),
			HandlerTimeout: v.GetDuration("event.handler_timeout"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
			RequestTimeout: v.GetDuration("http.request_timeout"),
		},
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			OverdueCheckInterval: v.GetDuration("scheduler.overdue_check_interval"),
			JobTimeout:           v.GetDuration("scheduler.job_timeout"),
		},
		Order: OrderConfig{
			PurchaseOrderReferencePattern: v.GetString("order.purchase_order_reference_pattern"),
			SalesOrderReferencePattern:    v.GetString("order.sales_order_reference_pattern"),
			ReturnOrderReferencePattern:   v.GetString("order.return_order_reference_pattern"),
			PurchaseOrderAutoComplete:     v.GetBool("order.purchase_order_auto_complete"),
			SalesOrderShipComplete:        v.GetBool("order.sales_order_ship_complete"),
			SalesOrderDefaultShipment:     v.GetBool("order.sales_order_default_shipment"),
			ReturnOrderReceivedStatus:     v.GetInt("order.return_order_received_status"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			CollectInterval:   v.GetDuration("telemetry.collect_interval"),

			TracingEnabled:     v.GetBool("telemetry.tracing_enabled"),
			SamplingRatio:      v.GetFloat64("telemetry.sampling_ratio"),
			DBTracing:          v.GetBool("telemetry.db_tracing"),
			DBLogFullSQL:       v.GetBool("telemetry.db_log_full_sql"),
			SlowQueryThreshold: v.GetDuration("telemetry.slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "inventree-orders"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "inventree"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "inventree.db"
	}
	if cfg.Database.Isolation == "" {
		cfg.Database.Isolation = "read_committed"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.GormLevel == "" {
		cfg.Log.GormLevel = "warn"
	}
	if cfg.Event.IdempotencyTTL == 0 {
		cfg.Event.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Event.HandlerTimeout == 0 {
		cfg.Event.HandlerTimeout = 10 * time.Second
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.Scheduler.OverdueCheckInterval == 0 {
		cfg.Scheduler.OverdueCheckInterval = 24 * time.Hour
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	defaults := order.DefaultSettings()
	if cfg.Order.PurchaseOrderReferencePattern == "" {
		cfg.Order.PurchaseOrderReferencePattern = defaults.PurchaseOrderReferencePattern
	}
	if cfg.Order.SalesOrderReferencePattern == "" {
		cfg.Order.SalesOrderReferencePattern = defaults.SalesOrderReferencePattern
	}
	if cfg.Order.ReturnOrderReferencePattern == "" {
		cfg.Order.ReturnOrderReferencePattern = defaults.ReturnOrderReferencePattern
	}
	if cfg.Order.ReturnOrderReceivedStatus == 0 {
		cfg.Order.ReturnOrderReceivedStatus = int(defaults.ReturnOrderReceivedStatus)
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "inventree-orders"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.CollectInterval == 0 {
		cfg.Telemetry.CollectInterval = 60 * time.Second
	}
	if cfg.Telemetry.SlowQueryThreshold == 0 {
		cfg.Telemetry.SlowQueryThreshold = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if _, err := c.Database.IsolationLevel(); err != nil {
		return err
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	for key, pattern := range map[string]string{
		"order.purchase_order_reference_pattern": c.Order.PurchaseOrderReferencePattern,
		"order.sales_order_reference_pattern":    c.Order.SalesOrderReferencePattern,
		"order.return_order_reference_pattern":   c.Order.ReturnOrderReferencePattern,
	} {
		if _, err := order.ParseReferencePattern(pattern); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if !stock.StockStatus(c.Order.ReturnOrderReceivedStatus).IsValid() {
		return fmt.Errorf("order.return_order_received_status %d is not a stock status", c.Order.ReturnOrderReceivedStatus)
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if (c.Telemetry.Enabled || c.Telemetry.TracingEnabled) && c.Telemetry.Insecure {
			return fmt.Errorf("telemetry.insecure must be false in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql cannot be enabled in production")
		}
	}

	return nil
}

// Settings converts the order section into domain settings
func (o OrderConfig) Settings() order.Settings {
	return order.Settings{
		PurchaseOrderReferencePattern: o.PurchaseOrderReferencePattern,
		SalesOrderReferencePattern:    o.SalesOrderReferencePattern,
		ReturnOrderReferencePattern:   o.ReturnOrderReferencePattern,
		PurchaseOrderAutoComplete:     o.PurchaseOrderAutoComplete,
		SalesOrderShipComplete:        o.SalesOrderShipComplete,
		SalesOrderDefaultShipment:     o.SalesOrderDefaultShipment,
		ReturnOrderReceivedStatus:     stock.StockStatus(o.ReturnOrderReceivedStatus),
	}
}

// IsolationLevel maps the configured isolation name to a sql level
func (d *DatabaseConfig) IsolationLevel() (sql.IsolationLevel, error) {
	switch strings.ToLower(d.Isolation) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return sql.LevelDefault, fmt.Errorf("database.isolation %q is not supported", d.Isolation)
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
