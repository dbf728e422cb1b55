package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Cart      CartConfig
	Checkout  CheckoutConfig
	Stock     StockConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
	CORS      CORSConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// IsProduction reports whether the service runs in production mode
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the connection string for the pgx driver
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode, d.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type CatalogConfig struct {
	PageSize      int
	AdminPageSize int
	MaxPageSize   int
	// MaxFeeds caps the per-session storefront feeds kept in memory
	MaxFeeds int
}

type CartConfig struct {
	// Store is "redis" or "memory"
	Store     string
	KeyPrefix string
	TTL       time.Duration
	// IdleTimeout and MaxSessions bound the carts kept in process memory
	IdleTimeout time.Duration
	MaxSessions int
}

type CheckoutConfig struct {
	TaxRate      decimal.Decimal
	Concurrency  int
	PaymentDelay time.Duration
}

type StockConfig struct {
	// CommitURL points at a remote stock service; empty commits against the local database
	CommitURL string
	Timeout   time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type AdminConfig struct {
	APIKey string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type TracingConfig struct {
	// Endpoint of the OTLP/HTTP collector; empty disables tracing
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	// .env values become process environment first so that viper and any
	// library reading the environment directly agree
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CATALOG_PAGE_SIZE", 12)
	v.SetDefault("CATALOG_ADMIN_PAGE_SIZE", 10)
	v.SetDefault("CATALOG_MAX_PAGE_SIZE", 100)
	v.SetDefault("CATALOG_MAX_FEEDS", 10000)
	v.SetDefault("CART_STORE", "redis")
	v.SetDefault("CART_KEY_PREFIX", "cart")
	v.SetDefault("CART_TTL", "168h")
	v.SetDefault("CART_IDLE_TIMEOUT", "30m")
	v.SetDefault("CART_MAX_SESSIONS", 10000)
	v.SetDefault("CHECKOUT_TAX_RATE", "0.18")
	v.SetDefault("CHECKOUT_CONCURRENCY", 8)
	v.SetDefault("CHECKOUT_PAYMENT_DELAY", "2s")
	v.SetDefault("STOCK_COMMIT_TIMEOUT", "5s")
	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("OTEL_SERVICE_NAME", "storefront")
}

func fromViper(v *viper.Viper) *Config {
	taxRate, err := decimal.NewFromString(v.GetString("CHECKOUT_TAX_RATE"))
	if err != nil || taxRate.IsNegative() {
		log.Printf("Warning: invalid CHECKOUT_TAX_RATE %q, using 0.18", v.GetString("CHECKOUT_TAX_RATE"))
		taxRate = decimal.RequireFromString("0.18")
	}

	return &Config{
		Server: ServerConfig{
			Port:     v.GetString("SERVER_PORT"),
			Env:      v.GetString("SERVER_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Database:     v.GetString("DB_DATABASE"),
			Schema:       v.GetString("DB_SCHEMA"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Catalog: CatalogConfig{
			PageSize:      v.GetInt("CATALOG_PAGE_SIZE"),
			AdminPageSize: v.GetInt("CATALOG_ADMIN_PAGE_SIZE"),
			MaxPageSize:   v.GetInt("CATALOG_MAX_PAGE_SIZE"),
			MaxFeeds:      v.GetInt("CATALOG_MAX_FEEDS"),
		},
		Cart: CartConfig{
			Store:       strings.ToLower(v.GetString("CART_STORE")),
			KeyPrefix:   v.GetString("CART_KEY_PREFIX"),
			TTL:         v.GetDuration("CART_TTL"),
			IdleTimeout: v.GetDuration("CART_IDLE_TIMEOUT"),
			MaxSessions: v.GetInt("CART_MAX_SESSIONS"),
		},
		Checkout: CheckoutConfig{
			TaxRate:      taxRate,
			Concurrency:  v.GetInt("CHECKOUT_CONCURRENCY"),
			PaymentDelay: v.GetDuration("CHECKOUT_PAYMENT_DELAY"),
		},
		Stock: StockConfig{
			CommitURL: v.GetString("STOCK_COMMIT_URL"),
			Timeout:   v.GetDuration("STOCK_COMMIT_TIMEOUT"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Admin: AdminConfig{
			APIKey: v.GetString("ADMIN_API_KEY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Tracing: TracingConfig{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
