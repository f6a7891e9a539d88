// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cart store backends
const (
	CartStorePostgres = "postgres"
	CartStoreRedis    = "redis"
)

// Config holds all configuration for our application
type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Security    SecurityConfig
	MercadoPago MercadoPagoConfig
	Frontend    FrontendConfig
	Cart        CartConfig
	Store       StoreInfo
	Logging     LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	OpTimeout    time.Duration // per command; cart watches hold their own connection
}

// JWTConfig contains the settings used to validate tokens issued by the auth service
type JWTConfig struct {
	Secret string
	Issuer string
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// MercadoPagoConfig contains payment processor configuration
type MercadoPagoConfig struct {
	AccessToken    string
	BaseURL        string
	WebhookBaseURL string
	WebhookSecret  string
	Currency       string
	Sandbox        bool
	Timeout        time.Duration
	LookupTimeout  time.Duration
}

// FrontendConfig contains the storefront URLs the processor redirects back to
type FrontendConfig struct {
	BaseURL string
}

// CartConfig selects and tunes the cart store backend
type CartConfig struct {
	Store string
	TTL   time.Duration
}

// StoreInfo is printed on purchase receipts
type StoreInfo struct {
	Name    string
	Address string
	Email   string
	Website string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storefront Checkout"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront"),
			User:         getEnv("DB_USER", "storefront"),
			Password:     getEnv("DB_PASSWORD", "storefront"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			OpTimeout:    getEnvAsDuration("REDIS_OP_TIMEOUT", 3*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", ""),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:    getEnv("MERCADOPAGO_ACCESS_TOKEN", ""),
			BaseURL:        getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
			WebhookBaseURL: strings.TrimRight(getEnv("MERCADOPAGO_WEBHOOK_URL", ""), "/"),
			WebhookSecret:  getEnv("MERCADOPAGO_WEBHOOK_SECRET", ""),
			Currency:       getEnv("MERCADOPAGO_CURRENCY", "UYU"),
			Sandbox:        getEnvAsBool("MERCADOPAGO_SANDBOX", false),
			Timeout:        getEnvAsDuration("MERCADOPAGO_TIMEOUT", 5*time.Second),
			LookupTimeout:  getEnvAsDuration("MERCADOPAGO_LOOKUP_TIMEOUT", 5*time.Second),
		},
		Frontend: FrontendConfig{
			BaseURL: strings.TrimRight(getEnv("FRONTEND_URL", ""), "/"),
		},
		Cart: CartConfig{
			Store: getEnv("CART_STORE", CartStorePostgres),
			TTL:   getEnvAsDuration("CART_TTL", 30*24*time.Hour),
		},
		Store: StoreInfo{
			Name:    getEnv("STORE_NAME", "Pizzería"),
			Address: getEnv("STORE_ADDRESS", ""),
			Email:   getEnv("STORE_EMAIL", ""),
			Website: getEnv("STORE_WEBSITE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Processor credentials and the URLs it calls back on
	if c.MercadoPago.AccessToken == "" {
		return fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required")
	}
	if c.MercadoPago.WebhookBaseURL == "" {
		return fmt.Errorf("MERCADOPAGO_WEBHOOK_URL is required")
	}
	if c.Frontend.BaseURL == "" {
		return fmt.Errorf("FRONTEND_URL is required")
	}
	if c.MercadoPago.LookupTimeout <= 0 {
		return fmt.Errorf("MERCADOPAGO_LOOKUP_TIMEOUT must be positive")
	}

	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	// Validate database configuration
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	// Validate Redis configuration
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	switch c.Cart.Store {
	case CartStorePostgres, CartStoreRedis:
	default:
		return fmt.Errorf("CART_STORE must be %q or %q, got %q", CartStorePostgres, CartStoreRedis, c.Cart.Store)
	}

	// Validate server port
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// NotificationURL is where the processor pushes payment notifications
func (c *Config) NotificationURL() string {
	return c.MercadoPago.WebhookBaseURL + "/webhook/mercadopago"
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
