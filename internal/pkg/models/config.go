package models

import "time"

// Config represents application configuration
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NATS      NATSConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	Logger    LoggerConfig
	NewRelic  NewRelicConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration.
// An empty Host disables Redis entirely.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration.
// An empty URL disables account event publishing.
type NATSConfig struct {
	URL string
}

// JWTConfig contains session credential configuration
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// Rate limiter backends
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// RateLimitConfig configures the sliding window applied to public auth routes
type RateLimitConfig struct {
	Enabled       bool
	Backend       string
	MaxRequests   int
	Window        time.Duration
	SweepInterval time.Duration
	KeyPrefix     string
}

// WebSocketConfig configures realtime connections
type WebSocketConfig struct {
	SendQueueSize  int
	WriteTimeout   time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	// EnforceSenderIdentity replaces a client supplied senderId with the
	// authenticated subject when the connection has one.
	EnforceSenderIdentity bool
}

// LoggerConfig contains logger configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}

// NewRelicConfig contains New Relic APM configuration
type NewRelicConfig struct {
	LicenseKey  string
	AppName     string
	Enabled     bool
	ForwardLogs bool
}
