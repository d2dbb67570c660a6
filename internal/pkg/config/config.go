package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/piresc/dogwalker/internal/pkg/models"
	"github.com/spf13/viper"
)

// InitConfig loads the env file at configPath when APP_ENV is local and
// builds the application config from the environment.
func InitConfig(configPath string) *models.Config {
	v := newViper()
	if v.GetString("APP_ENV") == "local" {
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return loadConfig(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("APP_NAME", "dogwalker-api")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "development")

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 3000)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USERNAME", "postgres")
	v.SetDefault("DB_DATABASE", "dogwalker")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_IDLE_CONNS", 5)

	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("JWT_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "dogwalker")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_BACKEND", models.RateLimitBackendMemory)
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("RATE_LIMIT_SWEEP_INTERVAL", "1m")
	v.SetDefault("RATE_LIMIT_KEY_PREFIX", "ratelimit")

	v.SetDefault("WS_SEND_QUEUE_SIZE", 64)
	v.SetDefault("WS_WRITE_TIMEOUT", "10s")
	v.SetDefault("WS_PONG_WAIT", "60s")
	v.SetDefault("WS_PING_PERIOD", "54s")
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 64*1024)
	v.SetDefault("WS_ENFORCE_SENDER_IDENTITY", false)

	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("NEW_RELIC_ENABLED", false)
}

func loadConfig(v *viper.Viper) *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = v.GetString("APP_NAME")
	configs.App.Environment = v.GetString("APP_ENV")
	configs.App.Debug = v.GetBool("APP_DEBUG")
	configs.App.Version = v.GetString("APP_VERSION")

	// Server config
	configs.Server.Host = v.GetString("SERVER_HOST")
	configs.Server.Port = v.GetInt("SERVER_PORT")
	configs.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	configs.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	configs.Server.ShutdownTimeout = v.GetDuration("SERVER_SHUTDOWN_TIMEOUT")
	configs.Server.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	// Database config
	configs.Database.Driver = v.GetString("DB_DRIVER")
	configs.Database.Host = v.GetString("DB_HOST")
	configs.Database.Port = v.GetInt("DB_PORT")
	configs.Database.Username = v.GetString("DB_USERNAME")
	configs.Database.Password = v.GetString("DB_PASSWORD")
	configs.Database.Database = v.GetString("DB_DATABASE")
	configs.Database.SSLMode = v.GetString("DB_SSL_MODE")
	configs.Database.MaxConns = v.GetInt("DB_MAX_CONNS")
	configs.Database.IdleConns = v.GetInt("DB_IDLE_CONNS")

	// Redis config
	configs.Redis.Host = v.GetString("REDIS_HOST")
	configs.Redis.Port = v.GetInt("REDIS_PORT")
	configs.Redis.Password = v.GetString("REDIS_PASSWORD")
	configs.Redis.DB = v.GetInt("REDIS_DB")
	configs.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")

	// NATS config
	configs.NATS.URL = v.GetString("NATS_URL")

	// JWT config
	configs.JWT.Secret = v.GetString("JWT_SECRET")
	configs.JWT.Expiration = v.GetDuration("JWT_EXPIRATION")
	configs.JWT.Issuer = v.GetString("JWT_ISSUER")

	// Rate limit config
	configs.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	configs.RateLimit.Backend = strings.ToLower(v.GetString("RATE_LIMIT_BACKEND"))
	configs.RateLimit.MaxRequests = v.GetInt("RATE_LIMIT_MAX")
	configs.RateLimit.Window = v.GetDuration("RATE_LIMIT_WINDOW")
	configs.RateLimit.SweepInterval = v.GetDuration("RATE_LIMIT_SWEEP_INTERVAL")
	configs.RateLimit.KeyPrefix = v.GetString("RATE_LIMIT_KEY_PREFIX")

	// WebSocket config
	configs.WebSocket.SendQueueSize = v.GetInt("WS_SEND_QUEUE_SIZE")
	configs.WebSocket.WriteTimeout = v.GetDuration("WS_WRITE_TIMEOUT")
	configs.WebSocket.PongWait = v.GetDuration("WS_PONG_WAIT")
	configs.WebSocket.PingPeriod = v.GetDuration("WS_PING_PERIOD")
	configs.WebSocket.MaxMessageSize = v.GetInt64("WS_MAX_MESSAGE_SIZE")
	configs.WebSocket.EnforceSenderIdentity = v.GetBool("WS_ENFORCE_SENDER_IDENTITY")

	// Logger config
	configs.Logger.Level = v.GetString("LOG_LEVEL")
	configs.Logger.FilePath = v.GetString("LOG_FILE_PATH")

	// NewRelic config
	configs.NewRelic.LicenseKey = v.GetString("NEW_RELIC_LICENSE_KEY")
	configs.NewRelic.AppName = v.GetString("NEW_RELIC_APP_NAME")
	configs.NewRelic.Enabled = v.GetBool("NEW_RELIC_ENABLED")
	configs.NewRelic.ForwardLogs = v.GetBool("NEW_RELIC_FORWARD_LOGS")

	if configs.WebSocket.PingPeriod >= configs.WebSocket.PongWait {
		configs.WebSocket.PingPeriod = configs.WebSocket.PongWait * 9 / 10
	}

	return configs
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports settings the process cannot start without.
func Validate(configs *models.Config) []string {
	var problems []string
	if configs.JWT.Secret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if configs.RateLimit.Backend == models.RateLimitBackendRedis && configs.Redis.Host == "" {
		problems = append(problems, "RATE_LIMIT_BACKEND=redis requires REDIS_HOST")
	}
	if configs.RateLimit.MaxRequests <= 0 || configs.RateLimit.Window <= 0 {
		problems = append(problems, "RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if configs.WebSocket.SendQueueSize <= 0 {
		problems = append(problems, "WS_SEND_QUEUE_SIZE must be positive")
	}
	return problems
}

// Duration is a small helper for callers that need a fallback when a
// configured duration is unset.
func Duration(value, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}
