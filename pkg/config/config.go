package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Notification broker backends.
const (
	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Summary       SummaryConfig
	Notifications NotificationConfig
	WebSocket     WebSocketConfig
	Weather       WeatherConfig
	Metrics       MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int

	ConnMaxLifetime   time.Duration
	ConnectRetries    int
	ConnectRetryDelay time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize    int
	DialTimeout time.Duration
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SummaryConfig tunes the paginated summary endpoints.
type SummaryConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// NotificationConfig selects the broadcast backend and dispatch buffering.
type NotificationConfig struct {
	Broker       string
	Workers      int
	BufferSize   int
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	KafkaBatch   time.Duration
}

// WebSocketConfig governs the realtime notification socket.
type WebSocketConfig struct {
	AuthTimeout  time.Duration
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

// WeatherConfig configures the background weather fetch job and its cache.
type WeatherConfig struct {
	APIURL       string
	Latitude     float64
	Longitude    float64
	HasLocation  bool
	CacheKey     string
	CacheTTL     time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	FetchTimeout time.Duration
	FetchOnStart bool
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

		ConnMaxLifetime:   parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnectRetries:    v.GetInt("DB_CONNECT_RETRIES"),
		ConnectRetryDelay: parseDuration(v.GetString("DB_CONNECT_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),

		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Summary = SummaryConfig{
		DefaultPageSize: positiveOr(v.GetInt("SUMMARY_PAGE_SIZE"), 25),
		MaxPageSize:     positiveOr(v.GetInt("SUMMARY_MAX_PAGE_SIZE"), 100),
	}

	broker := strings.ToLower(strings.TrimSpace(v.GetString("NOTIFY_BROKER")))
	if broker != BrokerRedis {
		broker = BrokerMemory
	}
	cfg.Notifications = NotificationConfig{
		Broker:       broker,
		Workers:      positiveOr(v.GetInt("NOTIFY_WORKERS"), 4),
		BufferSize:   positiveOr(v.GetInt("NOTIFY_BUFFER_SIZE"), 256),
		KafkaEnabled: v.GetBool("NOTIFY_KAFKA_ENABLED"),
		KafkaBrokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("NOTIFY_KAFKA_TOPIC"),
		KafkaBatch:   parseDuration(v.GetString("NOTIFY_KAFKA_BATCH_TIMEOUT"), 10*time.Millisecond),
	}

	cfg.WebSocket = WebSocketConfig{
		AuthTimeout:  parseDuration(v.GetString("WS_AUTH_TIMEOUT"), 3*time.Second),
		PingInterval: parseDuration(v.GetString("WS_PING_INTERVAL"), 30*time.Second),
		WriteTimeout: parseDuration(v.GetString("WS_WRITE_TIMEOUT"), 10*time.Second),
		SendBuffer:   positiveOr(v.GetInt("WS_SEND_BUFFER"), 32),
	}

	cfg.Weather = WeatherConfig{
		APIURL:       v.GetString("WEATHER_API_URL"),
		Latitude:     v.GetFloat64("WEATHER_LAT"),
		Longitude:    v.GetFloat64("WEATHER_LON"),
		HasLocation:  v.GetString("WEATHER_LAT") != "" && v.GetString("WEATHER_LON") != "",
		CacheKey:     v.GetString("WEATHER_CACHE_KEY"),
		CacheTTL:     parseDuration(v.GetString("WEATHER_CACHE_TTL"), 5*time.Minute),
		MaxRetries:   positiveOr(v.GetInt("WEATHER_MAX_RETRIES"), 3),
		RetryDelay:   parseDuration(v.GetString("WEATHER_RETRY_DELAY"), 30*time.Second),
		FetchTimeout: parseDuration(v.GetString("WEATHER_FETCH_TIMEOUT"), 10*time.Second),
		FetchOnStart: v.GetBool("WEATHER_FETCH_ON_START"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "online_courses")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("DB_CONNECT_RETRY_DELAY", "2s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "courses-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUMMARY_PAGE_SIZE", 25)
	v.SetDefault("SUMMARY_MAX_PAGE_SIZE", 100)

	v.SetDefault("NOTIFY_BROKER", BrokerMemory)
	v.SetDefault("NOTIFY_WORKERS", 4)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 256)
	v.SetDefault("NOTIFY_KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("NOTIFY_KAFKA_TOPIC", "grading-events")
	v.SetDefault("NOTIFY_KAFKA_BATCH_TIMEOUT", "10ms")

	v.SetDefault("WS_AUTH_TIMEOUT", "3s")
	v.SetDefault("WS_PING_INTERVAL", "30s")
	v.SetDefault("WS_WRITE_TIMEOUT", "10s")
	v.SetDefault("WS_SEND_BUFFER", 32)

	v.SetDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("WEATHER_CACHE_KEY", "weather:current")
	v.SetDefault("WEATHER_CACHE_TTL", "5m")
	v.SetDefault("WEATHER_MAX_RETRIES", 3)
	v.SetDefault("WEATHER_RETRY_DELAY", "30s")
	v.SetDefault("WEATHER_FETCH_TIMEOUT", "10s")
	v.SetDefault("WEATHER_FETCH_ON_START", false)

	v.SetDefault("ENABLE_METRICS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
