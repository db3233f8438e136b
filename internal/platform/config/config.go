package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// YOURLS 实例与认证
	APIURL    string
	Username  string
	Password  string
	Signature string
	NonceLife time.Duration // 0 表示使用固定 signature
	// HTTPTimeout 为 0 时不设置超时，沿用 http.Client 默认行为
	HTTPTimeout time.Duration

	// 日志配置信息
	LogLevel    slog.Level
	LogFormat   string
	ServiceName string

	OtlpGrpcEndpoint string
	TracingEnabled   bool

	// exporter
	MetricsAddr       string
	ExporterInterval  time.Duration
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	// expand 缓存
	CacheEnabled  bool
	RedisAddr     string // 为空时只用本地缓存
	RedisPassword string
	RedisDB       int

	// 批量导入限流
	RateLimitEnabled bool
	BulkRateLimit    int
	BulkRateWindow   time.Duration

	//Kafka
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// DBDSN 为空时不记录历史
	DBDSN string
}

func Load() Config {
	cfg := Config{
		LogLevel:    slog.LevelWarn,
		LogFormat:   "text",
		ServiceName: "yourls-cli",

		OtlpGrpcEndpoint: "127.0.0.1:4317",
		TracingEnabled:   false,

		MetricsAddr:       ":9817",
		ExporterInterval:  30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,

		CacheEnabled: false,
		RedisDB:      0,

		RateLimitEnabled: false,
		BulkRateLimit:    60,
		BulkRateWindow:   time.Minute,

		KafkaEnabled: false,
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "yourls-link-events",
	}

	_ = godotenv.Load(".env")

	if v, ok := os.LookupEnv("YOURLS_APIURL"); ok && v != "" {
		cfg.APIURL = v
	}
	if v, ok := os.LookupEnv("YOURLS_USERNAME"); ok && v != "" {
		cfg.Username = v
	}
	if v, ok := os.LookupEnv("YOURLS_PASSWORD"); ok && v != "" {
		cfg.Password = v
	}
	if v, ok := os.LookupEnv("YOURLS_SIGNATURE"); ok && v != "" {
		cfg.Signature = v
	}
	if v, ok := os.LookupEnv("YOURLS_NONCE_LIFE"); ok && v != "" {
		if d, err := ParseNonceLife(v); err == nil {
			cfg.NonceLife = d
		} else {
			slog.Warn("ignore invalid YOURLS_NONCE_LIFE", "value", v, "err", err)
		}
	}
	if v, ok := os.LookupEnv("YOURLS_HTTP_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		}
	}

	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = ParseLevel(v)
	}
	if v, ok := os.LookupEnv("LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := os.LookupEnv("SERVICE_NAME"); ok && v != "" {
		cfg.ServiceName = v
	}

	if v, ok := os.LookupEnv("TRACING_ENABLED"); ok && v != "" {
		cfg.TracingEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("OTLP_GRPC_ENDPOINT"); ok && v != "" {
		cfg.OtlpGrpcEndpoint = v
	}

	if v, ok := os.LookupEnv("METRICS_ADDR"); ok && v != "" {
		cfg.MetricsAddr = v
	}
	if v, ok := os.LookupEnv("EXPORTER_INTERVAL"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ExporterInterval = d
		}
	}
	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownTimeout = d
		}
	}

	if v, ok := os.LookupEnv("CACHE_ENABLED"); ok && v != "" {
		cfg.CacheEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		cfg.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok && v != "" {
		cfg.RedisPassword = v
	}
	if v, ok := os.LookupEnv("REDIS_DB"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}

	if v, ok := os.LookupEnv("RATELIMIT_ENABLED"); ok && v != "" {
		cfg.RateLimitEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("BULK_RATE_LIMIT"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BulkRateLimit = n
		}
	}
	if v, ok := os.LookupEnv("BULK_RATE_WINDOW"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BulkRateWindow = d
		}
	}

	// Kafka
	if v, ok := os.LookupEnv("KAFKA_ENABLED"); ok && v != "" {
		cfg.KafkaEnabled = strings.ToLower(v) == "true"
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("KAFKA_TOPIC"); ok && v != "" {
		cfg.KafkaTopic = v
	}

	if v, ok := os.LookupEnv("DB_DSN"); ok && v != "" {
		cfg.DBDSN = v
	}

	return cfg
}

// ParseLevel 不认识的值按 info 处理。
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseNonceLife 接受三种写法：
//   - "true"：使用服务端默认的 12h
//   - "false" / "0"：不使用限时签名
//   - Go duration（"90m"）或秒数（"43200"）
func ParseNonceLife(v string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return 12 * time.Hour, nil
	case "false", "0", "":
		return 0, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("nonce life must be >= 0, got %d", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid nonce life %q: %w", v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("nonce life must be >= 0, got %s", d)
	}
	return d, nil
}
