package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const devJWTSecret = "dev-only-secret-change-me"

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// TrustProxyHeaders lets X-Forwarded-For pick the client address.
	TrustProxyHeaders bool

	DBDriver    string
	MySQLDSN    string
	SQLitePath  string
	AutoMigrate bool

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration
	LoginRPS  float64

	StorageBase   string
	StorageKey    string
	StorageBucket string
	StorageRPS    int

	BackfillWorkers int
}

// Load reads the environment, after merging a .env file from the working directory when present.
// Variables already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return FromEnv()
}

func FromEnv() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ":9100"),
		TrustProxyHeaders: envBool("TRUST_PROXY_HEADERS", false),
		DBDriver:          env("DB_DRIVER", "mysql"),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/travel?parseTime=true&charset=utf8mb4&loc=UTC"),
		SQLitePath:        env("SQLITE_PATH", "travel.db"),
		AutoMigrate:       envBool("AUTO_MIGRATE", false),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		JWTSecret:         env("JWT_SECRET", devJWTSecret),
		JWTIssuer:         env("JWT_ISSUER", "travelshop"),
		JWTTTL:            time.Duration(atoi("JWT_TTL_HOURS", 24)) * time.Hour,
		LoginRPS:          envFloat("LOGIN_RPS", 0.5),
		StorageBase:       env("STORAGE_BASE_URL", ""),
		StorageKey:        env("STORAGE_API_KEY", ""),
		StorageBucket:     env("STORAGE_BUCKET", "package-images"),
		StorageRPS:        atoi("STORAGE_RPS", 5),
		BackfillWorkers:   atoi("BACKFILL_WORKERS", 4),
	}
	if c.JWTSecret == devJWTSecret && c.AppEnv != "dev" && c.AppEnv != "development" && c.AppEnv != "test" {
		log.Warn().Msg("JWT_SECRET is not set; using the development secret")
	}
	if c.StorageBase == "" || c.StorageKey == "" {
		log.Warn().Msg("STORAGE_BASE_URL or STORAGE_API_KEY is empty; image uploads are disabled")
	}
	return c
}

// DatabaseDSN picks the connection string for the configured driver.
func (c Config) DatabaseDSN() string {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite", "sqlite3":
		return c.SQLitePath
	}
	return c.MySQLDSN
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
