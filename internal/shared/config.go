package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	FetchTimeout  time.Duration
	FetchRPS      int
	MaxAttempts   int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	SourceWorkers int
	DefaultLimit  int
	CacheTTL      time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process env")
	}
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hearthscout?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		FetchTimeout:  time.Duration(atoi("FETCH_TIMEOUT_SECONDS", 12)) * time.Second,
		FetchRPS:      atoi("FETCH_RPS", 1),
		MaxAttempts:   atoi("FETCH_MAX_ATTEMPTS", 3),
		MinDelay:      time.Duration(atoi("FETCH_MIN_DELAY_MS", 100)) * time.Millisecond,
		MaxDelay:      time.Duration(atoi("FETCH_MAX_DELAY_MS", 3000)) * time.Millisecond,
		SourceWorkers: atoi("SOURCE_WORKERS", 3),
		DefaultLimit:  atoi("DEFAULT_RESULT_LIMIT", 20),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
