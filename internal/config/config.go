package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBDSN          string
	MediaDir       string
	LogFile        string
	LogLevel       string
	RedisAddr      string
	KafkaBrokers   []string
	KafkaTopic     string
	CookieSecure   bool
	RateLimit      int
	BcryptCost     int
	OutboxInterval time.Duration
	SeedOnStart    bool
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           getenv("PORT", "8080"),
		DBDSN:          getenv("DB_DSN", "bazaar.db"), // sqlite file in project root
		MediaDir:       getenv("MEDIA_DIR", "./media"),
		LogFile:        os.Getenv("LOG_FILE"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getenv("KAFKA_TOPIC", "bazaar.purchases"),
		CookieSecure:   getbool("COOKIE_SECURE", false),
		RateLimit:      getint("RATE_LIMIT", 120),
		BcryptCost:     getint("BCRYPT_COST", 12),
		OutboxInterval: getduration("OUTBOX_INTERVAL", 2*time.Second),
		SeedOnStart:    getbool("SEED_ON_START", true),
	}
}

// Fields returns the config as log fields. Nothing secret lives here.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":            c.Port,
		"db_dsn":          c.DBDSN,
		"media_dir":       c.MediaDir,
		"log_file":        c.LogFile,
		"log_level":       c.LogLevel,
		"redis_addr":      c.RedisAddr,
		"kafka_brokers":   c.KafkaBrokers,
		"kafka_topic":     c.KafkaTopic,
		"cookie_secure":   c.CookieSecure,
		"rate_limit":      c.RateLimit,
		"bcrypt_cost":     c.BcryptCost,
		"outbox_interval": c.OutboxInterval.String(),
		"seed_on_start":   c.SeedOnStart,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
