package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port             string
	AppEnv           string
	Storage          string
	DSN              string
	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int
	CORSOrigins      string
	AuthRateLimit    float64
	AuthRateBurst    int
}

func Load() Config {
	// coba load .env, kalau gak ada ya di-skip
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnv("PORT", "3000"),
		AppEnv:          getEnv("APP_ENV", "production"),
		Storage:         strings.ToLower(getEnv("STORAGE", StoragePostgres)),
		DSN:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:      getInt("BCRYPT_COST", 10),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:5173"),
		AuthRateLimit:   getFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst:   getInt("AUTH_RATE_BURST", 10),
	}
	cfg.JWTRefreshSecret = getEnv("JWT_REFRESH_SECRET", cfg.JWTSecret+"-refresh")

	if cfg.DSN == "" {
		if dsn, err := BuildDSNFromParts(); err == nil {
			cfg.DSN = dsn
		}
	}
	return cfg
}

// Validate dipanggil sekali di main, fail-fast sebelum server jalan.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET tidak boleh kosong (set di .env)")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.DSN == "" {
			return errors.New("DATABASE_URL atau DB_USER/DB_HOST/DB_DATABASE wajib diisi")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE %q tidak dikenali (postgres|memory)", c.Storage)
	}
	return nil
}

// BuildDSNFromParts merangkai DSN postgres dari DB_* env.
func BuildDSNFromParts() (string, error) {
	user := strings.TrimSpace(os.Getenv("DB_USER"))
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	port := strings.TrimSpace(os.Getenv("DB_PORT"))
	dbName := strings.TrimSpace(os.Getenv("DB_DATABASE"))
	if port == "" {
		port = "5432"
	}
	if user == "" || host == "" || dbName == "" {
		return "", fmt.Errorf("DB_USER/DB_HOST/DB_DATABASE wajib diisi")
	}
	u := &url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%s", host, port),
		Path:     dbName,
		RawQuery: "sslmode=" + getEnv("DB_SSLMODE", "disable"),
	}
	password := os.Getenv("DB_PASSWORD")
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil && n > 0 {
		return n
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && f > 0 {
		return f
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return fallback
}
