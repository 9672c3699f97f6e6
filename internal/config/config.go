package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	RedisAddr      string
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	ServiceName    string
	MigrationsPath string
	MediaDir       string
	MediaBaseURL   string
	RateLimitReqs  int
	RateLimitWin   string
	TracingEnabled bool
	JaegerURL      string
}

func Load() *Config {
	return &Config{
		HTTPAddr:       fixPort(getEnv("HTTP_ADDR", ":8080")),
		DatabaseURL:    mustEnv("DATABASE_URL"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      mustEnv("JWT_SECRET"),
		JWTIssuer:      getEnv("JWT_ISSUER", "sparrow"),
		JWTAudience:    getEnv("JWT_AUDIENCE", "sparrow-clients"),
		ServiceName:    getEnv("SERVICE_NAME", "sparrow"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		MediaDir:       getEnv("MEDIA_DIR", "./media"),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", "/media"),
		RateLimitReqs:  getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWin:   getEnv("RATE_LIMIT_WINDOW", "1m"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		JaegerURL:      getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}
}

func fixPort(port string) string {
	if port != "" && !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true"
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env: %s", k)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
