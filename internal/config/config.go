package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port              int
	DBDSN             string
	RedisURL          string
	JWTAccessTTL      time.Duration
	JWTRefreshTTL     time.Duration
	JWTSecret         string
	CsrfTokenTTL      time.Duration
	SessionMaxAge     time.Duration
	SensitivePrefixes []string
	AllowOrigins      []string
	RateLimitPublic   RateLimitConfig
	RateLimitAuth     RateLimitConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// defaultSensitivePrefixes cobre gestão de usuários, ações administrativas,
// webhooks, pagamentos e troca de credenciais.
var defaultSensitivePrefixes = []string{
	"/users",
	"/admin",
	"/webhooks",
	"/payments",
	"/auth/password",
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	csrfTTL, err := parseDurationEnv("CSRF_TOKEN_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	if csrfTTL < 15*time.Minute || csrfTTL > time.Hour {
		return nil, errors.New("CSRF_TOKEN_TTL deve ficar entre 15m e 1h")
	}
	cfg.CsrfTokenTTL = csrfTTL

	sessionMaxAge, err := parseDurationEnv("SESSION_MAX_AGE", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.SessionMaxAge = sessionMaxAge

	cfg.SensitivePrefixes = defaultSensitivePrefixes
	if raw := strings.TrimSpace(getEnv("SENSITIVE_PREFIXES", "")); raw != "" {
		var prefixes []string
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "/") {
				prefixes = append(prefixes, p)
			}
		}
		if len(prefixes) > 0 {
			cfg.SensitivePrefixes = prefixes
		}
	}

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
