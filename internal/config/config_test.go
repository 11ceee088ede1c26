package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/plataforma")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if cfg.SessionMaxAge != 15*time.Minute {
		t.Fatalf("SESSION_MAX_AGE padrão deveria ser 15m: %v", cfg.SessionMaxAge)
	}
	if cfg.CsrfTokenTTL != 30*time.Minute {
		t.Fatalf("CSRF_TOKEN_TTL padrão deveria ser 30m: %v", cfg.CsrfTokenTTL)
	}
	if cfg.JWTAccessTTL != time.Hour {
		t.Fatalf("JWT_ACCESS_TTL padrão deveria ser 1h: %v", cfg.JWTAccessTTL)
	}

	found := false
	for _, prefix := range cfg.SensitivePrefixes {
		if prefix == "/users" {
			found = true
		}
	}
	if !found {
		t.Fatalf("prefixos sensíveis padrão devem incluir /users: %v", cfg.SensitivePrefixes)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "curto")

	if _, err := Load(); err == nil {
		t.Fatal("segredo curto deve ser rejeitado")
	}
}

func TestLoadCsrfTTLBounds(t *testing.T) {
	setBaseEnv(t)

	t.Setenv("CSRF_TOKEN_TTL", "5m")
	if _, err := Load(); err == nil {
		t.Fatal("TTL abaixo de 15m deve ser rejeitado")
	}

	t.Setenv("CSRF_TOKEN_TTL", "2h")
	if _, err := Load(); err == nil {
		t.Fatal("TTL acima de 1h deve ser rejeitado")
	}

	t.Setenv("CSRF_TOKEN_TTL", "45m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("45m é válido: %v", err)
	}
	if cfg.CsrfTokenTTL != 45*time.Minute {
		t.Fatalf("TTL incorreto: %v", cfg.CsrfTokenTTL)
	}
}

func TestLoadSensitivePrefixOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SENSITIVE_PREFIXES", "/pagamentos, /chaves, invalida-sem-barra")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if len(cfg.SensitivePrefixes) != 2 {
		t.Fatalf("apenas prefixos com / valem: %v", cfg.SensitivePrefixes)
	}
	if cfg.SensitivePrefixes[0] != "/pagamentos" || cfg.SensitivePrefixes[1] != "/chaves" {
		t.Fatalf("prefixos incorretos: %v", cfg.SensitivePrefixes)
	}
}
