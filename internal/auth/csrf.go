package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCsrfInvalid indica token CSRF ausente, expirado ou divergente.
	ErrCsrfInvalid = errors.New("csrf token inválido")
)

// CsrfToken é o segredo anti-forgery vinculado a uma sessão. O valor nunca
// deve aparecer em logs.
type CsrfToken struct {
	Value     string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CsrfService emite e valida tokens CSRF, um ativo por sessão. O estado vive
// no Redis: SET sobre a mesma chave substitui o token anterior, então emissão
// e rotação são a mesma operação e a validação nunca observa dois tokens.
type CsrfService struct {
	redis redisCommander
	ttl   time.Duration
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewCsrfService cria o serviço com TTL configurado.
func NewCsrfService(client redisCommander, ttl time.Duration) *CsrfService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CsrfService{redis: client, ttl: ttl}
}

func csrfKey(sessionID string) string {
	return fmt.Sprintf("csrf:%s", sessionID)
}

// Issue gera token aleatório de 256 bits e o torna o único token ativo da
// sessão.
func (s *CsrfService) Issue(ctx context.Context, sessionID string) (CsrfToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return CsrfToken{}, err
	}

	value := base64.RawURLEncoding.EncodeToString(buf)
	now := time.Now().UTC()

	if err := s.redis.Set(ctx, csrfKey(sessionID), value, s.ttl).Err(); err != nil {
		return CsrfToken{}, err
	}

	return CsrfToken{
		Value:     value,
		SessionID: sessionID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

// Validate compara o valor recebido com o token ativo da sessão usando
// comparação em tempo constante. Token ausente, expirado ou divergente
// resulta em ErrCsrfInvalid; falha de infraestrutura propaga o erro e o
// chamador nega a requisição de qualquer forma.
func (s *CsrfService) Validate(ctx context.Context, sessionID, supplied string) error {
	if sessionID == "" || supplied == "" {
		return ErrCsrfInvalid
	}

	stored, err := s.redis.Get(ctx, csrfKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCsrfInvalid
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return ErrCsrfInvalid
	}
	return nil
}

// Revoke descarta o token ativo da sessão, se houver.
func (s *CsrfService) Revoke(ctx context.Context, sessionID string) error {
	err := s.redis.Del(ctx, csrfKey(sessionID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
