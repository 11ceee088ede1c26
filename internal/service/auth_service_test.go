package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vitrinedigital/plataforma/internal/auth"
	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/user"
)

type stubAuthRepo struct {
	user       *user.User
	touchCalls int
}

func (s *stubAuthRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if s.user != nil && strings.EqualFold(email, s.user.Email) {
		clone := *s.user
		return &clone, nil
	}
	return nil, user.ErrNotFound
}

func (s *stubAuthRepo) GetByID(ctx context.Context, scope rbac.Scope, id uuid.UUID) (*user.User, error) {
	if s.user != nil && id == s.user.ID {
		clone := *s.user
		return &clone, nil
	}
	return nil, user.ErrNotFound
}

func (s *stubAuthRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	s.touchCalls++
	return nil
}

type fakeSessionStore struct {
	store map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{store: map[string]string{}}
}

func (f *fakeSessionStore) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.store[key] = fmt.Sprintf("%v", value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeSessionStore) Get(ctx context.Context, key string) *redis.StringCmd {
	value, ok := f.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeSessionStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.store[key]; ok {
			delete(f.store, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func testUser(t *testing.T, password string, active bool) *user.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &user.User{
		ID:           uuid.New(),
		Name:         "Joana",
		Email:        "joana@loja.com",
		PasswordHash: hash,
		Role:         rbac.RoleClienteAdmin,
		TenantID:     uuid.New(),
		Active:       active,
	}
}

func newAuthServiceForTest(t *testing.T, repo *stubAuthRepo, store *fakeSessionStore) *AuthService {
	t.Helper()
	jwtMgr := auth.NewJWTManager("chave-de-teste-com-32-caracteres!", time.Hour)
	return NewAuthService(repo, store, jwtMgr, 24*time.Hour)
}

func TestLoginSuccess(t *testing.T) {
	u := testUser(t, "senha-correta", true)
	repo := &stubAuthRepo{user: u}
	store := newFakeSessionStore()
	svc := newAuthServiceForTest(t, repo, store)

	result, err := svc.Login(context.Background(), "JOANA@loja.com", "senha-correta")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" || result.SessionID == "" {
		t.Fatal("sessão completa deve ser emitida")
	}
	if result.Role != rbac.RoleClienteAdmin || result.TenantID != u.TenantID {
		t.Fatalf("claims divergentes: %+v", result)
	}
	if repo.touchCalls != 1 {
		t.Fatalf("last_login_at deveria ser tocado 1 vez, foi %d", repo.touchCalls)
	}

	key := auth.RefreshRedisKey(auth.HashRefreshToken(result.RefreshToken))
	if store.store[key] != u.ID.String() {
		t.Fatal("refresh deve ser guardado apenas pelo hash")
	}
	for key := range store.store {
		if strings.Contains(key, result.RefreshToken) {
			t.Fatal("valor bruto do refresh nunca vai ao store")
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubAuthRepo{user: testUser(t, "senha-correta", true)}
	svc := newAuthServiceForTest(t, repo, newFakeSessionStore())

	if _, err := svc.Login(context.Background(), "joana@loja.com", "senha-errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, obteve %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newAuthServiceForTest(t, &stubAuthRepo{}, newFakeSessionStore())

	if _, err := svc.Login(context.Background(), "ninguem@loja.com", "qualquer"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("conta inexistente responde igual a senha errada: %v", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := &stubAuthRepo{user: testUser(t, "senha-correta", false)}
	svc := newAuthServiceForTest(t, repo, newFakeSessionStore())

	if _, err := svc.Login(context.Background(), "joana@loja.com", "senha-correta"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("esperava ErrAccountDisabled, obteve %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	u := testUser(t, "senha-correta", true)
	repo := &stubAuthRepo{user: u}
	store := newFakeSessionStore()
	svc := newAuthServiceForTest(t, repo, store)

	login, err := svc.Login(context.Background(), u.Email, "senha-correta")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh deve rotacionar o token")
	}

	// O token antigo foi revogado; reuso falha.
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("reuso de refresh deve falhar: %v", err)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	svc := newAuthServiceForTest(t, &stubAuthRepo{}, newFakeSessionStore())

	if _, err := svc.Refresh(context.Background(), "inexistente"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("esperava ErrRefreshInvalid, obteve %v", err)
	}
	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("token vazio deve falhar: %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	u := testUser(t, "senha-correta", true)
	repo := &stubAuthRepo{user: u}
	store := newFakeSessionStore()
	svc := newAuthServiceForTest(t, repo, store)

	login, err := svc.Login(context.Background(), u.Email, "senha-correta")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatal("refresh revogado não pode renovar sessão")
	}
}
