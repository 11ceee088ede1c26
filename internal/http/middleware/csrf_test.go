package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitrinedigital/plataforma/internal/auth"
)

type fakeCsrfStore struct {
	store  map[string]string
	getErr error
}

func newFakeCsrfStore() *fakeCsrfStore {
	return &fakeCsrfStore{store: map[string]string{}}
}

func (f *fakeCsrfStore) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.store[key] = fmt.Sprintf("%v", value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCsrfStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeCsrfStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := f.store[key]; ok {
			delete(f.store, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestCsrfExemptsSafeMethods(t *testing.T) {
	svc := auth.NewCsrfService(newFakeCsrfStore(), 30*time.Minute)

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(method, "/users", nil)
		rec := httptest.NewRecorder()
		Csrf(svc)(next).ServeHTTP(rec, req)

		if !called {
			t.Errorf("%s não exige token csrf", method)
		}
	}
}

func TestCsrfBlocksMutationWithoutToken(t *testing.T) {
	store := newFakeCsrfStore()
	svc := auth.NewCsrfService(store, 30*time.Minute)

	session := Session{ID: "sessao-1", IssuedAt: time.Now()}
	if _, err := svc.Issue(context.Background(), session.ID); err != nil {
		t.Fatalf("issue: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("mutação sem token não pode chegar ao handler")
	})

	req := withSession(httptest.NewRequest(http.MethodPost, "/users", nil), session)
	rec := httptest.NewRecorder()
	Csrf(svc)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("esperava 403, obteve %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "CSRF_TOKEN_INVALID" {
		t.Fatalf("esperava CSRF_TOKEN_INVALID, obteve %s", code)
	}
}

func TestCsrfAcceptsValidToken(t *testing.T) {
	store := newFakeCsrfStore()
	svc := auth.NewCsrfService(store, 30*time.Minute)

	session := Session{ID: "sessao-1", IssuedAt: time.Now()}
	token, err := svc.Issue(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := withSession(httptest.NewRequest(http.MethodPost, "/users", nil), session)
	req.Header.Set(CsrfHeader, token.Value)
	rec := httptest.NewRecorder()
	Csrf(svc)(next).ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("token válido deveria passar: %d", rec.Code)
	}
}

func TestCsrfRejectsTokenFromAnotherSession(t *testing.T) {
	store := newFakeCsrfStore()
	svc := auth.NewCsrfService(store, 30*time.Minute)

	other, err := svc.Issue(context.Background(), "sessao-alheia")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	session := Session{ID: "sessao-1", IssuedAt: time.Now()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("token de outra sessão não pode passar")
	})

	req := withSession(httptest.NewRequest(http.MethodDelete, "/users/abc", nil), session)
	req.Header.Set(CsrfHeader, other.Value)
	rec := httptest.NewRecorder()
	Csrf(svc)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("esperava 403, obteve %d", rec.Code)
	}
}

func TestCsrfFailsClosedOnInfraError(t *testing.T) {
	store := newFakeCsrfStore()
	store.getErr = errors.New("redis indisponível")
	svc := auth.NewCsrfService(store, 30*time.Minute)

	session := Session{ID: "sessao-1", IssuedAt: time.Now()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("falha de infraestrutura nunca libera a mutação")
	})

	req := withSession(httptest.NewRequest(http.MethodPost, "/users", nil), session)
	req.Header.Set(CsrfHeader, "qualquer")
	rec := httptest.NewRecorder()
	Csrf(svc)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("esperava 403, obteve %d", rec.Code)
	}
}

func TestCsrfRequiresSession(t *testing.T) {
	svc := auth.NewCsrfService(newFakeCsrfStore(), 30*time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/users", nil)
	rec := httptest.NewRecorder()
	Csrf(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("sem sessão não passa")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, obteve %d", rec.Code)
	}
}
