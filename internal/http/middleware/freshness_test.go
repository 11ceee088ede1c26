package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testSensitivePrefixes = []string{"/users", "/admin", "/auth/password"}

func TestFreshnessAllowsRecentSession(t *testing.T) {
	session := Session{ID: "sessao-1", IssuedAt: time.Now().Add(-5 * time.Minute)}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := withSession(httptest.NewRequest(http.MethodPost, "/users", nil), session)
	rec := httptest.NewRecorder()
	Freshness(15*time.Minute, testSensitivePrefixes)(next).ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("sessão de 5 minutos deve passar: %d", rec.Code)
	}
}

func TestFreshnessRejectsStaleSessionOnSensitivePath(t *testing.T) {
	session := Session{ID: "sessao-1", IssuedAt: time.Now().Add(-16 * time.Minute)}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("sessão antiga não pode alcançar rota sensível")
	})

	req := withSession(httptest.NewRequest(http.MethodPost, "/users", nil), session)
	rec := httptest.NewRecorder()
	Freshness(15*time.Minute, testSensitivePrefixes)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, obteve %d", rec.Code)
	}
	// SESSION_EXPIRED é distinto do AUTH genérico: o cliente sabe que o token
	// ainda assina, só precisa reautenticar.
	if code := decodeErrorCode(t, rec); code != "SESSION_EXPIRED" {
		t.Fatalf("esperava SESSION_EXPIRED, obteve %s", code)
	}
}

func TestFreshnessIgnoresNonSensitivePaths(t *testing.T) {
	session := Session{ID: "sessao-1", IssuedAt: time.Now().Add(-2 * time.Hour)}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := withSession(httptest.NewRequest(http.MethodGet, "/me", nil), session)
	rec := httptest.NewRecorder()
	Freshness(15*time.Minute, testSensitivePrefixes)(next).ServeHTTP(rec, req)

	if !called {
		t.Fatal("caminho fora dos prefixos sensíveis não exige frescor")
	}
}

func TestFreshnessRequiresSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("sem sessão não passa")
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	Freshness(15*time.Minute, testSensitivePrefixes)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, obteve %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "AUTH" {
		t.Fatalf("sessão ausente é AUTH, obteve %s", code)
	}
}
