package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/auth"
	"github.com/vitrinedigital/plataforma/internal/obs"
	"github.com/vitrinedigital/plataforma/internal/rbac"
)

type contextKey string

const (
	ContextKeyActor   contextKey = "actor"
	ContextKeySession contextKey = "session"
)

// Session carrega o que os guards precisam da sessão verificada: o vínculo
// do CSRF (jti) e o instante de emissão para o cálculo de idade.
type Session struct {
	ID       string
	IssuedAt time.Time
}

// Auth valida o JWT de acesso e injeta actor e sessão no contexto. Todos os
// campos do actor derivam das claims assinadas; cabeçalhos de identidade
// (x-user-id, x-user-role, x-tenant-id) são ignorados por completo.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			// Qualquer claim ausente ou malformada nega a requisição;
			// não existe papel ou tenant implícito.
			subject, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}
			role, err := rbac.ParseRole(claims.Role)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}
			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}
			if claims.IssuedAt == nil || claims.ID == "" {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			actor := rbac.Actor{ID: subject, Role: role, TenantID: tenantID}
			session := Session{ID: claims.ID, IssuedAt: claims.IssuedAt.Time}

			ctx := context.WithValue(r.Context(), ContextKeyActor, actor)
			ctx = context.WithValue(ctx, ContextKeySession, session)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActor recupera o actor do contexto.
func GetActor(ctx context.Context) (rbac.Actor, bool) {
	val, ok := ctx.Value(ContextKeyActor).(rbac.Actor)
	return val, ok
}

// GetSession recupera a sessão do contexto.
func GetSession(ctx context.Context) (Session, bool) {
	val, ok := ctx.Value(ContextKeySession).(Session)
	return val, ok
}

// RequireRoles garante que o actor possua um dos papéis informados. A decisão
// vem de rbac.RequireRole e a resposta 403 é uniforme para o chamador.
func RequireRoles(roles ...rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente")
				return
			}

			decision := rbac.RequireRole(actor, roles...)
			if !decision.Allowed {
				obs.AuthzDenials.WithLabelValues("role").Inc()
				writeError(w, http.StatusForbidden, "FORBIDDEN", "papel sem permissão para a operação")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin restringe ao papel máximo da hierarquia.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(rbac.RoleSuperAdmin)(next)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
