package middleware

import (
	"net/http"

	"github.com/vitrinedigital/plataforma/internal/auth"
)

// CsrfHeader é o cabeçalho exigido em requisições mutantes.
const CsrfHeader = "x-csrf-token"

// Csrf valida o token anti-forgery de requisições que alteram estado.
// Métodos seguros (RFC 7231) são isentos. A checagem acontece antes de
// qualquer autorização de negócio: requisição forjada não serve nem para
// sondar o comportamento do motor de autorização.
func Csrf(svc *auth.CsrfService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			session, ok := GetSession(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente")
				return
			}

			supplied := r.Header.Get(CsrfHeader)
			if err := svc.Validate(r.Context(), session.ID, supplied); err != nil {
				// Falha de infraestrutura também nega: nunca default-allow.
				writeError(w, http.StatusForbidden, "CSRF_TOKEN_INVALID", "token csrf ausente ou inválido")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
