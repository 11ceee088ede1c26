package middleware

import (
	"net/http"
	"strings"
	"time"
)

// Freshness exige sessão recente para operações sensíveis. Caminhos fora dos
// prefixos sensíveis passam sem checagem; nos demais, a idade da sessão não
// pode exceder maxAge. A falha usa o código SESSION_EXPIRED, distinto do
// AUTH genérico, para o cliente saber que deve reautenticar.
func Freshness(maxAge time.Duration, sensitivePrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isSensitivePath(r.URL.Path, sensitivePrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			session, ok := GetSession(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "sessão ausente")
				return
			}

			age := time.Since(session.IssuedAt)
			if age > maxAge {
				writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "sessão antiga demais para esta operação; autentique novamente")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSensitivePath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
