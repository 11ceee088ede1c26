package http

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/vitrinedigital/plataforma/internal/http/middleware"
)

// IssueCsrfToken emite o token anti-forgery da sessão atual. Reemitir invalida
// o token anterior: só existe um ativo por sessão.
func (h *Handler) IssueCsrfToken(w http.ResponseWriter, r *http.Request) {
	session, ok := httpmiddleware.GetSession(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	token, err := h.csrf.Issue(r.Context(), session.ID)
	if err != nil {
		// O valor do token nunca chega ao log, só o identificador da sessão.
		log.Error().Err(err).Str("session_id", session.ID).Msg("emissão de token csrf falhou")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível emitir token", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"csrf_token": token.Value,
		"expires_at": token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
