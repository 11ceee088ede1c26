package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/audit"
	httpmiddleware "github.com/vitrinedigital/plataforma/internal/http/middleware"
	"github.com/vitrinedigital/plataforma/internal/rbac"
)

// ListAuditLogs devolve uma página da trilha de auditoria. O acesso já passou
// pelo guard de SUPERADMIN; tenant_id opcional restringe o escopo da consulta.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	query := r.URL.Query()

	var requested *uuid.UUID
	if raw := query.Get("tenant_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "tenant_id inválido", nil)
			return
		}
		requested = &parsed
	}

	page := parseIntDefault(query.Get("page"), 1)
	pageSize := parseIntDefault(query.Get("page_size"), 50)

	scope := rbac.ResolveScope(actor, requested)
	filter := audit.ListFilter{
		Action: query.Get("action"),
		Entity: query.Get("entity"),
	}

	entries, total, err := h.audit.List(r.Context(), scope, filter, page, pageSize)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return def
	}
	return value
}
