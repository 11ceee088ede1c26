package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/audit"
	httpmiddleware "github.com/vitrinedigital/plataforma/internal/http/middleware"
	"github.com/vitrinedigital/plataforma/internal/tenant"
)

// ListTenants devolve todos os lojistas cadastrados.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		h.handleDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// CreateTenant registra uma nova vitrine.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	var payload struct {
		Slug        string         `json:"slug"`
		DisplayName string         `json:"display_name"`
		Domain      string         `json:"domain"`
		Settings    map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Slug) == "" || strings.TrimSpace(payload.DisplayName) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "slug e display_name são obrigatórios", nil)
		return
	}

	created, err := h.tenants.Create(r.Context(), tenant.CreateTenantInput{
		Slug:        payload.Slug,
		DisplayName: payload.DisplayName,
		Domain:      payload.Domain,
		Settings:    payload.Settings,
	})
	if err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "tenant.create",
			Entity:   "tenant",
			Metadata: map[string]any{"slug": payload.Slug},
			Result:   audit.ResultFailure,
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "tenant.create",
		Entity:   "tenant",
		EntityID: created.ID.String(),
		Metadata: map[string]any{"slug": created.Slug, "domain": created.Domain},
		Result:   audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusCreated, map[string]any{"tenant": created})
}

// UpdateTenant altera dados exibidos da vitrine.
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		DisplayName string         `json:"display_name"`
		Active      bool           `json:"active"`
		Settings    map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	updated, err := h.tenants.Update(r.Context(), tenant.UpdateTenantInput{
		ID:          id,
		DisplayName: payload.DisplayName,
		Active:      payload.Active,
		Settings:    payload.Settings,
	})
	if err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "tenant.update",
			Entity:   "tenant",
			EntityID: id.String(),
			Result:   audit.ResultFailure,
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "tenant.update",
		Entity:   "tenant",
		EntityID: id.String(),
		Metadata: map[string]any{"active": updated.Active},
		Result:   audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusOK, map[string]any{"tenant": updated})
}
