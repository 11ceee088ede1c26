package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/audit"
	httpmiddleware "github.com/vitrinedigital/plataforma/internal/http/middleware"
	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/service"
	"github.com/vitrinedigital/plataforma/internal/user"
)

// ListUsers devolve os usuários visíveis ao actor.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	filter, err := parseUserFilter(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	users, err := h.users.ListUsers(r.Context(), actor, filter)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

// CreateUser cria usuário dentro do escopo e da hierarquia do actor.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	var payload struct {
		Name     string  `json:"name"`
		Email    string  `json:"email"`
		Phone    string  `json:"phone"`
		Role     string  `json:"role"`
		TenantID *string `json:"tenant_id"`
		Senha    string  `json:"senha"`
		Active   *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	var tenantID *uuid.UUID
	if payload.TenantID != nil {
		parsed, err := uuid.Parse(*payload.TenantID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "tenant_id inválido", nil)
			return
		}
		tenantID = &parsed
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	created, err := h.users.CreateUser(r.Context(), actor, service.CreateUserParams{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Role:     payload.Role,
		TenantID: tenantID,
		Password: payload.Senha,
		Active:   active,
	})
	if err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action: "user.create",
			Entity: "user",
			Metadata: map[string]any{
				"email":          payload.Email,
				"requested_role": payload.Role,
			},
			Result: userAuditResult(err),
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "user.create",
		Entity:   "user",
		EntityID: created.ID.String(),
		Metadata: map[string]any{
			"email": created.Email,
			"role":  string(created.Role),
		},
		Result: audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusCreated, map[string]any{"user": created})
}

// UpdateUser altera dados do usuário alvo.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
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
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		Role   string `json:"role"`
		Active bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	updated, err := h.users.UpdateUser(r.Context(), actor, id, service.UpdateUserParams{
		Name:   payload.Name,
		Phone:  payload.Phone,
		Role:   payload.Role,
		Active: payload.Active,
	})
	if err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "user.update",
			Entity:   "user",
			EntityID: id.String(),
			Metadata: map[string]any{"requested_role": payload.Role},
			Result:   userAuditResult(err),
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "user.update",
		Entity:   "user",
		EntityID: id.String(),
		Metadata: map[string]any{"role": string(updated.Role), "active": updated.Active},
		Result:   audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusOK, map[string]any{"user": updated})
}

// DeleteUser remove o usuário alvo.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
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

	if err := h.users.DeleteUser(r.Context(), actor, id); err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "user.delete",
			Entity:   "user",
			EntityID: id.String(),
			Result:   userAuditResult(err),
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "user.delete",
		Entity:   "user",
		EntityID: id.String(),
		Result:   audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SetUserPassword troca a senha do usuário alvo.
func (h *Handler) SetUserPassword(w http.ResponseWriter, r *http.Request) {
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
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.users.SetPassword(r.Context(), actor, id, payload.Senha); err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "user.password_change",
			Entity:   "user",
			EntityID: id.String(),
			Result:   userAuditResult(err),
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "user.password_change",
		Entity:   "user",
		EntityID: id.String(),
		Result:   audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// userAuditResult classifica a falha para a trilha: negação de acesso é
// "denied", o resto é "failure".
func userAuditResult(err error) string {
	if errors.Is(err, rbac.ErrForbidden) {
		return audit.ResultDenied
	}
	return audit.ResultFailure
}

func parseUserFilter(r *http.Request) (user.ListFilter, error) {
	var filter user.ListFilter

	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := rbac.ParseRole(raw)
		if err != nil {
			return filter, errors.New("papel inválido no filtro")
		}
		filter.Role = role
	}

	switch r.URL.Query().Get("status") {
	case "":
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		active := false
		filter.Active = &active
	default:
		return filter, errors.New("status deve ser active ou inactive")
	}

	return filter, nil
}
