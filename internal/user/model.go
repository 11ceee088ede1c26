package user

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/rbac"
)

var (
	ErrNotFound = errors.New("usuário não encontrado")
)

// User representa um usuário da plataforma, sempre vinculado a um papel e a
// um tenant (lojista). O hash de senha nunca sai em JSON.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         rbac.Role  `json:"role"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty"`
}

type CreateInput struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         rbac.Role
	TenantID     uuid.UUID
	Active       bool
	CreatedBy    *uuid.UUID
}

type UpdateInput struct {
	ID     uuid.UUID
	Name   string
	Phone  string
	Role   rbac.Role
	Active bool
}

// ListFilter restringe listagens e exports.
type ListFilter struct {
	Role   rbac.Role
	Active *bool
}
