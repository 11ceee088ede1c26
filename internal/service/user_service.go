package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/auth"
	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/user"
	"github.com/vitrinedigital/plataforma/internal/util"
)

var (
	// ErrTenantRequired indica criação sem tenant por um SUPERADMIN.
	ErrTenantRequired = errors.New("tenant obrigatório")
)

type userRepository interface {
	GetByID(ctx context.Context, scope rbac.Scope, id uuid.UUID) (*user.User, error)
	List(ctx context.Context, scope rbac.Scope, filter user.ListFilter, maxRank int) ([]user.User, error)
	Create(ctx context.Context, input user.CreateInput) (*user.User, error)
	Update(ctx context.Context, scope rbac.Scope, input user.UpdateInput) (*user.User, error)
	UpdatePassword(ctx context.Context, scope rbac.Scope, id uuid.UUID, hash string) error
	Delete(ctx context.Context, scope rbac.Scope, id uuid.UUID) error
}

// UserService centraliza casos de uso de gestão de usuários. Todas as
// operações recebem o actor e aplicam hierarquia de papéis e escopo de
// tenant antes de tocar o repositório.
type UserService struct {
	repo userRepository
}

// NewUserService cria nova instância do serviço.
func NewUserService(repo userRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUserParams reúne a entrada bruta do handler.
type CreateUserParams struct {
	Name     string
	Email    string
	Phone    string
	Role     string
	TenantID *uuid.UUID
	Password string
	Active   bool
}

// UpdateUserParams reúne alterações permitidas.
type UpdateUserParams struct {
	Name   string
	Phone  string
	Role   string
	Active bool
}

// ListUsers devolve os usuários visíveis ao actor: escopo do próprio tenant
// (salvo SUPERADMIN) e nunca papéis acima do seu.
func (s *UserService) ListUsers(ctx context.Context, actor rbac.Actor, filter user.ListFilter) ([]user.User, error) {
	if !actor.Role.Valid() {
		return nil, rbac.ErrForbidden
	}
	scope := rbac.ResolveScope(actor, nil)
	return s.repo.List(ctx, scope, filter, actor.Role.Rank())
}

// GetUser busca um usuário dentro do escopo do actor.
func (s *UserService) GetUser(ctx context.Context, actor rbac.Actor, id uuid.UUID) (*user.User, error) {
	scope := rbac.ResolveScope(actor, nil)
	return s.repo.GetByID(ctx, scope, id)
}

// CreateUser cria usuário respeitando a hierarquia: o actor só cria papéis
// que pode gerir, e sempre dentro do tenant efetivo.
func (s *UserService) CreateUser(ctx context.Context, actor rbac.Actor, params CreateUserParams) (*user.User, error) {
	role, err := rbac.ParseRole(params.Role)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManage(actor.Role, role) {
		return nil, rbac.ErrForbidden
	}

	if err := util.ValidateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(params.Password); err != nil {
		return nil, err
	}
	if err := util.RequireString(params.Name, "nome"); err != nil {
		return nil, err
	}

	scope := rbac.ResolveScope(actor, params.TenantID)
	if scope.AllTenants {
		return nil, ErrTenantRequired
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	createdBy := actor.ID
	return s.repo.Create(ctx, user.CreateInput{
		Name:         params.Name,
		Email:        params.Email,
		Phone:        params.Phone,
		PasswordHash: hash,
		Role:         role,
		TenantID:     scope.TenantID,
		Active:       params.Active,
		CreatedBy:    &createdBy,
	})
}

// UpdateUser altera dados do usuário alvo. Exige poder de gestão tanto sobre
// o papel atual do alvo quanto sobre o papel resultante.
func (s *UserService) UpdateUser(ctx context.Context, actor rbac.Actor, id uuid.UUID, params UpdateUserParams) (*user.User, error) {
	scope := rbac.ResolveScope(actor, nil)

	target, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !rbac.CanManage(actor.Role, target.Role) {
		return nil, rbac.ErrForbidden
	}

	newRole := target.Role
	if params.Role != "" {
		newRole, err = rbac.ParseRole(params.Role)
		if err != nil {
			return nil, err
		}
		if !rbac.CanManage(actor.Role, newRole) {
			return nil, rbac.ErrForbidden
		}
	}

	name := params.Name
	if name == "" {
		name = target.Name
	}

	return s.repo.Update(ctx, scope, user.UpdateInput{
		ID:     id,
		Name:   name,
		Phone:  params.Phone,
		Role:   newRole,
		Active: params.Active,
	})
}

// SetPassword troca a senha do alvo: o próprio usuário ou alguém que o gere.
func (s *UserService) SetPassword(ctx context.Context, actor rbac.Actor, id uuid.UUID, password string) error {
	if err := util.ValidatePassword(password); err != nil {
		return err
	}

	scope := rbac.ResolveScope(actor, nil)
	target, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}

	if actor.ID != target.ID && !rbac.CanManage(actor.Role, target.Role) {
		return rbac.ErrForbidden
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, scope, id, hash)
}

// DeleteUser remove definitivamente o usuário alvo.
func (s *UserService) DeleteUser(ctx context.Context, actor rbac.Actor, id uuid.UUID) error {
	scope := rbac.ResolveScope(actor, nil)

	target, err := s.repo.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}
	if !rbac.CanManage(actor.Role, target.Role) {
		return rbac.ErrForbidden
	}

	return s.repo.Delete(ctx, scope, id)
}
