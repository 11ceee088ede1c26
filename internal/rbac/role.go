package rbac

import (
	"errors"
	"strings"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
	// ErrRoleInvalid indica papel desconhecido ou ausente.
	ErrRoleInvalid = errors.New("papel inválido")
)

// Role representa um papel da hierarquia da plataforma.
type Role string

const (
	RoleSuperAdmin   Role = "SUPERADMIN"
	RoleOperador     Role = "OPERADOR"
	RoleClienteAdmin Role = "CLIENTE_ADMIN"
	RoleClienteUser  Role = "CLIENTE_USER"
)

// roleRank define a ordem total da hierarquia. Papéis fora da tabela têm
// rank zero e perdem qualquer comparação.
var roleRank = map[Role]int{
	RoleSuperAdmin:   4,
	RoleOperador:     3,
	RoleClienteAdmin: 2,
	RoleClienteUser:  1,
}

// Roles lista todos os papéis válidos em ordem decrescente de privilégio.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleOperador, RoleClienteAdmin, RoleClienteUser}
}

// ParseRole normaliza e valida um papel vindo de fora do processo.
// Qualquer valor desconhecido resulta em erro, nunca em papel implícito.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := roleRank[role]; !ok {
		return "", ErrRoleInvalid
	}
	return role, nil
}

// Valid informa se o papel pertence à hierarquia.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank devolve a posição do papel na hierarquia; zero para desconhecidos.
func (r Role) Rank() int {
	return roleRank[r]
}

// CanManage decide se actor pode gerir target. A regra é rank estritamente
// maior; SUPERADMIN é a única exceção reflexiva e gere inclusive outros
// SUPERADMINs. Papéis desconhecidos nunca gerem nada.
func CanManage(actor, target Role) bool {
	if !actor.Valid() || !target.Valid() {
		return false
	}
	if actor == RoleSuperAdmin {
		return true
	}
	return actor.Rank() > target.Rank()
}
