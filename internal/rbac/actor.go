package rbac

import "github.com/google/uuid"

// Actor é a identidade efetiva de uma requisição, derivada exclusivamente
// da sessão verificada. Nunca é montada a partir de cabeçalhos ou corpo.
type Actor struct {
	ID       uuid.UUID
	Role     Role
	TenantID uuid.UUID
}

// Decision descreve o resultado de uma checagem de autorização.
type Decision struct {
	Allowed bool
	Reason  string
}

// RequireRole nega a menos que o papel do actor esteja entre os permitidos.
// Papel ausente ou desconhecido resulta sempre em negação.
func RequireRole(actor Actor, allowed ...Role) Decision {
	if !actor.Role.Valid() {
		return Decision{Allowed: false, Reason: "papel ausente ou inválido"}
	}
	for _, role := range allowed {
		if actor.Role == role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Allowed: false, Reason: "papel sem permissão para a operação"}
}

// RequireAdmin exige o papel máximo da hierarquia.
func RequireAdmin(actor Actor) Decision {
	return RequireRole(actor, RoleSuperAdmin)
}
