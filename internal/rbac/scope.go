package rbac

import "github.com/google/uuid"

// Scope é o filtro de tenant efetivo de uma consulta. Deve ser aplicado na
// construção da query, nunca como filtro posterior sobre linhas já lidas.
type Scope struct {
	TenantID   uuid.UUID
	AllTenants bool
}

// ResolveScope devolve o escopo de tenant a aplicar. Apenas SUPERADMIN pode
// escolher outro tenant (ou todos, quando não informar nenhum); para os
// demais papéis o escopo é sempre o tenant do próprio actor, ignorando
// qualquer valor presente na requisição.
func ResolveScope(actor Actor, requested *uuid.UUID) Scope {
	if actor.Role == RoleSuperAdmin {
		if requested != nil && *requested != uuid.Nil {
			return Scope{TenantID: *requested}
		}
		return Scope{AllTenants: true}
	}
	return Scope{TenantID: actor.TenantID}
}
