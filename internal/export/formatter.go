package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/user"
)

// Record é a projeção exportável de um usuário: sem material de credencial,
// timestamps normalizados, vida útil de uma única resposta.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	TenantID    string `json:"tenant_id"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// csvHeader fixa a ordem dos campos; as linhas seguem exatamente esta ordem.
var csvHeader = []string{"id", "name", "email", "role", "tenant_id", "active", "created_at", "last_login_at"}

type userLister interface {
	List(ctx context.Context, scope rbac.Scope, filter user.ListFilter, maxRank int) ([]user.User, error)
}

// Service monta exports filtrados por tenant e papel.
type Service struct {
	users userLister
}

func NewService(users userLister) *Service {
	return &Service{users: users}
}

// Export compõe o escopo de tenant com o teto de papel do actor: o resultado
// só contém usuários de rank menor ou igual ao do próprio actor, então um
// CLIENTE_ADMIN jamais exporta OPERADOR ou SUPERADMIN. Ambos os filtros
// entram na construção da query.
func (s *Service) Export(ctx context.Context, actor rbac.Actor, filter user.ListFilter) ([]Record, error) {
	if !actor.Role.Valid() {
		return nil, rbac.ErrForbidden
	}

	scope := rbac.ResolveScope(actor, nil)
	maxRank := actor.Role.Rank()

	users, err := s.users.List(ctx, scope, filter, maxRank)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(users))
	for _, u := range users {
		records = append(records, FormatUser(u))
	}
	return records, nil
}

// FormatUser projeta o usuário para export: descarta hash de senha e telefone
// e normaliza timestamps para RFC 3339 em UTC.
func FormatUser(u user.User) Record {
	record := Record{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		TenantID:  u.TenantID.String(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.LastLoginAt != nil {
		record.LastLoginAt = u.LastLoginAt.UTC().Format(time.RFC3339)
	}
	return record
}

// ConvertToCSV emite cabeçalho e uma linha por registro com escaping padrão:
// campos com vírgula, aspas ou quebra de linha saem entre aspas duplas, com
// aspas internas duplicadas.
func ConvertToCSV(records []Record) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, r := range records {
		row := []string{
			r.ID,
			r.Name,
			r.Email,
			r.Role,
			r.TenantID,
			strconv.FormatBool(r.Active),
			r.CreatedAt,
			r.LastLoginAt,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
