package export

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/user"
)

type stubLister struct {
	users     []user.User
	lastScope rbac.Scope
	lastRank  int
}

func (s *stubLister) List(ctx context.Context, scope rbac.Scope, filter user.ListFilter, maxRank int) ([]user.User, error) {
	s.lastScope = scope
	s.lastRank = maxRank
	return s.users, nil
}

func TestExportAppliesScopeAndRoleCeiling(t *testing.T) {
	lister := &stubLister{}
	svc := NewService(lister)

	tenantID := uuid.New()
	actor := rbac.Actor{ID: uuid.New(), Role: rbac.RoleClienteAdmin, TenantID: tenantID}

	if _, err := svc.Export(context.Background(), actor, user.ListFilter{}); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if lister.lastScope.AllTenants {
		t.Fatal("CLIENTE_ADMIN não pode exportar todos os tenants")
	}
	if lister.lastScope.TenantID != tenantID {
		t.Fatalf("escopo deveria ser o tenant do actor: %s", lister.lastScope.TenantID)
	}
	if lister.lastRank != rbac.RoleClienteAdmin.Rank() {
		t.Fatalf("teto de papel deveria ser o rank do actor: %d", lister.lastRank)
	}
}

func TestExportSuperAdminSeesAllTenants(t *testing.T) {
	lister := &stubLister{}
	svc := NewService(lister)

	actor := rbac.Actor{ID: uuid.New(), Role: rbac.RoleSuperAdmin, TenantID: uuid.New()}
	if _, err := svc.Export(context.Background(), actor, user.ListFilter{}); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if !lister.lastScope.AllTenants {
		t.Fatal("SUPERADMIN exporta sem filtro de tenant")
	}
}

func TestExportRejectsInvalidRole(t *testing.T) {
	svc := NewService(&stubLister{})
	actor := rbac.Actor{ID: uuid.New(), Role: rbac.Role("GERENTE"), TenantID: uuid.New()}

	if _, err := svc.Export(context.Background(), actor, user.ListFilter{}); !errors.Is(err, rbac.ErrForbidden) {
		t.Fatalf("esperava ErrForbidden, obteve %v", err)
	}
}

func TestFormatUserOmitsCredentials(t *testing.T) {
	lastLogin := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	u := user.User{
		ID:           uuid.New(),
		Name:         "Joana",
		Email:        "joana@loja.com",
		PasswordHash: "$argon2id$...",
		Role:         rbac.RoleClienteUser,
		TenantID:     uuid.New(),
		Active:       true,
		LastLoginAt:  &lastLogin,
		CreatedAt:    time.Date(2026, 1, 2, 8, 30, 0, 0, time.UTC),
	}

	record := FormatUser(u)
	if record.CreatedAt != "2026-01-02T08:30:00Z" {
		t.Fatalf("created_at incorreto: %s", record.CreatedAt)
	}
	if record.LastLoginAt != "2026-03-10T12:00:00Z" {
		t.Fatalf("last_login_at incorreto: %s", record.LastLoginAt)
	}
}

func TestConvertToCSVEscaping(t *testing.T) {
	record := Record{
		ID:        uuid.NewString(),
		Name:      `O'Hara, "Bob"`,
		Email:     "bob@loja.com",
		Role:      "CLIENTE_USER",
		TenantID:  uuid.NewString(),
		Active:    true,
		CreatedAt: "2026-01-02T08:30:00Z",
	}

	body, err := ConvertToCSV([]Record{record})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(body))
	rows, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("CSV gerado deve ser relegível: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("esperava cabeçalho + 1 linha, obteve %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "name" {
		t.Fatalf("cabeçalho incorreto: %v", rows[0])
	}
	if rows[1][1] != `O'Hara, "Bob"` {
		t.Fatalf("nome deveria sobreviver ao round-trip: %q", rows[1][1])
	}
	if rows[1][5] != "true" {
		t.Fatalf("active incorreto: %q", rows[1][5])
	}
}

func TestConvertToCSVEmpty(t *testing.T) {
	body, err := ConvertToCSV(nil)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if !strings.HasPrefix(body, "id,name,email") {
		t.Fatalf("mesmo vazio o cabeçalho deve sair: %q", body)
	}
	if strings.Count(body, "\n") != 1 {
		t.Fatalf("esperava apenas a linha de cabeçalho: %q", body)
	}
}
