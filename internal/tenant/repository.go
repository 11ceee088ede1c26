package tenant

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tenantColumns = "id, slug, display_name, domain, settings, active, created_at, updated_at"

// Repository provê acesso ao armazenamento de tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de tenants.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID busca tenant pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	const query = `
        SELECT id, slug, display_name, domain, settings, active, created_at, updated_at
        FROM tenants
        WHERE id = $1
    `

	return scanTenant(r.pool.QueryRow(ctx, query, id))
}

// GetByDomain busca tenant pelo domínio normalizado.
func (r *Repository) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	const query = `
        SELECT id, slug, display_name, domain, settings, active, created_at, updated_at
        FROM tenants
        WHERE domain = $1
    `

	return scanTenant(r.pool.QueryRow(ctx, query, domain))
}

// List devolve todos os tenants ordenados por criação.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	const query = `
        SELECT id, slug, display_name, domain, settings, active, created_at, updated_at
        FROM tenants
        ORDER BY created_at DESC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tenants, nil
}

// Create insere um novo tenant e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateTenantInput) (*Tenant, error) {
	const query = `
        INSERT INTO tenants (id, slug, display_name, domain, settings, active)
        VALUES ($1, $2, $3, $4, $5, true)
        RETURNING id, slug, display_name, domain, settings, active, created_at, updated_at
    `

	settings, err := json.Marshal(input.Settings)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, query, uuid.New(), input.Slug, input.DisplayName, input.Domain, settings)
	return scanTenant(row)
}

// Update altera nome exibido, estado e configurações.
func (r *Repository) Update(ctx context.Context, input UpdateTenantInput) (*Tenant, error) {
	const query = `
        UPDATE tenants
        SET display_name = $2,
            active = $3,
            settings = $4,
            updated_at = now()
        WHERE id = $1
        RETURNING id, slug, display_name, domain, settings, active, created_at, updated_at
    `

	settings, err := json.Marshal(input.Settings)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, query, input.ID, input.DisplayName, input.Active, settings)
	return scanTenant(row)
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	var settings []byte
	err := row.Scan(&t.ID, &t.Slug, &t.DisplayName, &t.Domain, &settings, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, err
		}
	}
	if t.Settings == nil {
		t.Settings = map[string]any{}
	}

	return &t, nil
}
