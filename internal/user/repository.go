package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrinedigital/plataforma/internal/db"
	"github.com/vitrinedigital/plataforma/internal/rbac"
)

const userColumns = "id, name, email, coalesce(phone,''), password_hash, role, tenant_id, active, last_login_at, created_at, updated_at, created_by"

// Repository fornece acesso aos dados dos usuários da plataforma. Todas as
// leituras escopadas recebem rbac.Scope e aplicam o filtro de tenant na
// construção da query; linhas de outros tenants nunca são trazidas do banco.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail recupera usuário pelo e-mail. Uso exclusivo do fluxo de login,
// antes de existir actor; todo o resto usa as variantes escopadas.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	normalized := strings.ToLower(strings.TrimSpace(email))
	row := r.pool.QueryRow(ctx, query, normalized)
	return scanUser(row)
}

// GetByID recupera usuário pelo ID dentro do escopo.
func (r *Repository) GetByID(ctx context.Context, scope rbac.Scope, id uuid.UUID) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	args := []any{id}
	if !scope.AllTenants {
		args = append(args, scope.TenantID)
		query += " AND tenant_id = $2"
	}

	row := r.pool.QueryRow(ctx, query, args...)
	return scanUser(row)
}

// List devolve os usuários do escopo, com filtros opcionais de papel e
// estado e um teto de papel: apenas linhas cujo rank não excede maxRank.
func (r *Repository) List(ctx context.Context, scope rbac.Scope, filter ListFilter, maxRank int) ([]User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE 1=1`, userColumns)
	args := []any{}

	if !scope.AllTenants {
		args = append(args, scope.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if maxRank > 0 {
		roles := make([]string, 0, len(rbac.Roles()))
		for _, role := range rbac.Roles() {
			if role.Rank() <= maxRank {
				roles = append(roles, string(role))
			}
		}
		args = append(args, roles)
		query += fmt.Sprintf(" AND role = ANY($%d)", len(args))
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return users, nil
}

// Create insere novo usuário.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*User, error) {
	query := fmt.Sprintf(`
        INSERT INTO users (id, name, email, phone, password_hash, role, tenant_id, active, created_by)
        VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7, $8, $9)
        RETURNING %s
    `, userColumns)

	id := uuid.New()
	row := r.pool.QueryRow(ctx, query,
		id,
		strings.TrimSpace(input.Name),
		strings.ToLower(strings.TrimSpace(input.Email)),
		strings.TrimSpace(input.Phone),
		input.PasswordHash,
		string(input.Role),
		input.TenantID,
		input.Active,
		input.CreatedBy,
	)

	return scanUser(row)
}

// Update altera dados principais do usuário dentro do escopo.
func (r *Repository) Update(ctx context.Context, scope rbac.Scope, input UpdateInput) (*User, error) {
	query := `
        UPDATE users
        SET name = $2,
            phone = NULLIF($3,''),
            role = $4,
            active = $5,
            updated_at = now()
        WHERE id = $1`
	args := []any{
		input.ID,
		strings.TrimSpace(input.Name),
		strings.TrimSpace(input.Phone),
		string(input.Role),
		input.Active,
	}
	if !scope.AllTenants {
		args = append(args, scope.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	query += fmt.Sprintf(" RETURNING %s", userColumns)

	row := r.pool.QueryRow(ctx, query, args...)
	return scanUser(row)
}

// UpdatePassword troca o hash de senha dentro do escopo.
func (r *Repository) UpdatePassword(ctx context.Context, scope rbac.Scope, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	args := []any{id, hash}
	if !scope.AllTenants {
		args = append(args, scope.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove o usuário dentro do escopo. As referências created_by dos
// usuários criados por ele são anuladas na mesma transação; se a linha não
// estiver no escopo tudo é desfeito.
func (r *Repository) Delete(ctx context.Context, scope rbac.Scope, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	args := []any{id}
	if !scope.AllTenants {
		args = append(args, scope.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET created_by = NULL WHERE created_by = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TouchLastLogin registra o instante do login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&role,
		&u.TenantID,
		&u.Active,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	parsed, err := rbac.ParseRole(role)
	if err != nil {
		// Papel corrompido no banco é tratado como registro inválido, não
		// como papel implícito.
		return nil, fmt.Errorf("usuário %s: %w", u.ID, err)
	}
	u.Role = parsed

	return &u, nil
}
