package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrinedigital/plataforma/internal/rbac"
)

// Repository persiste a trilha de auditoria. A superfície é propositalmente
// estreita: inserir e listar. Não há UPDATE nem DELETE.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert grava uma entrada. A unicidade do id (ULID) e o timestamp atribuído
// na gravação garantem ordenação não decrescente por entrada.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	const query = `
        INSERT INTO audit_logs (id, ts, actor_id, tenant_id, action, entity, entity_id, metadata, result)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''), $8, $9)
    `

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("serializar metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.ActorID,
		nullableUUID(entry.TenantID),
		entry.Action,
		entry.Entity,
		entry.EntityID,
		metadata,
		entry.Result,
	)
	return err
}

// List devolve uma página da trilha dentro do escopo de tenant informado.
// O escopo entra na construção da query; linhas de outros tenants nunca são
// lidas do store.
func (r *Repository) List(ctx context.Context, scope rbac.Scope, filter ListFilter, page, pageSize int) ([]Entry, int, error) {
	where := "WHERE 1=1"
	args := []any{}

	if !scope.AllTenants {
		args = append(args, scope.TenantID)
		where += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	} else if filter.TenantID != nil {
		args = append(args, *filter.TenantID)
		where += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		where += fmt.Sprintf(" AND entity = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM audit_logs "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
        SELECT id, ts, actor_id, tenant_id, action, coalesce(entity,''), coalesce(entity_id,''), metadata, result
        FROM audit_logs
        %s
        ORDER BY id DESC
        LIMIT $%d OFFSET $%d
    `, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.ActorID,
			&entry.TenantID,
			&entry.Action,
			&entry.Entity,
			&entry.EntityID,
			&metadata,
			&entry.Result,
		); err != nil {
			return nil, 0, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, 0, err
			}
		}
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return entries, total, nil
}

func nullableUUID(value uuid.NullUUID) any {
	if value.Valid {
		return value.UUID
	}
	return nil
}
