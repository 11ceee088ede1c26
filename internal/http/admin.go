package http

import (
	"net/http"
)

type platformStats struct {
	UsersTotal    int64 `json:"users_total"`
	UsersActive   int64 `json:"users_active"`
	TenantsTotal  int64 `json:"tenants_total"`
	TenantsActive int64 `json:"tenants_active"`
	AuditEntries  int64 `json:"audit_entries"`
	Logins24h     int64 `json:"logins_24h"`
}

// AdminStats agrega contadores gerais da plataforma para o painel.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM users) AS users_total,
            (SELECT COUNT(*) FROM users WHERE active) AS users_active,
            (SELECT COUNT(*) FROM tenants) AS tenants_total,
            (SELECT COUNT(*) FROM tenants WHERE active) AS tenants_active,
            (SELECT COUNT(*) FROM audit_logs) AS audit_entries,
            (SELECT COUNT(*) FROM users WHERE last_login_at >= now() - interval '24 hours') AS logins_24h
    `

	var stats platformStats
	row := h.pool.QueryRow(r.Context(), query)
	if err := row.Scan(
		&stats.UsersTotal,
		&stats.UsersActive,
		&stats.TenantsTotal,
		&stats.TenantsActive,
		&stats.AuditEntries,
		&stats.Logins24h,
	); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar métricas", nil)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}
