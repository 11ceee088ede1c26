package http

import (
	"net/http"

	"github.com/vitrinedigital/plataforma/internal/audit"
	"github.com/vitrinedigital/plataforma/internal/export"
	httpmiddleware "github.com/vitrinedigital/plataforma/internal/http/middleware"
)

// ExportUsers gera o relatório de usuários do escopo do actor, em CSV ou
// JSON. O filtro de tenant e o teto de papel entram na query; o handler só
// formata o que o serviço devolveu.
func (h *Handler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "format deve ser csv ou json", nil)
		return
	}

	filter, err := parseUserFilter(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	records, err := h.exports.Export(r.Context(), actor, filter)
	if err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "user.export",
			Entity:   "user",
			Metadata: map[string]any{"format": format},
			Result:   userAuditResult(err),
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "user.export",
		Entity:   "user",
		Metadata: map[string]any{"format": format, "count": len(records)},
		Result:   audit.ResultSuccess,
	})

	if format == "json" {
		WriteJSON(w, http.StatusOK, map[string]any{"users": records})
		return
	}

	body, err := export.ConvertToCSV(records)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível gerar CSV", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="usuarios.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
