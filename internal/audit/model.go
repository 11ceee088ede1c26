package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrWriteFailed indica que a entrada não chegou ao store de auditoria.
	// É distinto do resultado da operação que originou o evento: a operação
	// primária pode ter sucedido com a trilha ainda não durável.
	ErrWriteFailed = errors.New("falha ao gravar auditoria")
	// ErrInvalidInput indica evento sem ação ou entidade.
	ErrInvalidInput = errors.New("evento de auditoria inválido")
)

// Resultados possíveis de um evento auditado.
const (
	ResultSuccess   = "success"
	ResultDenied    = "denied"
	ResultAttempted = "attempted"
	ResultFailure   = "failure"
)

// Entry é um registro imutável da trilha de auditoria. Não existe caminho de
// atualização ou remoção; correções são novas entradas.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   uuid.UUID      `json:"actor_id"`
	TenantID  uuid.NullUUID  `json:"tenant_id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Result    string         `json:"result"`
}

// Input descreve um evento a registrar. Metadata é copiada e mascarada antes
// de persistir; o mapa do chamador nunca é alterado.
type Input struct {
	ActorID  uuid.UUID
	TenantID uuid.NullUUID
	Action   string
	Entity   string
	EntityID string
	Metadata map[string]any
	Result   string
}

// ListFilter restringe a listagem da trilha.
type ListFilter struct {
	TenantID *uuid.UUID
	Action   string
	Entity   string
}
