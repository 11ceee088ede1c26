package audit

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/vitrinedigital/plataforma/internal/obs"
	"github.com/vitrinedigital/plataforma/internal/rbac"
)

type repository interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, scope rbac.Scope, filter ListFilter, page, pageSize int) ([]Entry, int, error)
}

// Service é o único escritor da trilha de auditoria.
type Service struct {
	repo repository

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewService cria o serviço com fonte de entropia monotônica: ids gerados em
// sequência nunca decrescem, mesmo dentro do mesmo milissegundo.
func NewService(repo repository) *Service {
	return &Service{
		repo:    repo,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *Service) newID(ts time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(ts), s.entropy).String()
}

// Record mascara o metadata, atribui id e timestamp e persiste a entrada.
// A gravação usa um contexto desvinculado do cancelamento da requisição:
// uma tentativa abortada pelo cliente ainda deixa rastro forense.
//
// Falha de persistência devolve ErrWriteFailed, é logada e contabilizada em
// audit_write_failures_total. O chamador decide se a operação primária
// permanece válida; o que não existe é falha silenciosa.
func (s *Service) Record(ctx context.Context, input Input) (Entry, error) {
	action := strings.TrimSpace(input.Action)
	if action == "" {
		return Entry{}, ErrInvalidInput
	}

	result := input.Result
	if result == "" {
		result = ResultAttempted
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:        s.newID(now),
		Timestamp: now,
		ActorID:   input.ActorID,
		TenantID:  input.TenantID,
		Action:    action,
		Entity:    strings.TrimSpace(input.Entity),
		EntityID:  strings.TrimSpace(input.EntityID),
		Metadata:  MaskPII(input.Metadata),
		Result:    result,
	}

	if err := s.repo.Insert(context.WithoutCancel(ctx), entry); err != nil {
		obs.AuditWriteFailures.Inc()
		log.Error().Err(err).
			Str("audit_id", entry.ID).
			Str("action", entry.Action).
			Msg("gravação de auditoria falhou")
		return entry, ErrWriteFailed
	}

	return entry, nil
}

// List devolve uma página da trilha dentro do escopo informado.
func (s *Service) List(ctx context.Context, scope rbac.Scope, filter ListFilter, page, pageSize int) ([]Entry, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	return s.repo.List(ctx, scope, filter, page, pageSize)
}
