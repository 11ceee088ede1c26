package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/vitrinedigital/plataforma/internal/audit"
	"github.com/vitrinedigital/plataforma/internal/auth"
	"github.com/vitrinedigital/plataforma/internal/config"
	"github.com/vitrinedigital/plataforma/internal/export"
	httpmiddleware "github.com/vitrinedigital/plataforma/internal/http/middleware"
	"github.com/vitrinedigital/plataforma/internal/obs"
	"github.com/vitrinedigital/plataforma/internal/rbac"
	"github.com/vitrinedigital/plataforma/internal/service"
	"github.com/vitrinedigital/plataforma/internal/tenant"
	"github.com/vitrinedigital/plataforma/internal/user"
	"github.com/vitrinedigital/plataforma/internal/util"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	users         *service.UserService
	tenants       *tenant.Service
	audit         *audit.Service
	exports       *export.Service
	csrf          *auth.CsrfService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	userRepo := user.NewRepository(pool)
	userService := service.NewUserService(userRepo)
	tenantRepo := tenant.NewRepository(pool)
	tenantService := tenant.NewService(tenantRepo)
	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	exportService := export.NewService(userRepo)
	csrfService := auth.NewCsrfService(redisClient, cfg.CsrfTokenTTL)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		users:         userService,
		tenants:       tenantService,
		audit:         auditService,
		exports:       exportService,
		csrf:          csrfService,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(obs.Instrument)

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Method(http.MethodGet, "/metrics", obs.Handler())

		public.Route("/auth", func(authRouter chi.Router) {
			authRouter.Post("/login", h.Login)
			authRouter.Post("/refresh", h.Refresh)
			authRouter.Post("/logout", h.Logout)
		})
	})

	// A ordem dos guards é fixa: frescor da sessão, depois CSRF, e a
	// autorização de negócio só roda dentro dos serviços.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))
		private.Use(httpmiddleware.Freshness(cfg.SessionMaxAge, cfg.SensitivePrefixes))
		private.Use(httpmiddleware.Csrf(csrfService))

		private.Get("/csrf-token", h.IssueCsrfToken)
		private.Get("/me", h.Me)
		private.Post("/auth/password", h.ChangeOwnPassword)

		private.Route("/users", func(u chi.Router) {
			u.Get("/", h.ListUsers)
			u.Post("/", h.CreateUser)
			u.Get("/export", h.ExportUsers)
			u.Patch("/{id}", h.UpdateUser)
			u.Delete("/{id}", h.DeleteUser)
			u.Post("/{id}/password", h.SetUserPassword)
		})

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireAdmin)

			admin.Get("/audit-logs", h.ListAuditLogs)
			admin.Get("/admin/stats", h.AdminStats)

			admin.Route("/tenants", func(t chi.Router) {
				t.Get("/", h.ListTenants)
				t.Post("/", h.CreateTenant)
				t.Patch("/{id}", h.UpdateTenant)
			})
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Login autentica usuários da plataforma.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.auditLogin(r.Context(), result)
	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona a sessão a partir do refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := getRefreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh inválido", nil)
			return
		}
		if errors.Is(err, service.ErrAccountDisabled) {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao renovar sessão", nil)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := getRefreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me retorna o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	profile, err := h.users.GetUser(r.Context(), actor, actor.ID)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}

// ChangeOwnPassword troca a senha do próprio usuário autenticado.
func (h *Handler) ChangeOwnPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.GetActor(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "sessão ausente", nil)
		return
	}

	var payload struct {
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.users.SetPassword(r.Context(), actor, actor.ID, payload.Senha); err != nil {
		h.recordAudit(r.Context(), actor, audit.Input{
			Action:   "user.password_change",
			Entity:   "user",
			EntityID: actor.ID.String(),
			Result:   audit.ResultFailure,
		})
		h.handleDomainError(w, err)
		return
	}

	h.recordAudit(r.Context(), actor, audit.Input{
		Action:   "user.password_change",
		Entity:   "user",
		EntityID: actor.ID.String(),
		Result:   audit.ResultSuccess,
	})

	WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

// handleDomainError traduz erros dos serviços para o envelope padrão. O corpo
// nunca carrega detalhe interno; isso fica nos logs.
func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado", nil)
	case errors.Is(err, rbac.ErrRoleInvalid):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "papel inválido", nil)
	case errors.Is(err, service.ErrTenantRequired):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "tenant obrigatório", nil)
	case errors.Is(err, util.ErrValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, user.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
	case errors.Is(err, tenant.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "tenant não encontrado", nil)
	default:
		log.Error().Err(err).Msg("erro não mapeado no handler")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

// recordAudit grava o evento e segue em frente. A falha da trilha já foi
// logada e contabilizada pelo serviço; a resposta da operação primária não
// muda por causa dela.
func (h *Handler) recordAudit(ctx context.Context, actor rbac.Actor, input audit.Input) {
	input.ActorID = actor.ID
	if actor.TenantID != uuid.Nil {
		input.TenantID = uuid.NullUUID{UUID: actor.TenantID, Valid: true}
	}
	if _, err := h.audit.Record(ctx, input); err != nil && !errors.Is(err, audit.ErrWriteFailed) {
		log.Warn().Err(err).Str("action", input.Action).Msg("evento de auditoria descartado")
	}
}

func (h *Handler) auditLogin(ctx context.Context, result *service.LoginResult) {
	h.recordAudit(ctx, rbac.Actor{ID: result.Subject, Role: result.Role, TenantID: result.TenantID}, audit.Input{
		Action:   "auth.login",
		Entity:   "user",
		EntityID: result.Subject.String(),
		Result:   audit.ResultSuccess,
	})
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"user":         result.Profile,
	})
}

const refreshCookieName = "refresh_token"

func getRefreshFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
