package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"marketplace-promotions/internal/config"
	"marketplace-promotions/internal/infra/payment"
	redisinfra "marketplace-promotions/internal/infra/redis"
	"marketplace-promotions/internal/usecase"
)

type Server struct {
	webhookUC usecase.WebhookUseCase
	adminUC   usecase.PromotionAdminUseCase
	verifier  *payment.Verifier
	auth      *AuthManager
	limiter   *redisinfra.RateLimiter
	adminCfg  config.AdminConfig
	log       *zerolog.Logger
}

func NewServer(
	webhookUC usecase.WebhookUseCase,
	adminUC usecase.PromotionAdminUseCase,
	verifier *payment.Verifier,
	auth *AuthManager,
	limiter *redisinfra.RateLimiter,
	adminCfg config.AdminConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		webhookUC: webhookUC,
		adminUC:   adminUC,
		verifier:  verifier,
		auth:      auth,
		limiter:   limiter,
		adminCfg:  adminCfg,
		log:       &l,
	}
}

// Router builds the full route tree. The webhook route skips the timeout and
// rate-limit guards: the provider's delivery semantics own that path.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/api/v1/payments/webhook", s.handleWebhook)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(Timeout(10 * time.Second))

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.auth), RateLimit(s.limiter, s.adminCfg.RatePerMinute, s.log))

			r.Post("/promotions/activate", s.handleActivate)
			r.Post("/promotions/deactivate", s.handleDeactivate)
			r.Get("/sales/{saleID}/promotions", s.handleListPromotions)
		})
	})

	return r
}
