package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/infra/logging"
	"marketplace-promotions/internal/infra/metrics"
	"marketplace-promotions/internal/usecase"
)

// SignatureHeader carries the provider's timestamped HMAC signature.
const SignatureHeader = "Webhook-Signature"

// Webhook bodies are small JSON envelopes; anything past this is abuse.
const maxWebhookBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeDomainError maps domain sentinels to stable HTTP codes. Anything
// unmapped is a 500 with no detail leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAdminToolsDisabled):
		writeError(w, http.StatusForbidden, "ADMIN_TOOLS_DISABLED", "admin test tools are disabled")
	case errors.Is(err, domain.ErrSaleNotFound):
		writeError(w, http.StatusNotFound, "SALE_NOT_FOUND", "sale not found")
	case errors.Is(err, domain.ErrSaleNotEligible):
		writeError(w, http.StatusUnprocessableEntity, "SALE_NOT_ELIGIBLE", "sale is not eligible for promotion")
	case errors.Is(err, domain.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "INVALID_WINDOW", "promotion window end must be after start")
	case errors.Is(err, domain.ErrNoActivePromotions):
		writeError(w, http.StatusNotFound, "NO_ACTIVE_PROMOTIONS", "sale has no active promotions")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

// ----- webhook -----

type webhookResponse struct {
	Processed  bool `json:"processed"`
	Idempotent bool `json:"idempotent,omitempty"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logging.With(ctx, s.log)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		metrics.IncWebhookRejected("malformed_body")
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "unreadable request body")
		return
	}

	ev, err := s.verifier.VerifyAndParse(body, r.Header.Get(SignatureHeader))
	if err != nil {
		// Both rejections are terminal: the provider retrying an unsigned or
		// garbled delivery will never succeed, but 400 is what its retry
		// policy expects.
		if errors.Is(err, domain.ErrInvalidSignature) {
			metrics.IncWebhookRejected("bad_signature")
			log.Warn().Msg("webhook signature rejected")
			writeError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "signature verification failed")
			return
		}
		metrics.IncWebhookRejected("malformed_body")
		log.Warn().Err(err).Msg("webhook body rejected")
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "malformed event payload")
		return
	}

	res, err := s.webhookUC.Process(ctx, ev)
	if err != nil {
		metrics.ObserveWebhookDuration("error", time.Since(start).Seconds())
		log.Error().Err(err).Str("event_id", ev.ID).Msg("webhook processing failed")
		writeError(w, http.StatusInternalServerError, "PROCESSING_FAILED", "event processing failed")
		return
	}

	outcome := "processed"
	if res.Idempotent {
		outcome = "idempotent"
	}
	metrics.ObserveWebhookDuration(outcome, time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, webhookResponse{Processed: res.Processed, Idempotent: res.Idempotent})
}

// ----- operator session -----

type loginRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if !s.auth.CheckOperatorKey(req.Key) {
		writeError(w, http.StatusUnauthorized, "INVALID_KEY", "invalid operator key")
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to mint session")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ----- admin promotion tool -----

type activateRequest struct {
	SaleID   string     `json:"sale_id"`
	Mode     string     `json:"mode"`
	Tier     string     `json:"tier"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

type promotionView struct {
	ID        string     `json:"id"`
	SaleID    string     `json:"sale_id"`
	Status    string     `json:"status"`
	Tier      string     `json:"tier"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func viewPromotion(p *model.Promotion) promotionView {
	return promotionView{
		ID:        p.ID,
		SaleID:    p.SaleID,
		Status:    string(p.Status),
		Tier:      string(p.Tier),
		StartsAt:  p.StartsAt,
		EndsAt:    p.EndsAt,
		CreatedAt: p.CreatedAt,
	}
}

func viewPromotions(ps []*model.Promotion) []promotionView {
	out := make([]promotionView, 0, len(ps))
	for _, p := range ps {
		out = append(out, viewPromotion(p))
	}
	return out
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.SaleID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "sale_id is required")
		return
	}
	tier := model.PromotionTier(req.Tier)
	if req.Tier == "" {
		tier = model.TierFeatured
	}

	promo, err := s.adminUC.Activate(r.Context(), usecase.ActivateParams{
		SaleID:   req.SaleID,
		Mode:     usecase.ActivationMode(req.Mode),
		Tier:     tier,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Promotion promotionView `json:"promotion"`
	}{Promotion: viewPromotion(promo)})
}

type deactivateRequest struct {
	SaleID string `json:"sale_id"`
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req deactivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.SaleID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "sale_id is required")
		return
	}

	expired, err := s.adminUC.Deactivate(r.Context(), req.SaleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Expired []promotionView `json:"expired"`
		Count   int             `json:"count"`
	}{Expired: viewPromotions(expired), Count: len(expired)})
}

func (s *Server) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "saleID")
	if saleID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "sale id is required")
		return
	}
	promos, err := s.adminUC.ListBySale(r.Context(), saleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []promotionView `json:"data"`
	}{Data: viewPromotions(promos)})
}
