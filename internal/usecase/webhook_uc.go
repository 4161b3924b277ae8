package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
	"marketplace-promotions/internal/infra/logging"
	"marketplace-promotions/internal/infra/metrics"
)

// WebhookResult tells the transport how an event was handled so the response
// body can say whether this delivery did the work or a prior one already had.
type WebhookResult struct {
	Processed  bool
	Idempotent bool
}

type WebhookUseCase interface {
	// Process records the event in the idempotency ledger and, for the first
	// delivery only, applies its promotion state transition. Redeliveries
	// return Idempotent=true without touching promotions.
	Process(ctx context.Context, ev *model.PaymentEvent) (WebhookResult, error)
}

var _ WebhookUseCase = (*webhookUC)(nil)

type webhookUC struct {
	eventRepo repository.WebhookEventRepository
	promoRepo repository.PromotionRepository
	log       *zerolog.Logger
}

func NewWebhookUseCase(
	eventRepo repository.WebhookEventRepository,
	promoRepo repository.PromotionRepository,
	logger *zerolog.Logger,
) *webhookUC {
	l := logger.With().Str("component", "webhook_uc").Logger()
	return &webhookUC{
		eventRepo: eventRepo,
		promoRepo: promoRepo,
		log:       &l,
	}
}

func (u *webhookUC) Process(ctx context.Context, ev *model.PaymentEvent) (WebhookResult, error) {
	ctx = logging.WithEventID(ctx, ev.ID)
	defer logging.TraceDuration(logging.With(ctx, u.log), "Process")()

	record := &model.WebhookEvent{
		ID:          ulid.Make().String(),
		EventID:     ev.ID,
		EventType:   ev.Type,
		ProcessedAt: time.Now(),
	}
	isNew, err := u.eventRepo.RecordIfNew(ctx, repository.NoTX, record)
	if err != nil {
		metrics.IncWebhookEvent(ev.Type, "error")
		return WebhookResult{}, err
	}
	if !isNew {
		// The ledger row exists whether or not the first delivery's business
		// logic succeeded, so a redelivery after a transient failure is
		// swallowed here too. Failed events stay visible via last_error.
		u.log.Info().Str("event_id", ev.ID).Str("type", ev.Type).Msg("duplicate delivery, skipping")
		metrics.IncWebhookEvent(ev.Type, "idempotent")
		return WebhookResult{Processed: false, Idempotent: true}, nil
	}

	if err := u.apply(ctx, ev); err != nil {
		if mErr := u.eventRepo.MarkError(ctx, repository.NoTX, ev.ID, err.Error()); mErr != nil {
			u.log.Error().Err(mErr).Str("event_id", ev.ID).Msg("failed to record event error")
		}
		metrics.IncWebhookEvent(ev.Type, "error")
		return WebhookResult{}, err
	}

	metrics.IncWebhookEvent(ev.Type, "processed")
	return WebhookResult{Processed: true}, nil
}

func (u *webhookUC) apply(ctx context.Context, ev *model.PaymentEvent) error {
	now := time.Now()

	switch data := ev.Data.(type) {
	case model.CheckoutCompleted:
		if data.PromotionID == "" {
			u.log.Warn().Str("event_id", ev.ID).Str("session_id", data.SessionID).
				Msg("completed checkout carries no promotion id, nothing to activate")
			return nil
		}
		err := u.promoRepo.Activate(ctx, repository.NoTX, data.PromotionID, data.IntentID, data.CustomerID)
		if errors.Is(err, domain.ErrPromotionNotFound) {
			u.log.Warn().Str("event_id", ev.ID).Str("promotion_id", data.PromotionID).
				Msg("completed checkout references unknown promotion")
			return nil
		}
		if err != nil {
			return err
		}
		metrics.IncPromotionTransition("activated")
		u.log.Info().Str("promotion_id", data.PromotionID).Msg("promotion activated")
		return nil

	case model.CheckoutExpired:
		return u.cancelIfPending(ctx, ev.ID, data.PromotionID, data.SessionID, now)

	case model.PaymentFailed:
		return u.cancelIfPending(ctx, ev.ID, data.PromotionID, data.SessionID, now)

	case model.Refunded:
		if data.IntentID == "" {
			u.log.Warn().Str("event_id", ev.ID).Msg("refund event carries no payment intent")
			return nil
		}
		promo, err := u.promoRepo.FindByPaymentIntentID(ctx, repository.NoTX, data.IntentID)
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("event_id", ev.ID).Str("payment_intent_id", data.IntentID).
				Msg("refund for unknown payment intent")
			return nil
		}
		if err != nil {
			return err
		}
		if err := u.promoRepo.MarkRefunded(ctx, repository.NoTX, promo.ID, now); err != nil {
			return err
		}
		metrics.IncPromotionTransition("refunded")
		u.log.Info().Str("promotion_id", promo.ID).Str("payment_intent_id", data.IntentID).
			Msg("promotion refunded")
		return nil

	case model.UnknownEvent:
		u.log.Info().Str("event_id", ev.ID).Str("type", data.RawType).Msg("unhandled event type, acknowledged")
		return nil

	default:
		// Unreachable while the union stays closed.
		u.log.Error().Str("event_id", ev.ID).Str("type", ev.Type).Msg("event decoded to no known variant")
		return nil
	}
}

// cancelIfPending resolves the target promotion, preferring the metadata id
// and falling back to a checkout session lookup, then cancels it only if it
// is still pending. Active promotions stay untouched: a stale failure event
// must never claw back a promotion a later success already activated.
func (u *webhookUC) cancelIfPending(ctx context.Context, eventID, promotionID, sessionID string, at time.Time) error {
	if promotionID == "" && sessionID != "" {
		promo, err := u.promoRepo.FindByCheckoutSessionID(ctx, repository.NoTX, sessionID)
		if errors.Is(err, domain.ErrNotFound) {
			u.log.Warn().Str("event_id", eventID).Str("session_id", sessionID).
				Msg("no promotion for checkout session")
			return nil
		}
		if err != nil {
			return err
		}
		promotionID = promo.ID
	}
	if promotionID == "" {
		u.log.Warn().Str("event_id", eventID).Msg("event resolves to no promotion, nothing to cancel")
		return nil
	}

	canceled, err := u.promoRepo.CancelIfPending(ctx, repository.NoTX, promotionID, at)
	if err != nil {
		return err
	}
	if !canceled {
		u.log.Info().Str("promotion_id", promotionID).Msg("promotion not pending, cancel skipped")
		return nil
	}
	metrics.IncPromotionTransition("canceled")
	u.log.Info().Str("promotion_id", promotionID).Msg("promotion canceled")
	return nil
}
