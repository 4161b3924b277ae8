package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
	"marketplace-promotions/internal/infra/logging"
	"marketplace-promotions/internal/infra/metrics"
)

// ActivationMode selects how a test promotion's window is derived.
type ActivationMode string

const (
	// ModeSevenDaysBeforeStart anchors the window to the sale's start date:
	// the promotion runs the seven days leading up to it.
	ModeSevenDaysBeforeStart ActivationMode = "seven_days_before_start"
	// ModeNowPlus7 runs from the moment of activation for seven days.
	ModeNowPlus7 ActivationMode = "now_plus_7"
	// ModeCustom takes an explicit window from the operator.
	ModeCustom ActivationMode = "custom"
)

const defaultWindow = 7 * 24 * time.Hour

type ActivateParams struct {
	SaleID   string
	Mode     ActivationMode
	Tier     model.PromotionTier
	StartsAt *time.Time // custom mode only
	EndsAt   *time.Time // custom mode only
}

type PromotionAdminUseCase interface {
	// Activate expires every live promotion on the sale and inserts a fresh
	// active test promotion, atomically. At most one live promotion per sale
	// survives the call.
	Activate(ctx context.Context, params ActivateParams) (*model.Promotion, error)
	// Deactivate expires the sale's active promotions and returns them.
	// Returns domain.ErrNoActivePromotions when there was nothing to expire.
	Deactivate(ctx context.Context, saleID string) ([]*model.Promotion, error)
	ListBySale(ctx context.Context, saleID string) ([]*model.Promotion, error)
	// ExpireEnded closes out promotions whose window has elapsed; called by
	// the scheduler, not the operator API.
	ExpireEnded(ctx context.Context) (int, error)
}

var _ PromotionAdminUseCase = (*promotionAdminUC)(nil)

type promotionAdminUC struct {
	saleRepo     repository.SaleRepository
	promoRepo    repository.PromotionRepository
	tm           repository.TransactionManager
	toolsEnabled bool
	log          *zerolog.Logger
}

func NewPromotionAdminUseCase(
	saleRepo repository.SaleRepository,
	promoRepo repository.PromotionRepository,
	tm repository.TransactionManager,
	toolsEnabled bool,
	logger *zerolog.Logger,
) *promotionAdminUC {
	l := logger.With().Str("component", "promotion_admin_uc").Logger()
	return &promotionAdminUC{
		saleRepo:     saleRepo,
		promoRepo:    promoRepo,
		tm:           tm,
		toolsEnabled: toolsEnabled,
		log:          &l,
	}
}

func (u *promotionAdminUC) Activate(ctx context.Context, params ActivateParams) (*model.Promotion, error) {
	ctx = logging.WithSaleID(ctx, params.SaleID)
	defer logging.TraceDuration(logging.With(ctx, u.log), "Activate")()

	if !u.toolsEnabled {
		return nil, domain.ErrAdminToolsDisabled
	}
	if !model.ValidTier(params.Tier) {
		return nil, fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, params.Tier)
	}

	sale, err := u.saleRepo.FindByID(ctx, repository.NoTX, params.SaleID)
	if err != nil {
		metrics.IncAdminPromotionOp("activate", "error")
		return nil, err
	}
	if !sale.Promotable() {
		metrics.IncAdminPromotionOp("activate", "rejected")
		return nil, domain.ErrSaleNotEligible
	}

	startsAt, endsAt, err := resolveWindow(params, sale, time.Now())
	if err != nil {
		metrics.IncAdminPromotionOp("activate", "rejected")
		return nil, err
	}

	promo, err := model.NewTestPromotion("", sale.ID, sale.OwnerID, params.Tier, startsAt, endsAt)
	if err != nil {
		return nil, err
	}

	// Expire-then-insert must be atomic: a crash between the two would
	// otherwise leave the sale with no live promotion at all.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		expired, err := u.promoRepo.ExpireLive(ctx, tx, sale.ID, time.Now())
		if err != nil {
			return err
		}
		if len(expired) > 0 {
			u.log.Info().Str("sale_id", sale.ID).Int("expired", len(expired)).
				Msg("expired prior promotions before activation")
		}
		return u.promoRepo.Save(ctx, tx, promo)
	})
	if err != nil {
		metrics.IncAdminPromotionOp("activate", "error")
		return nil, err
	}

	metrics.IncAdminPromotionOp("activate", "ok")
	u.log.Info().Str("sale_id", sale.ID).Str("promotion_id", promo.ID).
		Str("mode", string(params.Mode)).Time("starts_at", startsAt).Time("ends_at", endsAt).
		Msg("test promotion activated")
	return promo, nil
}

func resolveWindow(params ActivateParams, sale *model.Sale, now time.Time) (time.Time, time.Time, error) {
	var startsAt, endsAt time.Time
	switch params.Mode {
	case ModeNowPlus7:
		startsAt = now
		endsAt = now.Add(defaultWindow)
	case ModeSevenDaysBeforeStart:
		if sale.StartsAt == nil {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"%w: sale has no start date to anchor the window", domain.ErrInvalidArgument)
		}
		endsAt = *sale.StartsAt
		startsAt = endsAt.Add(-defaultWindow)
	case ModeCustom:
		if params.StartsAt == nil || params.EndsAt == nil {
			return time.Time{}, time.Time{}, fmt.Errorf(
				"%w: custom mode requires starts_at and ends_at", domain.ErrInvalidArgument)
		}
		startsAt = *params.StartsAt
		endsAt = *params.EndsAt
	default:
		return time.Time{}, time.Time{}, fmt.Errorf(
			"%w: unknown activation mode %q", domain.ErrInvalidArgument, params.Mode)
	}
	if err := model.ValidateWindow(startsAt, endsAt); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startsAt, endsAt, nil
}

func (u *promotionAdminUC) Deactivate(ctx context.Context, saleID string) ([]*model.Promotion, error) {
	ctx = logging.WithSaleID(ctx, saleID)
	defer logging.TraceDuration(logging.With(ctx, u.log), "Deactivate")()

	if !u.toolsEnabled {
		return nil, domain.ErrAdminToolsDisabled
	}

	if _, err := u.saleRepo.FindByID(ctx, repository.NoTX, saleID); err != nil {
		metrics.IncAdminPromotionOp("deactivate", "error")
		return nil, err
	}

	expired, err := u.promoRepo.ExpireActive(ctx, repository.NoTX, saleID, time.Now())
	if err != nil {
		metrics.IncAdminPromotionOp("deactivate", "error")
		return nil, err
	}
	if len(expired) == 0 {
		metrics.IncAdminPromotionOp("deactivate", "rejected")
		return nil, domain.ErrNoActivePromotions
	}

	metrics.IncAdminPromotionOp("deactivate", "ok")
	u.log.Info().Str("sale_id", saleID).Int("expired", len(expired)).Msg("promotions deactivated")
	return expired, nil
}

func (u *promotionAdminUC) ListBySale(ctx context.Context, saleID string) ([]*model.Promotion, error) {
	if _, err := u.saleRepo.FindByID(ctx, repository.NoTX, saleID); err != nil {
		return nil, err
	}
	return u.promoRepo.ListBySale(ctx, repository.NoTX, saleID)
}

func (u *promotionAdminUC) ExpireEnded(ctx context.Context) (int, error) {
	n, err := u.promoRepo.ExpireEnded(ctx, repository.NoTX, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddPromotionsExpired(n)
		u.log.Info().Int("expired", n).Msg("expired ended promotions")
	}
	return n, nil
}
