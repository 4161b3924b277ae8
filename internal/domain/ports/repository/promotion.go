package repository

import (
	"context"
	"time"

	"marketplace-promotions/internal/domain/model"
)

// -----------------------------
// Promotions
// -----------------------------

type PromotionRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Promotion) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Promotion, error)
	// FindByCheckoutSessionID resolves the promotion created for a provider
	// checkout session; used when failure events carry no metadata.
	FindByCheckoutSessionID(ctx context.Context, tx Tx, sessionID string) (*model.Promotion, error)
	// FindByPaymentIntentID resolves the promotion a refund belongs to.
	FindByPaymentIntentID(ctx context.Context, tx Tx, intentID string) (*model.Promotion, error)
	ListBySale(ctx context.Context, tx Tx, saleID string) ([]*model.Promotion, error)

	// Activate unconditionally moves the promotion to active and attaches the
	// provider payment intent and customer identifiers.
	Activate(ctx context.Context, tx Tx, id, intentID, customerID string) error
	// CancelIfPending moves the promotion to canceled only while its current
	// status is still pending; reports whether a row was touched.
	CancelIfPending(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
	// MarkRefunded moves the promotion to refunded regardless of prior status.
	MarkRefunded(ctx context.Context, tx Tx, id string, at time.Time) error

	// ExpireLive expires every pending or active promotion of the sale with a
	// status-guarded bulk update and returns the rows it touched.
	ExpireLive(ctx context.Context, tx Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error)
	// ExpireActive is the deactivate variant: it only touches active rows.
	ExpireActive(ctx context.Context, tx Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error)
	// ExpireEnded closes out active promotions whose window has passed;
	// used by the scheduled worker. Returns the number of rows expired.
	ExpireEnded(ctx context.Context, tx Tx, now time.Time) (int, error)
}
