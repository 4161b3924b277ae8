package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
)

var _ repository.PromotionRepository = (*promotionRepo)(nil)

type promotionRepo struct{ pool *pgxpool.Pool }

func NewPromotionRepo(pool *pgxpool.Pool) *promotionRepo {
	return &promotionRepo{pool: pool}
}

const promotionColumns = `id, sale_id, user_id, status, tier, starts_at, ends_at, amount_minor, currency, payment_intent_id, customer_id, checkout_session_id, created_at, updated_at, canceled_at, refunded_at`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	p := &model.Promotion{}
	err := row.Scan(&p.ID, &p.SaleID, &p.UserID, &p.Status, &p.Tier, &p.StartsAt, &p.EndsAt,
		&p.AmountMinor, &p.Currency, &p.PaymentIntentID, &p.CustomerID, &p.CheckoutSessionID,
		&p.CreatedAt, &p.UpdatedAt, &p.CanceledAt, &p.RefundedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *promotionRepo) Save(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	const q = `
INSERT INTO promotions (
  id, sale_id, user_id, status, tier, starts_at, ends_at, amount_minor, currency, payment_intent_id, customer_id, checkout_session_id, created_at, updated_at, canceled_at, refunded_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  status=$4, tier=$5, starts_at=$6, ends_at=$7, amount_minor=$8, currency=$9, payment_intent_id=$10, customer_id=$11, checkout_session_id=$12, updated_at=$14, canceled_at=$15, refunded_at=$16;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.SaleID, p.UserID, p.Status, p.Tier, p.StartsAt, p.EndsAt,
		p.AmountMinor, p.Currency, p.PaymentIntentID, p.CustomerID, p.CheckoutSessionID,
		p.CreatedAt, p.UpdatedAt, p.CanceledAt, p.RefundedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *promotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPromotion(row)
}

func (r *promotionRepo) FindByCheckoutSessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions WHERE checkout_session_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, sessionID)
	if err != nil {
		return nil, err
	}
	return scanPromotion(row)
}

func (r *promotionRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions WHERE payment_intent_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, intentID)
	if err != nil {
		return nil, err
	}
	return scanPromotion(row)
}

func (r *promotionRepo) ListBySale(ctx context.Context, tx repository.Tx, saleID string) ([]*model.Promotion, error) {
	q := `SELECT ` + promotionColumns + ` FROM promotions WHERE sale_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, saleID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	return collectPromotions(rows)
}

// Activate is the unconditional overwrite used for checkout completion:
// whatever the prior status was, the confirmed payment wins.
func (r *promotionRepo) Activate(ctx context.Context, tx repository.Tx, id, intentID, customerID string) error {
	const q = `UPDATE promotions SET status='active', payment_intent_id=$2, customer_id=$3, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, intentID, customerID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPromotionNotFound
	}
	return nil
}

// CancelIfPending atomically cancels only while the current status is still
// 'pending', so a late failure event for a retried session cannot clobber an
// already-active promotion.
func (r *promotionRepo) CancelIfPending(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
    UPDATE promotions
       SET status = 'canceled',
           canceled_at = $2,
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *promotionRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `UPDATE promotions SET status='refunded', refunded_at=$2, updated_at=NOW() WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPromotionNotFound
	}
	return nil
}

// ExpireLive expires every pending or active promotion of the sale. The status
// guard in the WHERE clause protects against rows that changed between the
// caller's read and this write.
func (r *promotionRepo) ExpireLive(ctx context.Context, tx repository.Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error) {
	const q = `
    UPDATE promotions
       SET status = 'expired',
           ends_at = $2,
           updated_at = NOW()
     WHERE sale_id = $1
       AND status IN ('pending','active')
 RETURNING ` + promotionColumns + `;`
	return r.expireReturning(ctx, tx, q, saleID, endsAt)
}

// ExpireActive only touches active rows; pending rows are the payment flow's
// to settle.
func (r *promotionRepo) ExpireActive(ctx context.Context, tx repository.Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error) {
	const q = `
    UPDATE promotions
       SET status = 'expired',
           ends_at = $2,
           updated_at = NOW()
     WHERE sale_id = $1
       AND status = 'active'
 RETURNING ` + promotionColumns + `;`
	return r.expireReturning(ctx, tx, q, saleID, endsAt)
}

func (r *promotionRepo) expireReturning(ctx context.Context, tx repository.Tx, q, saleID string, endsAt time.Time) ([]*model.Promotion, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, saleID, endsAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	return collectPromotions(rows)
}

func (r *promotionRepo) ExpireEnded(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
    UPDATE promotions
       SET status = 'expired',
           updated_at = NOW()
     WHERE status = 'active'
       AND ends_at IS NOT NULL
       AND ends_at <= $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func collectPromotions(rows pgx.Rows) ([]*model.Promotion, error) {
	var out []*model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
